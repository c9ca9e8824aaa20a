package dto

import (
	"time"

	"style-classifier-be/pkg/ranking"
)

// ClassifyResponse is returned for a fresh classification. Candidates are
// ranked descending; the caller answers with confirm, reject or select.
type ClassifyResponse struct {
	Candidates []ranking.Candidate `json:"candidates"`
	ImageHash  string              `json:"image_hash"`
}

// PriorMatchResponse is returned when the exact image content was already
// confirmed by this user; no model call is made.
type PriorMatchResponse struct {
	Style       string `json:"style"`
	DisplayName string `json:"display_name"`
	ImageHash   string `json:"image_hash"`
}

type SelectStyleRequest struct {
	Style string `json:"style" validate:"required"`
}

// DecisionResponse reports the saved style. Duplicate means the vector for
// this image content already existed; the association was still recorded and
// the operation succeeded.
type DecisionResponse struct {
	Style       string `json:"style"`
	DisplayName string `json:"display_name"`
	Duplicate   bool   `json:"duplicate"`
}

// RejectResponse echoes the pending candidates plus the full catalog the
// user may pick from.
type RejectResponse struct {
	Candidates []ranking.Candidate `json:"candidates"`
	Styles     []StyleOption       `json:"styles"`
}

type StyleOption struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

type HistoryEntry struct {
	Style       string    `json:"style"`
	DisplayName string    `json:"display_name"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

type RecentStyleResponse struct {
	Style       string `json:"style"`
	DisplayName string `json:"display_name"`
}

type PopularityEntry struct {
	Style       string `json:"style"`
	DisplayName string `json:"display_name"`
	Count       int64  `json:"count"`
}

// StyleConfirmedMessage is the payload published on the in-process bus after
// every successful decision.
type StyleConfirmedMessage struct {
	UserId    string `json:"user_id"`
	Style     string `json:"style"`
	ImageHash string `json:"image_hash"`
	Duplicate bool   `json:"duplicate"`
}
