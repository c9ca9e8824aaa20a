package store

import (
	"time"

	"github.com/google/uuid"

	"style-classifier-be/pkg/ranking"
)

// ClassificationSession bridges "result shown" and "user decided" for a
// single user. Sessions are replace-on-conflict: they are never mutated in
// place except for the state marker.
type ClassificationSession struct {
	UserID     uuid.UUID           `json:"user_id"`
	Candidates []ranking.Candidate `json:"candidates"`
	ImageHash  string              `json:"image_hash"`
	Vector     []float32           `json:"vector"`

	// SpoolPath is the staged copy of the uploaded image. It is released by
	// the session store on every removal path, including TTL expiry.
	SpoolPath string `json:"spool_path"`

	// State tracks whether the user already rejected the top candidate.
	State string `json:"state"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	// StateAwaitingDecision: candidates shown, waiting for confirm/reject.
	StateAwaitingDecision = "AWAITING_DECISION"

	// StateReselecting: top candidate rejected, waiting for an explicit pick.
	StateReselecting = "RESELECTING"
)

// Top returns the highest-ranked candidate.
func (s *ClassificationSession) Top() ranking.Candidate {
	return s.Candidates[0]
}
