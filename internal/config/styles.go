package config

import (
	"encoding/json"
	"fmt"
	"os"

	"style-classifier-be/internal/pkg/apperr"
)

// Style is one entry of the closed style enumeration: a canonical key used
// for storage plus a human-facing display name.
type Style struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// StyleCatalog is the ordered style enumeration. The order is part of the
// contract: ranking ties are broken by position in this list.
type StyleCatalog struct {
	styles []Style
	index  map[string]int
}

// defaultStyles mirrors the catalog the service was trained against.
var defaultStyles = []Style{
	{"avangard", "авангард"},
	{"babiy", "бабий стиль"},
	{"bokho", "бохо"},
	{"business_casual", "бизнес-кэжуал"},
	{"casual", "кэжуал"},
	{"classic", "классика"},
	{"dendy", "денди"},
	{"feminine", "феминный"},
	{"ethnicity", "этнический"},
	{"drama", "драматический"},
	{"grunge", "гранж"},
	{"jokey", "жокей"},
	{"military", "милитари"},
	{"minimalism", "минимализм"},
	{"old_money", "олд мани"},
	{"preppy", "преппи"},
	{"quiet_luxury", "тихая роскошь"},
	{"retro", "ретро"},
	{"romance", "романтический"},
	{"safari", "сафари"},
	{"sailor", "морской стиль"},
	{"smart_casual", "смарт-кэжуал"},
	{"strange", "странный"},
	{"vintazh", "винтаж"},
}

// LoadStyleCatalog reads an ordered style list from a JSON file, falling back
// to the built-in catalog when path is empty.
func LoadStyleCatalog(path string) (StyleCatalog, error) {
	styles := defaultStyles
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return StyleCatalog{}, fmt.Errorf("%w: read style catalog %s: %v", apperr.ErrConfiguration, path, err)
		}
		var loaded []Style
		if err := json.Unmarshal(data, &loaded); err != nil {
			return StyleCatalog{}, fmt.Errorf("%w: parse style catalog %s: %v", apperr.ErrConfiguration, path, err)
		}
		styles = loaded
	}
	return NewStyleCatalog(styles)
}

func NewStyleCatalog(styles []Style) (StyleCatalog, error) {
	index := make(map[string]int, len(styles))
	for i, s := range styles {
		if s.Key == "" {
			return StyleCatalog{}, fmt.Errorf("%w: style at position %d has empty key", apperr.ErrConfiguration, i)
		}
		if _, dup := index[s.Key]; dup {
			return StyleCatalog{}, fmt.Errorf("%w: duplicate style key %q", apperr.ErrConfiguration, s.Key)
		}
		index[s.Key] = i
	}
	return StyleCatalog{styles: styles, index: index}, nil
}

func (c StyleCatalog) Validate(topK int) error {
	if len(c.styles) < topK {
		return fmt.Errorf("%w: catalog has %d styles, need at least %d", apperr.ErrConfiguration, len(c.styles), topK)
	}
	return nil
}

func (c StyleCatalog) Len() int {
	return len(c.styles)
}

// Styles returns the enumeration in canonical order.
func (c StyleCatalog) Styles() []Style {
	return c.styles
}

// Keys returns the canonical keys in catalog order.
func (c StyleCatalog) Keys() []string {
	keys := make([]string, len(c.styles))
	for i, s := range c.styles {
		keys[i] = s.Key
	}
	return keys
}

// Position reports the tie-break rank of a key. Unknown keys return false.
func (c StyleCatalog) Position(key string) (int, bool) {
	i, ok := c.index[key]
	return i, ok
}

// DisplayName resolves a key to its display name, falling back to the key
// itself for unknown entries.
func (c StyleCatalog) DisplayName(key string) string {
	if i, ok := c.index[key]; ok {
		return c.styles[i].DisplayName
	}
	return key
}

func (c StyleCatalog) Contains(key string) bool {
	_, ok := c.index[key]
	return ok
}
