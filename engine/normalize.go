package engine

import (
	"strings"

	"botique/models"
)

// Normalized is the canonical form of an inbound message used by every
// downstream stage. Upper is the uppercased, trimmed text used for exact
// keyword comparisons; Text keeps original casing for storage and AI
// context.
type Normalized struct {
	Text     string
	Upper    string
	MediaURL string
}

// Normalize maps a transport event to its canonical tuple. Returns
// ok=false for events the engine ignores entirely: unknown types, or
// events with neither text nor media.
func Normalize(in Inbound) (Normalized, bool) {
	var text, mediaURL string

	switch in.Type {
	case models.EVENT_TYPE_TEXT:
		text = strings.TrimSpace(in.Text)
	case models.EVENT_TYPE_INTERACTIVE:
		// Prefer the machine id of the tapped row/button; fall back to
		// the human title when the id is empty.
		text = strings.TrimSpace(in.InteractiveID)
		if text == "" {
			text = strings.TrimSpace(in.InteractiveTitle)
		}
	case models.EVENT_TYPE_IMAGE, models.EVENT_TYPE_VIDEO, models.EVENT_TYPE_AUDIO, models.EVENT_TYPE_DOCUMENT:
		text = strings.TrimSpace(in.Text) // caption, when present
		mediaURL = strings.TrimSpace(in.MediaURL)
	default:
		return Normalized{}, false
	}

	if text == "" && mediaURL == "" {
		return Normalized{}, false
	}

	return Normalized{
		Text:     text,
		Upper:    strings.ToUpper(text),
		MediaURL: mediaURL,
	}, true
}
