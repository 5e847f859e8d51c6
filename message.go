package widget

import (
	"strconv"
)

// TypeResize is the only message type understood by the loader.
const TypeResize = "resize"

// ResizeMessage reports the rendered scroll height of the embedded frame
// content, in pixels. Each message carries the absolute height rather than a
// delta so the last message processed always describes the current content.
type ResizeMessage struct {
	Height float64
}

// Pixels returns the height formatted as a CSS pixel length, such as "850px".
func (m *ResizeMessage) Pixels() string {
	return pixels(m.Height)
}

func pixels(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "px"
}

type message struct {
	// Type of message.
	Type   string   `json:"type"`
	Height *float64 `json:"height,omitempty"`
}
