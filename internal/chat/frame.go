// Package chat is the text side of a conversation: a web chat served over a
// websocket, and a terminal client for it.
package chat

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindMessage Kind = "message"
	KindEnd     Kind = "end"
)

const (
	FromBot  = "voicebot"
	FromUser = "user"
)

// Frame is one websocket text frame in either direction.
type Frame struct {
	From    string `json:"from"`
	Kind    Kind   `json:"kind"`
	Content string `json:"content,omitempty"`
}

// ParseFrame decodes an inbound frame. Anything that is not a JSON object is
// taken as a plain user message.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) == 0 || data[0] != '{' {
		return Frame{From: FromUser, Kind: KindMessage, Content: string(data)}, nil
	}

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("chat: bad frame: %w", err)
	}
	if f.Kind == "" {
		f.Kind = KindMessage
	}
	return f, nil
}
