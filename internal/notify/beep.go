// Package notify plays short sounds that tell the user what the bot is doing.
package notify

import (
	"context"
	"fmt"
	"os"
)

// FilePlayer plays an audio file to completion.
type FilePlayer interface {
	PlayFile(ctx context.Context, path string) error
}

// Beep is the listening cue: a sound file played before every capture.
type Beep struct {
	Path   string
	Player FilePlayer
}

// NewBeep checks that path exists. An empty path gives a silent cue.
func NewBeep(path string, player FilePlayer) (*Beep, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("listening cue: %w", err)
		}
	}
	return &Beep{Path: path, Player: player}, nil
}

func (b *Beep) Play(ctx context.Context) error {
	if b == nil || b.Path == "" || b.Player == nil {
		return nil
	}
	return b.Player.PlayFile(ctx, b.Path)
}
