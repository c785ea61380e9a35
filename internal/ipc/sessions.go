package ipc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voicebot/internal/convo"
)

// SessionHandler applies control commands to every live session returned
// by list.
func SessionHandler(list func() []*convo.Session) Handler {
	return func(ctx context.Context, msg ControlMessage) ControlReply {
		sessions := list()

		switch strings.ToLower(msg.Cmd) {
		case CmdStatus:
			return ControlReply{OK: true, Sessions: statuses(sessions)}

		case CmdEnd:
			for _, s := range sessions {
				s.End()
			}
			return ControlReply{OK: true, Sessions: statuses(sessions)}

		case CmdSay:
			if strings.TrimSpace(msg.Arg) == "" {
				return ControlReply{Error: "say: empty message"}
			}
			return broadcast(ctx, sessions, msg.Arg)

		case CmdKey:
			return broadcast(ctx, sessions, "key:"+msg.Arg)
		}

		return ControlReply{Error: fmt.Sprintf("unknown command %q", msg.Cmd)}
	}
}

func broadcast(ctx context.Context, sessions []*convo.Session, text string) ControlReply {
	if len(sessions) == 0 {
		return ControlReply{Error: "no active session"}
	}

	var errs []error
	for _, s := range sessions {
		if err := s.HandleInbound(ctx, text); err != nil && !errors.Is(err, convo.ErrSessionEnded) {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return ControlReply{Error: err.Error(), Sessions: statuses(sessions)}
	}
	return ControlReply{OK: true, Sessions: statuses(sessions)}
}

func statuses(sessions []*convo.Session) []SessionStatus {
	out := make([]SessionStatus, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionStatus{
			ID:         s.ID(),
			State:      s.State().String(),
			Retries:    s.Retries(),
			Credential: s.HasCredential(),
		})
	}
	return out
}
