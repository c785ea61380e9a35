package convo

import (
	"strings"
)

// FailureKind classifies a failed transcription attempt.
type FailureKind int

const (
	NoFailure FailureKind = iota
	NoSpeech              // audio captured but nothing intelligible
	ServiceError          // recorder or transcription backend failed
	Timeout               // nobody started speaking in time
)

func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "none"
	case NoSpeech:
		return "no_speech"
	case ServiceError:
		return "service_error"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// Message is the canned reply for a failure.
func (k FailureKind) Message() string {
	switch k {
	case NoSpeech:
		return MsgNoSpeech
	case Timeout:
		return MsgTimeout
	default:
		return MsgServiceError
	}
}

// Utterance is the result of one transcription attempt.
type Utterance struct {
	Text    string
	Failure FailureKind
	Err     error
}

// Said is a successful transcription.
func Said(text string) Utterance { return Utterance{Text: text} }

// Missed is a failed transcription.
func Missed(kind FailureKind, err error) Utterance {
	return Utterance{Failure: kind, Err: err}
}

// OK reports whether the attempt produced text.
func (u Utterance) OK() bool { return u.Failure == NoFailure }

var exitTokens = []string{"exit", "quit", "bye", "goodbye"}

// HasExitToken reports whether s contains an exit token anywhere, case
// insensitive. "byebye" and "quitting" end a session too.
func HasExitToken(s string) bool {
	s = strings.ToLower(s)
	for _, tok := range exitTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// ParseKeyCommand extracts the token from a "key:<token>" message.
func ParseKeyCommand(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 || !strings.EqualFold(s[:4], "key:") {
		return "", false
	}
	return strings.TrimSpace(s[4:]), true
}
