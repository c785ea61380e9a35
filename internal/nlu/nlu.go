// Package nlu resolves a transcript into a reply: the canned rules first,
// then an LLM completion.
package nlu

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"unicode"
)

var (
	// ErrInvalidKey is returned by a Factory that cannot build a client from
	// the supplied key.
	ErrInvalidKey = errors.New("nlu: invalid API key")

	// ErrEmptyCompletion is returned when the backend produced no text.
	ErrEmptyCompletion = errors.New("nlu: empty completion")
)

// Request is a single-shot chat completion.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer is the LLM collaborator.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Factory builds a Completer authenticated with apiKey.
type Factory func(apiKey string) (Completer, error)

// CheckKey rejects keys that cannot be sent as a bearer token.
func CheckKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidKey)
		}
	}
	return nil
}

// Router picks a reply for a transcript.
type Router struct {
	rules  []Rule
	logger *log.Logger
}

// NewRouter creates a router over rules, DefaultRules when rules is nil.
func NewRouter(rules []Rule, logger *log.Logger) *Router {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Router{rules: rules, logger: logger.With("component", "nlu")}
}

// Match returns the first rule matching the lowercased transcript.
func (r *Router) Match(transcript string) (Rule, bool) {
	t := strings.ToLower(transcript)
	for _, rule := range r.rules {
		if rule.Match(t) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Reply never fails: a missing completer or a failed completion turn into
// fixed replies.
func (r *Router) Reply(ctx context.Context, transcript string, c Completer) string {
	t := strings.ToLower(transcript)

	if rule, ok := r.Match(t); ok {
		r.logger.Debug("canned reply", "rule", rule.Name)
		return rule.Reply
	}

	if c == nil {
		r.logger.Info("no credential, skipping completion")
		return ReplyNeedKey
	}

	out, err := c.Complete(ctx, NewRequest(t))
	if err != nil {
		r.logger.Error("completion failed", "err", err)
		return ReplyApology
	}

	out = strings.TrimSpace(out)
	if out == "" {
		r.logger.Error("completion failed", "err", ErrEmptyCompletion)
		return ReplyApology
	}
	return out
}
