// Package convo runs one voice conversation: listen, classify the
// transcript, answer, speak, and listen again until the user says goodbye or
// stays silent for too long.
package convo

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voicebot/internal/nlu"
	"voicebot/internal/tts"
)

// ErrSessionEnded is returned by HandleInbound after the session ended.
var ErrSessionEnded = errors.New("convo: session ended")

const (
	DefaultMaxRetries = 3
	DefaultTurnPause  = 500 * time.Millisecond
	glitchPause       = time.Second
)

// Display is the chat UI: messages appear in call order.
type Display interface {
	Send(ctx context.Context, text string) error
}

// Listener captures and transcribes one utterance.
type Listener interface {
	Listen(ctx context.Context) Utterance
}

// Deps are the session's collaborators.
type Deps struct {
	Display  Display
	Listener Listener
	Speaker  tts.Speaker
	Router   *nlu.Router
	Factory  nlu.Factory
	Logger   *log.Logger
}

type Option func(*Session)

// WithID overrides the generated session id.
func WithID(id string) Option { return func(s *Session) { s.id = id } }

// WithMaxRetries sets how many consecutive failed transcriptions end the session.
func WithMaxRetries(n int) Option { return func(s *Session) { s.maxRetries = n } }

// WithTurnPause sets the pause after each spoken reply.
func WithTurnPause(d time.Duration) Option { return func(s *Session) { s.turnPause = d } }

// WithAPIKey seeds the credential.
func WithAPIKey(key string) Option { return func(s *Session) { s.initialKey = key } }

// WithOnEnd registers a hook called once when the session ends.
func WithOnEnd(fn func(*Session, EndReason)) Option { return func(s *Session) { s.onEnd = fn } }

// Session owns all per-conversation state: retry counter, credential and
// the one-shot start guard.
type Session struct {
	id         string
	deps       Deps
	logger     *log.Logger
	maxRetries int
	turnPause  time.Duration
	initialKey string
	onEnd      func(*Session, EndReason)

	started atomic.Bool
	state   atomic.Int32
	retries atomic.Int32

	credMu    sync.RWMutex
	completer nlu.Completer

	// outMu pairs a display message with its speech.
	outMu sync.Mutex

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	endOnce sync.Once
	reason  EndReason
}

// New creates an idle session.
func New(deps Deps, opts ...Option) *Session {
	s := &Session{
		deps:       deps,
		maxRetries: DefaultMaxRetries,
		turnPause:  DefaultTurnPause,
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.maxRetries <= 0 {
		s.maxRetries = DefaultMaxRetries
	}
	if s.deps.Speaker == nil {
		s.deps.Speaker = tts.Nop{}
	}
	if s.deps.Router == nil {
		s.deps.Router = nlu.NewRouter(nil, deps.Logger)
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	s.logger = logger.With("component", "convo", "session", s.id)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if s.initialKey != "" {
		if err := s.useKey(s.initialKey); err != nil {
			s.logger.Warn("Configured API key rejected", "err", err)
		}
	}

	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) Retries() int { return int(s.retries.Load()) }

// Done is closed once the session ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Reason returns why the session ended, NotEnded while it runs.
func (s *Session) Reason() EndReason {
	select {
	case <-s.done:
		return s.reason
	default:
		return NotEnded
	}
}

// HasCredential reports whether an LLM client is configured.
func (s *Session) HasCredential() bool {
	s.credMu.RLock()
	defer s.credMu.RUnlock()
	return s.completer != nil
}

// Start greets the user and launches the conversation loop. Only the first
// call does anything; it returns false on every later call. Cancelling ctx
// ends the session.
func (s *Session) Start(ctx context.Context) bool {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Warn("Session already started")
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}

	stop := context.AfterFunc(ctx, s.End)
	go func() {
		defer stop()
		defer s.finish(Cancelled)

		s.logger.Info("Session started")
		if err := s.say(s.ctx, MsgGreeting); err != nil {
			s.logger.Warn("Greeting failed", "err", err)
			s.finish(Disconnected)
			return
		}
		s.run()
	}()
	return true
}

// End terminates the session. The loop stops at its next blocking point.
func (s *Session) End() { s.finish(Cancelled) }

func (s *Session) finish(reason EndReason) {
	ended := false
	s.endOnce.Do(func() {
		s.reason = reason
		s.state.Store(int32(Terminated))
		s.cancel()
		close(s.done)
		ended = true
	})
	if !ended {
		return
	}

	s.logger.Info("Session ended", "reason", reason, "retries", s.Retries())
	if s.onEnd != nil {
		s.onEnd(s, reason)
	}
}

// setState moves to st unless the session is Terminated, which is final.
func (s *Session) setState(st State) bool {
	for {
		cur := s.state.Load()
		if State(cur) == Terminated {
			return false
		}
		if s.state.CompareAndSwap(cur, int32(st)) {
			return true
		}
	}
}

func (s *Session) run() {
	for s.ctx.Err() == nil {
		s.setState(Listening)
		u := s.deps.Listener.Listen(s.ctx)
		if s.ctx.Err() != nil {
			return
		}

		if !s.safeTurn(u) {
			return
		}
	}
}

// safeTurn keeps a panicking collaborator from killing the loop.
func (s *Session) safeTurn(u Utterance) (more bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Turn panicked", "panic", r)
			if err := s.deps.Display.Send(s.ctx, MsgGlitch); err != nil {
				s.finish(Disconnected)
				more = false
				return
			}
			s.sleep(glitchPause)
			more = s.ctx.Err() == nil
		}
	}()
	return s.turn(u)
}

// turn classifies one utterance and answers it. It returns false when the
// session ended.
func (s *Session) turn(u Utterance) bool {
	s.setState(Classifying)

	text := strings.ToLower(strings.TrimSpace(u.Text))
	if u.OK() && text == "" {
		u = Missed(NoSpeech, nil)
	}

	if !u.OK() {
		n := int(s.retries.Add(1))
		s.logger.Info("Nothing usable heard", "kind", u.Failure, "retries", n, "err", u.Err)

		if n >= s.maxRetries {
			_ = s.say(s.ctx, MsgSignOff)
			s.finish(RetriesExhausted)
			return false
		}
		return s.sayOrEnd(u.Failure.Message())
	}

	s.logger.Info("Heard", "text", text)

	if HasExitToken(text) {
		_ = s.say(s.ctx, MsgFarewell)
		s.finish(Farewell)
		return false
	}

	s.retries.Store(0)
	s.setState(Responding)

	if err := s.display(s.ctx, MsgYouSaid+text); err != nil {
		s.finish(Disconnected)
		return false
	}

	reply := s.deps.Router.Reply(s.ctx, text, s.currentCompleter())
	if !s.sayOrEnd(reply) {
		return false
	}

	s.sleep(s.turnPause)
	return s.ctx.Err() == nil
}

// HandleInbound processes a message typed into the chat. Typed text is
// trusted: it never counts towards retries and never ends the session.
func (s *Session) HandleInbound(ctx context.Context, text string) error {
	select {
	case <-s.done:
		return ErrSessionEnded
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if key, ok := ParseKeyCommand(text); ok {
		return s.setKey(ctx, key)
	}

	lower := strings.ToLower(text)
	s.logger.Info("Typed", "text", lower)

	reply := s.deps.Router.Reply(ctx, lower, s.currentCompleter())
	return s.say(ctx, reply)
}

func (s *Session) setKey(ctx context.Context, key string) error {
	if key == "" {
		return s.display(ctx, MsgKeyEmpty)
	}
	if err := s.useKey(key); err != nil {
		s.logger.Warn("API key rejected", "err", err)
		return s.display(ctx, MsgKeyFailed)
	}
	s.logger.Info("API key updated")
	return s.display(ctx, MsgKeySet)
}

func (s *Session) useKey(key string) error {
	if s.deps.Factory == nil {
		return fmt.Errorf("no completer factory configured")
	}
	c, err := s.deps.Factory(key)
	if err != nil {
		return err
	}

	s.credMu.Lock()
	s.completer = c
	s.credMu.Unlock()
	return nil
}

func (s *Session) currentCompleter() nlu.Completer {
	s.credMu.RLock()
	defer s.credMu.RUnlock()
	return s.completer
}

func (s *Session) sayOrEnd(text string) bool {
	if err := s.say(s.ctx, text); err != nil {
		s.logger.Warn("Display failed", "err", err)
		s.finish(Disconnected)
		return false
	}
	return true
}

// say displays text, then speaks it. Speech failures are logged only.
func (s *Session) say(ctx context.Context, text string) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	if err := s.deps.Display.Send(ctx, text); err != nil {
		return err
	}
	if err := s.deps.Speaker.Speak(ctx, text); err != nil && ctx.Err() == nil {
		s.logger.Warn("Speech failed", "err", err)
	}
	return nil
}

func (s *Session) display(ctx context.Context, text string) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return s.deps.Display.Send(ctx, text)
}

func (s *Session) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-s.ctx.Done():
	}
}
