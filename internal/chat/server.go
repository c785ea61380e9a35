package chat

import (
	"context"
	_ "embed"
	"errors"
	log "log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"voicebot/internal/convo"
)

//go:embed page.html
var page string

const (
	writeTimeout = 5 * time.Second
	inboundQueue = 16
)

// ErrClosed is returned by Send once the connection is gone.
var ErrClosed = errors.New("chat: connection closed")

// SessionFunc builds the session driving a freshly connected chat.
type SessionFunc func(display convo.Display) *convo.Session

// Server serves the chat page and one conversation per websocket.
type Server struct {
	app        *fiber.App
	newSession SessionFunc
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*convo.Session
}

func NewServer(newSession SessionFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		newSession: newSession,
		logger:     logger.With("component", "chat"),
		ctx:        ctx,
		cancel:     cancel,
		sessions:   make(map[string]*convo.Session),
	}

	app := fiber.New(fiber.Config{
		AppName:               "voicebot",
		DisableStartupMessage: true,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(page)
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": len(s.Sessions())})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handle))

	s.app = app
	return s
}

// Listen blocks serving addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Chat listening", "addr", addr)
	return s.app.Listen(addr)
}

// Serve blocks serving ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Chat listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown ends every session and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.EndAll()
	return s.app.ShutdownWithContext(ctx)
}

// Sessions returns the live sessions.
func (s *Server) Sessions() []*convo.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*convo.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Server) EndAll() {
	for _, sess := range s.Sessions() {
		sess.End()
	}
}

func (s *Server) handle(c *websocket.Conn) {
	conn := &wsDisplay{conn: c}
	sess := s.newSession(conn)
	logger := s.logger.With("session", sess.ID(), "remote", c.RemoteAddr().String())

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID())
		s.mu.Unlock()
	}()

	logger.Info("Chat connected")
	sess.Start(s.ctx)

	closed := make(chan struct{})
	go func() {
		select {
		case <-sess.Done():
			conn.end()
		case <-closed:
		}
	}()

	// Replies can take an LLM round trip plus playback, so they run off the
	// read loop. Key commands stay inline and overtake queued replies.
	inbound := make(chan string, inboundQueue)
	var worker sync.WaitGroup
	worker.Add(1)
	go func() {
		defer worker.Done()
		for text := range inbound {
			s.inbound(sess, text, logger)
		}
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Chat read failed", "err", err)
			}
			break
		}

		f, err := ParseFrame(data)
		if err != nil {
			logger.Warn("Dropping frame", "err", err)
			continue
		}

		switch f.Kind {
		case KindMessage:
			if _, isKey := convo.ParseKeyCommand(f.Content); isKey {
				s.inbound(sess, f.Content, logger)
				continue
			}
			select {
			case inbound <- f.Content:
			default:
				logger.Warn("Inbound queue full, dropping message")
			}
		case KindEnd:
			sess.End()
		}
	}

	close(closed)
	conn.markClosed()
	sess.End()
	close(inbound)
	worker.Wait()
	<-sess.Done()
	logger.Info("Chat disconnected", "reason", sess.Reason())
}

func (s *Server) inbound(sess *convo.Session, text string, logger *log.Logger) {
	err := sess.HandleInbound(s.ctx, text)
	if err != nil && !errors.Is(err, convo.ErrSessionEnded) {
		logger.Warn("Inbound message failed", "err", err)
	}
}

// wsDisplay is a convo.Display writing JSON frames in call order.
type wsDisplay struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (d *wsDisplay) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.write(Frame{From: FromBot, Kind: KindMessage, Content: text})
}

func (d *wsDisplay) write(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	_ = d.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := d.conn.WriteJSON(f); err != nil {
		d.closed = true
		return err
	}
	return nil
}

// end tells the page the conversation is over and closes the socket, which
// stops the read loop.
func (d *wsDisplay) end() {
	_ = d.write(Frame{From: FromBot, Kind: KindEnd})

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	_ = d.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
		time.Now().Add(time.Second))
	_ = d.conn.Close()
}

func (d *wsDisplay) markClosed() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

var _ convo.Display = (*wsDisplay)(nil)
