package chat

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// ErrEnded is returned by Run when the server ended the conversation.
var ErrEnded = errors.New("chat: conversation ended")

type ClientConfig struct {
	URL       string
	Reconnect uint          // attempts after an abnormal close, 0 disables
	Backoff   time.Duration // pause between attempts
	Dialer    *ws.Dialer
	Logger    *log.Logger
}

// Client is a terminal-side chat connection.
type Client struct {
	cfg    ClientConfig
	logger *log.Logger

	mu   sync.Mutex
	conn *ws.Conn
}

func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Dialer == nil {
		cfg.Dialer = ws.DefaultDialer
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	c := &Client{cfg: cfg, logger: cfg.Logger.With("component", "chat-client")}
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) dial(ctx context.Context) error {
	c.logger.Debug("Dialing", "url", c.cfg.URL)
	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Send posts a user message.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(Frame{From: FromUser, Kind: KindMessage, Content: text})
}

// Run delivers every bot message to fn until the conversation ends, ctx is
// done, or reconnecting fails. A reconnect starts a new conversation.
func (c *Client) Run(ctx context.Context, fn func(Frame)) error {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		var f Frame
		err := conn.ReadJSON(&f)
		if err == nil {
			if f.Kind == KindEnd {
				return ErrEnded
			}
			fn(f)
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ws.IsCloseError(err, ws.CloseNormalClosure) {
			return ErrEnded
		}
		if !isDropped(err) {
			return fmt.Errorf("read: %w", err)
		}

		c.logger.Warn("Connection lost", "err", err)
		if err := c.reconnect(ctx); err != nil {
			return err
		}
		c.logger.Info("Reconnected", "url", c.cfg.URL)
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	var err error
	for i := uint(0); i < c.cfg.Reconnect; i++ {
		t := time.NewTimer(c.cfg.Backoff)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}

		if err = c.dial(ctx); err == nil {
			return nil
		}
	}
	if err == nil {
		err = errors.New("reconnect disabled")
	}
	return fmt.Errorf("reconnect: %w", err)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

func isDropped(err error) bool {
	var ce *ws.CloseError
	if errors.As(err, &ce) {
		return ce.Code == ws.CloseGoingAway || ce.Code == ws.CloseAbnormalClosure
	}
	// Any other read error means the TCP connection broke.
	return true
}
