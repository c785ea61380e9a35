// Package ipc is the local control socket of the daemon: one JSON request,
// one JSON reply per connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const DefaultSocketPath = "/tmp/voicebot.sock"

const (
	CmdSay    = "say"
	CmdKey    = "key"
	CmdEnd    = "end"
	CmdStatus = "status"
)

const ioTimeout = 30 * time.Second

type ControlMessage struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

type SessionStatus struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Retries    int    `json:"retries"`
	Credential bool   `json:"credential"`
}

type ControlReply struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Sessions []SessionStatus `json:"sessions,omitempty"`
}

// Handler answers one control message.
type Handler func(ctx context.Context, msg ControlMessage) ControlReply

type Server struct {
	path    string
	ln      net.Listener
	handler Handler
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Listen binds the unix socket at path, replacing a stale one.
func Listen(path string, h Handler, logger *log.Logger) (*Server, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	if logger == nil {
		logger = log.Default()
	}
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		path:    path,
		ln:      ln,
		handler: h,
		logger:  logger.With("component", "ipc"),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (s *Server) Path() string { return s.path }

// Serve accepts connections until Close.
func (s *Server) Serve() error {
	s.logger.Info("Control socket ready", "path", s.path)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("Accept failed", "err", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) Close() error {
	s.cancel()
	err := s.ln.Close()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		s.logger.Debug("Bad control message", "err", err)
		_ = json.NewEncoder(conn).Encode(ControlReply{Error: "bad request"})
		return
	}

	// Never log the argument: it may be an API key.
	s.logger.Info("Control command", "cmd", msg.Cmd)
	reply := s.handler(s.ctx, msg)
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		s.logger.Debug("Reply failed", "err", err)
	}
}

// Send delivers msg to the daemon at path and waits for its reply.
func Send(ctx context.Context, path string, msg ControlMessage) (ControlReply, error) {
	if path == "" {
		path = DefaultSocketPath
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return ControlReply{}, fmt.Errorf("voicebot daemon not running: %w", err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Now().Add(ioTimeout))
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return ControlReply{}, fmt.Errorf("send: %w", err)
	}

	var reply ControlReply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return ControlReply{}, fmt.Errorf("read reply: %w", err)
	}
	if !reply.OK && reply.Error != "" {
		return reply, errors.New(reply.Error)
	}
	return reply, nil
}
