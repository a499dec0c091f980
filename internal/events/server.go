package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

const helloTimeout = 5 * time.Second

// Server accepts raw TCP subscribers. Each connection starts with one Hello
// line; when Authorize is set its token must pass before any event is sent.
type Server struct {
	Addr      string
	Hub       *Hub
	Authorize func(token string) error
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run listens on s.Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts subscribers from ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := log.With().Str("component", "events-tcp").Logger()
	logger.Info().Str("addr", ln.Addr().String()).Bool("auth", s.Authorize != nil).Msg("listening")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warn().Err(err).Msg("accept")
			continue
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	logger := log.With().Str("component", "events-tcp").Str("remote", conn.RemoteAddr().String()).Logger()

	r := bufio.NewReader(conn)
	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	raw, err := r.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(raw) > 0) {
		logger.Debug().Err(err).Msg("no hello")
		_ = conn.Close()
		return
	}
	var hello Hello
	if err := json.Unmarshal(raw, &hello); err != nil {
		reject(conn, "malformed hello")
		return
	}
	if s.Authorize != nil {
		if err := s.Authorize(hello.Token); err != nil {
			logger.Warn().Err(err).Msg("subscriber rejected")
			reject(conn, "unauthorized")
			return
		}
	}
	_ = conn.SetReadDeadline(time.Time{})

	sub := &tcpSubscriber{conn: conn}
	if err := s.Hub.subscribe(sub, transportTCP, hello.Since); err != nil {
		_ = conn.Close()
		return
	}
	logger.Debug().Msg("client connected")

	// subscribers send nothing after the hello; wait for EOF
	_, _ = io.Copy(io.Discard, r)
	s.Hub.unsubscribe(sub)
	logger.Debug().Msg("client disconnected")
}

func reject(conn net.Conn, msg string) {
	if line, err := encodeLine(errorLine{Type: TypeError, Error: msg}); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, _ = conn.Write(line)
	}
	_ = conn.Close()
}
