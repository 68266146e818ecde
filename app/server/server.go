package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierroma/go-rakis/app/config"
	"github.com/xavierroma/go-rakis/app/types"
)

type Parser interface {
	Parse(raw string) (types.Request, error)
}

type Resolver interface {
	Resolve(req types.Request, err error) types.Response
}

// Server answers one request per connection and closes it.
type Server struct {
	cfg      *config.Config
	parser   Parser
	resolver Resolver
	logger   zerolog.Logger

	wg sync.WaitGroup
}

func NewServer(cfg *config.Config, parser Parser, resolver Resolver, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		parser:   parser,
		resolver: resolver,
		logger:   logger.With().Str("component", "server").Logger(),
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.BindAddr, err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done, then waits for the
// connections already accepted.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()
	defer s.wg.Wait()

	s.logger.Info().Str("addr", l.Addr().String()).Msg("listening")
	var delay time.Duration // how long to sleep after a failed accept
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			delay = nextAcceptDelay(delay)
			s.logger.Warn().Err(err).Dur("retry_in", delay).Msg("accept connection")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// nextAcceptDelay doubles the previous delay, starting at 5ms and capped at
// one second.
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return 5 * time.Millisecond
	}
	if next := 2 * prev; next < time.Second {
		return next
	}
	return time.Second
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	log := s.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			log.Debug().Err(err).Msg("set read deadline")
		}
	}
	// a single read; anything past the buffer is dropped
	buf := make([]byte, s.cfg.ReadBufferSize)
	n, err := conn.Read(buf)
	if n == 0 {
		log.Debug().Err(err).Msg("nothing read from connection")
		return
	}
	raw := strings.ToValidUTF8(string(buf[:n]), "\uFFFD")

	req, err := s.parser.Parse(raw)
	res := s.resolver.Resolve(req, err)

	event := log.Info()
	if err != nil {
		event = event.Str("reason", err.Error())
	}
	event.Str("method", string(req.Method)).
		Str("path", req.Path).
		Int("status", res.Status.Code()).
		Int("bytes", len(res.Body)).
		Msg("request served")

	if s.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			log.Debug().Err(err).Msg("set write deadline")
		}
	}
	if _, err := conn.Write(res.Bytes()); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}
