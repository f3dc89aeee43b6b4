// Package dumbster is a dummy SMTP sink server for integration tests: it accepts connections,
// drives each one through the smtp package's state machine, and captures every delivered message
// into an in-process queue instead of relaying it anywhere. Modeled on laitos's daemon/smtpd
// Daemon (Initialise/StartAndBlock/HandleConnection/Stop), trimmed to a non-delivering sink.
package dumbster

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chrisime/dumbster/config"
	"github.com/chrisime/dumbster/lalog"
	"github.com/chrisime/dumbster/metrics"
	"github.com/chrisime/dumbster/queue"
	"github.com/chrisime/dumbster/smtp"
)

// shutdownJoinTimeout bounds how long Stop waits for in-flight transactions (spec §5).
const shutdownJoinTimeout = 20 * time.Second

// Server is a running SMTP sink. Construct one with Start.
type Server struct {
	serverName      string
	listener        net.Listener
	received        *queue.Queue
	logger          *lalog.Logger
	metrics         *metrics.Registry
	metricsServer   *http.Server
	metricsListener net.Listener
	rateLimit       *lalog.RateLimit

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// Start binds addr (host:port, port 0 for an OS-assigned port) and begins accepting connections
// in the background. It returns once the listener is bound, not once it stops accepting.
func Start(addr string) (*Server, error) {
	return StartWithConfig(config.Config{ServerName: "dumbster", Listen: addr, ShutdownTimeoutSecs: 20})
}

// StartWithConfig is like Start but takes a full Config, e.g. to name the server or enable
// metrics and per-IP connection rate limiting.
func StartWithConfig(cfg config.Config) (*Server, error) {
	logger := &lalog.Logger{ComponentName: "dumbster", ComponentID: []lalog.ComponentIDField{{Key: "listen", Value: cfg.Listen}}}

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("dumbster: failed to listen on %s: %w", cfg.Listen, err)
	}

	s := &Server{
		serverName: cfg.ServerName,
		listener:   listener,
		received:   queue.New(),
		logger:     logger,
		metrics:    metrics.NewRegistry(cfg.Metrics.Enabled),
		stopped:    make(chan struct{}),
	}
	if cfg.ConnectionRateLimit > 0 {
		s.rateLimit = lalog.NewRateLimit(1, cfg.ConnectionRateLimit, logger)
	}

	if cfg.Metrics.Enabled {
		metricsListener, err := net.Listen("tcp", cfg.Metrics.Address)
		if err != nil {
			listener.Close()
			return nil, fmt.Errorf("dumbster: failed to listen for metrics on %s: %w", cfg.Metrics.Address, err)
		}
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, s.metrics.Handler())
		s.metricsListener = metricsListener
		s.metricsServer = &http.Server{Handler: mux}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.metricsServer.Serve(metricsListener); err != nil && err != http.ErrServerClosed {
				logger.Warning("metrics", err, "metrics server failed")
			}
		}()
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Port returns the TCP port the server is actually bound to, useful when Start was asked for an
// ephemeral port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// MetricsPort returns the TCP port the Prometheus exposition endpoint is bound to, or 0 if metrics
// were not enabled.
func (s *Server) MetricsPort() int {
	if s.metricsListener == nil {
		return 0
	}
	return s.metricsListener.Addr().(*net.TCPAddr).Port
}

// Received returns the live capture queue. Reads against it are destructive (Poll) or
// non-destructive (Snapshot); see the queue package.
func (s *Server) Received() *queue.Queue {
	return s.received
}

// Snapshot returns a non-destructive copy of every message captured so far.
func (s *Server) Snapshot() []*smtp.Message {
	return s.received.Snapshot()
}

// Reset empties the capture queue. Idempotent.
func (s *Server) Reset() {
	s.received.Clear()
}

// Stop closes the listener and waits up to 20 seconds for in-flight connections to finish.
// Idempotent: a second call is a silent no-op, matching spec §5's "Shutdown is not an error".
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if err := s.listener.Close(); err != nil {
			s.logger.MaybeMinorError(err)
		}
		if s.metricsServer != nil {
			if err := s.metricsServer.Close(); err != nil {
				s.logger.MaybeMinorError(err)
			}
		}
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownJoinTimeout):
			s.logger.Warning("Stop", nil, "timed out waiting for in-flight connections to finish")
		}
	})
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopped:
				return
			default:
			}
			if strings.Contains(err.Error(), "closed") {
				return
			}
			s.logger.Warning("acceptLoop", err, "accept failed")
			return
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	remoteAddr := conn.RemoteAddr().String()
	if s.rateLimit != nil {
		host, _, _ := net.SplitHostPort(remoteAddr)
		if !s.rateLimit.Add(host, true) {
			return
		}
	}

	start := time.Now()
	s.metrics.ConnectionAccepted(s.serverName)

	reader := bufio.NewReader(conn)
	driver := smtp.NewDriver(s.serverName, s.logger)
	driver.Actor = remoteAddr

	messages, err := driver.Handle(lineReaderFunc(func() (string, error) {
		return readLine(reader)
	}), lineWriterFunc(func(line string) error {
		_, err := conn.Write([]byte(line))
		return err
	}))
	if err != nil {
		s.logger.Warning(remoteAddr, err, "transaction aborted")
		s.metrics.ConnectionClosed(s.serverName, time.Since(start).Seconds(), 0)
		return
	}

	s.received.OfferAll(messages)
	s.metrics.ConnectionClosed(s.serverName, time.Since(start).Seconds(), len(messages))
}

// readLine reads one CRLF- or bare-LF-terminated line and strips the terminator, without ever
// interpreting a leading "." as a stuffed octet — spec §6 explicitly forbids dot-unstuffing, so
// this deliberately avoids textproto.Reader.ReadDotBytes, which would reverse it.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if line == "" {
			return "", err
		}
		// Last line of the stream may lack a trailing newline; hand it back before the error.
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type lineReaderFunc func() (string, error)

func (f lineReaderFunc) ReadLine() (string, error) { return f() }

type lineWriterFunc func(string) error

func (f lineWriterFunc) WriteLine(line string) error { return f(line) }
