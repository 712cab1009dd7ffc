package esp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"time"

	"i4.energy/across/espwifi/at"
)

// Stream is the Executor used over a Transport. It issues one command at a
// time and is advanced by calling Tick from a single goroutine.
//
// A background goroutine is the only reader of the transport. It frames the
// byte stream into lines and hands them to Tick through a buffered channel,
// so Tick never blocks on I/O. Lines that arrive while no command is in
// flight, and status reports received during any command but a join, are
// passed to the handler registered with OnUnsolicited.
type Stream struct {
	// transport provides the physical connection to the module
	transport Transport
	// timeout bounds the wait for a terminal token, zero disables it
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	// lines receives framed lines from the reader goroutine
	lines chan []byte
	// readErr receives the scanner error, if any, before lines is closed
	readErr chan error
	// done stops the reader goroutine on Close
	done        chan struct{}
	unsolicited func(line []byte)

	inFlight bool
	received bool
	command  string
	deadline time.Time
	response bytes.Buffer
	err      error

	// broken holds the read failure once the reader goroutine stopped
	broken error
	closed bool
}

var _ Executor = (*Stream)(nil)

// NewStream starts reading from transport. A zero timeout waits for terminal
// tokens forever; a nil logger discards debug output.
func NewStream(transport Transport, timeout time.Duration, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Stream{
		transport: transport,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
		lines:     make(chan []byte, 64),
		readErr:   make(chan error, 1),
		done:      make(chan struct{}),
	}
	if transport != nil {
		go s.readLoop()
	}
	return s
}

func (s *Stream) readLoop() {
	defer close(s.lines)

	scanner := bufio.NewScanner(s.transport)
	scanner.Split(at.Splitter)
	for scanner.Scan() {
		token := scanner.Bytes()
		if len(token) == 0 {
			continue
		}
		select {
		case s.lines <- bytes.Clone(token):
		case <-s.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.readErr <- err
	}
}

func (s *Stream) OnUnsolicited(fn func(line []byte)) {
	s.unsolicited = fn
}

// Tick drains the lines received so far. It stops early once the command in
// flight reaches its terminal token so the caller can inspect the response
// before later lines are routed elsewhere.
func (s *Stream) Tick() bool {
	if s.closed {
		return false
	}
	worked := false
	for !s.eof() {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.readFailed()
				return true
			}
			worked = true
			if s.handle(line) {
				return true
			}
		default:
			return s.expire() || worked || s.inFlight
		}
	}
	return s.expire() || worked || s.inFlight
}

func (s *Stream) eof() bool {
	return s.broken != nil
}

// handle processes one line and reports whether it terminated the command
// in flight.
func (s *Stream) handle(line []byte) bool {
	if !s.inFlight {
		s.logger.Debug("unsolicited", "line", string(line))
		if s.unsolicited != nil {
			s.unsolicited(line)
		}
		return false
	}

	s.logger.Debug("recv", "command", s.command, "line", string(line))
	s.response.Write(line)
	s.response.WriteString(at.CRLF)

	switch at.Classify(string(line)) {
	case at.TypeURC:
		// A join response is applied by the client once it is complete.
		if s.unsolicited != nil && s.command != at.CmdJoin {
			s.unsolicited(line)
		}
	case at.TypeFinal:
		if l := string(line); l == at.OK || l == at.SendOK {
			s.finish(nil)
		} else {
			s.finish(fmt.Errorf("%w: AT+%s: %s", ErrCommandFailed, s.command, l))
		}
		return true
	case at.TypeBusy:
		s.finish(fmt.Errorf("%w: AT+%s", ErrBusy, s.command))
		return true
	}
	return false
}

func (s *Stream) finish(err error) {
	s.inFlight = false
	s.received = true
	s.err = err
	if err != nil {
		s.logger.Debug("command failed", "command", s.command, "error", err)
	}
}

func (s *Stream) expire() bool {
	if !s.inFlight || s.timeout <= 0 || !s.now().After(s.deadline) {
		return false
	}
	s.finish(fmt.Errorf("%w: AT+%s after %v", ErrTimeout, s.command, s.timeout))
	return true
}

func (s *Stream) readFailed() {
	err := fmt.Errorf("read: %w", io.EOF)
	select {
	case rerr := <-s.readErr:
		err = fmt.Errorf("read error: %w", rerr)
	default:
	}
	s.broken = err
	s.logger.Warn("transport stopped", "error", err)
	if s.inFlight {
		s.finish(err)
	}
}

func (s *Stream) Ready() bool {
	return !s.closed && !s.inFlight
}

func (s *Stream) Received() bool {
	return s.received
}

// Execute writes the command line and starts waiting for its response. The
// previous response is discarded.
func (s *Stream) Execute(name string, args ...at.Arg) error {
	if s.closed {
		return ErrAlreadyClosed
	}
	if s.transport == nil {
		return ErrNotInitialized
	}
	if s.inFlight {
		return ErrCommandInFlight
	}
	if s.broken != nil {
		return s.broken
	}

	s.response.Reset()
	s.received = false
	s.err = nil
	s.command = name

	// Arguments may carry a passphrase, only the name is logged.
	s.logger.Debug("send", "command", name, "args", len(args))
	wire := at.Command(name, args...) + at.CRLF
	if _, err := s.transport.Write([]byte(wire)); err != nil {
		return fmt.Errorf("write command %q: %w", name, err)
	}

	s.inFlight = true
	s.deadline = s.now().Add(s.timeout)
	return nil
}

func (s *Stream) Response() []byte {
	return s.response.Bytes()
}

func (s *Stream) LastCommand() string {
	return s.command
}

func (s *Stream) Err() error {
	return s.err
}

// Close stops the reader and closes the transport. After Close the Stream
// cannot be reused.
func (s *Stream) Close() error {
	if s.closed {
		return ErrAlreadyClosed
	}
	s.closed = true
	close(s.done)

	if s.transport != nil {
		return s.transport.Close()
	}
	return nil
}
