package main

import (
	"io"
	"strings"
	"sync"
)

// fakeModule answers command lines with canned replies. Commands without a
// reply are answered with ERROR.
type fakeModule struct {
	mu      sync.Mutex
	replies map[string]string
	written []string
	out     chan []byte
	pending []byte
	closed  bool
}

func newFakeModule(replies map[string]string) *fakeModule {
	return &fakeModule{
		replies: replies,
		out:     make(chan []byte, 16),
	}
}

func (m *fakeModule) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	line := strings.TrimSuffix(string(p), "\r\n")
	m.written = append(m.written, line)

	reply, ok := m.replies[line]
	if !ok {
		reply = "ERROR\r\n"
	}
	m.out <- []byte(reply)
	return len(p), nil
}

func (m *fakeModule) Read(p []byte) (int, error) {
	if len(m.pending) == 0 {
		data, ok := <-m.out
		if !ok {
			return 0, io.EOF
		}
		m.pending = data
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *fakeModule) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.out)
	}
	return nil
}

// report sends an unsolicited line.
func (m *fakeModule) report(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.out <- []byte(line + "\r\n")
	}
}

func (m *fakeModule) setReply(command, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[command] = reply
}

func (m *fakeModule) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}
