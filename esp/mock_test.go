package esp_test

import (
	"io"
	"strings"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/espwifi/esp"
)

// MockSequenceBuilder scripts a MockTransport as a module that answers each
// command line once it has been written. The Stream's reader goroutine calls
// Read before the first Write, so every Read blocks until its command is sent.
type MockSequenceBuilder struct {
	transport *esp.MockTransport
	calls     []any
}

func NewMockSequence(transport *esp.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// Command expects wire to be written and replies with resp afterwards.
func (b *MockSequenceBuilder) Command(wire, resp string) *MockSequenceBuilder {
	written := make(chan struct{})
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(wire)).DoAndReturn(func(p []byte) (int, error) {
			close(written)
			return len(p), nil
		}),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			<-written
			return copy(p, resp), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) Join(ssid, password string) *MockSequenceBuilder {
	return b.Command(
		`AT+CWJAP="`+ssid+`","`+password+`"`+"\r\n",
		"WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n",
	)
}

func (b *MockSequenceBuilder) Scan(records ...string) *MockSequenceBuilder {
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString("+CWLAP:(" + r + ")\r\n")
	}
	sb.WriteString("\r\nOK\r\n")
	return b.Command("AT+CWLAP\r\n", sb.String())
}

func (b *MockSequenceBuilder) LocalAddr(ip, mac string) *MockSequenceBuilder {
	return b.Command(
		"AT+CIFSR\r\n",
		`+CIFSR:STAIP,"`+ip+`"`+"\r\n"+`+CIFSR:STAMAC,"`+mac+`"`+"\r\n\r\nOK\r\n",
	)
}

// Hangup keeps the last Read blocked until the transport is closed.
func (b *MockSequenceBuilder) Hangup() *MockSequenceBuilder {
	closed := make(chan struct{})
	b.calls = append(b.calls,
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			<-closed
			return 0, io.EOF
		}),
		b.transport.EXPECT().Close().DoAndReturn(func() error {
			close(closed)
			return nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
