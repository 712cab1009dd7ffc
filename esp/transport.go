package esp

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=esp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Transport represents an established, bidirectional byte stream to an ESP
// module running the AT firmware.
//
// A Transport is assumed to be already connected and ready for use. Typical
// implementations include serial ports, TCP bridges or in-memory fakes used
// for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to an ESP module.
//
// Dialer abstracts how the connection is created and is intended to be used
// during client construction only. Once a Transport is obtained, the Dialer
// is no longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

// DefaultBaudRate is the factory UART speed of ESP-AT firmware.
const DefaultBaudRate = 115200

// SerialDialer opens the module's UART using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string
	// BaudRate is used when Mode is nil. Zero means DefaultBaudRate.
	BaudRate int
	// Mode overrides the complete line settings.
	Mode *serial.Mode
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("esp: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("esp: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("esp: open %s: %w", d.PortName, err)
	}
	return port, nil
}
