package esp

import "errors"

var (
	// ErrNoDialer is returned when a Client is opened without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the module.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a
	// Stream that has no transport.
	ErrNotInitialized = errors.New("esp: not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Stream that has
	// already been closed, or a command is issued after Close.
	ErrAlreadyClosed = errors.New("esp: already closed")

	// ErrCommandInFlight is returned when a command is issued while the
	// previous one has not reached its terminal token yet.
	ErrCommandInFlight = errors.New("esp: command in flight")

	// ErrWrongCommand is returned when a command is issued in a state that
	// forbids it, e.g. querying the local address before an IP was acquired.
	// No wire traffic is generated.
	ErrWrongCommand = errors.New("esp: wrong command for current state")

	// ErrWrongPrecedingCommand is returned when a response is parsed that was
	// not produced by the expected command, e.g. reading networks without a
	// prior scan.
	ErrWrongPrecedingCommand = errors.New("esp: wrong preceding command")

	// ErrCommandFailed is returned when the module terminates a command with
	// ERROR or FAIL.
	ErrCommandFailed = errors.New("esp: command failed")

	// ErrBusy is returned when the module rejects a command because it is
	// still processing a previous one.
	ErrBusy = errors.New("esp: module busy")

	// ErrTimeout is returned when no terminal token arrived within the
	// configured AT timeout.
	ErrTimeout = errors.New("esp: command timeout")
)
