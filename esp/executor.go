package esp

//go:generate go tool mockgen -source=executor.go -destination=mock_executor.go -package=esp

import "i4.energy/across/espwifi/at"

// Executor issues AT commands and collects their responses without blocking.
// Stream is the implementation used over a real Transport.
type Executor interface {
	// Tick advances the executor. It reports true while a command is in
	// flight or when lines were consumed during this call.
	Tick() bool
	// Ready reports whether a new command may be issued.
	Ready() bool
	// Received reports whether the last command reached its terminal token.
	Received() bool
	// Execute issues a command named without its "AT+" prefix. It returns
	// once the command line is written.
	Execute(name string, args ...at.Arg) error
	// Response returns the raw response of the last command. The slice is
	// only valid until the next call to Execute.
	Response() []byte
	// LastCommand returns the name passed to the most recent Execute.
	LastCommand() string
	// Err returns the result of the last completed command.
	Err() error
	// OnUnsolicited registers the handler for lines that arrive while no
	// command is in flight and for status reports inside responses other
	// than a join.
	OnUnsolicited(fn func(line []byte))
	Close() error
}
