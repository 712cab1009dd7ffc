package esp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/espwifi/at"
)

// Mode selects the WiFi role of the module.
type Mode uint8

const (
	ModeStation               Mode = 1
	ModeAccessPoint           Mode = 2
	ModeAccessPointAndStation Mode = 3
)

// ParseMode accepts "station", "ap" and "ap+station".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "station", "sta":
		return ModeStation, nil
	case "ap", "accesspoint":
		return ModeAccessPoint, nil
	case "ap+station", "ap+sta", "both":
		return ModeAccessPointAndStation, nil
	}
	return 0, fmt.Errorf("esp: unknown wifi mode %q", s)
}

// scanFieldMask enables every field of a +CWLAP record.
const scanFieldMask = 0b01111111

// Phase is the position of a Client in its poll cycle.
type Phase uint8

const (
	// PhaseIdle accepts a new command.
	PhaseIdle Phase = iota
	// PhaseCommandInFlight waits for the executor to see a terminal token.
	PhaseCommandInFlight
	// PhaseConnectResponsePending holds a complete join response whose
	// status lines were not applied yet.
	PhaseConnectResponsePending
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCommandInFlight:
		return "command in flight"
	case PhaseConnectResponsePending:
		return "connect response pending"
	}
	return "unknown"
}

// Client drives an ESP module running the AT firmware. It issues WiFi
// commands through an Executor and tracks the link state the module reports.
//
// A Client is not safe for concurrent use. The owner calls Tick repeatedly and
// issues a new command only while Ready reports true.
type Client struct {
	exec  Executor
	state NetworkState
	// awaitingConnect is set by Connect and cleared by the Tick that applies
	// the join response.
	awaitingConnect bool
	pollInterval    time.Duration
}

// NewClient composes a Client over exec and registers itself as the handler
// for out-of-band lines.
func NewClient(exec Executor) *Client {
	c := &Client{
		exec:         exec,
		pollInterval: 20 * time.Millisecond,
	}
	exec.OnUnsolicited(c.handleUnsolicited)
	return c
}

// handleUnsolicited applies a pending join response before line, so status
// lines take effect in the order the module sent them.
func (c *Client) handleUnsolicited(line []byte) {
	c.applyJoinResponse()
	c.HandleLine(line)
}

// applyJoinResponse feeds the lines of a completed join response to
// HandleLine once and reports whether it did.
func (c *Client) applyJoinResponse() bool {
	if !c.awaitingConnect || !c.exec.Received() {
		return false
	}
	c.awaitingConnect = false
	for line := range at.Lines(c.exec.Response()) {
		c.HandleLine(line)
	}
	return true
}

// Open dials the module described by config and returns a Client over a
// Stream on the resulting transport.
func Open(ctx context.Context, config Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	c := NewClient(NewStream(transport, config.ATTimeout, config.Logger))
	c.pollInterval = config.PollInterval
	return c, nil
}

// Tick advances the client by one poll cycle and reports whether work was
// done. The status lines of a finished join response are applied on the
// first cycle in which the executor makes no progress, or earlier when a
// later out-of-band line arrives.
func (c *Client) Tick() bool {
	if c.exec.Tick() {
		return true
	}
	return c.applyJoinResponse()
}

func (c *Client) Phase() Phase {
	switch {
	case !c.exec.Ready():
		return PhaseCommandInFlight
	case c.awaitingConnect && c.exec.Received():
		return PhaseConnectResponsePending
	}
	return PhaseIdle
}

// Ready reports whether a new command may be issued. It stays false between
// the arrival of a join response and the Tick that applies it.
func (c *Client) Ready() bool {
	return c.Phase() == PhaseIdle
}

// Err returns the result of the last completed command.
func (c *Client) Err() error {
	return c.exec.Err()
}

// Wait ticks the client until it is ready and returns the result of the last
// command. It is meant for callers that do not run their own tick loop.
func (c *Client) Wait(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		c.Tick()
		if c.Ready() {
			return c.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) Close() error {
	return c.exec.Close()
}

// Version asks for the AT and SDK versions, see VersionLines.
func (c *Client) Version() error {
	return c.exec.Execute(at.CmdVersion)
}

func (c *Client) Restart() error {
	return c.exec.Execute(at.CmdRestart)
}

// Restore resets every module setting to factory defaults.
func (c *Client) Restore() error {
	return c.exec.Execute(at.CmdRestore)
}

// Disconnect leaves the access point. The link state is cleared immediately
// without waiting for the module to confirm.
func (c *Client) Disconnect() error {
	c.state &^= StateConnected | StateGotIP
	return c.exec.Execute(at.CmdDisconnect)
}

func (c *Client) SetMode(mode Mode) error {
	return c.exec.Execute(at.CmdMode, at.Int(int(mode)))
}

// ScanNetworksOptions enables every record field and selects whether scan
// results are sorted by signal strength.
func (c *Client) ScanNetworksOptions(orderByRSSI bool) error {
	order := 0
	if orderByRSSI {
		order = 1
	}
	return c.exec.Execute(at.CmdScanOptions, at.Int(order), at.Int(scanFieldMask))
}

// ScanNetworks lists the visible access points, see GetNetworks.
func (c *Client) ScanNetworks() error {
	return c.exec.Execute(at.CmdScan)
}

// Connect joins the access point ssid. An empty password joins an open
// network. The status lines in the response update the link state.
func (c *Client) Connect(ssid, password string) error {
	prev := c.awaitingConnect
	c.awaitingConnect = true
	if err := c.exec.Execute(at.CmdJoin, at.String(ssid), at.String(password)); err != nil {
		c.awaitingConnect = prev
		return err
	}
	return nil
}

// UseDNS resolves host through the module's domain name service.
func (c *Client) UseDNS(host string) error {
	return c.exec.Execute(at.CmdDomain, at.String(host))
}

// LocalNetInfo queries the local addresses, see NetInfo. It fails with
// ErrWrongCommand and sends nothing unless the module is connected and has
// acquired an IP address.
func (c *Client) LocalNetInfo() error {
	if !c.state.Has(StateConnected | StateGotIP) {
		return ErrWrongCommand
	}
	return c.exec.Execute(at.CmdLocalAddr)
}

// VersionLines returns the informational lines of the last version response.
func (c *Client) VersionLines() ([]string, error) {
	if c.exec.LastCommand() != at.CmdVersion {
		return nil, ErrWrongPrecedingCommand
	}
	var lines []string
	for line := range at.Lines(c.exec.Response()) {
		l := string(line)
		if at.Classify(l) != at.TypeData || strings.HasPrefix(l, at.Prefix+"+") {
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}
