package esp

import (
	"bytes"
	"strings"

	"i4.energy/across/espwifi/at"
)

// NetworkState is a set of independent link facts reported by the module.
type NetworkState uint8

const (
	// StateConnected is set while the module is joined to an access point.
	StateConnected NetworkState = 1 << iota
	// StateGotIP is set once a DHCP lease was acquired.
	StateGotIP
)

// Has reports whether every fact in f is set.
func (s NetworkState) Has(f NetworkState) bool {
	return s&f == f
}

func (s NetworkState) String() string {
	if s == 0 {
		return "disconnected"
	}
	var parts []string
	if s.Has(StateConnected) {
		parts = append(parts, "connected")
	}
	if s.Has(StateGotIP) {
		parts = append(parts, "got ip")
	}
	return strings.Join(parts, ",")
}

// HandleLine applies a single status line to the link state. Lines other
// than the WIFI status reports are ignored. A trailing '\r' is not part of
// the comparison.
func (c *Client) HandleLine(line []byte) {
	switch string(bytes.TrimSuffix(line, []byte{'\r'})) {
	case at.WifiDisconnect:
		c.state &^= StateConnected | StateGotIP
	case at.WifiConnected:
		c.state |= StateConnected
	case at.WifiGotIP:
		c.state |= StateGotIP
	}
}

func (c *Client) State() NetworkState {
	return c.state
}

func (c *Client) Connected() bool {
	return c.state.Has(StateConnected)
}

func (c *Client) GotIP() bool {
	return c.state.Has(StateGotIP)
}
