package esp

import (
	"bytes"
	"net"

	"i4.energy/across/espwifi/at"
)

// NetInfo holds the local addresses reported by LocalNetInfo. Fields the
// module did not report are nil.
type NetInfo struct {
	StationIP  net.IP
	StationMAC net.HardwareAddr
	APIP       net.IP
	APMAC      net.HardwareAddr
}

// NetInfo parses the response of the last command, which must have been
// LocalNetInfo.
func (c *Client) NetInfo() (NetInfo, error) {
	if c.exec.LastCommand() != at.CmdLocalAddr {
		return NetInfo{}, ErrWrongPrecedingCommand
	}
	return ParseNetInfo(c.exec.Response()), nil
}

// ParseNetInfo decodes `+CIFSR:<key>,"<value>"` lines. Unknown keys and
// undecodable values are skipped.
func ParseNetInfo(buf []byte) NetInfo {
	var info NetInfo
	for line := range at.Lines(buf) {
		rest, ok := bytes.CutPrefix(line, []byte(at.TagNetInfo))
		if !ok {
			continue
		}
		key, value, ok := bytes.Cut(rest, []byte{','})
		if !ok {
			continue
		}
		args, err := at.ParseArgs(value)
		if err != nil || len(args) != 1 || args[0].Kind != at.KindString {
			continue
		}
		v := args[0].Str

		switch string(key) {
		case "STAIP":
			info.StationIP = net.ParseIP(v)
		case "APIP":
			info.APIP = net.ParseIP(v)
		case "STAMAC":
			if mac, err := net.ParseMAC(v); err == nil {
				info.StationMAC = mac
			}
		case "APMAC":
			if mac, err := net.ParseMAC(v); err == nil {
				info.APMAC = mac
			}
		}
	}
	return info
}
