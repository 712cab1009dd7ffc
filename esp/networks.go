package esp

import (
	"bytes"
	"errors"
	"strconv"

	"i4.energy/across/espwifi/at"
)

// Encryption is the security mode of a scanned access point.
type Encryption int

const (
	EncryptionOpen Encryption = iota
	EncryptionWEP
	EncryptionWPAPSK
	EncryptionWPA2PSK
	EncryptionWPAWPA2PSK
)

func (e Encryption) String() string {
	switch e {
	case EncryptionOpen:
		return "open"
	case EncryptionWEP:
		return "wep"
	case EncryptionWPAPSK:
		return "wpa-psk"
	case EncryptionWPA2PSK:
		return "wpa2-psk"
	case EncryptionWPAWPA2PSK:
		return "wpa-wpa2-psk"
	}
	return "unknown(" + strconv.Itoa(int(e)) + ")"
}

// Network is one access point from a scan. Its strings are owned copies and
// stay valid after the response buffer is reused.
type Network struct {
	Mode Encryption
	SSID string
	// RSSI is the signal strength in dBm.
	RSSI int
	// BSSID and Channel are only reported when enabled by ScanNetworksOptions.
	BSSID   string
	Channel int
}

var errMalformedRecord = errors.New("esp: malformed network record")

// GetNetworks parses up to maxCount networks from the response of the last
// command, which must have been ScanNetworks. The length of the result is
// the number of networks found and may be less than maxCount. A maxCount of zero
// returns no networks and no error.
//
// The response is discarded by the next command, so GetNetworks must be
// called before issuing one.
func (c *Client) GetNetworks(maxCount int) ([]Network, error) {
	if c.exec.LastCommand() != at.CmdScan {
		return nil, ErrWrongPrecedingCommand
	}
	return ParseNetworks(c.exec.Response(), maxCount), nil
}

// ReleaseNetworks drops the contents of nets. Releasing an empty or nil
// slice is a no-op.
func ReleaseNetworks(nets []Network) {
	clear(nets)
}

// ParseNetworks extracts up to maxCount "+CWLAP:(...)" records from buf in the
// order they appear. Records that cannot be decoded are skipped.
func ParseNetworks(buf []byte, maxCount int) []Network {
	if maxCount <= 0 {
		return nil
	}
	var nets []Network
	for line := range at.Lines(buf) {
		body, ok := bytes.CutPrefix(line, []byte(at.TagNetwork))
		if !ok {
			continue
		}
		body = bytes.TrimPrefix(body, []byte{'('})
		body = bytes.TrimSuffix(body, []byte{')'})

		n, err := parseNetwork(body)
		if err != nil {
			continue
		}
		nets = append(nets, n)
		if len(nets) == maxCount {
			break
		}
	}
	return nets
}

// parseNetwork decodes `ecn,"ssid",rssi[,"mac",channel,...]`.
func parseNetwork(body []byte) (Network, error) {
	args, err := at.ParseArgs(body)
	if err != nil {
		return Network{}, err
	}
	if len(args) < 3 ||
		args[0].Kind != at.KindInt ||
		args[1].Kind != at.KindString ||
		args[2].Kind != at.KindInt {
		return Network{}, errMalformedRecord
	}

	n := Network{
		Mode: Encryption(args[0].Int),
		SSID: args[1].Str,
		RSSI: args[2].Int,
	}
	if len(args) > 3 && args[3].Kind == at.KindString {
		n.BSSID = args[3].Str
	}
	if len(args) > 4 && args[4].Kind == at.KindInt {
		n.Channel = args[4].Int
	}
	return n, nil
}
