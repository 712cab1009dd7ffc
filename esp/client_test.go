package esp_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/espwifi/at"
	"i4.energy/across/espwifi/esp"
)

// fakeExecutor completes commands under test control. Like a Stream, it
// reports work on the Tick that delivers a response.
type fakeExecutor struct {
	sent        []string
	lastCommand string
	response    []byte
	reply       []byte
	replyErr    error
	replied     bool
	inFlight    bool
	received    bool
	err         error
	execErr     error
	unsolicited func(line []byte)
}

func (f *fakeExecutor) Execute(name string, args ...at.Arg) error {
	if f.execErr != nil {
		return f.execErr
	}
	if f.inFlight {
		return esp.ErrCommandInFlight
	}
	f.sent = append(f.sent, at.Command(name, args...))
	f.lastCommand = name
	f.response = nil
	f.received = false
	f.err = nil
	f.inFlight = true
	return nil
}

// respond queues resp for delivery on the next Tick.
func (f *fakeExecutor) respond(resp string, err error) {
	f.reply = []byte(resp)
	f.replyErr = err
	f.replied = true
}

func (f *fakeExecutor) Tick() bool {
	if f.replied && f.inFlight {
		f.replied = false
		f.response = f.reply
		f.err = f.replyErr
		f.inFlight = false
		f.received = true
		return true
	}
	return f.inFlight
}

func (f *fakeExecutor) Ready() bool                        { return !f.inFlight }
func (f *fakeExecutor) Received() bool                     { return f.received }
func (f *fakeExecutor) Response() []byte                   { return f.response }
func (f *fakeExecutor) LastCommand() string                { return f.lastCommand }
func (f *fakeExecutor) Err() error                         { return f.err }
func (f *fakeExecutor) OnUnsolicited(fn func(line []byte)) { f.unsolicited = fn }
func (f *fakeExecutor) Close() error                       { return nil }

// line delivers an out-of-band status line.
func (f *fakeExecutor) line(s string) {
	f.unsolicited([]byte(s))
}

const joinResponse = "WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n"

func TestClientConnect(t *testing.T) {
	t.Run("Join response is applied on the tick after it arrives", func(t *testing.T) {
		f := &fakeExecutor{}
		c := esp.NewClient(f)

		if err := c.Connect("Home", "secret"); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if want := `AT+CWJAP="Home","secret"`; f.sent[0] != want {
			t.Errorf("sent %q, want %q", f.sent[0], want)
		}
		if c.Phase() != esp.PhaseCommandInFlight {
			t.Errorf("Phase() = %v, want %v", c.Phase(), esp.PhaseCommandInFlight)
		}
		if !c.Tick() {
			t.Error("Tick() = false while a command is in flight")
		}

		f.respond(joinResponse, nil)
		if !c.Tick() {
			t.Error("Tick() = false in the arrival cycle")
		}
		if c.Ready() {
			t.Error("Ready() = true in the arrival cycle")
		}
		if c.Phase() != esp.PhaseConnectResponsePending {
			t.Errorf("Phase() = %v, want %v", c.Phase(), esp.PhaseConnectResponsePending)
		}
		if c.Connected() {
			t.Error("Connected() = true before the response was applied")
		}

		if !c.Tick() {
			t.Error("Tick() = false in the cycle that applies the response")
		}
		if !c.Ready() {
			t.Error("Ready() = false after the response was applied")
		}
		if c.State() != esp.StateConnected|esp.StateGotIP {
			t.Errorf("State() = %v, want connected,got ip", c.State())
		}
		if c.Tick() {
			t.Error("Tick() = true with nothing left to do")
		}
	})

	t.Run("Status line after the join response is applied last", func(t *testing.T) {
		f := &fakeExecutor{}
		c := esp.NewClient(f)

		if err := c.Connect("Home", "secret"); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		f.respond(joinResponse, nil)
		c.Tick()
		if c.Ready() {
			t.Error("Ready() = true in the arrival cycle")
		}

		f.line(at.WifiDisconnect)
		if !c.Ready() {
			t.Error("Ready() = false after a later line flushed the join response")
		}
		if c.State() != 0 {
			t.Errorf("State() = %v, want disconnected", c.State())
		}

		c.Tick()
		if c.State() != 0 {
			t.Errorf("State() = %v after the next tick, want disconnected", c.State())
		}
	})

	t.Run("Empty password joins an open network", func(t *testing.T) {
		f := &fakeExecutor{}
		c := esp.NewClient(f)

		if err := c.Connect("Cafe", ""); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if want := `AT+CWJAP="Cafe",""`; f.sent[0] != want {
			t.Errorf("sent %q, want %q", f.sent[0], want)
		}
	})

	t.Run("Failed join leaves the link state alone", func(t *testing.T) {
		f := &fakeExecutor{}
		c := esp.NewClient(f)

		if err := c.Connect("Home", "wrong"); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		f.respond("+CWJAP:2\r\n\r\nFAIL\r\n", esp.ErrCommandFailed)
		c.Tick()
		c.Tick()

		if !c.Ready() {
			t.Error("Ready() = false after the response was applied")
		}
		if c.State() != 0 {
			t.Errorf("State() = %v, want disconnected", c.State())
		}
		if !errors.Is(c.Err(), esp.ErrCommandFailed) {
			t.Errorf("Err() = %v, want %v", c.Err(), esp.ErrCommandFailed)
		}
	})

	t.Run("Rejected execute does not wait for a join response", func(t *testing.T) {
		f := &fakeExecutor{execErr: errors.New("write failed")}
		c := esp.NewClient(f)

		if err := c.Connect("Home", "secret"); err == nil {
			t.Fatal("Connect() error = nil, want write failure")
		}

		f.execErr = nil
		if err := c.Version(); err != nil {
			t.Fatalf("Version() error = %v", err)
		}
		f.respond("WIFI CONNECTED\r\nOK\r\n", nil)
		c.Tick()

		if !c.Ready() {
			t.Error("Ready() = false after a non-join response")
		}
		if c.Connected() {
			t.Error("non-join response changed the link state")
		}
	})

	t.Run("Connect while busy is rejected", func(t *testing.T) {
		f := &fakeExecutor{}
		c := esp.NewClient(f)

		if err := c.ScanNetworks(); err != nil {
			t.Fatalf("ScanNetworks() error = %v", err)
		}
		if err := c.Connect("Home", "secret"); !errors.Is(err, esp.ErrCommandInFlight) {
			t.Errorf("Connect() error = %v, want %v", err, esp.ErrCommandInFlight)
		}
		f.respond("OK\r\n", nil)
		c.Tick()
		if !c.Ready() {
			t.Error("Ready() = false, the rejected join must not be pending")
		}
	})
}

func TestClientJoinOverStream(t *testing.T) {
	transport := esp.NewTestTransport()
	c := esp.NewClient(esp.NewStream(transport, 0, nil))
	defer c.Close()

	if err := c.Connect("Home", "pw"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	transport.SendData(joinResponse + "WIFI DISCONNECT\r\n")

	deadline := time.Now().Add(2 * time.Second)
	for !c.Ready() || c.State() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Ready() = %v, State() = %v, want ready and disconnected", c.Ready(), c.State())
		}
		c.Tick()
		time.Sleep(time.Millisecond)
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestClientDisconnect(t *testing.T) {
	f := &fakeExecutor{}
	c := esp.NewClient(f)
	f.line(at.WifiConnected)
	f.line(at.WifiGotIP)

	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if c.State() != 0 {
		t.Errorf("State() = %v, want disconnected before the module confirms", c.State())
	}
	if want := "AT+CWQAP"; f.sent[0] != want {
		t.Errorf("sent %q, want %q", f.sent[0], want)
	}
}

func TestHandleLine(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  esp.NetworkState
	}{
		{
			name:  "Connected then got ip",
			lines: []string{"WIFI CONNECTED", "WIFI GOT IP"},
			want:  esp.StateConnected | esp.StateGotIP,
		},
		{
			name:  "Disconnect clears both facts",
			lines: []string{"WIFI CONNECTED", "WIFI GOT IP", "WIFI DISCONNECT"},
			want:  0,
		},
		{
			name:  "Got ip without connected is kept",
			lines: []string{"WIFI GOT IP"},
			want:  esp.StateGotIP,
		},
		{
			name:  "Repeated lines are idempotent",
			lines: []string{"WIFI CONNECTED", "WIFI CONNECTED"},
			want:  esp.StateConnected,
		},
		{
			name:  "Disconnect from empty state",
			lines: []string{"WIFI DISCONNECT"},
			want:  0,
		},
		{
			name:  "Trailing carriage return",
			lines: []string{"WIFI CONNECTED\r", "WIFI GOT IP\r"},
			want:  esp.StateConnected | esp.StateGotIP,
		},
		{
			name:  "Truncated status line is ignored",
			lines: []string{"WIFI CONNECTE", "WIFI GOT"},
			want:  0,
		},
		{
			name:  "Status text with a suffix is ignored",
			lines: []string{"WIFI CONNECTED!", "WIFI GOT IPX"},
			want:  0,
		},
		{
			name:  "Other lines are ignored",
			lines: []string{"ready", "OK", "+CWJAP:1", "wifi connected"},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := esp.NewClient(&fakeExecutor{})
			for _, l := range tt.lines {
				c.HandleLine([]byte(l))
			}
			if c.State() != tt.want {
				t.Errorf("State() = %v, want %v", c.State(), tt.want)
			}
		})
	}
}

func TestUnsolicitedStatusLines(t *testing.T) {
	f := &fakeExecutor{}
	c := esp.NewClient(f)

	f.line("WIFI CONNECTED")
	if !c.Connected() {
		t.Error("Connected() = false after an unsolicited status line")
	}
	f.line("WIFI DISCONNECT")
	if c.Connected() || c.GotIP() {
		t.Error("link state not cleared by WIFI DISCONNECT")
	}
}

func TestClientCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(c *esp.Client) error
		want string
	}{
		{"Version", (*esp.Client).Version, "AT+GMR"},
		{"Restart", (*esp.Client).Restart, "AT+RST"},
		{"Restore", (*esp.Client).Restore, "AT+RESTORE"},
		{"ScanNetworks", (*esp.Client).ScanNetworks, "AT+CWLAP"},
		{
			name: "SetMode station",
			call: func(c *esp.Client) error { return c.SetMode(esp.ModeStation) },
			want: "AT+CWMODE_CUR=1",
		},
		{
			name: "SetMode access point and station",
			call: func(c *esp.Client) error { return c.SetMode(esp.ModeAccessPointAndStation) },
			want: "AT+CWMODE_CUR=3",
		},
		{
			name: "ScanNetworksOptions ordered",
			call: func(c *esp.Client) error { return c.ScanNetworksOptions(true) },
			want: "AT+CWLAPOPT=1,127",
		},
		{
			name: "ScanNetworksOptions unordered",
			call: func(c *esp.Client) error { return c.ScanNetworksOptions(false) },
			want: "AT+CWLAPOPT=0,127",
		},
		{
			name: "UseDNS",
			call: func(c *esp.Client) error { return c.UseDNS("example.com") },
			want: `AT+CIPDOMAIN="example.com"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeExecutor{}
			c := esp.NewClient(f)

			if err := tt.call(c); err != nil {
				t.Fatalf("error = %v", err)
			}
			if !slices.Equal(f.sent, []string{tt.want}) {
				t.Errorf("sent %q, want %q", f.sent, tt.want)
			}
		})
	}
}

func TestLocalNetInfoGate(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{name: "Disconnected"},
		{name: "Connected without ip", lines: []string{at.WifiConnected}},
		{name: "Ip without connected", lines: []string{at.WifiGotIP}},
		{name: "Connection lost", lines: []string{at.WifiConnected, at.WifiGotIP, at.WifiDisconnect}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			exec := esp.NewMockExecutor(ctrl)
			exec.EXPECT().OnUnsolicited(gomock.Any())
			// No Execute expectation: the gate must not reach the wire.

			c := esp.NewClient(exec)
			for _, l := range tt.lines {
				c.HandleLine([]byte(l))
			}
			if err := c.LocalNetInfo(); !errors.Is(err, esp.ErrWrongCommand) {
				t.Errorf("LocalNetInfo() error = %v, want %v", err, esp.ErrWrongCommand)
			}
		})
	}

	t.Run("Connected with ip", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		exec := esp.NewMockExecutor(ctrl)
		exec.EXPECT().OnUnsolicited(gomock.Any())
		exec.EXPECT().Execute(at.CmdLocalAddr).Return(nil)

		c := esp.NewClient(exec)
		c.HandleLine([]byte(at.WifiConnected))
		c.HandleLine([]byte(at.WifiGotIP))
		if err := c.LocalNetInfo(); err != nil {
			t.Errorf("LocalNetInfo() error = %v", err)
		}
	})
}

func TestNetInfo(t *testing.T) {
	f := &fakeExecutor{}
	c := esp.NewClient(f)

	if _, err := c.NetInfo(); !errors.Is(err, esp.ErrWrongPrecedingCommand) {
		t.Errorf("NetInfo() error = %v, want %v", err, esp.ErrWrongPrecedingCommand)
	}

	f.line(at.WifiConnected)
	f.line(at.WifiGotIP)
	if err := c.LocalNetInfo(); err != nil {
		t.Fatalf("LocalNetInfo() error = %v", err)
	}
	f.respond("AT+CIFSR\r\n"+
		`+CIFSR:STAIP,"192.168.1.7"`+"\r\n"+
		`+CIFSR:STAMAC,"a4:cf:12:0b:22:33"`+"\r\n\r\nOK\r\n", nil)
	c.Tick()

	info, err := c.NetInfo()
	if err != nil {
		t.Fatalf("NetInfo() error = %v", err)
	}
	if got := info.StationIP.String(); got != "192.168.1.7" {
		t.Errorf("StationIP = %s, want 192.168.1.7", got)
	}
	if got := info.StationMAC.String(); got != "a4:cf:12:0b:22:33" {
		t.Errorf("StationMAC = %s, want a4:cf:12:0b:22:33", got)
	}
	if info.APIP != nil {
		t.Errorf("APIP = %v, want nil", info.APIP)
	}
}

func TestVersionLines(t *testing.T) {
	f := &fakeExecutor{}
	c := esp.NewClient(f)

	if err := c.Version(); err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	f.respond("AT+GMR\r\n"+
		"AT version:2.2.0.0(c6fa6bf - ESP8266 - Jul  2 2021 06:44:05)\r\n"+
		"SDK version:v3.4-22-g967752e2\r\n"+
		"\r\nOK\r\n", nil)
	c.Tick()

	got, err := c.VersionLines()
	if err != nil {
		t.Fatalf("VersionLines() error = %v", err)
	}
	want := []string{
		"AT version:2.2.0.0(c6fa6bf - ESP8266 - Jul  2 2021 06:44:05)",
		"SDK version:v3.4-22-g967752e2",
	}
	if !slices.Equal(got, want) {
		t.Errorf("VersionLines() = %q, want %q", got, want)
	}

	if err := c.ScanNetworks(); err != nil {
		t.Fatalf("ScanNetworks() error = %v", err)
	}
	if _, err := c.VersionLines(); !errors.Is(err, esp.ErrWrongPrecedingCommand) {
		t.Errorf("VersionLines() error = %v, want %v", err, esp.ErrWrongPrecedingCommand)
	}
}

func TestClientWait(t *testing.T) {
	t.Run("Returns the command result", func(t *testing.T) {
		f := &fakeExecutor{}
		c := esp.NewClient(f)

		if err := c.Restart(); err != nil {
			t.Fatalf("Restart() error = %v", err)
		}
		f.respond("ERROR\r\n", esp.ErrCommandFailed)

		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()
		if err := c.Wait(ctx); !errors.Is(err, esp.ErrCommandFailed) {
			t.Errorf("Wait() error = %v, want %v", err, esp.ErrCommandFailed)
		}
	})

	t.Run("Stops when the context ends", func(t *testing.T) {
		f := &fakeExecutor{}
		c := esp.NewClient(f)

		if err := c.ScanNetworks(); err != nil {
			t.Fatalf("ScanNetworks() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()
		if err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
		}
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    esp.Mode
		wantErr bool
	}{
		{in: "station", want: esp.ModeStation},
		{in: "AP", want: esp.ModeAccessPoint},
		{in: " ap+station ", want: esp.ModeAccessPointAndStation},
		{in: "mesh", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := esp.ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
