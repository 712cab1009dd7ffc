package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "
	Prefix = "AT"

	// Response Codes
	OK       = "OK"
	ERROR    = "ERROR"
	FAIL     = "FAIL"
	SendOK   = "SEND OK"
	SendFail = "SEND FAIL"
	BusyP    = "busy p..."
	BusyS    = "busy s..."

	// Active message reports (unsolicited)
	WifiConnected  = "WIFI CONNECTED"
	WifiGotIP      = "WIFI GOT IP"
	WifiDisconnect = "WIFI DISCONNECT"
	UrcWifi        = "WIFI "
	UrcReady       = "ready"

	// Data line tags
	TagNetwork = "+CWLAP:"
	TagNetInfo = "+CIFSR:"
)

// Command names understood by the ESP-AT firmware, without the "AT+" prefix.
const (
	CmdVersion     = "GMR"
	CmdRestart     = "RST"
	CmdRestore     = "RESTORE"
	CmdDisconnect  = "CWQAP"
	CmdMode        = "CWMODE_CUR"
	CmdScanOptions = "CWLAPOPT"
	CmdScan        = "CWLAP"
	CmdJoin        = "CWJAP"
	CmdDomain      = "CIPDOMAIN"
	CmdLocalAddr   = "CIFSR"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR, FAIL
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CWLAP: ...)
	TypePrompt                     // Data input prompt
	TypeBusy                       // Module still processing a previous command
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	case TypePrompt:
		return "prompt"
	case TypeBusy:
		return "busy"
	}
	return "unknown"
}
