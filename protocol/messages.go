package protocol

// MessageID identifies a command or response on the wire
type MessageID uint16

// Message IDs, in dictionary order. Requests come first.
const (
	CmdConfigPin MessageID = iota
	CmdGetLevel
	CmdSetLevel
	CmdAddISR
	RspStatus
	RspLevel
	RspEvent
)

var messages = [...]struct {
	name   string
	format string
}{
	CmdConfigPin: {"config_pin", "pin=%u mode=%c pull_up=%c pull_down=%c intr=%c"},
	CmdGetLevel:  {"get_level", "pin=%u"},
	CmdSetLevel:  {"set_level", "pin=%u level=%c"},
	CmdAddISR:    {"add_isr", "pin=%u"},
	RspStatus:    {"pin_status", "code=%c"},
	RspLevel:     {"pin_level", "pin=%u level=%c"},
	RspEvent:     {"pin_event", "pin=%u level=%c"},
}

func (id MessageID) String() string {
	if int(id) < len(messages) {
		return messages[id].name
	}
	return "unknown"
}
