package dlt

// MessageType is the message subtype carried in the extended header.
type MessageType string

const (
	TypeLog     MessageType = "LOG"
	TypeTrace   MessageType = "TRACE"
	TypeNWTrace MessageType = "NW_TRACE"
	TypeControl MessageType = "CONTROL"
)

// MessageTypeFromInfo maps the 3-bit subtype (bits 1-3 of message info) to a
// MessageType. Unknown values map to TypeLog.
func MessageTypeFromInfo(mtin uint8) MessageType {
	switch mtin {
	case 1:
		return TypeTrace
	case 2:
		return TypeNWTrace
	case 3:
		return TypeControl
	default:
		return TypeLog
	}
}

// Message is one decoded log record.
type Message struct {
	Index      uint64      `json:"index"`
	Timestamp  string      `json:"timestamp"`
	ECUID      string      `json:"ecu_id"`
	AppID      string      `json:"app_id"`
	ContextID  string      `json:"context_id"`
	Type       MessageType `json:"type"`
	Payload    string      `json:"payload"`
	SourceFile string      `json:"source"`
}

type StorageHeader struct {
	Seconds      uint32
	Microseconds uint32
	ECUID        string
}

// StandardHeader holds the fixed 4-byte header plus the optional fields that
// follow it. Optional fields are nil when the matching htyp bit is clear.
type StandardHeader struct {
	HTYP      uint8
	Counter   uint8
	Length    uint16
	ECUID     *string
	SessionID *uint32
	Timestamp *uint32
}

type ExtendedHeader struct {
	MessageInfo uint8
	NumArgs     uint8
	AppID       string
	ContextID   string
}

// Verbose reports whether bit 0 of the message info is set.
func (e ExtendedHeader) Verbose() bool {
	return e.MessageInfo&msinVerbose != 0
}

// Type decodes the message subtype from bits 1-3 of the message info.
func (e ExtendedHeader) Type() MessageType {
	return MessageTypeFromInfo((e.MessageInfo >> 1) & 0x07)
}

// MessageIndex records where a decoded message lives in its file.
type MessageIndex struct {
	Offset      int64
	Length      int64
	Kind        PayloadKind
	NumArgs     uint8
	SkippedArgs int
}

type FileIndex struct {
	Messages []MessageIndex
	Resyncs  int
}
