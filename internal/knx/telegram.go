package knx

import (
	"encoding/binary"
	"fmt"
	"time"
)

// knxd protocol message types.
const (
	// EIBOpenGroupCon opens a group socket for sending/receiving group
	// telegrams. Payload: reserved(1) + write_only(1) + reserved(1).
	EIBOpenGroupCon uint16 = 0x0026

	// EIBGroupPacket carries a group telegram in both directions.
	EIBGroupPacket uint16 = 0x0027

	// EIBClose closes the knxd connection gracefully.
	EIBClose uint16 = 0x0006
)

// APCI (Application Protocol Control Information) codes.
const (
	// APCIRead is a group read request; it carries no payload.
	APCIRead byte = 0x00

	// APCIResponse is a group read response; it carries a payload.
	APCIResponse byte = 0x40

	// APCIWrite is a group write; it carries a payload.
	APCIWrite byte = 0x80
)

// groupHeaderSize is the receive-side header: src(2) + GA(2) + TPCI(1) + APCI(1).
const groupHeaderSize = 6

// Telegram represents a KNX group telegram.
//
// A telegram is the basic unit of communication on the bus. It carries a
// command (read/write/response) and optional DPT-encoded data to a
// destination group address.
type Telegram struct {
	// Source is the sender's individual address (e.g. "1.1.5").
	// Only populated for received telegrams.
	Source string

	// Destination is the target group address.
	Destination GroupAddress

	// APCI indicates the telegram type (read, response, or write).
	APCI byte

	// Data contains the DPT-encoded payload (nil for read requests).
	Data []byte

	// Timestamp records when the telegram was received or created.
	Timestamp time.Time
}

// ParseTelegram parses a raw knxd group packet payload into a Telegram.
//
// Receive format (EIB_OPEN_GROUPCON):
//
//	Byte 0-1: Source individual address (big-endian)
//	Byte 2-3: Destination group address (big-endian)
//	Byte 4:   TPCI (usually 0x00)
//	Byte 5:   APCI (upper 2 bits) | data (lower 6 bits) for short frames
//	Byte 6+:  Additional data bytes for long frames
func ParseTelegram(data []byte) (Telegram, error) {
	if len(data) < groupHeaderSize {
		return Telegram{}, fmt.Errorf("%w: too short (%d bytes, need at least %d)", ErrInvalidTelegram, len(data), groupHeaderSize)
	}

	srcRaw := binary.BigEndian.Uint16(data[0:2])
	source := formatIndividualAddress(srcRaw)

	destRaw := binary.BigEndian.Uint16(data[2:4])
	dest := GroupAddressFromUint16(destRaw)

	apci := data[5] & 0xC0

	var payload []byte
	if len(data) > groupHeaderSize {
		// Long frame: data bytes follow the header.
		payload = make([]byte, len(data)-groupHeaderSize)
		copy(payload, data[groupHeaderSize:])
	} else if apci == APCIWrite || apci == APCIResponse {
		// Short frame: value lives in the lower 6 bits of the APCI byte.
		payload = []byte{data[5] & 0x3F}
	}
	// For APCIRead, payload stays nil.

	return Telegram{
		Source:      source,
		Destination: dest,
		APCI:        apci,
		Data:        payload,
		Timestamp:   time.Now(),
	}, nil
}

// formatIndividualAddress renders a raw individual address as "area.line.device".
func formatIndividualAddress(ia uint16) string {
	return fmt.Sprintf("%d.%d.%d", (ia>>12)&0x0F, (ia>>8)&0x0F, ia&0xFF)
}

// EncodePayload encodes the telegram into the knxd group socket send format.
//
// Send format: GA(2) + TPCI(1) + APCI(1) [+ data]. Values that fit in
// 6 bits ride in the APCI byte (short frame); larger payloads follow it.
func (t Telegram) EncodePayload() []byte {
	if len(t.Data) == 1 && t.Data[0] <= 0x3F && t.APCI != APCIRead {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint16(buf[0:2], t.Destination.ToUint16())
		buf[2] = 0x00 // TPCI
		buf[3] = t.APCI | (t.Data[0] & 0x3F)
		return buf
	}
	if len(t.Data) == 0 {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint16(buf[0:2], t.Destination.ToUint16())
		buf[2] = 0x00
		buf[3] = t.APCI
		return buf
	}

	buf := make([]byte, 4+len(t.Data))
	binary.BigEndian.PutUint16(buf[0:2], t.Destination.ToUint16())
	buf[2] = 0x00
	buf[3] = t.APCI
	copy(buf[4:], t.Data)
	return buf
}

// IsWrite returns true if this is a group write telegram.
func (t Telegram) IsWrite() bool {
	return t.APCI == APCIWrite
}

// IsRead returns true if this is a group read request.
func (t Telegram) IsRead() bool {
	return t.APCI == APCIRead
}

// IsResponse returns true if this is a group read response.
func (t Telegram) IsResponse() bool {
	return t.APCI == APCIResponse
}

// HasPayload reports whether the telegram carries data a sensor handler
// may decode. Read requests and other payload-less frames must be
// ignored by handlers rather than decoded.
func (t Telegram) HasPayload() bool {
	return (t.APCI == APCIWrite || t.APCI == APCIResponse) && len(t.Data) > 0
}

// String returns a human-readable representation of the telegram.
func (t Telegram) String() string {
	apciStr := "UNKNOWN"
	switch t.APCI {
	case APCIRead:
		apciStr = "READ"
	case APCIResponse:
		apciStr = "RESPONSE"
	case APCIWrite:
		apciStr = "WRITE"
	}
	return fmt.Sprintf("Telegram{GA:%s, APCI:%s, Data:%X}", t.Destination, apciStr, t.Data)
}

// NewWriteTelegram creates a write telegram ready to send via knxd.
func NewWriteTelegram(dest GroupAddress, data []byte) Telegram {
	return Telegram{
		Destination: dest,
		APCI:        APCIWrite,
		Data:        data,
		Timestamp:   time.Now(),
	}
}

// EncodeMessage wraps a payload in the knxd message format.
//
// Format:
//
//	Byte 0-1: Payload size + 2 for the type field (big-endian)
//	Byte 2-3: Message type (big-endian)
//	Byte 4+:  Payload
func EncodeMessage(msgType uint16, payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], uint16(2+len(payload)))
	binary.BigEndian.PutUint16(buf[2:4], msgType)
	copy(buf[4:], payload)
	return buf
}

// ParseMessage splits a complete knxd message into type and payload.
func ParseMessage(data []byte) (msgType uint16, payload []byte, err error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("%w: message too short (%d bytes)", ErrInvalidTelegram, len(data))
	}

	size := binary.BigEndian.Uint16(data[0:2])
	if int(size)+2 != len(data) {
		return 0, nil, fmt.Errorf("%w: size field %d does not match message length %d", ErrInvalidTelegram, size, len(data))
	}

	msgType = binary.BigEndian.Uint16(data[2:4])
	return msgType, data[4:], nil
}
