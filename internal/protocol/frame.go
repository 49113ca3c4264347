package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Tuya LAN frame constants
const (
	PrefixMagic = 0x000055AA // frame start marker, big-endian
	SuffixMagic = 0x0000AA55 // frame end marker, big-endian
	HeaderSize  = 16         // prefix + sequence + command + length
	TrailerSize = 8          // CRC + suffix, present but unvalidated
)

// Command codes (from live capture of 3.x firmware devices)
const (
	CmdUDPNew       uint32 = 0x00
	CmdAPConfig     uint32 = 0x01
	CmdActive       uint32 = 0x02
	CmdBind         uint32 = 0x03
	CmdRenameGW     uint32 = 0x04
	CmdRenameDevice uint32 = 0x05
	CmdUnbind       uint32 = 0x06
	CmdControl      uint32 = 0x07
	CmdStatus       uint32 = 0x08
	CmdHeartBeat    uint32 = 0x09
	CmdDPQuery      uint32 = 0x0a
	CmdQueryWifi    uint32 = 0x0d
	CmdTokenBind    uint32 = 0x0e
	CmdControlNew   uint32 = 0x0f
	CmdEnableWifi   uint32 = 0x10
	CmdDPQueryNew   uint32 = 0x12
	CmdSceneExecute uint32 = 0x13
	CmdUDPNewV2     uint32 = 0x14
)

var commandNames = map[uint32]string{
	CmdUDPNew:       "UDP_NEW",
	CmdAPConfig:     "AP_CONFIG",
	CmdActive:       "ACTIVE",
	CmdBind:         "BIND",
	CmdRenameGW:     "RENAME_GW",
	CmdRenameDevice: "RENAME_DEVICE",
	CmdUnbind:       "UNBIND",
	CmdControl:      "CONTROL",
	CmdStatus:       "STATUS",
	CmdHeartBeat:    "HEART_BEAT",
	CmdDPQuery:      "DP_QUERY",
	CmdQueryWifi:    "QUERY_WIFI",
	CmdTokenBind:    "TOKEN_BIND",
	CmdControlNew:   "CONTROL_NEW",
	CmdEnableWifi:   "ENABLE_WIFI",
	CmdDPQueryNew:   "DP_QUERY_NEW",
	CmdSceneExecute: "SCENE_EXECUTE",
	CmdUDPNewV2:     "UDP_NEW_V2",
}

// versionTag marks encrypted payloads ("3.1", "3.3", "3.4", ...)
var versionTag = []byte("3.")

// Parse errors. Both mean "not protocol traffic"; callers drop the buffer
// and move on rather than treating it as a failure.
var (
	ErrShortBuffer = errors.New("buffer shorter than frame header")
	ErrBadPrefix   = errors.New("prefix magic mismatch")
)

// CommandName resolves a command code to its protocol name.
// Unmapped codes format as UNKNOWN_0x<hex>.
func CommandName(cmd uint32) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_0x%x", cmd)
}

// Frame is one parsed protocol datagram.
//
// Layout (big-endian):
//
//	[0-3]   prefix magic 0x000055AA
//	[4-7]   sequence number
//	[8-11]  command code
//	[12-15] declared payload length N
//	[16..]  payload (cleartext JSON or 3-byte version tag + ciphertext)
//	[..]    CRC + suffix magic 0x0000AA55 (retained in Raw, not validated)
type Frame struct {
	Prefix      uint32
	Sequence    uint32
	Command     uint32
	CommandName string
	Length      uint32 // declared payload length from the header

	// Payload is nil when the declared length exceeds the captured bytes.
	Payload []byte

	// JSON holds the best-effort decode of a cleartext '{' payload.
	JSON map[string]any

	// Encrypted payloads carry a 3-character ASCII version tag ("3.3").
	Encrypted bool
	Version   string

	// Truncated marks a capture whose payload was cut short. Normal for
	// partial captures; payload-dependent fields are simply absent.
	Truncated bool

	// Raw always retains the full captured buffer for audit.
	Raw []byte
}

// Parse decodes a captured UDP payload into a Frame.
//
// Returns ErrShortBuffer or ErrBadPrefix for non-protocol traffic. All
// captured bytes are untrusted; Parse never panics, and a declared length
// larger than the buffer degrades to a headers-only frame rather than
// failing.
func Parse(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, ErrShortBuffer
	}

	prefix := binary.BigEndian.Uint32(data[0:4])
	if prefix != PrefixMagic {
		return nil, ErrBadPrefix
	}

	f := &Frame{
		Prefix:   prefix,
		Sequence: binary.BigEndian.Uint32(data[4:8]),
		Command:  binary.BigEndian.Uint32(data[8:12]),
		Length:   binary.BigEndian.Uint32(data[12:16]),
		Raw:      data,
	}
	f.CommandName = CommandName(f.Command)

	if f.Length == 0 {
		return f, nil
	}
	if uint64(len(data)) < uint64(HeaderSize)+uint64(f.Length) {
		f.Truncated = true
		return f, nil
	}

	f.Payload = data[HeaderSize : HeaderSize+int(f.Length)]

	if f.Payload[0] == '{' {
		// Best effort; a failed decode just leaves JSON nil.
		var obj map[string]any
		if err := json.Unmarshal(f.Payload, &obj); err == nil {
			f.JSON = obj
		}
	}

	if len(f.Payload) >= 3 && bytes.HasPrefix(f.Payload, versionTag) {
		f.Encrypted = true
		f.Version = string(f.Payload[:3])
	}

	return f, nil
}

// Ciphertext returns the encrypted payload bytes with the version tag
// stripped, or nil if the frame carries no encrypted payload.
func (f *Frame) Ciphertext() []byte {
	if !f.Encrypted || len(f.Payload) < 3 {
		return nil
	}
	return f.Payload[3:]
}

// RawHex returns the full captured buffer as a hex string for audit output.
func (f *Frame) RawHex() string {
	return hex.EncodeToString(f.Raw)
}

// String returns a debug representation of the frame.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{cmd=%s, seq=%d, len=%d, encrypted=%v, truncated=%v}",
		f.CommandName, f.Sequence, f.Length, f.Encrypted, f.Truncated)
}
