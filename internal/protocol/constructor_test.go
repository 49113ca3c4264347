package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	payload := []byte(`{"devId":"bf12345","dps":{"1":true}}`)
	frame := Encode(17, CmdControl, payload)

	f, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse(Encode(...)) error = %v", err)
	}
	if f.Sequence != 17 {
		t.Errorf("sequence = %d, want 17", f.Sequence)
	}
	if f.Command != CmdControl {
		t.Errorf("command = 0x%x, want 0x%x", f.Command, CmdControl)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Errorf("payload = %q, want %q", f.Payload, payload)
	}

	// Trailer: zeroed CRC followed by the suffix magic.
	trailer := frame[len(frame)-TrailerSize:]
	if crc := binary.BigEndian.Uint32(trailer[0:4]); crc != 0 {
		t.Errorf("crc = 0x%08x, want 0", crc)
	}
	if suffix := binary.BigEndian.Uint32(trailer[4:8]); suffix != SuffixMagic {
		t.Errorf("suffix = 0x%08x, want 0x%08x", suffix, SuffixMagic)
	}
}

func TestDiscoveryDatagram(t *testing.T) {
	d := DiscoveryDatagram()

	if len(d) != 24 {
		t.Fatalf("datagram length = %d, want 24", len(d))
	}
	if prefix := binary.BigEndian.Uint32(d[0:4]); prefix != PrefixMagic {
		t.Errorf("prefix = 0x%08x, want 0x%08x", prefix, PrefixMagic)
	}
	if suffix := binary.BigEndian.Uint32(d[20:24]); suffix != SuffixMagic {
		t.Errorf("suffix = 0x%08x, want 0x%08x", suffix, SuffixMagic)
	}
	// Sequence, command, length and return code are all zero.
	for i := 4; i < 20; i++ {
		if d[i] != 0 {
			t.Errorf("byte %d = 0x%02x, want 0", i, d[i])
		}
	}
}
