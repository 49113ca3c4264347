package protocol

import (
	"encoding/binary"
)

// Frame constructor. The analyzer itself never transmits protocol frames;
// these builders exist for the broadcast discovery probe and for validating
// the parser against frames shaped like the ones the command layer sends.

// Encode builds a complete frame: 16-byte header, payload, zeroed CRC and
// the suffix magic. The CRC field is left zero; devices on the LAN path
// accept it and this tool never validates it either.
func Encode(seq, cmd uint32, payload []byte) []byte {
	frame := make([]byte, HeaderSize+len(payload)+TrailerSize)

	binary.BigEndian.PutUint32(frame[0:4], PrefixMagic)
	binary.BigEndian.PutUint32(frame[4:8], seq)
	binary.BigEndian.PutUint32(frame[8:12], cmd)
	binary.BigEndian.PutUint32(frame[12:16], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)

	binary.BigEndian.PutUint32(frame[len(frame)-4:], SuffixMagic)
	return frame
}

// DiscoveryDatagram returns the 24-byte broadcast probe: prefix and suffix
// magic around zeroed sequence, command, length and return-code fields.
// Devices answer it on the discovery ports with their announce frame.
func DiscoveryDatagram() []byte {
	d := make([]byte, HeaderSize+TrailerSize)
	binary.BigEndian.PutUint32(d[0:4], PrefixMagic)
	binary.BigEndian.PutUint32(d[len(d)-4:], SuffixMagic)
	return d
}
