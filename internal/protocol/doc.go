// Package protocol implements the Tuya LAN binary frame format.
//
// Tuya-family smart-device controllers exchange frames over UDP on ports
// 6666-6668. Every frame is delimited by fixed magic values:
//
//   - Prefix: 0x000055AA
//   - Header: big-endian sequence number, command code, payload length
//   - Payload: cleartext JSON, or a 3-byte ASCII version tag ("3.3")
//     followed by AES-128-ECB ciphertext
//   - Trailer: CRC and suffix magic 0x0000AA55
//
// Parse tolerates truncated captures: a declared payload length that
// exceeds the buffer degrades to a headers-only frame instead of failing.
// The trailing CRC is carried but never validated; captured traffic is
// analyzed permissively, matching what real 3.x devices accept.
//
// Known header-layout caveat: protocol revisions 3.1/3.3/3.4 differ in
// whether a return-code field precedes the payload. This package assumes
// the uniform 16-byte header observed in device-to-app traffic; verify
// against real captures before trusting newer-version frames.
package protocol
