// Package discovery enumerates smart-device controllers on the LAN.
//
// The primary mechanism is the protocol's own broadcast probe: a zeroed
// frame sent to 255.255.255.255 on the discovery ports, answered by each
// device with an announce frame. Discovery runs once, strictly before
// capture, and is best effort throughout — an empty result and a socket
// error both just mean "no devices found".
//
// A supplemental mDNS browse is available for devices that ignore the
// broadcast probe; its results are hints for manual targeting rather than
// confirmed protocol speakers.
package discovery
