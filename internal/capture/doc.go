// Package capture owns the live-capture run: acquiring the pcap handle,
// filtering to protocol traffic, and the serial dispatch loop that parses,
// decrypts and reports each packet while maintaining the session counters.
//
// One capture resource is held for the duration of a run and released on
// every exit path. The loop is single threaded by design: each packet is
// fully processed before the next read, so the session counters need no
// synchronization.
package capture
