package capture

// Session holds the per-run counters: total matching packets and the set of
// distinct device addresses observed. It is created when capture starts,
// mutated only by the dispatch loop, and discarded after the final summary;
// nothing is persisted.
type Session struct {
	packets int
	devices map[string]struct{}
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{devices: make(map[string]struct{})}
}

// CountPacket records one matching packet.
func (s *Session) CountPacket() {
	s.packets++
}

// ObserveDevice records a device address. Duplicates are fine.
func (s *Session) ObserveDevice(ip string) {
	if ip == "" {
		return
	}
	s.devices[ip] = struct{}{}
}

// Packets returns the total matching packet count.
func (s *Session) Packets() int {
	return s.packets
}

// Devices returns the distinct device addresses seen so far.
func (s *Session) Devices() []string {
	out := make([]string, 0, len(s.devices))
	for ip := range s.devices {
		out = append(out, ip)
	}
	return out
}
