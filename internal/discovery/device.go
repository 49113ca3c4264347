package discovery

import (
	"fmt"
	"time"
)

// Device is one responder found during a discovery phase. Results are
// ephemeral: used to pick a capture target, never retained past startup.
type Device struct {
	// IP is the responder's IPv4 address.
	IP string

	// Hostname is set for mDNS results only.
	Hostname string

	// Port the responder answered on.
	Port int

	// Source is "broadcast" or "mdns".
	Source string

	// DiscoveredAt is when the response arrived.
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the device.
func (d *Device) String() string {
	if d.Hostname != "" {
		return fmt.Sprintf("%s (%s) via %s", d.IP, d.Hostname, d.Source)
	}
	return fmt.Sprintf("%s via %s", d.IP, d.Source)
}
