package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type browsed for supplemental
	// discovery. Tuya-family devices do not announce a dedicated service,
	// but many expose a plain HTTP endpoint that shows up here.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for an mDNS scan
	DefaultScanTimeout = 5 * time.Second
)

// Scanner handles supplemental mDNS discovery for devices that ignore the
// UDP broadcast probe. Results are hints, not confirmed protocol speakers.
type Scanner struct {
	// Timeout is the maximum time to wait for responses
	Timeout time.Duration
}

// NewScanner creates an mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan browses the local network and returns every host that answered.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// The resolver closes entries once the scan window ends; collecting
	// here (not in a goroutine) means the slice is never shared and late
	// responses queued at expiry still land.
	return collectEntries(entries), nil
}

// collectEntries drains the entry channel until the resolver closes it.
func collectEntries(entries <-chan *zeroconf.ServiceEntry) []*Device {
	devices := make([]*Device, 0)
	for entry := range entries {
		if device := parseServiceEntry(entry); device != nil {
			devices = append(devices, device)
		}
	}
	return devices
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Entries without a usable IPv4 address are dropped.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" {
		return nil
	}

	return &Device{
		IP:           ip,
		Hostname:     entry.HostName,
		Port:         entry.Port,
		Source:       "mdns",
		DiscoveredAt: time.Now(),
	}
}
