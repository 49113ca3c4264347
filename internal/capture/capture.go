package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/gopacket/pcap"
)

// ProtocolPorts are the UDP ports the device family talks on.
var ProtocolPorts = []int{6666, 6667, 6668}

// ErrNoPermission marks a capture-open failure caused by missing elevated
// privilege, so the CLI can print an actionable message instead of a raw
// libpcap error.
var ErrNoPermission = errors.New("packet capture requires elevated privileges")

const (
	snapLen = 2048
	promisc = true
)

// BPFFilter returns the capture filter for protocol traffic: UDP with
// source or destination port on a protocol port, optionally restricted to
// one host.
func BPFFilter(target string) string {
	ports := make([]string, len(ProtocolPorts))
	for i, p := range ProtocolPorts {
		ports[i] = fmt.Sprintf("port %d", p)
	}
	filter := fmt.Sprintf("udp and (%s)", strings.Join(ports, " or "))
	if target != "" {
		filter += fmt.Sprintf(" and host %s", target)
	}
	return filter
}

// OpenLive opens a live capture handle on iface (default "any") with the
// protocol filter applied. The caller owns the handle and must Close it on
// every exit path.
func OpenLive(iface, target string) (*pcap.Handle, error) {
	if iface == "" {
		iface = "any"
	}

	handle, err := pcap.OpenLive(iface, snapLen, promisc, pcap.BlockForever)
	if err != nil {
		if isPermissionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoPermission, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", iface, err)
	}

	if err := handle.SetBPFFilter(BPFFilter(target)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set capture filter: %w", err)
	}
	return handle, nil
}

// OpenOffline opens a previously recorded pcap file for replay with the
// same filter as a live run.
func OpenOffline(path, target string) (*pcap.Handle, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := handle.SetBPFFilter(BPFFilter(target)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set capture filter: %w", err)
	}
	return handle, nil
}

// isPermissionError sniffs libpcap's error text; pcap surfaces EPERM as a
// plain string, not a wrapped errno.
func isPermissionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "access denied")
}
