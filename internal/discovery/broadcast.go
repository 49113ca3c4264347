package discovery

import (
	"context"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oware/tuyatap/internal/logging"
	"github.com/oware/tuyatap/internal/protocol"
)

// DefaultProbeTimeout bounds the listen window after the probe is sent.
const DefaultProbeTimeout = 3 * time.Second

// DiscoveryPorts are the ports devices answer broadcast probes on.
var DiscoveryPorts = []int{6666, 6667}

// Prober enumerates devices with the protocol's broadcast discovery
// mechanism: a zeroed frame sent to the limited-broadcast address, answered
// by each device with its announce frame.
type Prober struct {
	// Timeout is the listen window after the probe is sent.
	Timeout time.Duration

	// Ports to probe.
	Ports []int

	// Broadcast is the destination address, overridable for tests.
	Broadcast string
}

// NewProber creates a prober with default settings.
func NewProber() *Prober {
	return &Prober{
		Timeout:   DefaultProbeTimeout,
		Ports:     DiscoveryPorts,
		Broadcast: net.IPv4bcast.String(),
	}
}

// Probe broadcasts the discovery datagram and collects each unique
// responder once until the timeout window closes.
//
// An empty result is a normal outcome. Socket failures at any stage degrade
// to "no results"; discovery must never abort the run it precedes.
func (p *Prober) Probe(ctx context.Context) []*Device {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		logging.Debug("discovery socket unavailable", zap.Error(err))
		return nil
	}
	defer conn.Close()

	enableBroadcast(conn)

	bcast := net.ParseIP(p.Broadcast)
	if bcast == nil {
		bcast = net.IPv4bcast
	}

	datagram := protocol.DiscoveryDatagram()
	for _, port := range p.Ports {
		dst := &net.UDPAddr{IP: bcast, Port: port}
		if _, err := conn.WriteTo(datagram, dst); err != nil {
			logging.Debug("discovery send failed",
				zap.String("dst", dst.String()),
				zap.Error(err),
			)
		}
	}

	deadline := time.Now().Add(p.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	var devices []*Device
	seen := make(map[string]struct{})
	buf := make([]byte, 1024)

	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			// Deadline or socket failure; either way the window is over.
			return devices
		}

		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}
		ip := udpAddr.IP.String()
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}

		if f, err := protocol.Parse(buf[:n]); err == nil {
			logging.Debug("discovery response",
				zap.String("device", ip),
				zap.String("command", f.CommandName),
			)
		}

		devices = append(devices, &Device{
			IP:           ip,
			Port:         udpAddr.Port,
			Source:       "broadcast",
			DiscoveredAt: time.Now(),
		})
	}
}

// enableBroadcast sets SO_BROADCAST; without it sends to 255.255.255.255
// fail with EACCES on most platforms.
func enableBroadcast(conn net.PacketConn) {
	uc, ok := conn.(*net.UDPConn)
	if !ok {
		return
	}
	rc, err := uc.SyscallConn()
	if err != nil {
		return
	}
	_ = rc.Control(func(fd uintptr) {
		_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	})
}
