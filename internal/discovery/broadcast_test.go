package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/oware/tuyatap/internal/protocol"
)

func TestProberDefaults(t *testing.T) {
	p := NewProber()
	if p.Timeout != DefaultProbeTimeout {
		t.Errorf("Timeout = %v, want %v", p.Timeout, DefaultProbeTimeout)
	}
	if len(p.Ports) != 2 || p.Ports[0] != 6666 || p.Ports[1] != 6667 {
		t.Errorf("Ports = %v, want [6666 6667]", p.Ports)
	}
}

func TestProbeNoResponders(t *testing.T) {
	p := NewProber()
	p.Timeout = 200 * time.Millisecond
	// Loopback target so the probe stays on-host regardless of the
	// network the tests run in.
	p.Broadcast = "127.0.0.1"
	p.Ports = []int{freePort(t)}

	start := time.Now()
	devices := p.Probe(context.Background())
	elapsed := time.Since(start)

	if len(devices) != 0 {
		t.Errorf("devices = %v, want none", devices)
	}
	if elapsed > 2*time.Second {
		t.Errorf("probe took %v, should respect the %v window", elapsed, p.Timeout)
	}
}

func TestProbeCollectsResponder(t *testing.T) {
	responder, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen responder: %v", err)
	}
	defer responder.Close()
	port := responder.LocalAddr().(*net.UDPAddr).Port

	// Fake device: answer the first probe with an announce frame, twice,
	// to exercise responder dedup.
	go func() {
		buf := make([]byte, 256)
		_, addr, err := responder.ReadFrom(buf)
		if err != nil {
			return
		}
		announce := protocol.Encode(0, protocol.CmdUDPNew, []byte(`{"ip":"127.0.0.1"}`))
		_, _ = responder.WriteTo(announce, addr)
		_, _ = responder.WriteTo(announce, addr)
	}()

	p := NewProber()
	p.Timeout = time.Second
	p.Broadcast = "127.0.0.1"
	p.Ports = []int{port}

	devices := p.Probe(context.Background())
	if len(devices) != 1 {
		t.Fatalf("devices = %v, want exactly one (deduplicated)", devices)
	}
	if devices[0].IP != "127.0.0.1" {
		t.Errorf("device IP = %q, want 127.0.0.1", devices[0].IP)
	}
	if devices[0].Source != "broadcast" {
		t.Errorf("device source = %q, want broadcast", devices[0].Source)
	}
}

// freePort grabs an unused UDP port so no responder can exist on it.
func freePort(t *testing.T) int {
	t.Helper()
	c, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe free port: %v", err)
	}
	port := c.LocalAddr().(*net.UDPAddr).Port
	c.Close()
	return port
}
