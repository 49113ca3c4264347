package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestCollectEntries(t *testing.T) {
	entries := make(chan *zeroconf.ServiceEntry)

	go func() {
		entries <- &zeroconf.ServiceEntry{
			HostName: "plug-a.local.",
			Port:     80,
			AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
		}
		// No usable address; must be skipped, not collected.
		entries <- &zeroconf.ServiceEntry{HostName: "ghost.local."}
		// Queued right before the resolver closes the channel; still
		// has to land in the result.
		entries <- &zeroconf.ServiceEntry{
			HostName: "plug-b.local.",
			Port:     80,
			AddrIPv4: []net.IP{net.ParseIP("10.0.0.6")},
		}
		close(entries)
	}()

	devices := collectEntries(entries)

	if len(devices) != 2 {
		t.Fatalf("collected %d devices, want 2: %v", len(devices), devices)
	}
	if devices[0].IP != "10.0.0.5" || devices[1].IP != "10.0.0.6" {
		t.Errorf("devices = [%s, %s], want [10.0.0.5, 10.0.0.6]", devices[0].IP, devices[1].IP)
	}
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name: "entry with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "smartplug-ab12.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
			},
			wantIP:   "192.168.4.16",
			wantPort: 80,
		},
		{
			name: "entry without address is dropped",
			entry: &zeroconf.ServiceEntry{
				HostName: "ghost.local.",
				Port:     80,
			},
			wantNil: true,
		},
		{
			name: "first IPv4 wins",
			entry: &zeroconf.ServiceEntry{
				HostName: "multi.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.8"), net.ParseIP("10.0.0.9")},
			},
			wantIP:   "10.0.0.8",
			wantPort: 8080,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if d != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", d)
				}
				return
			}
			if d == nil {
				t.Fatal("parseServiceEntry() = nil")
			}
			if d.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", d.IP, tt.wantIP)
			}
			if d.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", d.Port, tt.wantPort)
			}
			if d.Source != "mdns" {
				t.Errorf("Source = %q, want mdns", d.Source)
			}
		})
	}
}
