package capture

import (
	"context"
	"strconv"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"github.com/oware/tuyatap/internal/crypto"
	"github.com/oware/tuyatap/internal/logging"
	"github.com/oware/tuyatap/internal/protocol"
	"github.com/oware/tuyatap/internal/report"
)

// KeyLookup resolves a device IP to its local key, or "" when unknown.
type KeyLookup func(ip string) string

// Dispatcher drives the capture loop: one packet at a time, parse, attempt
// decrypt, report, count. Strictly observational; it never transmits.
type Dispatcher struct {
	session *Session
	printer *report.Printer
	keyFor  KeyLookup
}

// NewDispatcher creates a dispatcher writing reports through printer.
// keyFor may be nil when no keys are configured.
func NewDispatcher(printer *report.Printer, keyFor KeyLookup) *Dispatcher {
	if keyFor == nil {
		keyFor = func(string) string { return "" }
	}
	return &Dispatcher{
		session: NewSession(),
		printer: printer,
		keyFor:  keyFor,
	}
}

// Session exposes the run counters for the final summary.
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Run consumes packets from src until the source is exhausted (offline
// replay) or ctx is cancelled (interrupt). Each packet is processed fully
// and synchronously before the next read; per-packet cost is microsecond
// scale, so the serial loop keeps up with realistic LAN rates and the
// session needs no locking.
func (d *Dispatcher) Run(ctx context.Context, src gopacket.PacketDataSource, linkType layers.LinkType) error {
	packets := gopacket.NewPacketSource(src, linkType).Packets()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok := <-packets:
			if !ok {
				return nil
			}
			d.HandlePacket(pkt)
		}
	}
}

// HandlePacket processes one captured packet. Exported so offline tooling
// and tests can feed packets without a pcap handle.
func (d *Dispatcher) HandlePacket(pkt gopacket.Packet) {
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return
	}
	udp := udpLayer.(*layers.UDP)

	// The BPF filter already restricts live traffic; re-check here so
	// offline sources and tests get identical behavior.
	if !onProtocolPort(udp.SrcPort) && !onProtocolPort(udp.DstPort) {
		return
	}

	srcIP, dstIP := endpointIPs(pkt)
	src := srcIP + ":" + strconv.Itoa(int(udp.SrcPort))
	dst := dstIP + ":" + strconv.Itoa(int(udp.DstPort))

	d.session.CountPacket()

	// The device is whichever endpoint sits on a protocol port.
	if onProtocolPort(udp.SrcPort) {
		d.session.ObserveDevice(srcIP)
	} else {
		d.session.ObserveDevice(dstIP)
	}

	ts := pkt.Metadata().Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	payload := udp.Payload
	frame, err := protocol.Parse(payload)
	if err != nil {
		// Non-protocol traffic on a protocol port. Still counted, still
		// reported, just without frame detail.
		logging.Debug("unframeable payload",
			zap.String("src", src),
			zap.Error(err),
		)
		d.printer.NonProtocol(d.session.Packets(), ts, src, dst, payload)
		return
	}

	var (
		decrypted  map[string]any
		decryptErr error
	)
	if frame.Encrypted {
		deviceIP := srcIP
		if !onProtocolPort(udp.SrcPort) {
			deviceIP = dstIP
		}
		if key := d.keyFor(deviceIP); key != "" {
			decrypted, decryptErr = crypto.Decrypt(frame.Ciphertext(), key)
			if decryptErr != nil {
				// Wrong or stale key; report stays at hex-preview detail.
				logging.Debug("decrypt failed",
					zap.String("device", deviceIP),
					zap.Error(decryptErr),
				)
			}
		}
	}

	logging.LogRawBytes("frame "+frame.CommandName, frame.Raw)
	d.printer.Frame(d.session.Packets(), ts, src, dst, len(payload), frame, decrypted, decryptErr)
}

func onProtocolPort(port layers.UDPPort) bool {
	for _, p := range ProtocolPorts {
		if int(port) == p {
			return true
		}
	}
	return false
}

func endpointIPs(pkt gopacket.Packet) (src, dst string) {
	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		h := ip4.(*layers.IPv4)
		return h.SrcIP.String(), h.DstIP.String()
	}
	if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		h := ip6.(*layers.IPv6)
		return h.SrcIP.String(), h.DstIP.String()
	}
	return "", ""
}
