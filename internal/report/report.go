// Package report renders per-packet reports and the end-of-run summary.
//
// Formatting only; all parsing and decryption decisions happen upstream.
// Output is line oriented so it pipes cleanly into grep during analysis
// sessions; colors are dropped automatically when stdout is not a terminal.
package report

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/oware/tuyatap/internal/protocol"
)

// Output bounds. Payload previews are clipped so one oversized frame does
// not flood the terminal; the full raw hex stays available via debug logs.
const (
	previewBytes = 100 // hex preview of encrypted/undecodable payloads
	rawBytes     = 200 // audit dump of the raw frame
	sepWidth     = 60
)

// Styles follow the shared palette used across our tools.
var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	commandStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D")).Bold(true)
	encryptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	dpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
)

// dpAnnotations maps data-point IDs of interest to display labels.
// Presentation only; the DP schema is device specific.
var dpAnnotations = []struct {
	id    string
	label string
}{
	{"24", "color"},
	{"21", "mode"},
}

// Printer writes packet reports to a single destination.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a Printer on stdout, with colors when it is a TTY.
func NewPrinter() *Printer {
	return &Printer{
		w:     os.Stdout,
		color: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// NewPlainPrinter creates an uncolored Printer on w.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *Printer) sep() string {
	return p.render(mutedStyle, strings.Repeat("=", sepWidth))
}

// Banner prints the capture startup header.
func (p *Printer) Banner(target, iface, filter string) {
	if target == "" {
		target = "ALL (capturing all protocol traffic)"
	}
	if iface == "" {
		iface = "any"
	}
	fmt.Fprintln(p.w, p.sep())
	fmt.Fprintln(p.w, p.render(headerStyle, "TUYA LAN TRAFFIC ANALYZER"))
	fmt.Fprintln(p.w, p.sep())
	fmt.Fprintf(p.w, "Target:     %s\n", target)
	fmt.Fprintf(p.w, "Interface:  %s\n", iface)
	fmt.Fprintf(p.w, "Filter:     %s\n", filter)
	fmt.Fprintln(p.w, "\nCapturing... (Ctrl+C to stop)")
}

// Frame prints the report for one parsed protocol frame.
// decrypted is the payload recovered with a known local key; decryptErr is
// set when a key was available but failed, so the report can distinguish a
// wrong key from no key at all.
func (p *Printer) Frame(num int, ts time.Time, src, dst string, size int, f *protocol.Frame, decrypted map[string]any, decryptErr error) {
	p.packetHeader(num, ts, src, dst, size)

	fmt.Fprintf(p.w, "Command:     %s (0x%02x)\n", p.render(commandStyle, f.CommandName), f.Command)
	fmt.Fprintf(p.w, "Sequence:    %d\n", f.Sequence)

	switch {
	case f.Truncated:
		fmt.Fprintf(p.w, "Payload:     truncated capture (declared %d bytes)\n", f.Length)

	case f.JSON != nil:
		fmt.Fprintln(p.w, "Payload (cleartext JSON):")
		p.printJSON(f.JSON)
		p.printDPs(f.JSON)

	case decrypted != nil:
		fmt.Fprintf(p.w, "Payload (decrypted, protocol %s):\n", f.Version)
		p.printJSON(decrypted)
		p.printDPs(decrypted)

	case f.Encrypted:
		note := fmt.Sprintf("encrypted (protocol %s), no local key", f.Version)
		if decryptErr != nil {
			note = fmt.Sprintf("encrypted (protocol %s), local key failed to decrypt", f.Version)
		}
		fmt.Fprintf(p.w, "Payload:     %s\n", p.render(encryptedStyle, note))
		fmt.Fprintf(p.w, "Hex:         %s\n", clipHex(f.Ciphertext(), previewBytes))

	case len(f.Payload) > 0:
		fmt.Fprintf(p.w, "Payload hex: %s\n", clipHex(f.Payload, previewBytes))
	}

	fmt.Fprintf(p.w, "Raw:         %s\n", clipHex(f.Raw, rawBytes))
}

// NonProtocol prints the fallback report for UDP traffic on the watched
// ports that does not frame as protocol traffic.
func (p *Printer) NonProtocol(num int, ts time.Time, src, dst string, payload []byte) {
	p.packetHeader(num, ts, src, dst, len(payload))
	fmt.Fprintf(p.w, "Not a protocol frame; raw: %s\n", clipHex(payload, rawBytes))
}

// Summary prints the end-of-run counters.
func (p *Printer) Summary(packets int, devices []string) {
	sort.Strings(devices)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.sep())
	fmt.Fprintln(p.w, p.render(headerStyle, "CAPTURE SUMMARY"))
	fmt.Fprintln(p.w, p.sep())
	fmt.Fprintf(p.w, "Total packets: %d\n", packets)
	fmt.Fprintf(p.w, "Devices seen:  %d\n", len(devices))
	for _, ip := range devices {
		fmt.Fprintf(p.w, "  - %s\n", ip)
	}
}

func (p *Printer) packetHeader(num int, ts time.Time, src, dst string, size int) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.sep())
	fmt.Fprintln(p.w, p.render(headerStyle,
		fmt.Sprintf("[%s] PACKET #%d", ts.Format("15:04:05.000"), num)))
	fmt.Fprintf(p.w, "%s -> %s  (%d bytes)\n", src, dst, size)
}

func (p *Printer) printJSON(obj map[string]any) {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		fmt.Fprintf(p.w, "  <unrenderable: %v>\n", err)
		return
	}
	fmt.Fprintln(p.w, string(data))
}

// printDPs surfaces recognized data points as one-line annotations.
func (p *Printer) printDPs(obj map[string]any) {
	dps, ok := obj["dps"].(map[string]any)
	if !ok {
		return
	}
	for _, a := range dpAnnotations {
		if v, ok := dps[a.id]; ok {
			fmt.Fprintf(p.w, "%s\n", p.render(dpStyle, fmt.Sprintf("  dp %s (%s): %v", a.id, a.label, v)))
		}
	}
}

func clipHex(data []byte, max int) string {
	if len(data) > max {
		return hex.EncodeToString(data[:max]) + "..."
	}
	return hex.EncodeToString(data)
}
