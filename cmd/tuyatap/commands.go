package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/spf13/cobra"

	"github.com/oware/tuyatap/internal/capture"
	"github.com/oware/tuyatap/internal/config"
	"github.com/oware/tuyatap/internal/crypto"
	"github.com/oware/tuyatap/internal/discovery"
	"github.com/oware/tuyatap/internal/logging"
	"github.com/oware/tuyatap/internal/protocol"
	"github.com/oware/tuyatap/internal/report"
)

// Command flags
var (
	targetIP  string
	ifaceName string
	localKey  string
	pcapFile  string
	scanFirst bool

	scanTimeout int
	scanMDNS    bool
)

func init() {
	// Persistent so that running the root command bare (which defaults to
	// sniffing) accepts the same flags as the explicit sniff subcommand.
	rootCmd.PersistentFlags().StringVar(&targetIP, "target", "", "Restrict capture to one device IP (default: all protocol traffic)")
	rootCmd.PersistentFlags().StringVar(&localKey, "key", "", "Local key for payload decryption (overrides the key registry)")
	rootCmd.PersistentFlags().StringVar(&ifaceName, "iface", "", "Capture interface (default: all)")
	rootCmd.PersistentFlags().StringVar(&pcapFile, "read", "", "Replay a pcap file instead of capturing live")
	rootCmd.PersistentFlags().BoolVar(&scanFirst, "scan", false, "Run a discovery probe before capturing")

	rootCmd.AddCommand(sniffCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(decodeCmd)
}

// sniffCmd runs the capture loop
var sniffCmd = &cobra.Command{
	Use:   "sniff",
	Short: "Capture and decode device traffic",
	Long: `Capture UDP traffic on the protocol ports (6666-6668) and decode each
datagram: command classification, sequence numbers, cleartext JSON payloads,
and decrypted payloads for devices with a registered local key.

Live capture requires elevated privileges. Per-device keys are read from
the devices.yaml registry in the config directory; --key overrides them all.`,
	Example: `  # Capture all protocol traffic on all interfaces
  sudo tuyatap sniff

  # Capture one device on a specific interface
  sudo tuyatap sniff --target 192.168.1.40 --iface wlan0

  # Probe for devices first, then capture (single responder becomes the target)
  sudo tuyatap sniff --scan

  # Replay a previously recorded capture file (no privileges needed)
  tuyatap sniff --read lamp-session.pcap --key fb8b6e1bd339f802`,
	RunE: runSniff,
}

func runSniff(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	printer := report.NewPrinter()

	if scanFirst && pcapFile == "" {
		devices := discovery.NewProber().Probe(cmd.Context())
		for _, d := range devices {
			fmt.Printf("Found: %s\n", d)
		}
		if len(devices) == 1 && targetIP == "" {
			targetIP = devices[0].IP
			fmt.Printf("Will monitor traffic for %s\n", targetIP)
		}
	}

	keys, err := config.LoadKeys()
	if err != nil {
		// A broken registry should not block a capture session.
		fmt.Fprintf(os.Stderr, "Warning: key registry unavailable: %v\n", err)
		keys = &config.KeyStore{}
	}
	keyFor := func(ip string) string {
		if localKey != "" {
			return localKey
		}
		return keys.KeyFor(ip)
	}

	var handle *pcap.Handle
	if pcapFile != "" {
		handle, err = capture.OpenOffline(pcapFile, targetIP)
	} else {
		handle, err = capture.OpenLive(ifaceName, targetIP)
	}
	if err != nil {
		if errors.Is(err, capture.ErrNoPermission) {
			return fmt.Errorf("%v\n\nre-run with elevated privileges:\n  sudo tuyatap sniff", err)
		}
		return err
	}
	defer handle.Close()

	printer.Banner(targetIP, ifaceName, capture.BPFFilter(targetIP))

	// Interrupt is the one cancellation trigger: stop the loop, then print
	// the summary on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := capture.NewDispatcher(printer, keyFor)
	runErr := dispatcher.Run(ctx, handle, handle.LinkType())

	session := dispatcher.Session()
	printer.Summary(session.Packets(), session.Devices())

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// scanCmd enumerates devices without capturing
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe the LAN for devices",
	Long: `Send the protocol's broadcast discovery datagram and list every device
that answers within the timeout window.

Devices that ignore the broadcast probe can sometimes still be spotted via
their plain HTTP endpoints; --mdns adds an mDNS browse for those.`,
	Example: `  # Broadcast probe with the default 3-second window
  tuyatap scan

  # Longer window plus supplemental mDNS browse
  tuyatap scan --timeout 10 --mdns`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 3, "Probe timeout in seconds")
	scanCmd.Flags().BoolVar(&scanMDNS, "mdns", false, "Also browse mDNS for LAN hosts")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	fmt.Printf("Probing for devices (timeout: %ds)...\n\n", scanTimeout)

	prober := discovery.NewProber()
	prober.Timeout = time.Duration(scanTimeout) * time.Second
	devices := prober.Probe(cmd.Context())

	if scanMDNS {
		scanner := discovery.NewScanner()
		scanner.Timeout = time.Duration(scanTimeout) * time.Second
		hints, err := scanner.Scan(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: mDNS browse failed: %v\n", err)
		}
		devices = append(devices, hints...)
	}

	if len(devices) == 0 {
		fmt.Println("No devices responded.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure devices are powered and on this network segment")
		fmt.Println("  - Broadcast probes do not cross routed subnets or most VLANs")
		fmt.Println("  - Some firmware only answers while the companion app is open")
		fmt.Println("  - Use 'sniff' without a target; devices reveal themselves when they talk")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))
	for i, d := range devices {
		fmt.Printf("%d. %s\n", i+1, d)
	}
	fmt.Println("\nUse 'tuyatap sniff --target <ip>' to capture one device")
	return nil
}

// decodeCmd parses a single frame from hex
var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode one frame from a hex dump",
	Long: `Parse a single protocol frame from its hex representation, as copied out
of a capture report or another tool. With --key, encrypted payloads are
decrypted as well.`,
	Example: `  # Decode a captured frame
  tuyatap decode 000055aa0000002a0000000a...

  # Decode and decrypt
  tuyatap decode --key fb8b6e1bd339f802 000055aa...`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\t' {
			return -1
		}
		return r
	}, args[0])

	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return fmt.Errorf("invalid hex input: %w", err)
	}

	frame, err := protocol.Parse(data)
	if err != nil {
		return fmt.Errorf("not a protocol frame: %w", err)
	}

	var (
		decrypted  map[string]any
		decryptErr error
	)
	if frame.Encrypted && localKey != "" {
		decrypted, decryptErr = crypto.Decrypt(frame.Ciphertext(), localKey)
		if decryptErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: decrypt failed: %v\n", decryptErr)
		}
	}

	report.NewPrinter().Frame(1, time.Now(), "-", "-", len(data), frame, decrypted, decryptErr)
	return nil
}
