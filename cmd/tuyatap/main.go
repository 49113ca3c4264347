// Tuyatap is a passive LAN traffic analyzer for Tuya-family smart devices.
//
// It captures the proprietary UDP protocol these devices speak on ports
// 6666-6668, frames datagrams into structured messages, classifies them by
// command type and, when a device's local key is known, decrypts the
// AES-128-ECB payloads. Built for reverse engineering and for validating
// undocumented device commands against live traffic.
//
// Usage:
//
//	tuyatap [command] [flags]
//
// Running without arguments starts a live capture on all interfaces.
// See 'tuyatap --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oware/tuyatap/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tuyatap",
	Short: "Tuya LAN Traffic Analyzer",
	Long: `A passive network analyzer for Tuya-family smart-device controllers.

Captures and decodes the proprietary UDP protocol spoken on the LAN,
decrypting payloads for devices whose local key is registered. Capture is
strictly read-only; the only frame this tool ever transmits is the optional
discovery broadcast probe.

If no command is specified, a live capture starts on all interfaces.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: live capture when no subcommand provided
		return runSniff(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tuyatap %s (commit: %s)\n", version.Version, version.Commit)
	},
}
