package main

import "testing"

// The root command defaults to sniffing, so every capture flag has to be
// resolvable from the root invocation, not just the sniff subcommand.
func TestCaptureFlagsAvailableOnRoot(t *testing.T) {
	for _, name := range []string{"target", "key", "iface", "read", "scan"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered on root command", name)
		}
	}
}

// Sniff inherits the persistent set; the flags must resolve there too.
func TestCaptureFlagsInheritedBySniff(t *testing.T) {
	for _, name := range []string{"iface", "read", "scan"} {
		if sniffCmd.InheritedFlags().Lookup(name) == nil {
			t.Errorf("flag --%s not inherited by sniff", name)
		}
	}
}
