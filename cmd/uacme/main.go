// Command uacme is a minimal ACMEv2 (RFC 8555) client: it creates, updates
// and deactivates CA accounts, issues and revokes certificates, and
// delegates challenge validation to an external hook program.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "uacme:", err)
		os.Exit(1)
	}
}
