// Command matchbookctl is an HTTP client for matchbookd, replacing the
// teacher's raw-flag TCP client (cmd/client/client.go) with a proper
// spf13/cobra subcommand tree: place, cancel and snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:   "matchbookctl",
		Short: "Command-line client for a matchbookd venue instance",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "matchbookd base URL")

	root.AddCommand(newPlaceCmd(&addr))
	root.AddCommand(newCancelCmd(&addr))
	root.AddCommand(newSnapshotCmd(&addr))
	return root
}
