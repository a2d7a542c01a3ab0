package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindline/internal/client"
)

var statusURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a daemon is running",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "", "Daemon base URL (default MINDLINE_URL or http://127.0.0.1:7433)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	info, err := client.New(statusURL).Health()
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}

	fmt.Printf("mindline %s: %s (up %.0fs)\n", info.Version, info.Status, info.Uptime)
	if info.DBPath != "" {
		fmt.Printf("  db: %s\n", info.DBPath)
	}
	return nil
}
