package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List API servers announced on the local network",
	Long:  `Browse mDNS for servers started with --mdns and list their addresses.`,
	Args:  cobra.NoArgs,
	RunE:  runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	instances, err := discovery.Browse(cmd.Context(), logger, discoverTimeout)
	if err != nil {
		return err
	}

	if len(instances) == 0 {
		fmt.Println("No servers found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tHOST\tURL\tINFO")
	fmt.Fprintln(w, "----\t----\t---\t----")
	for _, instance := range instances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			instance.Name,
			instance.Hostname,
			instance.URL(),
			strings.Join(instance.Text, " "),
		)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DISCOVERY_TIMEOUT, "How long to wait for answers")
}
