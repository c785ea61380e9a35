// Package cli implements voicebot-ctl, the command line remote for a running
// voicebot daemon.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"voicebot/internal/ipc"
)

// Version is set at build time via ldflags.
var Version = "dev"

type options struct {
	socket  string
	timeout time.Duration
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "voicebot-ctl",
		Short: "Control a running voicebot daemon",
		Long: `voicebot-ctl talks to the voicebot daemon over its control socket:
send a message or an API key to the live conversations, end them, show their
status, or chat with the bot from the terminal.`,
		SilenceUsage: true,
		Version:      Version,
	}
	root.SetVersionTemplate("voicebot-ctl version {{.Version}}\n")

	root.PersistentFlags().StringVarP(&opts.socket, "socket", "s", ipc.DefaultSocketPath, "Control socket path")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Control request timeout")

	root.AddCommand(
		newSayCmd(opts),
		newKeyCmd(opts),
		newEndCmd(opts),
		newStatusCmd(opts),
		newChatCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
