package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"voicebot/internal/ipc"
)

func newSayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "say <message...>",
		Short: "Send a chat message to every live conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := send(cmd.Context(), opts, ipc.CmdSay, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered to %d session(s).\n", len(reply.Sessions))
			return nil
		},
	}
}

func newKeyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "key <token>",
		Short: "Set the OpenAI API key of every live conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := send(cmd.Context(), opts, ipc.CmdKey, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key sent to %d session(s).\n", len(reply.Sessions))
			return nil
		},
	}
}

func newEndCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End every live conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reply, err := send(cmd.Context(), opts, ipc.CmdEnd, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ended %d session(s).\n", len(reply.Sessions))
			return nil
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show live conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reply, err := send(cmd.Context(), opts, ipc.CmdStatus, "")
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), reply.Sessions)
			return nil
		},
	}
}

func send(ctx context.Context, opts *options, cmd, arg string) (ipc.ControlReply, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return ipc.Send(ctx, opts.socket, ipc.ControlMessage{Cmd: cmd, Arg: arg})
}

func printStatus(w io.Writer, sessions []ipc.SessionStatus) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No active sessions.")
		return
	}

	idWidth := len("SESSION")
	for _, s := range sessions {
		idWidth = max(idWidth, len(s.ID))
	}

	fmt.Fprintf(w, "%-*s  %-11s  %-7s  %s\n", idWidth, "SESSION", "STATE", "RETRIES", "KEY")
	for _, s := range sessions {
		key := "no"
		if s.Credential {
			key = "yes"
		}
		fmt.Fprintf(w, "%-*s  %-11s  %-7d  %s\n", idWidth, s.ID, s.State, s.Retries, key)
	}
}
