package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"voicebot/internal/chat"
	"voicebot/internal/convo"
)

var (
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newChatCmd() *cobra.Command {
	var (
		url       string
		reconnect uint
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the bot from the terminal",
		Long: `Opens a conversation over the daemon's websocket. Every bot message is
printed as it arrives; type a line to send it. "key: sk-..." sets the API key.
Ctrl+C or Ctrl+D leaves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runChat(ctx, url, reconnect, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "ws://localhost:8000/ws", "Websocket URL of the daemon")
	cmd.Flags().UintVar(&reconnect, "reconnect", 3, "Reconnect attempts after a dropped connection")
	return cmd
}

func runChat(ctx context.Context, url string, reconnect uint, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := chat.Dial(ctx, chat.ClientConfig{URL: url, Reconnect: reconnect, Backoff: time.Second})
	if err != nil {
		return err
	}
	defer client.Close()

	ended := make(chan error, 1)
	go func() {
		ended <- client.Run(ctx, func(f chat.Frame) {
			fmt.Fprintln(out, renderFrame(f))
		})
		cancel()
	}()

	line := newPrompt()
	defer line.Close()

	for ctx.Err() == nil {
		input, err := line.Prompt(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed terminal.
			break
		}
		if ctx.Err() != nil {
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if _, isKey := convo.ParseKeyCommand(input); !isKey {
			line.AppendHistory(input)
		}

		if err := client.Send(input); err != nil {
			fmt.Fprintln(out, errorStyle.Render("[send failed] "+err.Error()))
		}
	}

	cancel()
	if err := <-ended; err != nil && !errors.Is(err, chat.ErrEnded) && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(out, dimStyle.Render("Conversation ended."))
	return nil
}

func renderFrame(f chat.Frame) string {
	return botStyle.Render(f.From+":") + " " + f.Content
}

type prompt struct {
	*liner.State
	history string
}

func newPrompt() *prompt {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)

	p := &prompt{State: l, history: filepath.Join(os.TempDir(), "voicebot-ctl_history")}
	if f, err := os.Open(p.history); err == nil {
		_, _ = l.ReadHistory(f)
		f.Close()
	}
	return p
}

func (p *prompt) Close() {
	if f, err := os.OpenFile(p.history, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
		_, _ = p.WriteHistory(f)
		f.Close()
	}
	_ = p.State.Close()
}
