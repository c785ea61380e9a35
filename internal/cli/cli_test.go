package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicebot/internal/chat"
	"voicebot/internal/ipc"
)

func fakeDaemon(t *testing.T, h ipc.Handler) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "vbctl")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	srv, err := ipc.Listen(filepath.Join(dir, "ctl.sock"), h, nil)
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	t.Cleanup(func() { _ = srv.Close() })
	return srv.Path()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestControlCommands(t *testing.T) {
	var (
		mu  sync.Mutex
		got []ipc.ControlMessage
	)
	sock := fakeDaemon(t, func(_ context.Context, msg ipc.ControlMessage) ipc.ControlReply {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
		return ipc.ControlReply{OK: true, Sessions: []ipc.SessionStatus{
			{ID: "3f2a", State: "listening", Retries: 1, Credential: true},
		}}
	})

	out, err := execute(t, "--socket", sock, "say", "tell", "me", "your", "life", "story")
	require.NoError(t, err)
	assert.Contains(t, out, "Delivered to 1 session(s).")

	_, err = execute(t, "-s", sock, "key", "sk-abc")
	require.NoError(t, err)

	_, err = execute(t, "-s", sock, "end")
	require.NoError(t, err)

	out, err = execute(t, "-s", sock, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "3f2a")
	assert.Contains(t, out, "listening")
	assert.Contains(t, out, "yes")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ipc.ControlMessage{
		{Cmd: ipc.CmdSay, Arg: "tell me your life story"},
		{Cmd: ipc.CmdKey, Arg: "sk-abc"},
		{Cmd: ipc.CmdEnd},
		{Cmd: ipc.CmdStatus},
	}, got)
}

func TestControlCommands_DaemonError(t *testing.T) {
	sock := fakeDaemon(t, func(context.Context, ipc.ControlMessage) ipc.ControlReply {
		return ipc.ControlReply{Error: "no active session"}
	})

	_, err := execute(t, "-s", sock, "say", "hello")
	assert.ErrorContains(t, err, "no active session")

	_, err = execute(t, "-s", sock, "key")
	assert.Error(t, err)
}

func TestPrintStatus_Empty(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, nil)
	assert.Equal(t, "No active sessions.\n", buf.String())
}

func TestRenderFrame(t *testing.T) {
	out := renderFrame(chat.Frame{From: chat.FromBot, Kind: chat.KindMessage, Content: "hello"})
	assert.Contains(t, out, "voicebot:")
	assert.Contains(t, out, "hello")
}
