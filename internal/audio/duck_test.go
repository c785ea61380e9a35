package audio

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #42
	Volume: front-left: 52429 /  80% / -5.81 dB
	Properties:
		application.name = "voicebot"
Sink Input #43
	Volume: mono: 39322 /  60% / -13.31 dB
	Properties:
		application.name = "Spotify"
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	assert.Equal(t, []sinkInput{
		{ID: 41, Volume: 100, AppName: "Firefox"},
		{ID: 42, Volume: 80, AppName: "voicebot"},
		{ID: 43, Volume: 60, AppName: "Spotify"},
	}, got)

	assert.Empty(t, parseSinkInputs(""))
	assert.Empty(t, parseSinkInputs("Sink Input #x\n"))
}

type fakePactl struct {
	mu      sync.Mutex
	listing string
	sets    []string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if args[0] == "list" {
		return []byte(f.listing), nil
	}
	f.sets = append(f.sets, strings.Join(args[1:], " "))
	return nil, nil
}

func TestDucker_DuckAndRestore(t *testing.T) {
	p := &fakePactl{listing: sinkInputs}
	d := NewDucker([]string{"voicebot"}, 10)
	d.run = p.run

	ctx := context.Background()
	require.NoError(t, d.DuckOthers(ctx, 0.3, 0))
	assert.Equal(t, []string{"41 30%", "43 18%"}, p.sets)

	// Second duck is a no-op.
	require.NoError(t, d.DuckOthers(ctx, 0.3, 0))
	assert.Len(t, p.sets, 2)

	p.sets = nil
	p.listing = strings.NewReplacer("100%", "30%", " 60%", " 18%").Replace(sinkInputs)
	require.NoError(t, d.UnduckOthers(ctx, 0))
	assert.Equal(t, []string{"41 100%", "43 60%"}, p.sets)

	p.sets = nil
	require.NoError(t, d.UnduckOthers(ctx, 0))
	assert.Empty(t, p.sets)
}

func TestDucker_MinVolume(t *testing.T) {
	p := &fakePactl{listing: sinkInputs}
	d := NewDucker(nil, 50)
	d.run = p.run

	require.NoError(t, d.DuckOthers(context.Background(), 0.1, 0))
	assert.Equal(t, []string{"41 50%", "42 50%", "43 50%"}, p.sets)
}
