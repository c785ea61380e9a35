package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

// Runner executes a pactl command and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func pactl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "pactl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id       int
	from, to int
}

// Ducker fades the PulseAudio sink inputs of other applications down while
// the bot speaks and back up afterwards. Streams whose application.name is
// in self are left alone.
type Ducker struct {
	run       Runner
	self      []string
	minVolume int
	step      time.Duration

	mu     sync.Mutex
	ducked bool
	saved  map[int]int // sink input id -> volume before ducking
}

// NewDucker creates a Ducker driving pactl. Ducked streams never go below
// minVolume percent.
func NewDucker(self []string, minVolume int) *Ducker {
	return &Ducker{
		run:       pactl,
		self:      append([]string(nil), self...),
		minVolume: max(0, min(minVolume, maxVolume)),
		step:      10 * time.Millisecond,
		saved:     make(map[int]int),
	}
}

// DuckOthers scales every foreign stream by factor over fadeDur. Ducking
// twice is a no-op.
func (d *Ducker) DuckOthers(ctx context.Context, factor float64, fadeDur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.saved = make(map[int]int, len(inputs))
	fades := make([]fade, 0, len(inputs))
	for _, in := range inputs {
		to := int(math.Round(float64(in.Volume) * factor))
		to = max(d.minVolume, min(to, maxVolume))
		d.saved[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: to})
	}

	if err := d.fade(ctx, fades, fadeDur); err != nil {
		return err
	}
	d.ducked = true
	return nil
}

// UnduckOthers restores the volumes saved by DuckOthers. Streams that
// appeared in between are not touched.
func (d *Ducker) UnduckOthers(ctx context.Context, fadeDur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ducked {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		if orig, ok := d.saved[in.ID]; ok {
			fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
		}
	}

	if err := d.fade(ctx, fades, fadeDur); err != nil {
		return err
	}
	d.saved = make(map[int]int)
	d.ducked = false
	return nil
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.run(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, err
	}
	all := parseSinkInputs(string(out))
	return slices.DeleteFunc(all, func(in sinkInput) bool {
		return slices.Contains(d.self, in.AppName)
	}), nil
}

func (d *Ducker) fade(ctx context.Context, fades []fade, dur time.Duration) error {
	if len(fades) == 0 {
		return nil
	}

	steps := 1
	if dur > 0 && d.step > 0 {
		steps = max(1, int(dur/d.step))
	}
	pause := dur / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}

		if i < steps && pause > 0 {
			time.Sleep(pause)
		}
	}
	return nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	percent = max(0, min(percent, maxVolume))
	_, err := d.run(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent))
	if err != nil {
		return fmt.Errorf("set volume of sink input %d: %w", id, err)
	}
	return nil
}

// parseSinkInputs reads the output of `pactl list sink-inputs`.
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	if len(blocks) <= 1 {
		return nil
	}

	var res []sinkInput
	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			switch {
			case strings.HasPrefix(line, "Volume:") && in.Volume == 0:
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			case strings.HasPrefix(line, "application.name =") && in.AppName == "":
				_, v, _ := strings.Cut(line, "=")
				in.AppName = strings.Trim(strings.TrimSpace(v), `"`)
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}
	return res
}
