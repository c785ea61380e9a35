// Package audioconv turns audio files into mono 16 kHz float32 PCM, the
// input format of the transcribers, and back into WAV for upload.
package audioconv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

// SampleRate is the rate of all PCM produced by this package.
const SampleRate = 16000

// ErrUnsupported is returned when no decoder accepts the input.
var ErrUnsupported = errors.New("audioconv: unsupported format")

type Options struct {
	MaxSamples int  // truncate output, 0 = no limit
	NoFFmpeg   bool // disable the ffmpeg fallback
}

// DecodeFile decodes path by extension, sniffing the header when the
// extension is unknown, and falls back to ffmpeg for everything else.
func DecodeFile(ctx context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if kind == "oga" {
		kind = "ogg"
	}
	if kind != "wav" && kind != "mp3" && kind != "ogg" {
		kind = sniff(f)
	}

	var pcm []float32
	switch kind {
	case "wav":
		pcm, err = decodeWAV(f)
	case "mp3":
		pcm, err = decodeMP3(f)
	case "ogg":
		pcm, err = decodeOgg(f)
	default:
		err = ErrUnsupported
	}

	if err != nil && !opt.NoFFmpeg {
		pcm, err = decodeFFmpeg(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	return truncate(pcm, opt.MaxSamples), nil
}

func sniff(f *os.File) string {
	magic, _ := bufio.NewReader(f).Peek(4)
	_, _ = f.Seek(0, io.SeekStart)

	switch {
	case string(magic) == "RIFF":
		return "wav"
	case string(magic) == "OggS":
		return "ogg"
	case len(magic) >= 3 && string(magic[:3]) == "ID3":
		return "mp3"
	}
	return ""
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	channels, rate := 1, 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}

	return normalize(intsToFloat(buf.Data, depth), channels, rate), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	// go-mp3 always emits 16-bit little endian stereo.
	samples := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(samples)*2]), binary.LittleEndian, samples); err != nil {
		return nil, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return normalize(int16sToFloat(samples), 2, rate), nil
}

// decodeOgg tries Vorbis first, then Opus.
func decodeOgg(r io.ReadSeeker) ([]float32, error) {
	pcm, format, verr := oggvorbis.ReadAll(r)
	if verr == nil && format != nil && format.Channels > 0 && format.SampleRate > 0 {
		return normalize(pcm, format.Channels, format.SampleRate), nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	out, oerr := decodeOpus(r)
	if oerr != nil {
		return nil, fmt.Errorf("neither vorbis (%v) nor opus (%w)", verr, oerr)
	}
	return out, nil
}

func decodeOpus(r io.ReadSeeker) ([]float32, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	// libopusfile always decodes at 48 kHz; read ~0.5s per call.
	var pcm []float32
	buf := make([]int16, 24000*channels)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16sToFloat(buf[:n*channels])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(pcm) == 0 {
		return nil, errors.New("empty opus stream")
	}

	return normalize(pcm, channels, 48000), nil
}

// decodeFFmpeg asks ffmpeg for raw mono float32 at SampleRate.
func decodeFFmpeg(ctx context.Context, path string) ([]float32, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "f32le", "-ac", "1", "-ar", fmt.Sprint(SampleRate),
		"-",
	)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return F32LE(out), nil
}

// F32LE decodes little endian float32 samples.
func F32LE(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// EncodeWAV writes mono SampleRate PCM as a 16-bit WAV file. The encoder
// needs to seek back to patch the header, hence the temp file.
func EncodeWAV(pcm []float32) ([]byte, error) {
	f, err := os.CreateTemp("", "voicebot-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, 16, 1, 1)

	data := make([]int, len(pcm))
	for i, x := range pcm {
		data[i] = int(math.Round(clamp(float64(x), -1, 1) * 32767))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

func normalize(x []float32, channels, rate int) []float32 {
	return Resample(Downmix(x, channels), rate, SampleRate)
}

func truncate(x []float32, max int) []float32 {
	if max > 0 && len(x) > max {
		return x[:max]
	}
	return x
}

func intsToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1, 1))
	}
	return out
}

func int16sToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

// Downmix averages interleaved channels into mono.
func Downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// Resample converts between sample rates with linear interpolation.
func Resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	out := make([]float32, int(math.Ceil(float64(len(in))*ratio)))
	last := len(in) - 1
	for i := range out {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= last {
			out[i] = in[last]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i0+1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
