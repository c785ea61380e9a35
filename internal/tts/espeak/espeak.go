// Package espeak speaks through the espeak-ng library.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_open(void)
{
	return espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
}

static int
espeak_configure(const char *lang, int rate, int volume)
{
	espeak_VOICE specs = { 0 };
	specs.languages = lang;
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{ return -1; }
	if (espeak_SetParameter(espeakRATE, rate, 0) != EE_OK)
	{ return -2; }
	if (espeak_SetParameter(espeakVOLUME, volume, 0) != EE_OK)
	{ return -3; }
	return 0;
}

static int
espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	if (espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -2; }
	espeak_Synchronize();
	return 0;
}

static void
espeak_stop(void)
{
	espeak_Cancel();
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"
)

// Defaults match a calm conversational pace at full volume.
const (
	DefaultRate   = 150
	DefaultVolume = 100
)

// Engine is an initialized espeak-ng instance. Speak is blocking and must
// not be called concurrently; wrap the engine in tts.Serial.
type Engine struct{}

// New initializes espeak-ng for lang (e.g. "en", "ru").
func New(lang string, rate, volume int) (*Engine, error) {
	if rate <= 0 {
		rate = DefaultRate
	}
	if volume <= 0 {
		volume = DefaultVolume
	}
	if lang == "" {
		lang = "en"
	}

	if rc := C.espeak_open(); rc < 0 {
		return nil, fmt.Errorf("espeak_Initialize failed: %d", int(rc))
	}

	clang := C.CString(lang)
	defer C.free(unsafe.Pointer(clang))

	if rc := C.espeak_configure(clang, C.int(rate), C.int(volume)); rc != 0 {
		return nil, fmt.Errorf("espeak configure failed: %d", int(rc))
	}

	return &Engine{}, nil
}

// Speak synthesizes text and blocks until playback finished. Cancelling ctx
// cuts the current utterance short.
func (e *Engine) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			C.espeak_stop()
		case <-done:
		}
	}()

	if rc := C.espeak_say(ctext); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return ctx.Err()
}

// Close releases the engine.
func (e *Engine) Close() error {
	C.espeak_Terminate()
	return nil
}
