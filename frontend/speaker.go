//go:build !headless

package frontend

import (
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/ezrec/chip8/io"
)

// Speaker plays the buzzer through the host audio device.
type Speaker struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewSpeaker opens the audio device and starts streaming the tone.
func NewSpeaker(tone *io.Tone) (spk *Speaker, err error) {
	rate := tone.SampleRate
	if rate <= 0 {
		rate = io.TONE_SAMPLE_RATE
	}

	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return
	}
	<-ready

	spk = &Speaker{
		ctx:    ctx,
		player: ctx.NewPlayer(tone),
	}
	spk.player.Play()

	return
}

// Close stops playback.
func (spk *Speaker) Close() error {
	return spk.player.Close()
}
