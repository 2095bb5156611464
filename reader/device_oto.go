package reader

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoFormat is the OTO sample format matching the package output format.
const otoFormat = oto.FormatSignedInt16LE

// OtoDevice is the production audio backend. The underlying OTO context is
// process-global and created once; subsequent OtoDevice values share it.
type OtoDevice struct {
	ctx *oto.Context
}

var (
	otoCtx     *oto.Context
	otoCtxErr  error
	otoCtxOnce sync.Once
)

// NewOtoDevice acquires the shared audio context, initializing it on first
// use. Initialization failure is reported as ErrPlaybackUnavailable.
func NewOtoDevice() (*OtoDevice, error) {
	otoCtxOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: Channels,
			Format:       otoFormat,
			BufferSize:   50 * time.Millisecond,
		})
		if err != nil {
			otoCtxErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	if otoCtxErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaybackUnavailable, otoCtxErr)
	}
	return &OtoDevice{ctx: otoCtx}, nil
}

// NewSession creates an OTO player over the PCM data.
func (d *OtoDevice) NewSession(pcm []byte) (DeviceSession, error) {
	if len(pcm) == 0 || len(pcm)%BytesPerSample != 0 {
		return nil, fmt.Errorf("%w: PCM length %d not aligned to %d-byte samples",
			ErrDecodeFailed, len(pcm), BytesPerSample)
	}
	return &otoSession{player: d.ctx.NewPlayer(bytes.NewReader(pcm))}, nil
}

type otoSession struct {
	player    *oto.Player
	closeOnce sync.Once
}

func (s *otoSession) Play() {
	s.player.Play()
}

func (s *otoSession) SetVolume(volume float64) {
	s.player.SetVolume(volume)
}

func (s *otoSession) IsPlaying() bool {
	return s.player.IsPlaying()
}

func (s *otoSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.player.Pause()
		err = s.player.Close()
	})
	return err
}
