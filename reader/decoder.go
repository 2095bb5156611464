package reader

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Output audio format. All synthesized audio is decoded to 16-bit signed
// little-endian mono PCM at this rate before playback.
const (
	SampleRate     = 22050
	Channels       = 1
	BitDepth       = 16
	BytesPerSample = BitDepth / 8 * Channels
)

// Decode converts an encoded audio payload into raw PCM sample data. The
// silent sentinel must be short-circuited by the caller and never reaches
// the decoder.
func Decode(payload Payload) ([]byte, error) {
	if payload.Silent() {
		return nil, ErrSilentPayload
	}

	raw, err := base64.StdEncoding.DecodeString(payload.Encoded())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecodeFailed, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecodeFailed)
	}

	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrDecodeFailed)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	want := audio.Format{NumChannels: Channels, SampleRate: SampleRate}
	if buf.Format == nil || *buf.Format != want {
		return nil, fmt.Errorf("%w: got %v, want %d Hz / %d ch",
			ErrFormatMismatch, buf.Format, SampleRate, Channels)
	}

	pcm := make([]byte, len(buf.Data)*BytesPerSample)
	for i, s := range buf.Data {
		v := int16(s) //nolint:gosec
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	return pcm, nil
}

// PCMDuration returns the playback duration of raw PCM data in the output
// format.
func PCMDuration(pcmLen int) time.Duration {
	samples := pcmLen / BytesPerSample
	return time.Duration(samples) * time.Second / SampleRate
}
