package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVMIMEType is the content type of encoded clips.
const WAVMIMEType = "audio/wav"

const bitDepth = 16

// EncodeWAV wraps signed 16-bit little-endian PCM in a WAV container.
func EncodeWAV(pcm []byte, sampleRate, channels int) (Clip, error) {
	if sampleRate <= 0 || channels <= 0 {
		return Clip{}, fmt.Errorf("invalid format: %d Hz, %d channels", sampleRate, channels)
	}

	out := &seekableBuffer{}
	enc := wav.NewEncoder(out, sampleRate, bitDepth, channels, 1)

	samples := pcmToInts(pcm)
	buf := &goaudio.IntBuffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return Clip{}, fmt.Errorf("failed to write to WAV encoder: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Clip{}, fmt.Errorf("failed to finalize WAV: %w", err)
	}

	frames := len(samples) / channels
	return Clip{
		Data:       out.Bytes(),
		MIMEType:   WAVMIMEType,
		Duration:   time.Duration(frames) * time.Second / time.Duration(sampleRate),
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// pcmToInts converts S16LE bytes to int samples; a trailing odd byte is dropped.
func pcmToInts(pcm []byte) []int {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return samples
}

// seekableBuffer is an in-memory io.WriteSeeker for the WAV encoder, which
// seeks back to patch chunk sizes on Close.
type seekableBuffer struct {
	buf []byte
	pos int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(b.pos) + offset
	case io.SeekEnd:
		next = int64(len(b.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	b.pos = int(next)
	return next, nil
}

func (b *seekableBuffer) Bytes() []byte { return b.buf }
