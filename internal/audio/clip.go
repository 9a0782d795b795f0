package audio

import (
	"context"
	"time"
)

// Clip is a finished recording, encoded and ready to upload.
type Clip struct {
	Data       []byte
	MIMEType   string
	Duration   time.Duration
	SampleRate int
	Channels   int
}

// Asset is an uploaded clip.
type Asset struct {
	Ref         string
	PlayableURL string
}

// Uploader is the media upload boundary.
type Uploader interface {
	UploadAudio(ctx context.Context, clip Clip) (Asset, error)
}

// Microphone opens capture sessions on an input device.
type Microphone interface {
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open recording session.
type Capture interface {
	// Stop finalizes the capture into a clip and releases the device.
	Stop() (Clip, error)
	// Abort releases the device and drops anything captured.
	Abort()
}
