package audio

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

// MalgoConfig selects and configures the capture device.
type MalgoConfig struct {
	DeviceName  string        `mapstructure:"device" yaml:"device"`
	SampleRate  uint32        `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels    uint32        `mapstructure:"channels" yaml:"channels"`
	MaxDuration time.Duration `mapstructure:"max_duration" yaml:"max_duration"`
}

// DefaultMalgoConfig records mono 16 kHz for at most five minutes.
func DefaultMalgoConfig() MalgoConfig {
	return MalgoConfig{SampleRate: 16000, Channels: 1, MaxDuration: 5 * time.Minute}
}

// MalgoMicrophone captures from a sound card through miniaudio.
type MalgoMicrophone struct {
	cfg    MalgoConfig
	logger zerolog.Logger
}

// NewMalgoMicrophone creates a microphone for cfg.
func NewMalgoMicrophone(cfg MalgoConfig, logger zerolog.Logger) *MalgoMicrophone {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	return &MalgoMicrophone{cfg: cfg, logger: logger.With().Str("component", "malgo").Logger()}
}

// Open initializes the capture device and starts recording. Any failure to
// reach the device is reported as a permission denial.
func (m *MalgoMicrophone) Open(ctx context.Context) (Capture, error) {
	mctx, err := malgo.InitContext([]malgo.Backend{backend()}, malgo.ContextConfig{}, func(message string) {
		m.logger.Trace().Msg(strings.TrimSpace(message))
	})
	if err != nil {
		return nil, denied(err, "init_context")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = m.cfg.Channels
	deviceConfig.SampleRate = m.cfg.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	if m.cfg.DeviceName != "" {
		infos, err := mctx.Devices(malgo.Capture)
		if err != nil {
			freeContext(mctx)
			return nil, denied(err, "list_devices")
		}
		found := false
		for _, info := range infos {
			if strings.Contains(info.Name(), m.cfg.DeviceName) {
				deviceConfig.Capture.DeviceID = info.ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			freeContext(mctx)
			return nil, errors.New(nil).
				Component("audio").
				Category(errors.CategoryPermissionDenied).
				Context("device_name", m.cfg.DeviceName).
				Context("error", "capture device not found").
				Build()
		}
	}

	c := &malgoCapture{
		mctx:       mctx,
		sampleRate: int(m.cfg.SampleRate),
		channels:   int(m.cfg.Channels),
		done:       make(chan struct{}),
	}
	if m.cfg.MaxDuration > 0 {
		c.maxBytes = int(m.cfg.MaxDuration.Seconds()*float64(m.cfg.SampleRate)) * int(m.cfg.Channels) * 2
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: c.onData})
	if err != nil {
		freeContext(mctx)
		return nil, denied(err, "init_device")
	}
	c.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(mctx)
		return nil, denied(err, "start_device")
	}

	// Release the device if the owner's context ends before Stop.
	go func() {
		select {
		case <-ctx.Done():
			c.Abort()
		case <-c.done:
		}
	}()

	m.logger.Debug().Uint32("sample_rate", m.cfg.SampleRate).Msg("capture device started")
	return c, nil
}

type malgoCapture struct {
	mu         sync.Mutex
	pcm        []byte
	maxBytes   int
	closed     bool
	sampleRate int
	channels   int

	mctx   *malgo.AllocatedContext
	device *malgo.Device
	once   sync.Once
	done   chan struct{}
}

func (c *malgoCapture) onData(_, input []byte, _ uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.maxBytes > 0 && len(c.pcm)+len(input) > c.maxBytes {
		input = input[:max(0, c.maxBytes-len(c.pcm))]
	}
	c.pcm = append(c.pcm, input...)
}

func (c *malgoCapture) Stop() (Clip, error) {
	c.release()
	c.mu.Lock()
	pcm := c.pcm
	c.pcm = nil
	c.mu.Unlock()
	return EncodeWAV(pcm, c.sampleRate, c.channels)
}

func (c *malgoCapture) Abort() {
	c.release()
	c.mu.Lock()
	c.pcm = nil
	c.mu.Unlock()
}

// release stops the device without holding mu: the data callback takes mu,
// and device.Stop waits for the callback to return.
func (c *malgoCapture) release() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		_ = c.device.Stop()
		c.device.Uninit()
		freeContext(c.mctx)
		close(c.done)
	})
}

func freeContext(mctx *malgo.AllocatedContext) {
	_ = mctx.Uninit()
	mctx.Free()
}

func backend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

func denied(err error, op string) error {
	return errors.New(err).
		Component("audio").
		Category(errors.CategoryPermissionDenied).
		Context("operation", op).
		Context("backend", runtime.GOOS).
		Build()
}
