package transcribe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one transcription when the caller's context has no deadline.
const DefaultTimeout = 2 * time.Minute

// Conn is one connection to the transcription service.
type Conn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// Connect dials the service Unix socket.
func Connect(ctx context.Context, socketPath string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to transcription service: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	return &Conn{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Conn) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SetDeadline bounds all pending and future reads and writes.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SendCommand sends a command and reads one response line.
func (c *Conn) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		return Response{}, fmt.Errorf("connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return resp, nil
}

// ReadEvent reads the next NDJSON event line. Blocks until data arrives.
func (c *Conn) ReadEvent() (Event, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Event{}, fmt.Errorf("read event: %w", err)
		}
		return Event{}, fmt.Errorf("connection closed")
	}

	var ev Event
	if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}

	return ev, nil
}

// Client transcribes uploaded audio, dialing the service once per request.
type Client struct {
	socketPath string
	locale     string
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLocale sets the transcription language hint.
func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = locale }
}

// WithTimeout bounds requests whose context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger.With().Str("component", "transcribe").Logger() }
}

// NewClient creates a client for the service at socketPath.
func NewClient(socketPath string, opts ...Option) *Client {
	c := &Client{socketPath: socketPath, timeout: DefaultTimeout, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe returns the transcript of the uploaded asset. Every failure is
// reported as transcription-unavailable.
func (c *Client) Transcribe(ctx context.Context, assetRef, url string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := Connect(ctx, c.socketPath)
	if err != nil {
		return "", unavailable(err, assetRef)
	}
	defer conn.Close()

	// Unblock reads when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	resp, err := conn.SendCommand(Command{Cmd: CmdTranscribe, AssetRef: assetRef, URL: url, Locale: c.locale})
	if err != nil {
		return "", unavailable(err, assetRef)
	}
	if !resp.OK {
		return "", unavailable(fmt.Errorf("service rejected job: %s", resp.Error), assetRef)
	}

	var partial string
	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			return "", unavailable(err, assetRef)
		}
		if resp.JobID != "" && ev.JobID != "" && ev.JobID != resp.JobID {
			continue
		}
		switch ev.Event {
		case EventPartial:
			partial = ev.Text
		case EventFinal:
			text := strings.TrimSpace(ev.Text)
			if text == "" {
				text = strings.TrimSpace(partial)
			}
			c.logger.Debug().Str("asset", assetRef).Int("chars", len(text)).Msg("transcript received")
			return text, nil
		case EventError:
			return "", unavailable(fmt.Errorf("transcription failed: %s", ev.Message), assetRef)
		}
	}
}

// Status asks the service whether it is ready.
func (c *Client) Status(ctx context.Context) (string, error) {
	conn, err := Connect(ctx, c.socketPath)
	if err != nil {
		return "", unavailable(err, "")
	}
	defer conn.Close()

	resp, err := conn.SendCommand(Command{Cmd: CmdStatus})
	if err != nil {
		return "", unavailable(err, "")
	}
	if !resp.OK {
		return "", unavailable(fmt.Errorf("status: %s", resp.Error), "")
	}
	return resp.Status, nil
}

func unavailable(err error, assetRef string) error {
	return errors.New(err).
		Component("transcribe").
		Category(errors.CategoryTranscriptionUnavailable).
		Context("asset_ref", assetRef).
		Build()
}
