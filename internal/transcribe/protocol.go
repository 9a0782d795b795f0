// Package transcribe is the client for the local transcription service,
// which speaks NDJSON over a Unix socket.
//
// A transcription is one "transcribe" command. The service acknowledges it
// with a Response and then streams Events for the job until a "final" or
// "error" event.
package transcribe

// Command names.
const (
	CmdTranscribe = "transcribe"
	CmdStatus     = "status"
)

// Event names.
const (
	EventPartial = "partial"
	EventFinal   = "final"
	EventError   = "error"
)

// Command is sent from the client to the service.
type Command struct {
	Cmd      string `json:"cmd"`
	AssetRef string `json:"assetRef,omitempty"`
	URL      string `json:"url,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// Response is returned by the service after processing a command.
type Response struct {
	OK     bool   `json:"ok"`
	JobID  string `json:"jobId,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Event is streamed from the service while a job runs.
type Event struct {
	Event      string   `json:"event"`
	JobID      string   `json:"jobId,omitempty"`
	Text       string   `json:"text,omitempty"`
	Message    string   `json:"message,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}
