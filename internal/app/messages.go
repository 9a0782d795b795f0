package app

import (
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/thread"
)

// FeedbackLoadedMsg carries the initial feedback list for the artwork.
type FeedbackLoadedMsg struct {
	Items []feedback.Item
	Err   error
}

// CreateSettledMsg carries the persistence result of an optimistic create.
type CreateSettledMsg struct {
	Pending feedback.PendingCreate
	Item    feedback.Item
	Err     error
}

// StatusSettledMsg carries the persistence result of a resolve/reopen.
type StatusSettledMsg struct {
	Pending feedback.PendingStatus
	Err     error
}

// UploadSettledMsg carries the result of one audio upload attempt.
type UploadSettledMsg struct {
	Job   audio.UploadJob
	Asset audio.Asset
	Err   error
}

// TranscriptMsg carries a late transcript for an audio comment.
type TranscriptMsg struct {
	AssetRef string
	Text     string
	Err      error
}

// ThreadFetchedMsg carries the replies loaded for a thread.
type ThreadFetchedMsg struct {
	ParentID string
	Items    []feedback.Item
	Err      error
}

// ReplySettledMsg carries the persistence result of an optimistic reply.
type ReplySettledMsg struct {
	Pending thread.PendingReply
	Item    feedback.Item
	Err     error
}

// ClearTransientErrorMsg clears a transient error after a timeout. Only the
// error with the matching sequence number is cleared.
type ClearTransientErrorMsg struct {
	Seq int
}

// RecordingTickMsg refreshes the elapsed recording time.
type RecordingTickMsg struct{}
