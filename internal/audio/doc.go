// Package audio owns the microphone lifecycle for voice comments: a single
// exclusive microphone lease, the recording state machine, and the upload of
// the finished clip.
//
// The pipeline moves through
//
//	idle → recording → uploading → ready | error
//
// and never blocks the caller on network I/O: Stop returns an UploadJob that
// the host runs off the event loop and hands back through SettleUpload.
package audio
