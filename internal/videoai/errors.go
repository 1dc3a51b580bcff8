package videoai

import "fmt"

// RemoteError kinds. "failed" marks a job the remote service reported as
// failed, "timeout" a poll deadline that expired locally; both are still
// remote-service failures from the caller's point of view.
const (
	KindRemote   = "remote"
	KindNotFound = "not_found"
	KindFailed   = "failed"
	KindTimeout  = "timeout"
)

// RemoteError represents a failure of an index, asset, task or analysis
// call against the video-intelligence service.
type RemoteError struct {
	Kind       string
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsRetryable returns true for server errors (5xx) and timeouts.
// Client errors (4xx) and failed jobs are considered permanent.
func (e *RemoteError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.Kind == KindTimeout
}

func remoteErrorFromStatus(op string, statusCode int, body string) *RemoteError {
	kind := KindRemote
	if statusCode == 404 {
		kind = KindNotFound
	}
	return &RemoteError{Kind: kind, Op: op, StatusCode: statusCode, Message: body}
}
