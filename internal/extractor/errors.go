package extractor

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/therealutkarshpriyadarshi/mediagate/internal/process"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

// Kind classifies a failure of the gateway or the resolver
type Kind string

// Failure classes
const (
	KindBadRequest       Kind = "bad_request"
	KindSpawn            Kind = "spawn_error"
	KindExtractor        Kind = "extractor_error"
	KindMalformedOutput  Kind = "malformed_extractor_output"
	KindStreamTerminated Kind = "stream_terminated_early"
	KindInternal         Kind = "internal"
)

// Stable client-facing messages
const (
	MsgMissingURL      = "Missing url"
	MsgInvalidFormat   = "Invalid format"
	MsgSpawnFailed     = "Failed to start yt-dlp"
	MsgExtractorFailed = "yt-dlp failed"
	MsgMalformedOutput = "Failed to parse yt-dlp output"
	MsgStreamTruncated = "yt-dlp failed after streaming started"
	MsgServerError     = "Server error"
)

// Error is a classified failure. Message is stable; Details carries the
// extractor's diagnostic text or the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the failure class to an HTTP status
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindExtractor, KindMalformedOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Response renders the error as the API's JSON body
func (e *Error) Response() models.ErrorResponse {
	return models.ErrorResponse{
		Error:   e.Message,
		Details: e.Details,
	}
}

// BadRequest reports a missing or invalid parameter
func BadRequest(message, details string) *Error {
	return &Error{Kind: KindBadRequest, Message: message, Details: details}
}

// SpawnFailure wraps an error from starting the extractor
func SpawnFailure(err error) *Error {
	return &Error{Kind: KindSpawn, Message: MsgSpawnFailed, Details: err.Error(), Err: err}
}

// ExtractorFailure reports a non-zero exit of the extractor
func ExtractorFailure(status process.ExitStatus) *Error {
	return &Error{Kind: KindExtractor, Message: MsgExtractorFailed, Details: status.Stderr}
}

// MalformedOutput reports a successful exit with unusable output
func MalformedOutput(err error) *Error {
	return &Error{Kind: KindMalformedOutput, Message: MsgMalformedOutput, Details: err.Error(), Err: err}
}

// StreamTerminated reports a failure after the response was committed
func StreamTerminated(status process.ExitStatus) *Error {
	return &Error{Kind: KindStreamTerminated, Message: MsgStreamTruncated, Details: status.Stderr}
}

// AsError classifies err, treating anything unknown as an internal error
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var spawnErr *process.SpawnError
	if errors.As(err, &spawnErr) {
		return SpawnFailure(err)
	}

	return &Error{Kind: KindInternal, Message: MsgServerError, Err: err}
}

// KindOf returns the failure class of err
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
