package models

import (
	"fmt"
	"strings"
	"time"
)

// Container is the target container of a download
type Container string

// Supported containers
const (
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
	ContainerMP3  Container = "mp3"
	ContainerWAV  Container = "wav"
)

// DefaultContainer is used when the client does not ask for one
const DefaultContainer = ContainerMP4

// ParseContainer normalizes a user supplied container name.
// The empty string maps to DefaultContainer.
func ParseContainer(s string) (Container, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultContainer, nil
	}

	switch c := Container(s); c {
	case ContainerMP4, ContainerWebM, ContainerMP3, ContainerWAV:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported container %q", s)
	}
}

// IsAudio reports whether the container holds audio only
func (c Container) IsAudio() bool {
	return c == ContainerMP3 || c == ContainerWAV
}

// ContentType returns the MIME type sent with a download of this container
func (c Container) ContentType() string {
	switch c {
	case ContainerMP3:
		return "audio/mpeg"
	case ContainerWAV:
		return "audio/wav"
	case ContainerMP4:
		return "video/mp4"
	case ContainerWebM:
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

// DownloadRequest is built from one inbound download call and consumed once
type DownloadRequest struct {
	URL       string
	Container Container
	FormatID  string
	Filename  string
}

// DownloadRecord is the history row written after each download attempt
type DownloadRecord struct {
	ID         string    `json:"id" db:"id"`
	URL        string    `json:"url" db:"url"`
	Container  Container `json:"container" db:"container"`
	FormatID   string    `json:"format_id,omitempty" db:"format_id"`
	Filename   string    `json:"filename" db:"filename"`
	State      string    `json:"state" db:"state"`
	Bytes      int64     `json:"bytes" db:"bytes"`
	ExitCode   int       `json:"exit_code" db:"exit_code"`
	ErrorKind  string    `json:"error_kind,omitempty" db:"error_kind"`
	Cancelled  bool      `json:"cancelled" db:"cancelled"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}
