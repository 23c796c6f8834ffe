package extractor

import (
	"fmt"

	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

const (
	bestAudioSelector = "bestaudio"
	maxAudioQuality   = "0"
	stdoutTarget      = "-"
)

// InfoArgs builds the metadata-only invocation for url
func InfoArgs(base []string, url string) []string {
	args := append([]string(nil), base...)
	return append(args, "-j", "--no-playlist", "--", url)
}

// DownloadArgs builds the invocation that streams req's rendition to stdout.
//
// Audio containers always extract audio into the target container. Video
// containers pass an explicit format id through untouched; without one the
// best video stream in the target container plus the best audio is selected
// and recoded into the target container.
func DownloadArgs(base []string, req models.DownloadRequest) []string {
	args := append([]string(nil), base...)
	args = append(args, "-f", FormatSelector(req))

	switch {
	case req.Container.IsAudio() && req.FormatID != "":
		args = append(args, "--extract-audio", "--audio-format", string(req.Container))
	case req.Container.IsAudio():
		args = append(args, "--extract-audio", "--audio-format", string(req.Container), "--audio-quality", maxAudioQuality)
	case req.FormatID == "":
		args = append(args, "--recode-video", string(videoTarget(req.Container)))
	}

	return append(args, "--no-playlist", "-o", stdoutTarget, "--", req.URL)
}

// FormatSelector returns the -f value used for req
func FormatSelector(req models.DownloadRequest) string {
	if req.FormatID != "" {
		return req.FormatID
	}
	if req.Container.IsAudio() {
		return bestAudioSelector
	}
	// Falls back to the best muxed stream when no stream in the target
	// container exists.
	return fmt.Sprintf("bestvideo[ext=%s]+bestaudio/best", videoTarget(req.Container))
}

func videoTarget(c models.Container) models.Container {
	if c == models.ContainerWebM {
		return models.ContainerWebM
	}
	return models.ContainerMP4
}
