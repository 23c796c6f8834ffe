package gateway

import (
	"strings"

	"github.com/therealutkarshpriyadarshi/mediagate/internal/extractor"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

// NewRequest validates raw query parameters into a DownloadRequest
func NewRequest(url, format, formatID, filename string) (models.DownloadRequest, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return models.DownloadRequest{}, extractor.BadRequest(extractor.MsgMissingURL, "")
	}

	container, err := models.ParseContainer(format)
	if err != nil {
		return models.DownloadRequest{}, extractor.BadRequest(extractor.MsgInvalidFormat, err.Error())
	}

	return models.DownloadRequest{
		URL:       url,
		Container: container,
		FormatID:  strings.TrimSpace(formatID),
		Filename:  filename,
	}, nil
}
