package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/extractor"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(" https://youtu.be/abc123 ", "MP3", " 140 ", "song")
	require.NoError(t, err)

	assert.Equal(t, "https://youtu.be/abc123", req.URL)
	assert.Equal(t, models.ContainerMP3, req.Container)
	assert.Equal(t, "140", req.FormatID)
	assert.Equal(t, "song", req.Filename)
}

func TestNewRequestDefaultsContainer(t *testing.T) {
	req, err := NewRequest("https://youtu.be/abc123", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.ContainerMP4, req.Container)
}

func TestNewRequestMissingURL(t *testing.T) {
	_, err := NewRequest("   ", "mp4", "", "")

	e := extractor.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, extractor.KindBadRequest, e.Kind)
	assert.Equal(t, extractor.MsgMissingURL, e.Message)
}

func TestNewRequestInvalidFormat(t *testing.T) {
	_, err := NewRequest("https://youtu.be/abc123", "flac", "", "")

	e := extractor.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, extractor.KindBadRequest, e.Kind)
	assert.Equal(t, extractor.MsgInvalidFormat, e.Message)
	assert.Contains(t, e.Details, "flac")
}
