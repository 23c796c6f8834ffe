package extractor

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

// rawInfo is the subset of yt-dlp's -j document we read
type rawInfo struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Uploader    string         `json:"uploader"`
	Duration    *float64       `json:"duration"`
	Description string         `json:"description"`
	Thumbnail   string         `json:"thumbnail"`
	Thumbnails  []rawThumbnail `json:"thumbnails"`
	Formats     []rawFormat    `json:"formats"`
	WebpageURL  string         `json:"webpage_url"`
	Extractor   string         `json:"extractor"`
}

type rawThumbnail struct {
	URL string `json:"url"`
}

// Numeric fields are decoded as floats; extractors are not consistent
// about emitting integers.
type rawFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	FormatNote     string   `json:"format_note"`
	Filesize       *float64 `json:"filesize"`
	FilesizeApprox *float64 `json:"filesize_approx"`
	Width          *float64 `json:"width"`
	Height         *float64 `json:"height"`
	ACodec         *string  `json:"acodec"`
	VCodec         *string  `json:"vcodec"`
	ABR            *float64 `json:"abr"`
	TBR            *float64 `json:"tbr"`
}

var errEmptyDocument = errors.New("extractor output is not a JSON object")

// ParseInfo decodes a yt-dlp metadata document and projects it into MediaInfo
func ParseInfo(data []byte) (*models.MediaInfo, error) {
	var raw *rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errEmptyDocument
	}
	return raw.project(), nil
}

func (r *rawInfo) project() *models.MediaInfo {
	info := &models.MediaInfo{
		ID:          r.ID,
		Title:       r.Title,
		Uploader:    r.Uploader,
		Duration:    seconds(r.Duration),
		Description: r.Description,
		Thumbnails:  reverseThumbnails(r.Thumbnails),
		Formats:     make([]models.Rendition, 0, len(r.Formats)),
		WebpageURL:  r.WebpageURL,
		Extractor:   r.Extractor,
	}

	if len(info.Thumbnails) == 0 && r.Thumbnail != "" {
		info.Thumbnails = []string{r.Thumbnail}
	}

	for _, f := range r.Formats {
		info.Formats = append(info.Formats, f.project())
	}

	return info
}

func (f rawFormat) project() models.Rendition {
	size := toInt64(f.Filesize)
	if size == nil {
		size = toInt64(f.FilesizeApprox)
	}

	return models.Rendition{
		FormatID:   f.FormatID,
		Ext:        f.Ext,
		FormatNote: f.FormatNote,
		Filesize:   size,
		Width:      toInt(f.Width),
		Height:     toInt(f.Height),
		ACodec:     f.ACodec,
		VCodec:     f.VCodec,
		ABR:        f.ABR,
		TBR:        f.TBR,
	}
}

// reverseThumbnails returns thumbnail URLs best first. yt-dlp lists them
// from lowest to highest preference.
func reverseThumbnails(thumbs []rawThumbnail) []string {
	urls := make([]string, 0, len(thumbs))
	for i := len(thumbs) - 1; i >= 0; i-- {
		urls = append(urls, thumbs[i].URL)
	}
	return urls
}

func seconds(v *float64) *int64 {
	if v == nil || *v < 0 || math.IsNaN(*v) {
		return nil
	}
	return toInt64(v)
}

func toInt64(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(math.Round(*v))
	return &n
}

func toInt(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}
