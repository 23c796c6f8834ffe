package models

// MediaInfo is the simplified view of a remote media resource returned by
// the info endpoint. It lives for one response and is never persisted.
type MediaInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Uploader    string      `json:"uploader"`
	Duration    *int64      `json:"duration"`
	Description string      `json:"description"`
	Thumbnails  []string    `json:"thumbnails"`
	Formats     []Rendition `json:"formats"`
	WebpageURL  string      `json:"webpage_url"`
	Extractor   string      `json:"extractor"`
}

// Rendition describes one encoded variant offered by the extractor.
// Pointer fields are nil when the extractor did not report them.
type Rendition struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	FormatNote string   `json:"format_note"`
	Filesize   *int64   `json:"filesize"`
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`
	ACodec     *string  `json:"acodec"`
	VCodec     *string  `json:"vcodec"`
	ABR        *float64 `json:"abr"`
	TBR        *float64 `json:"tbr"`
}

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
