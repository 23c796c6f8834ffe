package gateway

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/extractor"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/logging"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/process"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/process/processtest"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

// cancellingWriter cancels the request once limit bytes were written
type cancellingWriter struct {
	*httptest.ResponseRecorder
	limit   int
	written int
	cancel  context.CancelFunc
}

func (w *cancellingWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseRecorder.Write(p)
	w.written += n
	if w.written >= w.limit {
		w.cancel()
	}
	return n, err
}

// brokenWriter fails every body write
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (w *brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

type recorderFunc func(ctx context.Context, rec *models.DownloadRecord) error

func (f recorderFunc) RecordDownload(ctx context.Context, rec *models.DownloadRecord) error {
	return f(ctx, rec)
}

func newTestGateway(starter process.Starter, chunkSize int) *Gateway {
	return New(starter, Config{BaseArgs: []string{"--quiet"}, ChunkSize: chunkSize}, nil, logging.Nop())
}

func mp4Request() models.DownloadRequest {
	return models.DownloadRequest{
		URL:       "https://youtu.be/abc123",
		Container: models.ContainerMP4,
		Filename:  "My Clip",
	}
}

func TestServeStreamsChunksInOrder(t *testing.T) {
	proc := processtest.NewProcess(0, "", []byte("first-"), []byte("second-"), []byte("third"))
	starter := &processtest.Starter{Process: proc}
	gw := newTestGateway(starter, 4)

	rec := httptest.NewRecorder()
	out := gw.Serve(context.Background(), rec, mp4Request())

	assert.Equal(t, StateDone, out.State)
	assert.True(t, out.Committed)
	assert.False(t, out.Cancelled)
	assert.NoError(t, out.Err)
	assert.Equal(t, int64(len("first-second-third")), out.Bytes)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first-second-third", rec.Body.String())
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="My Clip.mp4"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, rec.Flushed)
	assert.Equal(t, 1, proc.TerminateCalls())
}

func TestServeBuildsDownloadArgs(t *testing.T) {
	proc := processtest.NewProcess(0, "", []byte("x"))
	starter := &processtest.Starter{Process: proc}
	gw := newTestGateway(starter, 0)

	req := models.DownloadRequest{URL: "https://youtu.be/abc123", Container: models.ContainerMP3, FormatID: "251"}
	gw.Serve(context.Background(), httptest.NewRecorder(), req)

	assert.Equal(t, []string{
		"--quiet", "-f", "251", "--extract-audio", "--audio-format", "mp3",
		"--no-playlist", "-o", "-", "--", "https://youtu.be/abc123",
	}, starter.LastArgs())
}

func TestServeFailureBeforeFirstByteIsNotCommitted(t *testing.T) {
	proc := processtest.NewProcess(1, "ERROR: Unsupported URL")
	gw := newTestGateway(&processtest.Starter{Process: proc}, 0)

	rec := httptest.NewRecorder()
	out := gw.Serve(context.Background(), rec, mp4Request())

	assert.Equal(t, StateFailed, out.State)
	assert.False(t, out.Committed)
	assert.False(t, out.Cancelled)
	assert.Equal(t, 1, out.ExitCode)

	e := extractor.AsError(out.Err)
	require.NotNil(t, e)
	assert.Equal(t, extractor.KindExtractor, e.Kind)
	assert.Equal(t, http.StatusBadGateway, e.StatusCode())
	assert.Contains(t, e.Details, "Unsupported URL")

	assert.Empty(t, rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Zero(t, rec.Body.Len())
}

func TestServeFailureAfterCommitKeepsHeaders(t *testing.T) {
	proc := processtest.NewProcess(1, "ERROR: fragment 3 not found", []byte("partial"))
	gw := newTestGateway(&processtest.Starter{Process: proc}, 0)

	rec := httptest.NewRecorder()
	out := gw.Serve(context.Background(), rec, mp4Request())

	assert.Equal(t, StateFailed, out.State)
	assert.True(t, out.Committed)
	assert.Equal(t, extractor.KindStreamTerminated, extractor.KindOf(out.Err))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "partial", rec.Body.String())
}

func TestServeZeroExitWithoutOutputCommitsEmptyBody(t *testing.T) {
	proc := processtest.NewProcess(0, "")
	gw := newTestGateway(&processtest.Starter{Process: proc}, 0)

	req := mp4Request()
	req.Container = models.ContainerWAV
	req.Filename = ""

	rec := httptest.NewRecorder()
	out := gw.Serve(context.Background(), rec, req)

	assert.Equal(t, StateDone, out.State)
	assert.True(t, out.Committed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="youtube.wav"`, rec.Header().Get("Content-Disposition"))
	assert.Zero(t, rec.Body.Len())
}

func TestServeSpawnFailure(t *testing.T) {
	starter := &processtest.Starter{Err: &process.SpawnError{Path: "yt-dlp", Err: errors.New("executable file not found")}}
	gw := newTestGateway(starter, 0)

	rec := httptest.NewRecorder()
	out := gw.Serve(context.Background(), rec, mp4Request())

	assert.Equal(t, StateFailed, out.State)
	assert.False(t, out.Committed)
	assert.Zero(t, out.Bytes)

	e := extractor.AsError(out.Err)
	require.NotNil(t, e)
	assert.Equal(t, extractor.KindSpawn, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode())
	assert.Zero(t, rec.Body.Len())
}

func TestServeMissingBinary(t *testing.T) {
	gw := newTestGateway(process.NewRunner("/nonexistent/yt-dlp"), 0)

	rec := httptest.NewRecorder()
	out := gw.Serve(context.Background(), rec, mp4Request())

	assert.Equal(t, extractor.KindSpawn, extractor.KindOf(out.Err))
	assert.False(t, out.Committed)
	assert.Zero(t, rec.Body.Len())
}

func TestServeClientDisconnectStopsStreaming(t *testing.T) {
	proc := processtest.NewEndlessProcess(bytes.Repeat([]byte("a"), 1024))
	gw := newTestGateway(&processtest.Starter{Process: proc}, 1024)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &cancellingWriter{ResponseRecorder: httptest.NewRecorder(), limit: 4096, cancel: cancel}

	out := gw.Serve(ctx, w, mp4Request())

	assert.Equal(t, StateFailed, out.State)
	assert.True(t, out.Cancelled)
	assert.True(t, out.Committed)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, int64(4096), out.Bytes)
	assert.Equal(t, 4096, w.Body.Len())

	assert.True(t, proc.Terminated())
	assert.Equal(t, 1, proc.TerminateCalls())
}

func TestServeCancelledBeforeFirstByte(t *testing.T) {
	proc := processtest.NewHangingProcess()
	gw := newTestGateway(&processtest.Starter{Process: proc}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	out := gw.Serve(ctx, rec, mp4Request())

	assert.Equal(t, StateFailed, out.State)
	assert.True(t, out.Cancelled)
	assert.False(t, out.Committed)
	assert.Zero(t, rec.Body.Len())
	assert.Equal(t, 1, proc.TerminateCalls())
}

func TestServeWriteErrorCountsAsDisconnect(t *testing.T) {
	proc := processtest.NewEndlessProcess([]byte("data"))
	gw := newTestGateway(&processtest.Starter{Process: proc}, 0)

	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder()}
	out := gw.Serve(context.Background(), w, mp4Request())

	assert.Equal(t, StateFailed, out.State)
	assert.True(t, out.Cancelled)
	assert.Error(t, out.Err)
	assert.Zero(t, out.Bytes)
	assert.Equal(t, 1, proc.TerminateCalls())
}

func TestServeRecordsHistory(t *testing.T) {
	proc := processtest.NewProcess(0, "", []byte("hello"))

	var (
		mu  sync.Mutex
		got *models.DownloadRecord
	)
	done := make(chan struct{})
	recorder := recorderFunc(func(ctx context.Context, rec *models.DownloadRecord) error {
		mu.Lock()
		got = rec
		mu.Unlock()
		close(done)
		return nil
	})

	gw := New(&processtest.Starter{Process: proc}, Config{}, recorder, logging.Nop())
	gw.Serve(context.Background(), httptest.NewRecorder(), mp4Request())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("history record was not written")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "https://youtu.be/abc123", got.URL)
	assert.Equal(t, models.ContainerMP4, got.Container)
	assert.Equal(t, "My Clip", got.Filename)
	assert.Equal(t, "done", got.State)
	assert.Equal(t, int64(5), got.Bytes)
	assert.Empty(t, got.ErrorKind)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not_started", StateNotStarted.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
