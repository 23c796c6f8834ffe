package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/extractor"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/logging"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/metrics"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/process"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/tracing"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

const (
	// DefaultChunkSize is the read size used when forwarding extractor output
	DefaultChunkSize = 32 * 1024
	// DefaultRecordTimeout bounds a history write after the response ended
	DefaultRecordTimeout = 5 * time.Second
)

// State is the progress of one download response
type State int

// Download states
const (
	StateNotStarted State = iota
	StateStreaming
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of serving one download.
//
// Committed is set once status and headers were sent. A failed outcome that
// is not committed and not cancelled can still be answered with a JSON error;
// a committed failure carries a stream_terminated_early error.
type Outcome struct {
	State     State
	Committed bool
	Cancelled bool
	Bytes     int64
	ExitCode  int
	Err       error
}

// Recorder persists download history
type Recorder interface {
	RecordDownload(ctx context.Context, rec *models.DownloadRecord) error
}

// Config holds gateway settings
type Config struct {
	BaseArgs      []string
	ChunkSize     int
	RecordTimeout time.Duration
}

// Gateway streams extractor output to HTTP clients
type Gateway struct {
	starter  process.Starter
	cfg      Config
	recorder Recorder
	logger   *logging.Logger
}

// New creates a gateway. recorder may be nil.
func New(starter process.Starter, cfg Config, recorder Recorder, logger *logging.Logger) *Gateway {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = DefaultRecordTimeout
	}
	return &Gateway{
		starter:  starter,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
	}
}

// Serve runs the extractor for req and forwards its stdout to w as it is
// produced. Cancelling ctx kills the extractor and stops forwarding.
// Serve never writes an error body itself; see Outcome.
func (g *Gateway) Serve(ctx context.Context, w http.ResponseWriter, req models.DownloadRequest) Outcome {
	span, ctx := tracing.StartSpan(ctx, "gateway.download")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "container", string(req.Container))
	tracing.SetTag(span, "format_id", req.FormatID)

	started := time.Now()
	out := g.stream(ctx, w, req)

	tracing.SetTag(span, "state", out.State.String())
	tracing.SetTag(span, "bytes", out.Bytes)
	tracing.SetTag(span, "exit_code", out.ExitCode)
	if out.Err != nil && !out.Cancelled {
		tracing.LogError(span, out.Err)
		metrics.RecordError("gateway", string(extractor.KindOf(out.Err)))
	}

	metrics.RecordDownload(string(req.Container), out.State.String(), out.Bytes, out.Cancelled)
	metrics.RecordExtractorRun("download", outcomeLabel(out), time.Since(started).Seconds())

	logger := g.logger.WithFields(map[string]interface{}{
		"url":       req.URL,
		"format_id": req.FormatID,
		"exit_code": out.ExitCode,
	})
	if e := extractor.AsError(out.Err); e != nil && e.Details != "" {
		logger = logger.WithField("stderr", e.Details)
	}
	logErr := out.Err
	if out.Cancelled {
		logErr = nil
	}
	logger.LogDownload(string(req.Container), out.State.String(), out.Bytes, out.Cancelled, time.Since(started), logErr)

	if g.recorder != nil {
		go g.record(context.WithoutCancel(ctx), req, out, started)
	}

	return out
}

func (g *Gateway) stream(ctx context.Context, w http.ResponseWriter, req models.DownloadRequest) Outcome {
	out := Outcome{State: StateNotStarted}

	h, err := g.starter.Start(ctx, extractor.DownloadArgs(g.cfg.BaseArgs, req)...)
	if err != nil {
		out.State = StateFailed
		out.ExitCode = -1
		out.Err = extractor.SpawnFailure(err)
		return out
	}

	metrics.ProcessStarted()
	defer metrics.ProcessFinished()

	// Every exit path kills and reaps the child exactly once
	terminate := sync.OnceFunc(h.Terminate)
	stop := context.AfterFunc(ctx, terminate)
	defer stop()
	defer func() {
		terminate()
		h.Wait()
	}()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, g.cfg.ChunkSize)

	var readErr, writeErr error
	for ctx.Err() == nil {
		n, err := h.Read(buf)
		if n > 0 {
			if ctx.Err() != nil {
				break
			}
			if !out.Committed {
				commit(w, req)
				out.Committed = true
				out.State = StateStreaming
			}

			written, werr := w.Write(buf[:n])
			out.Bytes += int64(written)
			if werr != nil {
				writeErr = werr
				break
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil || writeErr != nil {
		terminate()
		out.ExitCode = h.Wait().Code
		out.State = StateFailed
		out.Cancelled = true
		out.Err = ctxErr
		if writeErr != nil {
			out.Err = fmt.Errorf("client write failed: %w", writeErr)
		}
		return out
	}

	if readErr != nil {
		terminate()
	}
	status := h.Wait()
	out.ExitCode = status.Code

	switch {
	case readErr == nil && status.Success():
		if !out.Committed {
			commit(w, req)
			out.Committed = true
		}
		out.State = StateDone
	case out.Committed:
		out.State = StateFailed
		out.Err = extractor.StreamTerminated(status)
	case readErr != nil:
		out.State = StateFailed
		out.Err = &extractor.Error{Kind: extractor.KindExtractor, Message: extractor.MsgExtractorFailed, Details: readErr.Error(), Err: readErr}
	default:
		out.State = StateFailed
		out.Err = extractor.ExtractorFailure(status)
	}

	return out
}

// commit sends status and headers. Nothing may change them afterwards.
func commit(w http.ResponseWriter, req models.DownloadRequest) {
	header := w.Header()
	header.Set("Content-Type", req.Container.ContentType())
	header.Set("Content-Disposition", ContentDisposition(req.Filename, req.Container))
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) record(ctx context.Context, req models.DownloadRequest, out Outcome, started time.Time) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.RecordTimeout)
	defer cancel()

	rec := &models.DownloadRecord{
		ID:         uuid.New().String(),
		URL:        req.URL,
		Container:  req.Container,
		FormatID:   req.FormatID,
		Filename:   SanitizeFilename(req.Filename),
		State:      out.State.String(),
		Bytes:      out.Bytes,
		ExitCode:   out.ExitCode,
		ErrorKind:  string(extractor.KindOf(out.Err)),
		Cancelled:  out.Cancelled,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	if err := g.recorder.RecordDownload(ctx, rec); err != nil {
		g.logger.WithField("url", req.URL).ErrorWithErr("Failed to record download", err)
	}
}

func outcomeLabel(out Outcome) string {
	switch {
	case out.Cancelled:
		return "cancelled"
	case out.Err != nil:
		return string(extractor.KindOf(out.Err))
	default:
		return "success"
	}
}
