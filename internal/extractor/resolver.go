package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/mediagate/internal/logging"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/metrics"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/process"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/tracing"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

// DefaultMaxInfoBytes caps the metadata document read from the extractor
const DefaultMaxInfoBytes = 32 * 1024 * 1024

// InfoCache stores resolved metadata between requests
type InfoCache interface {
	GetMediaInfo(ctx context.Context, url string) (*models.MediaInfo, error)
	SetMediaInfo(ctx context.Context, url string, info *models.MediaInfo, ttl time.Duration) error
}

// ResolverConfig holds metadata resolution settings
type ResolverConfig struct {
	BaseArgs     []string
	Timeout      time.Duration
	MaxInfoBytes int64
	CacheTTL     time.Duration
}

// Resolver turns a source URL into MediaInfo by running the extractor once
type Resolver struct {
	starter process.Starter
	cfg     ResolverConfig
	cache   InfoCache
	logger  *logging.Logger
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(starter process.Starter, cfg ResolverConfig, cache InfoCache, logger *logging.Logger) *Resolver {
	if cfg.MaxInfoBytes <= 0 {
		cfg.MaxInfoBytes = DefaultMaxInfoBytes
	}
	return &Resolver{
		starter: starter,
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
	}
}

// Resolve returns metadata for url. Failures are returned as *Error and
// are never retried.
func (r *Resolver) Resolve(ctx context.Context, url string) (*models.MediaInfo, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, BadRequest(MsgMissingURL, "")
	}

	span, ctx := tracing.StartSpan(ctx, "extractor.resolve")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "url", url)

	if info := r.cached(ctx, url); info != nil {
		tracing.SetTag(span, "cache_hit", true)
		return info, nil
	}

	info, err := r.run(ctx, url)
	if err != nil {
		tracing.LogError(span, err)
		metrics.RecordError("resolver", string(KindOf(err)))
		return nil, err
	}

	r.store(ctx, url, info)
	return info, nil
}

func (r *Resolver) run(ctx context.Context, url string) (*models.MediaInfo, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	h, err := r.starter.Start(ctx, InfoArgs(r.cfg.BaseArgs, url)...)
	if err != nil {
		metrics.RecordExtractorRun("info", string(KindSpawn), time.Since(started).Seconds())
		r.logger.WithField("url", url).ErrorWithErr("Failed to start extractor", err)
		return nil, SpawnFailure(err)
	}

	metrics.ProcessStarted()
	defer metrics.ProcessFinished()

	terminate := sync.OnceFunc(h.Terminate)
	stop := context.AfterFunc(ctx, terminate)
	defer stop()
	defer func() {
		terminate()
		h.Wait()
	}()

	out, readErr := io.ReadAll(io.LimitReader(h, r.cfg.MaxInfoBytes+1))
	overflow := int64(len(out)) > r.cfg.MaxInfoBytes
	if overflow {
		terminate()
	}
	status := h.Wait()

	info, err := r.classify(ctx, out, readErr, overflow, status)
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	metrics.RecordExtractorRun("info", outcome, time.Since(started).Seconds())
	r.logger.WithField("url", url).LogExtractorRun("info", status.Code, time.Since(started), err)

	return info, err
}

func (r *Resolver) classify(ctx context.Context, out []byte, readErr error, overflow bool, status process.ExitStatus) (*models.MediaInfo, error) {
	if overflow {
		return nil, MalformedOutput(fmt.Errorf("metadata exceeds %d bytes", r.cfg.MaxInfoBytes))
	}

	if err := ctx.Err(); err != nil {
		details := "request cancelled"
		if errors.Is(err, context.DeadlineExceeded) {
			details = fmt.Sprintf("timed out after %v", r.cfg.Timeout)
		}
		return nil, &Error{Kind: KindExtractor, Message: MsgExtractorFailed, Details: details, Err: err}
	}

	if !status.Success() {
		return nil, ExtractorFailure(status)
	}

	if readErr != nil {
		return nil, &Error{Kind: KindExtractor, Message: MsgExtractorFailed, Details: readErr.Error(), Err: readErr}
	}

	info, err := ParseInfo(out)
	if err != nil {
		return nil, MalformedOutput(err)
	}
	return info, nil
}

func (r *Resolver) cached(ctx context.Context, url string) *models.MediaInfo {
	if r.cache == nil {
		return nil
	}

	info, err := r.cache.GetMediaInfo(ctx, url)
	if err != nil {
		r.logger.WithField("url", url).ErrorWithErr("Metadata cache lookup failed", err)
		return nil
	}
	metrics.RecordCacheAccess("mediainfo", info != nil)
	return info
}

func (r *Resolver) store(ctx context.Context, url string, info *models.MediaInfo) {
	if r.cache == nil || r.cfg.CacheTTL <= 0 {
		return
	}
	if err := r.cache.SetMediaInfo(ctx, url, info, r.cfg.CacheTTL); err != nil {
		r.logger.WithField("url", url).ErrorWithErr("Failed to cache metadata", err)
	}
}
