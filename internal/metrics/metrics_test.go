package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/api/info", "200", 0.123)

	counter := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/info", "200"))
	if counter != 1.0 {
		t.Errorf("Expected counter to be 1.0, got %f", counter)
	}
}

func TestRecordExtractorRun(t *testing.T) {
	ExtractorRunsTotal.Reset()
	ExtractorRunDuration.Reset()

	RecordExtractorRun("info", "success", 1.5)
	RecordExtractorRun("download", "extractor_error", 0.3)
	RecordExtractorRun("info", "success", 2.0)

	success := testutil.ToFloat64(ExtractorRunsTotal.WithLabelValues("info", "success"))
	if success != 2.0 {
		t.Errorf("Expected info success counter to be 2.0, got %f", success)
	}

	failed := testutil.ToFloat64(ExtractorRunsTotal.WithLabelValues("download", "extractor_error"))
	if failed != 1.0 {
		t.Errorf("Expected download failure counter to be 1.0, got %f", failed)
	}
}

func TestProcessGauge(t *testing.T) {
	ExtractorProcessesActive.Set(0)

	ProcessStarted()
	ProcessStarted()
	ProcessFinished()

	active := testutil.ToFloat64(ExtractorProcessesActive)
	if active != 1.0 {
		t.Errorf("Expected 1 active process, got %f", active)
	}
}

func TestRecordDownload(t *testing.T) {
	DownloadsTotal.Reset()
	DownloadBytesTotal.Reset()
	DownloadsCancelledTotal.Reset()

	RecordDownload("mp4", "done", 1048576, false)
	RecordDownload("mp4", "failed", 4096, true)

	done := testutil.ToFloat64(DownloadsTotal.WithLabelValues("mp4", "done"))
	if done != 1.0 {
		t.Errorf("Expected done counter to be 1.0, got %f", done)
	}

	bytes := testutil.ToFloat64(DownloadBytesTotal.WithLabelValues("mp4"))
	if bytes != 1052672.0 {
		t.Errorf("Expected 1052672 bytes, got %f", bytes)
	}

	cancelled := testutil.ToFloat64(DownloadsCancelledTotal.WithLabelValues("mp4"))
	if cancelled != 1.0 {
		t.Errorf("Expected cancelled counter to be 1.0, got %f", cancelled)
	}
}

func TestRecordDatabaseOperation(t *testing.T) {
	DatabaseOperationsTotal.Reset()

	RecordDatabaseOperation("insert", "success")
	RecordDatabaseOperation("insert", "error")

	success := testutil.ToFloat64(DatabaseOperationsTotal.WithLabelValues("insert", "success"))
	if success != 1.0 {
		t.Errorf("Expected insert success counter to be 1.0, got %f", success)
	}
}

func TestRecordCacheAccess(t *testing.T) {
	CacheHitsTotal.Reset()
	CacheMissesTotal.Reset()

	RecordCacheAccess("mediainfo", true)
	RecordCacheAccess("mediainfo", true)
	RecordCacheAccess("mediainfo", false)

	hits := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("mediainfo"))
	if hits != 2.0 {
		t.Errorf("Expected cache hits to be 2.0, got %f", hits)
	}

	misses := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("mediainfo"))
	if misses != 1.0 {
		t.Errorf("Expected cache misses to be 1.0, got %f", misses)
	}
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("gateway", "spawn_error")
	RecordError("resolver", "malformed_extractor_output")
	RecordError("gateway", "spawn_error")

	spawn := testutil.ToFloat64(ErrorsTotal.WithLabelValues("gateway", "spawn_error"))
	if spawn != 2.0 {
		t.Errorf("Expected spawn errors to be 2.0, got %f", spawn)
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordHTTPRequest("GET", "/api/download", "200", 0.123)
	}
}
