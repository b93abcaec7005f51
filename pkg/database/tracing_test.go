package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func TestTraceQuery_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "RefreshRating", "UPDATE products SET average_rating = $2 WHERE id = $1")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.RefreshRating", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "RefreshRating", attrs["db.operation"])
}

func TestTraceQuery_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "SetOpinion", "SELECT is_like FROM review_opinions")
	end(errors.New("deadlock detected"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)
}

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	t.Run("slow query is logged", func(t *testing.T) {
		buf.Reset()
		SetSlowQueryLogging(time.Nanosecond, logger)

		_, end := TraceQuery(context.Background(), "CountFollowers", "SELECT COUNT(*) FROM follows")
		end(errors.New("canceling statement"))

		out := buf.String()
		assert.Contains(t, out, "slow query detected")
		assert.Contains(t, out, "CountFollowers")
		assert.Contains(t, out, "canceling statement")
	})

	t.Run("fast query is not logged", func(t *testing.T) {
		buf.Reset()
		SetSlowQueryLogging(time.Hour, logger)

		_, end := TraceQuery(context.Background(), "Ping", "SELECT 1")
		end(nil)

		assert.NotContains(t, buf.String(), "slow query detected")
	})

	t.Run("disabled", func(t *testing.T) {
		buf.Reset()
		SetSlowQueryLogging(0, logger)

		_, end := TraceQuery(context.Background(), "Ping", "SELECT 1")
		end(nil)

		assert.Empty(t, buf.String())
	})
}
