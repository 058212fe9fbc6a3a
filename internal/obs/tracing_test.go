// Copyright 2025 James Ross
package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabledReturnsNilProvider(t *testing.T) {
	tp, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestInitTracingEnabledInstallsProvider(t *testing.T) {
	tp, err := InitTracing(TracingConfig{Enabled: true, SamplingStrategy: "always"})
	require.NoError(t, err)
	require.NotNil(t, tp)
	defer func() { _ = TracerShutdown(context.Background(), tp) }()

	ctx, span := StartStageSpan(context.Background(), "discover", "run")
	defer span.End()

	traceID, spanID := GetTraceAndSpanID(ctx)
	assert.NotEmpty(t, traceID)
	assert.NotEmpty(t, spanID)
}

func TestRecordErrorAndSetSpanSuccessDoNotPanicWithoutProvider(t *testing.T) {
	ctx, span := StartStageSpan(context.Background(), "discover", "run")
	defer span.End()
	RecordError(ctx, errors.New("boom"))
	SetSpanSuccess(ctx)
}

func TestTracerShutdownNilIsNoop(t *testing.T) {
	require.NoError(t, TracerShutdown(context.Background(), nil))
}

func TestKeyValueTypes(t *testing.T) {
	assert.Equal(t, "x", KeyValue("k", "x").Value.AsString())
	assert.Equal(t, int64(3), KeyValue("k", 3).Value.AsInt64())
}
