// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rmmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestZeroValueRecorder_IsNilSafe(t *testing.T) {
	t.Parallel()

	var r *Recorder
	ctx := context.Background()

	assert.NotPanics(t, func() {
		_, span := r.StartRequest(ctx, "GET", "/widgets/{id}")
		_ = span
		r.RecordNode(ctx, "route_exists", time.Now())
		r.RecordCache(ctx, "request", true)
		r.RecordCache(ctx, "session", false)
		r.RecordTerminal(ctx, 200)
	})
}

func TestEmptyStructRecorder_IsNoopSafe(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		ctx2, span := r.StartRequest(ctx, "GET", "/widgets/{id}")
		assert.Equal(t, ctx, ctx2)
		_ = span
		r.RecordNode(ctx, "route_exists", time.Now())
		r.RecordCache(ctx, "request", true)
		r.RecordTerminal(ctx, 500)
	})
}

func TestNew_BuildsInstrumentsAgainstNoopProviders(t *testing.T) {
	t.Parallel()

	r, err := New(noop.NewMeterProvider(), tracenoop.NewTracerProvider())
	require.NoError(t, err)
	require.NotNil(t, r)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		ctx, span := r.StartRequest(ctx, "GET", "/widgets/{id}")
		r.RecordNode(ctx, "route_exists", time.Now())
		r.RecordCache(ctx, "request", true)
		r.RecordCache(ctx, "request", false)
		r.RecordTerminal(ctx, 200)
		span.End()
	})
}
