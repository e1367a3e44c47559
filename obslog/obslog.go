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

// Package obslog is restmachine's structured logging seam. It mirrors
// rivaas.dev/logging's handler-type selection and no-op-logger-singleton
// pattern (router.NoopLogger() in router/router.go) at a scale appropriate
// to a library core rather than a full logging subsystem — no-goal per
// spec.md §1 is "metrics backends", and a bespoke log-shipping pipeline is
// the same kind of ambient-but-external concern.
package obslog

import (
	"io"
	"log/slog"
)

// HandlerType selects the slog.Handler an Application logs through.
type HandlerType string

const (
	// JSON emits structured JSON lines, the default for production use.
	JSON HandlerType = "json"
	// Text emits key=value text lines, convenient for local development.
	Text HandlerType = "text"
)

var noop = slog.New(slog.NewTextHandler(io.Discard, nil))

// Noop returns the singleton logger used when an Application is
// constructed without an explicit logger.
func Noop() *slog.Logger {
	return noop
}

// New builds a *slog.Logger writing handlerType-formatted lines to w at the
// given level.
func New(w io.Writer, handlerType HandlerType, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if handlerType == JSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// RequestFields builds the structured attributes every terminal decision
// logs, per SPEC_FULL.md §3 ("one structured line per request at the
// terminal node").
func RequestFields(method, path, template string, status int, shortCircuitedAt string, durationMicros int64) []any {
	fields := []any{
		"method", method,
		"path", path,
		"route", template,
		"status", status,
		"duration_us", durationMicros,
	}
	if shortCircuitedAt != "" {
		fields = append(fields, "node", shortCircuitedAt)
	}
	return fields
}
