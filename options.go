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

package restmachine

import (
	"log/slog"

	"github.com/rivaas-dev/restmachine/negotiate"
	"github.com/rivaas-dev/restmachine/rmmetrics"
)

// Option configures an Application at construction time, following
// router/options.go's functional-options convention rather than a mutable
// config struct.
type Option func(*Application)

// WithLogger makes the Application log through l instead of the no-op
// logger New uses by default.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetricsRecorder wires OpenTelemetry metrics and tracing into the
// decision machine and dependency container (SPEC_FULL.md §4). Build r with
// rmmetrics.New against an already-configured MeterProvider/TracerProvider.
func WithMetricsRecorder(r *rmmetrics.Recorder) Option {
	return func(a *Application) {
		if r != nil {
			a.metrics = r
		}
	}
}

// WithDiagnostics routes registration-time and shutdown-time anomaly
// events to h (spec.md's decision machine stays correct either way; this is
// purely an observability seam).
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(a *Application) {
		a.diagnostics = h
	}
}

// WithURITooLongLimit overrides the default 8192-byte limit the uri_too_long
// decision node enforces. A limit of 0 disables the check entirely — not
// recommended outside of tests, since an unbounded request-line length is a
// denial-of-service surface on any adapter that buffers it before handing a
// Request to Execute.
func WithURITooLongLimit(bytes int) Option {
	return func(a *Application) {
		a.uriTooLongLimit = bytes
	}
}

// WithDefaultRenderer appends r to the Application's default renderers,
// which every route offers alongside its route-local ones. Renderers
// registered this way are tried in the order supplied, after any route-local
// renderers and the built-in JSON renderer (spec.md §4.4 tie break
// "route-local over default").
func WithDefaultRenderer(r negotiate.Renderer) Option {
	return func(a *Application) {
		a.defaultRenderers = append(a.defaultRenderers, r)
	}
}

// WithDefaultParser appends p to the Application's default parsers, which
// every route tries after its route-local parsers.
func WithDefaultParser(p negotiate.Parser) Option {
	return func(a *Application) {
		a.defaultParsers = append(a.defaultParsers, p)
	}
}
