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
	"context"
	"encoding/json"

	"github.com/rivaas-dev/restmachine/negotiate"
	"github.com/rivaas-dev/restmachine/rmerrors"
)

// buildError is the single function every non-2xx path of the decision
// machine calls (spec.md §4.8). It selects the most specific registered
// ErrorHandler — (status, media type), then (status), then the
// Application's default — moving on to the next when one returns nil, and
// falls back to a minimal body in the negotiated media type (or
// application/json) if none was registered or every one returned nil.
func (a *Application) buildError(ctx context.Context, f *rmerrors.Failure, req *Request, extraHeaders map[string][]string) *Response {
	status := f.StatusCode()
	mediaType := a.negotiateErrorMediaType(req)

	var resp *Response
	if h := a.errorHandlers[errorKey{status, mediaType}]; h != nil {
		resp = h(ctx, f, req)
	}
	if h := a.errorHandlers[errorKey{status, ""}]; resp == nil && h != nil {
		resp = h(ctx, f, req)
	}
	if resp == nil && a.defaultErrorHandler != nil {
		resp = a.defaultErrorHandler(ctx, f, req)
	}
	if resp == nil {
		resp = a.defaultErrorBody(f, status, mediaType)
	}
	applyExtraHeaders(resp, extraHeaders)
	return resp
}

// negotiateErrorMediaType picks the best renderer among the Application's
// defaults for req's Accept header, falling back to application/json when
// req is nil (a failure before routing) or nothing matches.
func (a *Application) negotiateErrorMediaType(req *Request) string {
	if req == nil || len(a.defaultRenderers) == 0 {
		return "application/json"
	}
	r, ok := negotiate.SelectRenderer(req.Headers().Get("Accept"), a.defaultRenderers)
	if !ok {
		return "application/json"
	}
	return r.MediaType
}

// errorBody is the minimal shape a terminal failure renders to when no
// application-specific ErrorHandler claimed it.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *Application) defaultErrorBody(f *rmerrors.Failure, status int, mediaType string) *Response {
	eb := errorBody{Error: f.Kind.String(), Message: f.Error()}

	for _, r := range a.defaultRenderers {
		if r.MediaType != mediaType {
			continue
		}
		if body, err := r.Render(eb); err == nil {
			return NewResponseBuilder().SetStatus(status).SetHeader("Content-Type", mediaType).SetBody(body).Build()
		}
		break
	}

	body, _ := json.Marshal(eb)
	return NewResponseBuilder().SetStatus(status).SetHeader("Content-Type", "application/json").SetBody(body).Build()
}

func applyExtraHeaders(resp *Response, extra map[string][]string) {
	if resp == nil || len(extra) == 0 {
		return
	}
	for name, values := range extra {
		for _, v := range values {
			resp.Headers.Add(name, v)
		}
	}
}
