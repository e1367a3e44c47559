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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rivaas-dev/restmachine/header"
)

func TestNormalizeHandlerResult_BareValue(t *testing.T) {
	t.Parallel()

	hr := normalizeHandlerResult(map[string]any{"ok": true})
	assert.Equal(t, returnBare, hr.kind)
	assert.Equal(t, map[string]any{"ok": true}, hr.value)
}

func TestNormalizeHandlerResult_Nil(t *testing.T) {
	t.Parallel()

	hr := normalizeHandlerResult(nil)
	assert.Equal(t, returnEmpty, hr.kind)
}

func TestNormalizeHandlerResult_ExplicitResponse(t *testing.T) {
	t.Parallel()

	resp := NewResponseBuilder().SetStatus(418).Build()
	hr := normalizeHandlerResult(resp)
	assert.Equal(t, returnExplicit, hr.kind)
	assert.Same(t, resp, hr.response)
}

func TestNormalizeHandlerResult_HandlerReturnPassesThrough(t *testing.T) {
	t.Parallel()

	original := WithStatus("value", 201)
	hr := normalizeHandlerResult(original)
	assert.Equal(t, original, hr)
}

func TestHandlerReturn_Constructors(t *testing.T) {
	t.Parallel()

	bare := Bare("v")
	assert.Equal(t, returnBare, bare.kind)

	withStatus := WithStatus("v", 201)
	assert.Equal(t, returnWithStatus, withStatus.kind)
	assert.Equal(t, 201, withStatus.status)

	h := header.New()
	h.Set("X-Custom", "1")
	withHeaders := WithStatusAndHeaders("v", 202, h)
	assert.Equal(t, returnWithStatusAndHeaders, withHeaders.kind)
	assert.Same(t, h, withHeaders.headers)

	empty := Empty()
	assert.Equal(t, returnEmpty, empty.kind)

	resp := NewResponseBuilder().Build()
	explicit := Explicit(resp)
	assert.Equal(t, returnExplicit, explicit.kind)
	assert.Same(t, resp, explicit.response)
}

func TestDefaultStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 201, defaultStatus("POST"))
	assert.Equal(t, 200, defaultStatus("GET"))
	assert.Equal(t, 200, defaultStatus("PUT"))
}
