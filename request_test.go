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
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/restmachine/header"
)

func TestNewRequest_ParsesQueryString(t *testing.T) {
	t.Parallel()

	req := NewRequest("GET", "/widgets?limit=10&expand=profile", nil, nil)
	assert.Equal(t, []string{"10"}, req.QueryParams()["limit"])
	assert.Equal(t, []string{"profile"}, req.QueryParams()["expand"])
	assert.NotEmpty(t, req.RequestID(), "NewRequest generates an id when none is supplied")
}

func TestNewRequest_WithQueryParamsOverride(t *testing.T) {
	t.Parallel()

	req := NewRequest("GET", "/widgets?limit=10", nil, nil, WithQueryParams(map[string][]string{"override": {"yes"}}))
	assert.Equal(t, map[string][]string{"override": {"yes"}}, req.QueryParams())
}

func TestNewRequest_WithRequestID(t *testing.T) {
	t.Parallel()

	req := NewRequest("GET", "/widgets", nil, nil, WithRequestID("fixed-id"))
	assert.Equal(t, "fixed-id", req.RequestID())
}

func TestNewRequest_WithTLS(t *testing.T) {
	t.Parallel()

	cert := &ClientCert{Subject: "CN=client"}
	req := NewRequest("GET", "/widgets", nil, nil, WithTLS(cert))
	assert.True(t, req.TLS())
	assert.Same(t, cert, req.ClientCert())
}

func TestNewRequest_NilHeadersBecomesEmptyMap(t *testing.T) {
	t.Parallel()

	req := NewRequest("GET", "/widgets", nil, nil)
	require.NotNil(t, req.Headers())
	assert.False(t, req.Headers().Has("Accept"))
}

func TestRequest_PathParamsDefaultEmpty(t *testing.T) {
	t.Parallel()

	req := NewRequest("GET", "/widgets", nil, nil)
	assert.Equal(t, map[string]string{}, req.PathParams())
	_, ok := req.PathParam("id")
	assert.False(t, ok)
}

func TestRequest_WithPathParamsDoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	req := NewRequest("GET", "/widgets/1", nil, nil)
	withParams := req.withPathParams(map[string]string{"id": "1"})

	assert.Equal(t, map[string]string{}, req.PathParams())
	id, ok := withParams.PathParam("id")
	require.True(t, ok)
	assert.Equal(t, "1", id)
}

func TestRequest_HeadersAndBody(t *testing.T) {
	t.Parallel()

	h := header.New()
	h.Set("Content-Type", "application/json")
	req := NewRequest("POST", "/widgets", h, []byte(`{}`))

	assert.Equal(t, "application/json", req.Headers().Get("Content-Type"))
	assert.Equal(t, []byte(`{}`), req.Body())
}
