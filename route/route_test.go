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

package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/restmachine/container"
	"github.com/rivaas-dev/restmachine/negotiate"
)

func TestRoute_New(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/users/{id}")
	require.NoError(t, err)

	r := New("GET", tmpl)
	assert.Equal(t, "GET", r.Method)
	assert.Same(t, tmpl, r.Template)
	assert.NotNil(t, r.DecisionDeps)
	assert.Empty(t, r.DecisionDeps)
}

func TestRoute_Freeze_NoBindings(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/widgets")
	require.NoError(t, err)
	r := New("GET", tmpl)
	r.Freeze()

	assert.Equal(t, Capabilities{}, r.Capabilities)
}

func TestRoute_Freeze_DecisionBindingsSetFlags(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/widgets/{id}")
	require.NoError(t, err)
	r := New("PUT", tmpl)

	r.BindDecision(container.KindAuthorization, "current_user")
	r.BindDecision(container.KindForbidden, "forbidden_check")
	r.BindDecision(container.KindServiceAvailability, "service_health")
	r.BindDecision(container.KindMalformed, "parsed_body")
	r.BindDecision(container.KindETagProvider, "widget_etag")
	r.Freeze()

	assert.True(t, r.Capabilities.NeedsAuthorization)
	assert.True(t, r.Capabilities.NeedsForbiddenCheck)
	assert.True(t, r.Capabilities.NeedsServiceAvailableCheck)
	assert.True(t, r.Capabilities.NeedsMalformedCheck)
	assert.True(t, r.Capabilities.NeedsConditional, "an ETag provider alone triggers the conditional node")
}

func TestRoute_Freeze_LastModifiedAloneTriggersConditional(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/widgets/{id}")
	require.NoError(t, err)
	r := New("GET", tmpl)
	r.BindDecision(container.KindLastModifiedHook, "widget_modified_at")
	r.Freeze()

	assert.True(t, r.Capabilities.NeedsConditional)
	assert.False(t, r.Capabilities.NeedsAuthorization)
}

func TestRoute_Freeze_ValidatorsAndRenderers(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/widgets")
	require.NoError(t, err)
	r := New("POST", tmpl)

	r.AddValidator("widget_payload")
	r.AddValidator("widget_quota")
	r.AddRenderer(negotiate.Renderer{MediaType: "application/json"})
	r.AddRenderer(negotiate.Renderer{MediaType: "application/yaml"})
	r.AddParser(negotiate.Parser{MediaType: "application/json"})
	r.Freeze()

	assert.Equal(t, []string{"widget_payload", "widget_quota"}, r.Validators)
	assert.True(t, r.Capabilities.HasValidators)
	assert.Equal(t, []string{"application/json", "application/yaml"}, r.Capabilities.ContentTypesProvided)
	assert.Equal(t, []string{"application/json"}, r.Capabilities.ContentTypesAccepted)
}

func TestRoute_BindDecision_LastOneWins(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/widgets/{id}")
	require.NoError(t, err)
	r := New("GET", tmpl)

	r.BindDecision(container.KindAuthorization, "first")
	r.BindDecision(container.KindAuthorization, "second")

	assert.Equal(t, "second", r.DecisionDeps[container.KindAuthorization])
}
