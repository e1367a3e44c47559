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
)

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{"missing leading slash", "users/{id}"},
		{"empty segment", "/users//{id}"},
		{"empty parameter name", "/users/{}"},
		{"duplicate parameter", "/users/{id}/posts/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Compile(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestTemplate_MatchLiteralAndParams(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/users/{id}/posts/{postID}")
	require.NoError(t, err)

	params, ok := tmpl.Match("/users/42/posts/7")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "42", "postID": "7"}, params)

	_, ok = tmpl.Match("/users/42")
	assert.False(t, ok)

	_, ok = tmpl.Match("/users//posts/7")
	assert.False(t, ok, "an empty path parameter segment never matches")
}

func TestTemplate_MatchStripsQueryString(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/users/{id}")
	require.NoError(t, err)

	params, ok := tmpl.Match("/users/42?expand=profile&limit=10")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "42"}, params)
}

func TestTemplate_MatchTrailingSlashSignificant(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/users/")
	require.NoError(t, err)

	_, ok := tmpl.Match("/users/")
	assert.True(t, ok)

	_, ok = tmpl.Match("/users")
	assert.False(t, ok)
}

func TestTemplate_Expand(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/users/{id}/posts/{postID}")
	require.NoError(t, err)

	path, err := tmpl.Expand(map[string]string{"id": "42", "postID": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/users/42/posts/7", path)

	_, err = tmpl.Expand(map[string]string{"id": "42"})
	assert.Error(t, err, "missing a required parameter value is an error")
}

func TestTemplate_ExpandRootTemplate(t *testing.T) {
	t.Parallel()

	tmpl, err := Compile("/")
	require.NoError(t, err)

	path, err := tmpl.Expand(nil)
	require.NoError(t, err)
	assert.Equal(t, "/", path)
}

func TestTemplate_Key_IgnoresParamNames(t *testing.T) {
	t.Parallel()

	a, err := Compile("/users/{id}")
	require.NoError(t, err)
	b, err := Compile("/users/{userID}")
	require.NoError(t, err)

	assert.Equal(t, a.Key(), b.Key(), "templates differing only in parameter name collide on registration")
}
