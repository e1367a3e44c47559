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

package negotiate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccept_OrdersByQuality(t *testing.T) {
	t.Parallel()

	specs := ParseAccept("text/html, application/json;q=0.8, application/xml;q=0.9")

	require.Len(t, specs, 3)
	assert.Equal(t, "text/html", specs[0].MediaType())
	assert.Equal(t, "application/xml", specs[1].MediaType())
	assert.Equal(t, "application/json", specs[2].MediaType())
}

func TestParseAccept_ClampsQValue(t *testing.T) {
	t.Parallel()

	specs := ParseAccept("application/json;q=5")
	require.Len(t, specs, 1)
	assert.Equal(t, 1.0, specs[0].Q)

	specs = ParseAccept("application/json;q=-1")
	require.Len(t, specs, 1)
	assert.Equal(t, 0.0, specs[0].Q)
}

func TestParseAccept_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ParseAccept(""))
}

func TestParseContentType(t *testing.T) {
	t.Parallel()

	mt, params := ParseContentType("application/json; charset=utf-8")
	assert.Equal(t, "application/json", mt)
	assert.Equal(t, "utf-8", params["charset"])
}

func TestSelectRenderer(t *testing.T) {
	t.Parallel()

	jsonR := Renderer{MediaType: "application/json"}
	xmlR := Renderer{MediaType: "application/xml"}
	anyR := Renderer{MediaType: "text/plain"}

	tests := []struct {
		name       string
		accept     string
		candidates []Renderer
		wantType   string
		wantOK     bool
	}{
		{
			name:       "exact match preferred over wildcard",
			accept:     "application/xml, */*;q=0.1",
			candidates: []Renderer{jsonR, xmlR},
			wantType:   "application/xml",
			wantOK:     true,
		},
		{
			name:       "quality value picks higher-quality candidate",
			accept:     "application/json;q=0.5, application/xml;q=0.9",
			candidates: []Renderer{jsonR, xmlR},
			wantType:   "application/xml",
			wantOK:     true,
		},
		{
			name:       "q=0 rejects a candidate explicitly",
			accept:     "application/json;q=0, */*",
			candidates: []Renderer{jsonR, anyR},
			wantType:   "text/plain",
			wantOK:     true,
		},
		{
			name:       "empty accept header picks first candidate",
			accept:     "",
			candidates: []Renderer{jsonR, xmlR},
			wantType:   "application/json",
			wantOK:     true,
		},
		{
			name:       "no candidates",
			accept:     "application/json",
			candidates: nil,
			wantOK:     false,
		},
		{
			name:       "nothing matches",
			accept:     "application/pdf",
			candidates: []Renderer{jsonR, xmlR},
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := SelectRenderer(tt.accept, tt.candidates)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantType, got.MediaType)
			}
		})
	}
}

func TestSelectRenderer_RouteLocalWinsTieOverDefault(t *testing.T) {
	t.Parallel()

	// Same media type registered twice — the caller is expected to order
	// route-local candidates before Application defaults, so a full tie on
	// specificity and quality favors whichever candidate comes first.
	routeLocal := Renderer{MediaType: "application/json", Render: func(any) ([]byte, error) { return []byte("route"), nil }}
	defaultR := Renderer{MediaType: "application/json", Render: func(any) ([]byte, error) { return []byte("default"), nil }}

	got, ok := SelectRenderer("application/json", []Renderer{routeLocal, defaultR})
	require.True(t, ok)
	body, err := got.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "route", string(body))
}

func TestSelectParser(t *testing.T) {
	t.Parallel()

	jsonP := Parser{MediaType: "application/json"}
	yamlP := Parser{MediaType: "application/yaml"}

	got, ok := SelectParser("application/yaml; charset=utf-8", []Parser{jsonP, yamlP})
	require.True(t, ok)
	assert.Equal(t, "application/yaml", got.MediaType)

	_, ok = SelectParser("application/xml", []Parser{jsonP, yamlP})
	assert.False(t, ok)

	_, ok = SelectParser("", []Parser{jsonP})
	assert.False(t, ok)
}

func TestParser_ParseRoundTrip(t *testing.T) {
	t.Parallel()

	p := Parser{
		MediaType: "application/json",
		Parse: func(body []byte) (any, error) {
			if len(body) == 0 {
				return nil, errors.New("empty body")
			}
			return string(body), nil
		},
	}

	v, err := p.Parse([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	_, err = p.Parse(nil)
	assert.Error(t, err)
}
