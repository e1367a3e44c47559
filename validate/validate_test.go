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

package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/restmachine/rmerrors"
)

type newUser struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

func decodeNewUser(raw any) (*newUser, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("expected a JSON object")
	}
	u := &newUser{}
	if name, ok := m["name"].(string); ok {
		u.Name = name
	}
	if email, ok := m["email"].(string); ok {
		u.Email = email
	}
	return u, nil
}

func TestStruct_Success(t *testing.T) {
	t.Parallel()

	validator := Struct(decodeNewUser)
	v, err := validator(map[string]any{"name": "Ada", "email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", v.Name)
}

func TestStruct_DecodeFailureIs400(t *testing.T) {
	t.Parallel()

	validator := Struct(decodeNewUser)
	_, err := validator("not a map")

	var f *rmerrors.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 400, f.StatusCode())
}

func TestStruct_ValidationFailureIs422(t *testing.T) {
	t.Parallel()

	validator := Struct(decodeNewUser)
	_, err := validator(map[string]any{"name": "", "email": "not-an-email"})

	var f *rmerrors.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 422, f.StatusCode())
	assert.Equal(t, rmerrors.KindValidationFailed, f.Kind)
	assert.Contains(t, f.Error(), "validation")
}
