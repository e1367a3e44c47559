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

package container

import (
	"encoding/json"

	"github.com/rivaas-dev/restmachine/rmerrors"
)

// decodeJSONBody produces the generic "json_body" synthetic. It decodes into
// map[string]any (or []any for a top-level array) since the container has no
// static target type to decode into — a handler or validator that needs a
// concrete struct registers its own dependency (commonly a validator named
// after the resource) that redeclares "json_body" as a parameter and decodes
// again into the concrete type, exactly as spec.md §6 describes the
// validator contract.
func decodeJSONBody(body []byte) (any, *rmerrors.Failure) {
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, rmerrors.New(rmerrors.KindBadRequest, "json_body", err)
	}
	return v, nil
}
