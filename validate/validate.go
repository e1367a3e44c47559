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

// Package validate adapts github.com/go-playground/validator/v10 (an
// indirect dependency of the teacher router module and a direct dependency
// of the 2lar-b2 and jordigilh-kubernaut repos in this pack) to the
// validator contract of spec.md §6: "receives whatever DI parameters it
// declares... and returns a validated value, or raises/returns a structured
// validation failure with a numeric status (default 422)".
//
// The core never implements JSON-Schema-or-equivalent validation itself
// (spec.md §1 Non-goals); this package is an optional convenience built on
// top of the same DI-registrable-callable interface any user validator
// uses.
package validate

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/rivaas-dev/restmachine/rmerrors"
)

var std = validator.New(validator.WithRequiredStructEnabled())

// Struct returns a validator callable suitable for
// container.Dependency.Fn: it decodes decode(raw) into a new *T, runs
// struct-tag validation, and returns the validated *T. A decode error
// becomes a rmerrors.Failure carrying status 400; a validation error
// becomes one carrying status 422.
//
// Typical registration, where decodeUser is a func(any) (*User, error)
// that converts the generic "json_body" value into a *User:
//
//	app.POST("/users").
//	    Validator("new_user", []string{"json_body"}, validate.Struct(decodeUser)).
//	    Handle([]string{"new_user"}, createUser)
func Struct[T any](decode func(raw any) (*T, error)) func(raw any) (*T, error) {
	return func(raw any) (*T, error) {
		value, err := decode(raw)
		if err != nil {
			return nil, rmerrors.WithStatus(rmerrors.KindValidationFailed, "", 400, err)
		}
		if err := std.Struct(value); err != nil {
			verrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return nil, rmerrors.WithStatus(rmerrors.KindValidationFailed, "", 422, err)
			}
			return nil, rmerrors.WithStatus(rmerrors.KindValidationFailed, "", 422, describeFieldErrors(verrs))
		}
		return value, nil
	}
}

func describeFieldErrors(errs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag()))
	}
	combined := msgs[0]
	for _, m := range msgs[1:] {
		combined += "; " + m
	}
	return fmt.Errorf("%s", combined)
}
