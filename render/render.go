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

// Package render provides ready-made negotiate.Renderer/negotiate.Parser
// pairs for the media types the rivaas.dev pack already depends on
// (SPEC_FULL.md §4 "DOMAIN STACK"). Applications are never required to use
// these — any func(value any) ([]byte, error) / func([]byte) (any, error)
// pair is a valid renderer/parser — but most APIs want at least JSON, and
// several of this pack's services additionally speak YAML, MessagePack, or
// TOML.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"

	"github.com/rivaas-dev/restmachine/negotiate"
)

// JSON is the default renderer/parser pair, grounded on the json.Marshal /
// json.Unmarshal round trip used throughout router/context.go's JSON
// helpers. Every Application registers it as its first default renderer
// and parser (spec.md §3.1 "default renderer set (at minimum: application/json)").
var JSON = struct {
	Renderer negotiate.Renderer
	Parser   negotiate.Parser
}{
	Renderer: negotiate.Renderer{
		MediaType: "application/json",
		Render: func(value any) ([]byte, error) {
			return json.Marshal(value)
		},
	},
	Parser: negotiate.Parser{
		MediaType: "application/json",
		Parse: func(body []byte) (any, error) {
			var v any
			if len(body) == 0 {
				return nil, nil
			}
			if err := json.Unmarshal(body, &v); err != nil {
				return nil, fmt.Errorf("render: invalid JSON body: %w", err)
			}
			return v, nil
		},
	},
}

// YAML mirrors binding/yaml's gopkg.in/yaml.v3 usage.
var YAML = struct {
	Renderer negotiate.Renderer
	Parser   negotiate.Parser
}{
	Renderer: negotiate.Renderer{
		MediaType: "application/yaml",
		Render: func(value any) ([]byte, error) {
			return yaml.Marshal(value)
		},
	},
	Parser: negotiate.Parser{
		MediaType: "application/yaml",
		Parse: func(body []byte) (any, error) {
			var v any
			if err := yaml.Unmarshal(body, &v); err != nil {
				return nil, fmt.Errorf("render: invalid YAML body: %w", err)
			}
			return v, nil
		},
	},
}

// MsgPack mirrors binding/msgpack's github.com/vmihailenco/msgpack/v5 usage.
var MsgPack = struct {
	Renderer negotiate.Renderer
	Parser   negotiate.Parser
}{
	Renderer: negotiate.Renderer{
		MediaType: "application/msgpack",
		Render: func(value any) ([]byte, error) {
			return msgpack.Marshal(value)
		},
	},
	Parser: negotiate.Parser{
		MediaType: "application/msgpack",
		Parse: func(body []byte) (any, error) {
			var v any
			if err := msgpack.Unmarshal(body, &v); err != nil {
				return nil, fmt.Errorf("render: invalid MessagePack body: %w", err)
			}
			return v, nil
		},
	},
}

// TOML mirrors the config module's github.com/BurntSushi/toml dependency.
// TOML has no generic "decode into any" shape the way JSON/YAML do, so the
// parser requires the handler to declare a concrete target via
// DecodeTOMLInto — most TOML use in this pack is for startup configuration,
// not per-request bodies, so the render package only offers Marshal/renderer
// duties by default and leaves struct-targeted parsing to DecodeTOMLInto.
var TOML = struct {
	Renderer negotiate.Renderer
}{
	Renderer: negotiate.Renderer{
		MediaType: "application/toml",
		Render: func(value any) ([]byte, error) {
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(value); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	},
}

// DecodeTOMLInto decodes body into dst, for handlers that need a typed TOML
// request body rather than the generic negotiate.Parser shape.
func DecodeTOMLInto(body []byte, dst any) error {
	_, err := toml.Decode(string(body), dst)
	return err
}

// Protobuf renders any value implementing proto.Message. Render returns an
// error for values that don't — callers should only register this renderer
// on routes whose handler returns a proto.Message. Its Parser field is the
// zero negotiate.Parser (no Parse func); protobuf request bodies are decoded
// with DecodeProtobufInto.
var Protobuf = struct {
	Renderer negotiate.Renderer
	Parser   negotiate.Parser
}{
	Renderer: negotiate.Renderer{
		MediaType: "application/x-protobuf",
		Render: func(value any) ([]byte, error) {
			msg, ok := value.(proto.Message)
			if !ok {
				return nil, fmt.Errorf("render: value of type %T does not implement proto.Message", value)
			}
			return proto.Marshal(msg)
		},
	},
}

// DecodeProtobufInto parses body into dst, a proto.Message. Protobuf parsing
// needs a concrete destination type (there is no schema-free protobuf
// decode), so unlike JSON/YAML/MsgPack this isn't exposed as a
// negotiate.Parser — a route's Content-Type-accepted handler calls this
// directly after receiving the raw "body" synthetic.
func DecodeProtobufInto(body []byte, dst proto.Message) error {
	return proto.Unmarshal(body, dst)
}
