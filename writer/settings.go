/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package writer has the concrete payload writers: ParameterWriter,
// CollectionWriter, and ResourceWriter.
//
// Every writer is a core.Machine over one of the Grammars in this
// package plus a format encoder that does the actual output.  Each
// public operation comes in a blocking form and a Context form.  A
// writer made with core.Synchronous only accepts the former, and a
// writer made with core.Asynchronous only the latter.
//
// Any failure inside an operation latches the writer into its error
// state, and the failure is returned unchanged.  After that, and
// after the writer completes, every operation returns a
// *core.SequenceError.
//
// A writer must be driven by one caller at a time.
package writer

import (
	_ "embed"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/validate"
)

var (
	// DefaultMaxNestingDepth is used when Settings.MaxNestingDepth
	// is zero.
	DefaultMaxNestingDepth = 100

	//go:embed grammars/parameter.yaml
	parameterGrammarSrc []byte

	//go:embed grammars/collection.yaml
	collectionGrammarSrc []byte

	//go:embed grammars/resource.yaml
	resourceGrammarSrc []byte

	// ParameterGrammar is the state machine of a ParameterWriter.
	ParameterGrammar = core.MustParseGrammar(parameterGrammarSrc)

	// CollectionGrammar is the state machine of a
	// CollectionWriter.
	CollectionGrammar = core.MustParseGrammar(collectionGrammarSrc)

	// ResourceGrammar is the state machine of a ResourceWriter.
	ResourceGrammar = core.MustParseGrammar(resourceGrammarSrc)
)

// Grammars returns the grammars of all writers, keyed by name.
func Grammars() map[string]*core.Grammar {
	return map[string]*core.Grammar{
		ParameterGrammar.Name:  ParameterGrammar,
		CollectionGrammar.Name: CollectionGrammar,
		ResourceGrammar.Name:   ResourceGrammar,
	}
}

// Settings are fixed when a writer is made.  Nested writers inherit
// their parent's Settings.
type Settings struct {
	// Mode decides which entry points the writer accepts.
	Mode core.Mode

	// Response is true when writing a response payload and false
	// for a request.
	Response bool

	// MaxNestingDepth limits nesting.  Zero means
	// DefaultMaxNestingDepth.
	MaxNestingDepth int

	// BaseURI, if given, must be absolute.
	BaseURI string

	// Model resolves declared types.  Without a Model, only
	// structural rules are checked.
	Model model.Resolver

	// Debug turns on logging.
	Debug bool
}

// Check reports contradictory Settings as a *core.ConfigError.
func (s Settings) Check() error {
	if s.MaxNestingDepth < 0 {
		return &core.ConfigError{Msg: "maximum nesting depth must not be negative"}
	}
	return validate.BaseURI(s.BaseURI)
}

func (s Settings) maxDepth() int {
	if s.MaxNestingDepth == 0 {
		return DefaultMaxNestingDepth
	}
	return s.MaxNestingDepth
}

func (s Settings) request() bool {
	return !s.Response
}

func (s Settings) structuredType(name string) *model.StructuredType {
	if s.Model == nil || name == "" {
		return nil
	}
	t, _ := s.Model.StructuredType(name)
	return t
}
