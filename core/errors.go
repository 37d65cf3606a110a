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

package core

// These errors are caller errors, not internal errors.
//
// Each kind has its own type so callers can use errors.As.  The
// messages name the offending state, name, type, or limit.

import (
	"errors"
	"strconv"
)

// ErrDisposed is returned by any operation on a writer that has been
// disposed.  It is reported before the writer's state is consulted,
// so it never latches.
var ErrDisposed = errors.New("writer has been disposed")

// GrammarNotCompiled occurs when a Grammar is used before it has
// been Compile()ed.
type GrammarNotCompiled struct {
	Grammar *Grammar
}

func (e *GrammarNotCompiled) Error() string {
	return `grammar "` + e.Grammar.Name + `" not compiled`
}

// UnknownState occurs when a transition names a state that the
// Grammar doesn't declare.
type UnknownState struct {
	Grammar *Grammar
	State   State
}

func (e *UnknownState) Error() string {
	return `state "` + string(e.State) + `" not found in grammar "` + e.Grammar.Name + `"`
}

// BadGrammar occurs when Compile finds a structural problem.
type BadGrammar struct {
	Grammar *Grammar
	Problem string
}

func (e *BadGrammar) Error() string {
	return `grammar "` + e.Grammar.Name + `": ` + e.Problem
}

// SequenceError is a protocol-sequence violation: an operation was
// invoked in a state that forbids it.
//
// When Op is empty, the error reports an illegal transition From ->
// To.  Otherwise it reports that Op isn't allowed in state From.
type SequenceError struct {
	Grammar string
	From    State
	To      State
	Op      string
}

func (e *SequenceError) Error() string {
	if e.Op != "" {
		return e.Grammar + ` writer: cannot ` + e.Op + ` in state "` + string(e.From) + `"`
	}
	return e.Grammar + ` writer: illegal transition from "` + string(e.From) + `" to "` + string(e.To) + `"`
}

// SchemaError is a schema-validation violation: a value or a
// structural choice disagrees with the declared model.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return e.Msg
}

// ShapeError is a resource-shape violation: a cardinality or content
// mismatch, or a construct used in the wrong context (request versus
// response).
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return e.Msg
}

// DepthExceeded is the ShapeError for too much nesting.
func DepthExceeded(limit int) *ShapeError {
	return &ShapeError{
		Msg: "maximum nesting depth of " + strconv.Itoa(limit) + " exceeded",
	}
}

// ConfigError is a configuration violation: the wrong execution mode
// or contradictory settings.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// Classify reports the kind of a writer error: "sequence", "schema",
// "shape", "config", "disposed", or "other".  A nil error gives "".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var (
		seq    *SequenceError
		schema *SchemaError
		shape  *ShapeError
		config *ConfigError
	)
	switch {
	case errors.As(err, &seq):
		return "sequence"
	case errors.As(err, &schema):
		return "schema"
	case errors.As(err, &shape):
		return "shape"
	case errors.As(err, &config):
		return "config"
	case errors.Is(err, ErrDisposed):
		return "disposed"
	}
	return "other"
}
