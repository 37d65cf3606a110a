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

package writer

import (
	"context"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/validate"
)

const (
	stateStart             core.State = "start"
	stateCanWriteParameter core.State = "canWriteParameter"
	stateActiveSubWriter   core.State = "activeSubWriter"
)

// ParameterWriter writes the parameters of an operation invocation.
//
// A parameter is a named value, or a nested collection, resource, or
// resource set written with a nested writer.  While a nested writer
// is open, the ParameterWriter accepts nothing else.  The nested
// writer's completion returns control to the ParameterWriter, and
// its failure fails the ParameterWriter too.
type ParameterWriter struct {
	*base[struct{}]

	enc   ParameterEncoder
	op    *model.Operation
	names *validate.NameSet

	// child is the open nested writer, if any.
	child interface{}
}

// NewParameterWriter makes a ParameterWriter for op.  A nil op
// disables every check against declared parameters.
//
// Parameter payloads only exist in requests.
func NewParameterWriter(enc ParameterEncoder, op *model.Operation, s Settings) (*ParameterWriter, error) {
	if s.Response {
		return nil, &core.ConfigError{Msg: "parameter payloads can only be written in requests"}
	}
	b, err := newBase[struct{}](ParameterGrammar, s, "", nil)
	if err != nil {
		return nil, err
	}
	return &ParameterWriter{
		base:  b,
		enc:   enc,
		op:    op,
		names: validate.NewNameSet("parameter"),
	}, nil
}

// Written returns the names of the parameters written so far.
func (w *ParameterWriter) Written() []string {
	return w.names.Names()
}

// WriteStart opens the payload.
func (w *ParameterWriter) WriteStart() error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeStart(w.enc)
	})
}

// WriteStartContext is WriteStart for asynchronous writers.
func (w *ParameterWriter) WriteStartContext(ctx context.Context) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeStart(asyncParameter{ctx, w.enc})
	})
}

func (w *ParameterWriter) writeStart(h ParameterHooks) error {
	if err := w.require("WriteStart", stateStart); err != nil {
		return err
	}
	if err := w.m.Enter(stateCanWriteParameter, struct{}{}); err != nil {
		return err
	}
	w.logf("start %s", w.opName())
	return h.StartPayload()
}

func (w *ParameterWriter) opName() string {
	if w.op == nil {
		return "(no operation)"
	}
	return w.op.Name
}

// WriteValue writes a parameter with a primitive, enum, or null
// value.
func (w *ParameterWriter) WriteValue(name string, v interface{}) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeValue(w.enc, name, v)
	})
}

// WriteValueContext is WriteValue for asynchronous writers.
func (w *ParameterWriter) WriteValueContext(ctx context.Context, name string, v interface{}) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeValue(asyncParameter{ctx, w.enc}, name, v)
	})
}

func (w *ParameterWriter) writeValue(h ParameterHooks, name string, v interface{}) error {
	t, err := w.declare("WriteValue", name, validate.ValuePath)
	if err != nil {
		return err
	}
	if err := validate.ScalarValue("parameter", name, v); err != nil {
		return err
	}
	if err := validate.Value(w.settings.Model, "parameter", name, t, v); err != nil {
		return err
	}
	if err := w.m.Replace(stateCanWriteParameter, struct{}{}); err != nil {
		return err
	}
	return h.WriteValue(name, v, t)
}

// declare applies the rules every named parameter goes through, in
// order: state, name, duplicates, declaration, and kind.  It returns
// the declared type, which is nil when there's no operation.
func (w *ParameterWriter) declare(op, name string, p validate.Path) (*model.TypeRef, error) {
	if err := w.require(op, stateCanWriteParameter); err != nil {
		return nil, err
	}
	if err := validate.ParameterName(name); err != nil {
		return nil, err
	}
	if err := w.names.Add(name); err != nil {
		return nil, err
	}
	t, err := validate.Parameter(w.op, name)
	if err != nil {
		return nil, err
	}
	if err := validate.ParameterKind(w.op, name, t, p); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateCollectionWriter starts a collection-valued parameter.  The
// ParameterWriter is blocked until the returned writer completes.
func (w *ParameterWriter) CreateCollectionWriter(name string) (*CollectionWriter, error) {
	if err := w.check(false); err != nil {
		return nil, err
	}
	return intercept(w.base, func() (*CollectionWriter, error) {
		return w.createCollectionWriter(w.enc, name)
	})
}

// CreateCollectionWriterContext is CreateCollectionWriter for
// asynchronous writers.
func (w *ParameterWriter) CreateCollectionWriterContext(ctx context.Context, name string) (*CollectionWriter, error) {
	if err := w.check(true); err != nil {
		return nil, err
	}
	return interceptContext(ctx, w.base, func(ctx context.Context) (*CollectionWriter, error) {
		return w.createCollectionWriter(asyncParameter{ctx, w.enc}, name)
	})
}

func (w *ParameterWriter) createCollectionWriter(h ParameterHooks, name string) (*CollectionWriter, error) {
	t, err := w.declare("CreateCollectionWriter", name, validate.CollectionPath)
	if err != nil {
		return nil, err
	}
	var item *model.TypeRef
	if t != nil {
		item = t.Elem
	}
	if err := w.m.Replace(stateActiveSubWriter, struct{}{}); err != nil {
		return nil, err
	}
	enc, err := h.NewCollectionEncoder(name, item)
	if err != nil {
		return nil, err
	}
	cw, err := newCollectionWriter(enc, item, w.settings, name, w.childEvent)
	if err != nil {
		return nil, err
	}
	w.child = cw
	return cw, nil
}

// CreateResourceWriter starts a parameter whose value is a single
// resource.
func (w *ParameterWriter) CreateResourceWriter(name string) (*ResourceWriter, error) {
	if err := w.check(false); err != nil {
		return nil, err
	}
	return intercept(w.base, func() (*ResourceWriter, error) {
		return w.createResourceWriter(w.enc, name, false)
	})
}

// CreateResourceWriterContext is CreateResourceWriter for
// asynchronous writers.
func (w *ParameterWriter) CreateResourceWriterContext(ctx context.Context, name string) (*ResourceWriter, error) {
	if err := w.check(true); err != nil {
		return nil, err
	}
	return interceptContext(ctx, w.base, func(ctx context.Context) (*ResourceWriter, error) {
		return w.createResourceWriter(asyncParameter{ctx, w.enc}, name, false)
	})
}

// CreateResourceSetWriter starts a parameter whose value is a
// resource set.
func (w *ParameterWriter) CreateResourceSetWriter(name string) (*ResourceWriter, error) {
	if err := w.check(false); err != nil {
		return nil, err
	}
	return intercept(w.base, func() (*ResourceWriter, error) {
		return w.createResourceWriter(w.enc, name, true)
	})
}

// CreateResourceSetWriterContext is CreateResourceSetWriter for
// asynchronous writers.
func (w *ParameterWriter) CreateResourceSetWriterContext(ctx context.Context, name string) (*ResourceWriter, error) {
	if err := w.check(true); err != nil {
		return nil, err
	}
	return interceptContext(ctx, w.base, func(ctx context.Context) (*ResourceWriter, error) {
		return w.createResourceWriter(asyncParameter{ctx, w.enc}, name, true)
	})
}

func (w *ParameterWriter) createResourceWriter(h ParameterHooks, name string, set bool) (*ResourceWriter, error) {
	op, p := "CreateResourceWriter", validate.ResourcePath
	if set {
		op, p = "CreateResourceSetWriter", validate.ResourceSetPath
	}
	t, err := w.declare(op, name, p)
	if err != nil {
		return nil, err
	}
	var expected *model.StructuredType
	if t != nil {
		elem := t
		if set {
			elem = t.Elem
		}
		expected = w.settings.structuredType(elem.Name)
	}
	if err := w.m.Replace(stateActiveSubWriter, struct{}{}); err != nil {
		return nil, err
	}
	var enc ResourceEncoder
	if set {
		enc, err = h.NewResourceSetEncoder(name, t)
	} else {
		enc, err = h.NewResourceEncoder(name, t)
	}
	if err != nil {
		return nil, err
	}
	rw, err := newResourceWriter(enc, expected, set, w.settings, name, w.childEvent)
	if err != nil {
		return nil, err
	}
	w.child = rw
	return rw, nil
}

// childEvent receives the nested writer's completion or failure.
func (w *ParameterWriter) childEvent(ev core.Event) error {
	return w.run(func() error {
		w.child = nil
		if ev.Kind == core.EventFailed {
			w.logf("nested writer for '%s' failed", ev.Source)
			return ev.Err
		}
		return w.m.Replace(stateCanWriteParameter, struct{}{})
	})
}

// WriteEnd closes the payload.  Every declared parameter that isn't
// nullable must have been written, except a bound operation's binding
// parameter.  The output is flushed after completion, and a flush
// failure moves the writer to error.
func (w *ParameterWriter) WriteEnd() error {
	if err := w.check(false); err != nil {
		return err
	}
	if err := w.run(func() error {
		return w.writeEnd(w.enc)
	}); err != nil {
		return err
	}
	return w.flushCompleted(w.enc.Flush)
}

// WriteEndContext is WriteEnd for asynchronous writers.
func (w *ParameterWriter) WriteEndContext(ctx context.Context) error {
	if err := w.check(true); err != nil {
		return err
	}
	if err := w.runContext(ctx, func(ctx context.Context) error {
		return w.writeEnd(asyncParameter{ctx, w.enc})
	}); err != nil {
		return err
	}
	return w.flushCompletedContext(ctx, w.enc.FlushContext)
}

func (w *ParameterWriter) writeEnd(h ParameterHooks) error {
	if err := w.require("WriteEnd", stateCanWriteParameter); err != nil {
		return err
	}
	if err := validate.MissingParameters(w.op, w.names); err != nil {
		return err
	}
	if err := h.EndPayload(); err != nil {
		return err
	}
	if err := w.m.Leave(); err != nil {
		return err
	}
	return w.completed()
}

// Flush pushes buffered output to the transport.
func (w *ParameterWriter) Flush() error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.flush(w.enc)
	})
}

// FlushContext is Flush for asynchronous writers.
func (w *ParameterWriter) FlushContext(ctx context.Context) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.flush(asyncParameter{ctx, w.enc})
	})
}

func (w *ParameterWriter) flush(h ParameterHooks) error {
	if err := w.live("Flush"); err != nil {
		return err
	}
	return h.Flush()
}

// OnInStreamError always fails: parameter payloads can't carry error
// content.
func (w *ParameterWriter) OnInStreamError(e *payload.InStreamError) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(w.onInStreamError)
}

// OnInStreamErrorContext is OnInStreamError for asynchronous
// writers.
func (w *ParameterWriter) OnInStreamErrorContext(ctx context.Context, e *payload.InStreamError) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(context.Context) error {
		return w.onInStreamError()
	})
}

func (w *ParameterWriter) onInStreamError() error {
	if err := w.live("OnInStreamError"); err != nil {
		return err
	}
	return &core.ShapeError{Msg: "in-stream errors are not supported in parameter payloads"}
}
