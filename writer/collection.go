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

const stateCollection core.State = "collection"

// CollectionWriter writes a collection of primitive or enum items.
type CollectionWriter struct {
	*base[struct{}]

	enc  CollectionEncoder
	item *model.TypeRef
}

// NewCollectionWriter makes a top-level CollectionWriter.  A nil item
// type accepts any scalar item.
func NewCollectionWriter(enc CollectionEncoder, item *model.TypeRef, s Settings) (*CollectionWriter, error) {
	return newCollectionWriter(enc, item, s, "", nil)
}

func newCollectionWriter(enc CollectionEncoder, item *model.TypeRef, s Settings, source string, notify core.Notify) (*CollectionWriter, error) {
	if item != nil && !item.IsScalar() {
		return nil, &core.SchemaError{
			Msg: "collection item type " + item.FullName() + " of kind " + item.KindName() + " is not supported",
		}
	}
	b, err := newBase[struct{}](CollectionGrammar, s, source, notify)
	if err != nil {
		return nil, err
	}
	return &CollectionWriter{
		base: b,
		enc:  enc,
		item: item,
	}, nil
}

// WriteStart opens the collection.  The start may be nil.
func (w *CollectionWriter) WriteStart(start *payload.CollectionStart) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeStart(w.enc, start)
	})
}

// WriteStartContext is WriteStart for asynchronous writers.
func (w *CollectionWriter) WriteStartContext(ctx context.Context, start *payload.CollectionStart) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeStart(asyncCollection{ctx, w.enc}, start)
	})
}

func (w *CollectionWriter) writeStart(h CollectionHooks, start *payload.CollectionStart) error {
	if err := w.require("WriteStart", stateStart); err != nil {
		return err
	}
	if start == nil {
		start = &payload.CollectionStart{Name: w.source}
	}
	if err := w.m.Enter(stateCollection, struct{}{}); err != nil {
		return err
	}
	return h.StartCollection(start, w.item)
}

// WriteItem writes one item.
func (w *CollectionWriter) WriteItem(v interface{}) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeItem(w.enc, v)
	})
}

// WriteItemContext is WriteItem for asynchronous writers.
func (w *CollectionWriter) WriteItemContext(ctx context.Context, v interface{}) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeItem(asyncCollection{ctx, w.enc}, v)
	})
}

func (w *CollectionWriter) writeItem(h CollectionHooks, v interface{}) error {
	if err := w.require("WriteItem", stateCollection); err != nil {
		return err
	}
	if err := validate.CollectionItem(w.settings.Model, w.item, v); err != nil {
		return err
	}
	if err := w.m.Replace(stateCollection, struct{}{}); err != nil {
		return err
	}
	return h.WriteItem(v, w.item)
}

// WriteEnd closes the collection and flushes.  A nested collection
// writer hands control back to its parent here.
func (w *CollectionWriter) WriteEnd() error {
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
func (w *CollectionWriter) WriteEndContext(ctx context.Context) error {
	if err := w.check(true); err != nil {
		return err
	}
	if err := w.runContext(ctx, func(ctx context.Context) error {
		return w.writeEnd(asyncCollection{ctx, w.enc})
	}); err != nil {
		return err
	}
	return w.flushCompletedContext(ctx, w.enc.FlushContext)
}

func (w *CollectionWriter) writeEnd(h CollectionHooks) error {
	if err := w.require("WriteEnd", stateCollection); err != nil {
		return err
	}
	if err := h.EndCollection(); err != nil {
		return err
	}
	if err := w.m.Leave(); err != nil {
		return err
	}
	return w.completed()
}

// Flush pushes buffered output to the transport.
func (w *CollectionWriter) Flush() error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		if err := w.live("Flush"); err != nil {
			return err
		}
		return w.enc.Flush()
	})
}

// FlushContext is Flush for asynchronous writers.
func (w *CollectionWriter) FlushContext(ctx context.Context) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		if err := w.live("Flush"); err != nil {
			return err
		}
		return w.enc.FlushContext(ctx)
	})
}

// OnInStreamError always fails: collections can't carry error
// content.
func (w *CollectionWriter) OnInStreamError(e *payload.InStreamError) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(w.onInStreamError)
}

// OnInStreamErrorContext is OnInStreamError for asynchronous
// writers.
func (w *CollectionWriter) OnInStreamErrorContext(ctx context.Context, e *payload.InStreamError) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(context.Context) error {
		return w.onInStreamError()
	})
}

func (w *CollectionWriter) onInStreamError() error {
	if err := w.live("OnInStreamError"); err != nil {
		return err
	}
	return &core.ShapeError{Msg: "in-stream errors are not supported in collection payloads"}
}
