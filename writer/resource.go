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
	"io"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/validate"
)

const (
	stateResource              core.State = "resource"
	stateResourceSet           core.State = "resourceSet"
	stateNestedInfo            core.State = "nestedInfo"
	stateNestedInfoWithContent core.State = "nestedInfoWithContent"
	stateProperty              core.State = "property"
)

// frame is what a ResourceWriter remembers about each open scope.
// Only the fields for the scope's state are set.
type frame struct {
	resource *payload.Resource
	set      *payload.ResourceSet
	info     *payload.NestedInfo
	prop     *payload.PropertyInfo

	// typ is the resolved type of a resource, the item type of a
	// resource set, or the target type of a nested resource info.
	typ *model.StructuredType

	// constraint is the derived type constraint on the content of
	// a resource set or nested resource info.
	constraint []string

	// declared is the declared cardinality of a nested resource
	// info, if known.
	declared *bool

	// decl is the declared property of a property scope.
	decl *model.Property

	// names are the property and nested resource info names used
	// under a resource.
	names *validate.NameSet

	// content counts resources and sets under a nested resource
	// info, or values under a property.
	content int
	links   int
}

// ResourceWriter writes a resource or a resource set, including
// nested resource infos, properties written one by one, streams, and
// entity reference links.
type ResourceWriter struct {
	*base[*frame]

	enc      ResourceEncoder
	expected *model.StructuredType
	set      bool
}

// NewResourceWriter makes a writer for a single top-level resource of
// the expected type.  A nil expected type accepts any resource.
func NewResourceWriter(enc ResourceEncoder, expected *model.StructuredType, s Settings) (*ResourceWriter, error) {
	return newResourceWriter(enc, expected, false, s, "", nil)
}

// NewResourceSetWriter makes a writer for a top-level resource set
// whose items are of the expected type.
func NewResourceSetWriter(enc ResourceEncoder, expected *model.StructuredType, s Settings) (*ResourceWriter, error) {
	return newResourceWriter(enc, expected, true, s, "", nil)
}

func newResourceWriter(enc ResourceEncoder, expected *model.StructuredType, set bool, s Settings, source string, notify core.Notify) (*ResourceWriter, error) {
	b, err := newBase[*frame](ResourceGrammar, s, source, notify)
	if err != nil {
		return nil, err
	}
	return &ResourceWriter{
		base:     b,
		enc:      enc,
		expected: expected,
		set:      set,
	}, nil
}

func (w *ResourceWriter) top() *frame {
	return w.m.Top().Item
}

// enterContent does the bookkeeping for content (a resource when set
// is false) about to be written under the current scope.  It returns
// the type the content must have and the constraint on derived
// types.
func (w *ResourceWriter) enterContent(op string, set bool) (*model.StructuredType, []string, error) {
	cur := w.m.Current()
	switch cur {
	case stateStart:
		if set != w.set {
			if set {
				return nil, nil, &core.ShapeError{Msg: "cannot write a top-level resource set with a resource writer"}
			}
			return nil, nil, &core.ShapeError{Msg: "cannot write a top-level resource with a resource set writer"}
		}
		return w.expected, nil, nil
	case stateResourceSet:
		if set {
			return nil, nil, w.sequence(op)
		}
		f := w.top()
		return f.typ, f.constraint, nil
	case stateNestedInfo, stateNestedInfoWithContent:
		f := w.top()
		if err := validate.NestedContent(f.info, f.declared, set); err != nil {
			return nil, nil, err
		}
		if 0 < f.content {
			return nil, nil, &core.ShapeError{
				Msg: "nested resource info '" + f.info.Name + "' already has content",
			}
		}
		f.content++
		if cur == stateNestedInfo {
			if err := w.m.Replace(stateNestedInfoWithContent, f); err != nil {
				return nil, nil, err
			}
		}
		return f.typ, f.constraint, nil
	}
	return nil, nil, w.sequence(op)
}

// WriteStartResource opens a resource.  Its properties, if any, are
// written with it.  A nil resource is a null resource.
func (w *ResourceWriter) WriteStartResource(r *payload.Resource) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeStartResource(w.enc, r)
	})
}

// WriteStartResourceContext is WriteStartResource for asynchronous
// writers.
func (w *ResourceWriter) WriteStartResourceContext(ctx context.Context, r *payload.Resource) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeStartResource(asyncResource{ctx, w.enc}, r)
	})
}

func (w *ResourceWriter) writeStartResource(h ResourceHooks, r *payload.Resource) error {
	expected, constraint, err := w.enterContent("WriteStartResource", false)
	if err != nil {
		return err
	}
	f := &frame{
		resource: r,
		names:    validate.NewNameSet("property"),
	}
	if err := w.m.Enter(stateResource, f); err != nil {
		return err
	}
	if r == nil {
		f.typ = expected
		w.logf("start null resource")
		return h.StartResource(nil, expected)
	}
	t, err := validate.ResourceType(w.settings.Model, r.TypeName, expected)
	if err != nil {
		return err
	}
	if err := validate.DerivedType(constraint, t, expected, "resource"); err != nil {
		return err
	}
	f.typ = t
	if err := validate.MediaResource(t, r); err != nil {
		return err
	}
	if err := validate.Operations(w.settings.request(), r); err != nil {
		return err
	}
	for _, p := range r.Properties {
		if err := validate.PropertyName(p.Name); err != nil {
			return err
		}
		if err := f.names.Add(p.Name); err != nil {
			return err
		}
		decl, err := validate.DeclaredProperty(t, p.Name)
		if err != nil {
			return err
		}
		if err := validate.PropertyValue(w.settings.Model, w.settings.request(), decl, p); err != nil {
			return err
		}
	}
	w.logf("start resource %s", r.TypeName)
	return h.StartResource(r, t)
}

// nullContent rejects content under a null resource.
func nullContent(f *frame, what string) error {
	if f.resource == nil {
		return &core.ShapeError{Msg: "cannot write a " + what + " in a null resource"}
	}
	return nil
}

// WriteStartResourceSet opens a resource set.
func (w *ResourceWriter) WriteStartResourceSet(set *payload.ResourceSet) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeStartResourceSet(w.enc, set)
	})
}

// WriteStartResourceSetContext is WriteStartResourceSet for
// asynchronous writers.
func (w *ResourceWriter) WriteStartResourceSetContext(ctx context.Context, set *payload.ResourceSet) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeStartResourceSet(asyncResource{ctx, w.enc}, set)
	})
}

func (w *ResourceWriter) writeStartResourceSet(h ResourceHooks, set *payload.ResourceSet) error {
	expected, constraint, err := w.enterContent("WriteStartResourceSet", true)
	if err != nil {
		return err
	}
	if set == nil {
		set = &payload.ResourceSet{}
	}
	if err := validate.NextPageLink(w.settings.request(), set); err != nil {
		return err
	}
	f := &frame{
		set:        set,
		constraint: constraint,
	}
	if err := w.m.Enter(stateResourceSet, f); err != nil {
		return err
	}
	t, err := validate.ResourceType(w.settings.Model, validate.SetItemType(set.TypeName), expected)
	if err != nil {
		return err
	}
	f.typ = t
	return h.StartResourceSet(set, t)
}

// WriteStartNestedInfo opens a nested resource info (a navigation
// link or a structured property) under the current resource.
func (w *ResourceWriter) WriteStartNestedInfo(info *payload.NestedInfo) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeStartNestedInfo(w.enc, info)
	})
}

// WriteStartNestedInfoContext is WriteStartNestedInfo for
// asynchronous writers.
func (w *ResourceWriter) WriteStartNestedInfoContext(ctx context.Context, info *payload.NestedInfo) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeStartNestedInfo(asyncResource{ctx, w.enc}, info)
	})
}

func (w *ResourceWriter) writeStartNestedInfo(h ResourceHooks, info *payload.NestedInfo) error {
	if err := w.require("WriteStartNestedInfo", stateResource); err != nil {
		return err
	}
	if info == nil {
		return &core.SchemaError{Msg: "nested resource info must not be nil"}
	}
	parent := w.top()
	if err := nullContent(parent, "nested resource info"); err != nil {
		return err
	}
	if err := validate.LinkName(info.Name); err != nil {
		return err
	}
	if err := parent.names.Add(info.Name); err != nil {
		return err
	}
	f := &frame{info: info}
	if err := w.declareNested(parent.typ, f); err != nil {
		return err
	}
	if err := validate.NestedCardinality(info, f.declared); err != nil {
		return err
	}
	if err := w.m.Enter(stateNestedInfo, f); err != nil {
		return err
	}
	return h.StartNestedInfo(info)
}

// declareNested fills in what the owner's type says about a nested
// resource info.
func (w *ResourceWriter) declareNested(owner *model.StructuredType, f *frame) error {
	if owner == nil {
		return nil
	}
	name := f.info.Name
	if nav, have := owner.NavigationProperty(name); have {
		coll := nav.IsCollection()
		f.declared = &coll
		f.typ = w.settings.structuredType(nav.Target())
		f.constraint = nav.DerivedTypeConstraint
		return nil
	}
	if p, have := owner.Property(name); have {
		t := p.Type
		if t.IsCollection() {
			t = t.Elem
		}
		if !t.IsStructured() {
			return &core.SchemaError{
				Msg: "property '" + name + "' of type " + p.Type.FullName() + " cannot be written as nested resource info",
			}
		}
		coll := p.Type.IsCollection()
		f.declared = &coll
		f.typ = w.settings.structuredType(t.Name)
		f.constraint = p.DerivedTypeConstraint
		return nil
	}
	if owner.Open {
		return nil
	}
	return &core.SchemaError{
		Msg: "property '" + name + "' does not exist on type '" + owner.Name + "'",
	}
}

// WriteStartProperty opens a property whose value follows with
// WritePrimitive or WriteStream.
func (w *ResourceWriter) WriteStartProperty(p *payload.PropertyInfo) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeStartProperty(w.enc, p)
	})
}

// WriteStartPropertyContext is WriteStartProperty for asynchronous
// writers.
func (w *ResourceWriter) WriteStartPropertyContext(ctx context.Context, p *payload.PropertyInfo) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeStartProperty(asyncResource{ctx, w.enc}, p)
	})
}

func (w *ResourceWriter) writeStartProperty(h ResourceHooks, p *payload.PropertyInfo) error {
	if err := w.require("WriteStartProperty", stateResource); err != nil {
		return err
	}
	if p == nil {
		return &core.SchemaError{Msg: "property info must not be nil"}
	}
	parent := w.top()
	if err := nullContent(parent, "property"); err != nil {
		return err
	}
	if err := validate.PropertyName(p.Name); err != nil {
		return err
	}
	if err := parent.names.Add(p.Name); err != nil {
		return err
	}
	decl, err := validate.DeclaredProperty(parent.typ, p.Name)
	if err != nil {
		return err
	}
	f := &frame{prop: p, decl: decl}
	if err := w.m.Enter(stateProperty, f); err != nil {
		return err
	}
	return h.StartProperty(p, f.declType())
}

func (f *frame) declType() *model.TypeRef {
	if f.decl == nil {
		return nil
	}
	return f.decl.Type
}

// propertyValue checks that the open property has no value yet.
func (w *ResourceWriter) propertyValue(op string) (*frame, error) {
	if err := w.require(op, stateProperty); err != nil {
		return nil, err
	}
	f := w.top()
	if 0 < f.content {
		return nil, w.sequence(op)
	}
	return f, nil
}

// WritePrimitive writes the value of the open property.
func (w *ResourceWriter) WritePrimitive(v interface{}) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writePrimitive(w.enc, v)
	})
}

// WritePrimitiveContext is WritePrimitive for asynchronous writers.
func (w *ResourceWriter) WritePrimitiveContext(ctx context.Context, v interface{}) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writePrimitive(asyncResource{ctx, w.enc}, v)
	})
}

func (w *ResourceWriter) writePrimitive(h ResourceHooks, v interface{}) error {
	f, err := w.propertyValue("WritePrimitive")
	if err != nil {
		return err
	}
	p := &payload.Property{Name: f.prop.Name, Value: v}
	if err := validate.PropertyValue(w.settings.Model, w.settings.request(), f.decl, p); err != nil {
		return err
	}
	if err := w.m.Replace(stateProperty, f); err != nil {
		return err
	}
	f.content++
	return h.WritePrimitive(v, f.declType())
}

// WriteStream writes the value of the open property from r.  Stream
// properties can only be written in responses.
func (w *ResourceWriter) WriteStream(r io.Reader) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeStream(w.enc, r)
	})
}

// WriteStreamContext is WriteStream for asynchronous writers.
func (w *ResourceWriter) WriteStreamContext(ctx context.Context, r io.Reader) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeStream(asyncResource{ctx, w.enc}, r)
	})
}

func (w *ResourceWriter) writeStream(h ResourceHooks, r io.Reader) error {
	f, err := w.propertyValue("WriteStream")
	if err != nil {
		return err
	}
	if err := validate.StreamProperty(w.settings.request(), f.prop.Name, f.declType()); err != nil {
		return err
	}
	if err := w.m.Replace(stateProperty, f); err != nil {
		return err
	}
	f.content++
	return h.WriteStream(r)
}

// WriteEntityReferenceLink writes a link to an existing entity under
// the open nested resource info.  Only requests carry these.
func (w *ResourceWriter) WriteEntityReferenceLink(link *payload.EntityReferenceLink) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.writeEntityReferenceLink(w.enc, link)
	})
}

// WriteEntityReferenceLinkContext is WriteEntityReferenceLink for
// asynchronous writers.
func (w *ResourceWriter) WriteEntityReferenceLinkContext(ctx context.Context, link *payload.EntityReferenceLink) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.writeEntityReferenceLink(asyncResource{ctx, w.enc}, link)
	})
}

func (w *ResourceWriter) writeEntityReferenceLink(h ResourceHooks, link *payload.EntityReferenceLink) error {
	if err := w.require("WriteEntityReferenceLink", stateNestedInfo, stateNestedInfoWithContent); err != nil {
		return err
	}
	if err := validate.EntityReferenceLink(w.settings.request(), link); err != nil {
		return err
	}
	f := w.top()
	if err := w.m.Replace(stateNestedInfoWithContent, f); err != nil {
		return err
	}
	f.links++
	return h.WriteEntityReferenceLink(link)
}

// WriteEnd closes the current scope.  Closing the outermost scope
// completes the writer, which then flushes.  A flush failure moves
// the writer to error.
func (w *ResourceWriter) WriteEnd() error {
	if err := w.check(false); err != nil {
		return err
	}
	done := false
	if err := w.run(func() error {
		var err error
		done, err = w.writeEnd(w.enc)
		return err
	}); err != nil || !done {
		return err
	}
	return w.flushCompleted(w.enc.Flush)
}

// WriteEndContext is WriteEnd for asynchronous writers.
func (w *ResourceWriter) WriteEndContext(ctx context.Context) error {
	if err := w.check(true); err != nil {
		return err
	}
	done := false
	if err := w.runContext(ctx, func(ctx context.Context) error {
		var err error
		done, err = w.writeEnd(asyncResource{ctx, w.enc})
		return err
	}); err != nil || !done {
		return err
	}
	return w.flushCompletedContext(ctx, w.enc.FlushContext)
}

// writeEnd reports whether the writer completed.
func (w *ResourceWriter) writeEnd(h ResourceHooks) (bool, error) {
	var (
		cur = w.m.Current()
		err error
	)
	switch cur {
	case stateResource:
		err = h.EndResource(w.top().resource)
	case stateResourceSet:
		err = h.EndResourceSet(w.top().set)
	case stateNestedInfo:
		f := w.top()
		if err = validate.DeferredLink(w.settings.request(), f.info); err == nil {
			err = h.EndNestedInfo(f.info)
		}
	case stateNestedInfoWithContent:
		err = h.EndNestedInfo(w.top().info)
	case stateProperty:
		f := w.top()
		if f.content == 0 {
			return false, w.sequence("WriteEnd")
		}
		err = h.EndProperty(f.prop)
	default:
		return false, w.sequence("WriteEnd")
	}
	if err != nil {
		return false, err
	}
	if err := w.m.Leave(); err != nil {
		return false, err
	}
	if w.m.Current() != w.m.Grammar.CompletedState() {
		return false, nil
	}
	return true, w.completed()
}

// Flush pushes buffered output to the transport.
func (w *ResourceWriter) Flush() error {
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
func (w *ResourceWriter) FlushContext(ctx context.Context) error {
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

// OnInStreamError writes error content into a response and leaves
// the writer in its error state.  Requests can't carry error
// content.
func (w *ResourceWriter) OnInStreamError(e *payload.InStreamError) error {
	if err := w.check(false); err != nil {
		return err
	}
	return w.run(func() error {
		return w.onInStreamError(w.enc, e)
	})
}

// OnInStreamErrorContext is OnInStreamError for asynchronous
// writers.
func (w *ResourceWriter) OnInStreamErrorContext(ctx context.Context, e *payload.InStreamError) error {
	if err := w.check(true); err != nil {
		return err
	}
	return w.runContext(ctx, func(ctx context.Context) error {
		return w.onInStreamError(asyncResource{ctx, w.enc}, e)
	})
}

func (w *ResourceWriter) onInStreamError(h ResourceHooks, e *payload.InStreamError) error {
	if err := w.live("OnInStreamError"); err != nil {
		return err
	}
	if err := validate.InStreamError(w.settings.request()); err != nil {
		return err
	}
	if e == nil {
		return &core.SchemaError{Msg: "in-stream error must not be nil"}
	}
	if err := h.WriteInStreamError(e); err != nil {
		return err
	}
	w.latch(e)
	return nil
}
