package goja

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/writer"
)

// do calls the blocking or the Context form of a writer operation
// depending on the Driver's mode.
func (s *session) do(f func() error, g func(context.Context) error) error {
	if s.async() {
		return g(s.ctx)
	}
	return f()
}

func (s *session) model() (model.Resolver, error) {
	if s.d.Settings.Model == nil {
		return nil, fmt.Errorf("driver has no model")
	}
	return s.d.Settings.Model, nil
}

func (s *session) structuredType(name goja.Value) (*model.StructuredType, error) {
	if absent(name) {
		return nil, nil
	}
	m, err := s.model()
	if err != nil {
		return nil, err
	}
	st, have := m.StructuredType(name.String())
	if !have {
		return nil, fmt.Errorf("unknown type '%s'", name)
	}
	return st, nil
}

func (s *session) parameters(op goja.Value) (*goja.Object, error) {
	var decl *model.Operation
	if !absent(op) {
		m, err := s.model()
		if err != nil {
			return nil, err
		}
		var have bool
		if decl, have = m.Operation(op.String()); !have {
			return nil, fmt.Errorf("unknown operation '%s'", op)
		}
	}
	w, err := writer.NewParameterWriter(s.d.Encoder, decl, s.d.Settings)
	if err != nil {
		return nil, err
	}
	return s.parameterWriter(w), nil
}

func (s *session) resource(t goja.Value) (*goja.Object, error) {
	st, err := s.structuredType(t)
	if err != nil {
		return nil, err
	}
	w, err := writer.NewResourceWriter(s.d.Encoder, st, s.d.Settings)
	if err != nil {
		return nil, err
	}
	return s.resourceWriter(w), nil
}

func (s *session) resourceSet(t goja.Value) (*goja.Object, error) {
	st, err := s.structuredType(t)
	if err != nil {
		return nil, err
	}
	w, err := writer.NewResourceSetWriter(s.d.Encoder, st, s.d.Settings)
	if err != nil {
		return nil, err
	}
	return s.resourceWriter(w), nil
}

// collection takes the name of a primitive item type or
// "Collection(...)" of one.
func (s *session) collection(item goja.Value) (*goja.Object, error) {
	var ref *model.TypeRef
	if !absent(item) {
		name := strings.TrimSuffix(strings.TrimPrefix(item.String(), "Collection("), ")")
		if !model.IsPrimitiveName(name) {
			return nil, fmt.Errorf("'%s' is not a primitive type", name)
		}
		ref = model.Primitive(name, true)
	}
	w, err := writer.NewCollectionWriter(s.d.Encoder, ref, s.d.Settings)
	if err != nil {
		return nil, err
	}
	return s.collectionWriter(w), nil
}

// methods sets Go functions on a new object.
func (s *session) methods(fs map[string]interface{}) *goja.Object {
	o := s.o.NewObject()
	for name, f := range fs {
		if err := o.Set(name, f); err != nil {
			s.protest(err.Error())
		}
	}
	return o
}

func (s *session) parameterWriter(w *writer.ParameterWriter) *goja.Object {
	return s.methods(map[string]interface{}{
		"start": func() error {
			return s.do(w.WriteStart, w.WriteStartContext)
		},
		"value": func(name string, v goja.Value) error {
			x, err := s.scalar(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.WriteValue(name, x) },
				func(ctx context.Context) error { return w.WriteValueContext(ctx, name, x) })
		},
		"collection": func(name string) (*goja.Object, error) {
			var c *writer.CollectionWriter
			err := s.do(
				func() (err error) { c, err = w.CreateCollectionWriter(name); return },
				func(ctx context.Context) (err error) { c, err = w.CreateCollectionWriterContext(ctx, name); return })
			if err != nil {
				return nil, err
			}
			return s.collectionWriter(c), nil
		},
		"resource": func(name string) (*goja.Object, error) {
			var r *writer.ResourceWriter
			err := s.do(
				func() (err error) { r, err = w.CreateResourceWriter(name); return },
				func(ctx context.Context) (err error) { r, err = w.CreateResourceWriterContext(ctx, name); return })
			if err != nil {
				return nil, err
			}
			return s.resourceWriter(r), nil
		},
		"resourceSet": func(name string) (*goja.Object, error) {
			var r *writer.ResourceWriter
			err := s.do(
				func() (err error) { r, err = w.CreateResourceSetWriter(name); return },
				func(ctx context.Context) (err error) { r, err = w.CreateResourceSetWriterContext(ctx, name); return })
			if err != nil {
				return nil, err
			}
			return s.resourceWriter(r), nil
		},
		"end": func() error {
			return s.do(w.WriteEnd, w.WriteEndContext)
		},
		"flush": func() error {
			return s.do(w.Flush, w.FlushContext)
		},
		"error": func(v goja.Value) error {
			e, err := s.toInStreamError(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.OnInStreamError(e) },
				func(ctx context.Context) error { return w.OnInStreamErrorContext(ctx, e) })
		},
		"state": func() string {
			return string(w.State())
		},
		"written": func() []string {
			return w.Written()
		},
	})
}

func (s *session) collectionWriter(w *writer.CollectionWriter) *goja.Object {
	return s.methods(map[string]interface{}{
		"start": func(name goja.Value) error {
			var start *payload.CollectionStart
			if !absent(name) {
				start = &payload.CollectionStart{Name: name.String()}
			}
			return s.do(
				func() error { return w.WriteStart(start) },
				func(ctx context.Context) error { return w.WriteStartContext(ctx, start) })
		},
		"item": func(v goja.Value) error {
			x, err := s.scalar(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.WriteItem(x) },
				func(ctx context.Context) error { return w.WriteItemContext(ctx, x) })
		},
		"end": func() error {
			return s.do(w.WriteEnd, w.WriteEndContext)
		},
		"flush": func() error {
			return s.do(w.Flush, w.FlushContext)
		},
		"error": func(v goja.Value) error {
			e, err := s.toInStreamError(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.OnInStreamError(e) },
				func(ctx context.Context) error { return w.OnInStreamErrorContext(ctx, e) })
		},
		"state": func() string {
			return string(w.State())
		},
	})
}

func (s *session) resourceWriter(w *writer.ResourceWriter) *goja.Object {
	return s.methods(map[string]interface{}{
		"start": func(v goja.Value) error {
			r, err := s.toResource(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.WriteStartResource(r) },
				func(ctx context.Context) error { return w.WriteStartResourceContext(ctx, r) })
		},
		"startSet": func(v goja.Value) error {
			set, err := s.toResourceSet(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.WriteStartResourceSet(set) },
				func(ctx context.Context) error { return w.WriteStartResourceSetContext(ctx, set) })
		},
		"nested": func(v goja.Value) error {
			info, err := s.toNestedInfo(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.WriteStartNestedInfo(info) },
				func(ctx context.Context) error { return w.WriteStartNestedInfoContext(ctx, info) })
		},
		"property": func(name string, t goja.Value) error {
			p := &payload.PropertyInfo{Name: name}
			if !absent(t) {
				p.TypeName = t.String()
			}
			return s.do(
				func() error { return w.WriteStartProperty(p) },
				func(ctx context.Context) error { return w.WriteStartPropertyContext(ctx, p) })
		},
		"primitive": func(v goja.Value) error {
			x, err := s.scalar(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.WritePrimitive(x) },
				func(ctx context.Context) error { return w.WritePrimitiveContext(ctx, x) })
		},
		"stream": func(content string) error {
			return s.do(
				func() error { return w.WriteStream(strings.NewReader(content)) },
				func(ctx context.Context) error { return w.WriteStreamContext(ctx, strings.NewReader(content)) })
		},
		"link": func(url string) error {
			link := &payload.EntityReferenceLink{URL: url}
			return s.do(
				func() error { return w.WriteEntityReferenceLink(link) },
				func(ctx context.Context) error { return w.WriteEntityReferenceLinkContext(ctx, link) })
		},
		"error": func(v goja.Value) error {
			e, err := s.toInStreamError(v)
			if err != nil {
				return err
			}
			return s.do(
				func() error { return w.OnInStreamError(e) },
				func(ctx context.Context) error { return w.OnInStreamErrorContext(ctx, e) })
		},
		"end": func() error {
			return s.do(w.WriteEnd, w.WriteEndContext)
		},
		"flush": func() error {
			return s.do(w.Flush, w.FlushContext)
		},
		"state": func() string {
			return string(w.State())
		},
	})
}
