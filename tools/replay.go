package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/writer"
)

// handle is one writer in a replay.
type handle interface {
	// do performs a step and returns a nested writer if the step
	// made one.
	do(r *replay, st *Step) (handle, error)
	state() core.State
}

type replay struct {
	ctx   context.Context
	async bool

	// stack has the top-level writer at the bottom and the
	// writer receiving steps on top.
	stack []handle
}

func (r *replay) call(f func() error, g func(context.Context) error) error {
	if r.async {
		return g(r.ctx)
	}
	return f()
}

func (r *replay) do(st *Step) error {
	h := r.stack[len(r.stack)-1]
	child, err := h.do(r, st)
	if child != nil {
		r.stack = append(r.stack, child)
	}
	// A nested writer is done with once it's terminal.
	for 1 < len(r.stack) {
		k := r.stack[len(r.stack)-1].state()
		if k != "completed" && k != "error" {
			break
		}
		r.stack = r.stack[:len(r.stack)-1]
	}
	return err
}

func unknownOp(kind, op string) error {
	return fmt.Errorf("%s writer has no op '%s'", kind, op)
}

func (r *replay) inStreamError(st *Step, f func(*payload.InStreamError) error, g func(context.Context, *payload.InStreamError) error) error {
	e := st.Error
	if e == nil {
		e = &payload.InStreamError{}
	}
	return r.call(
		func() error { return f(e) },
		func(ctx context.Context) error { return g(ctx, e) })
}

type parameterHandle struct {
	w *writer.ParameterWriter
}

func (h *parameterHandle) state() core.State {
	return h.w.State()
}

func (h *parameterHandle) do(r *replay, st *Step) (handle, error) {
	w := h.w
	switch st.Op {
	case "start":
		return nil, r.call(w.WriteStart, w.WriteStartContext)
	case "value":
		return nil, r.call(
			func() error { return w.WriteValue(st.Name, st.Value) },
			func(ctx context.Context) error { return w.WriteValueContext(ctx, st.Name, st.Value) })
	case "collection":
		var c *writer.CollectionWriter
		err := r.call(
			func() (err error) { c, err = w.CreateCollectionWriter(st.Name); return },
			func(ctx context.Context) (err error) { c, err = w.CreateCollectionWriterContext(ctx, st.Name); return })
		if err != nil {
			return nil, err
		}
		return &collectionHandle{c}, nil
	case "resource", "resourceSet":
		var (
			rw  *writer.ResourceWriter
			err error
		)
		if st.Op == "resource" {
			err = r.call(
				func() (err error) { rw, err = w.CreateResourceWriter(st.Name); return },
				func(ctx context.Context) (err error) { rw, err = w.CreateResourceWriterContext(ctx, st.Name); return })
		} else {
			err = r.call(
				func() (err error) { rw, err = w.CreateResourceSetWriter(st.Name); return },
				func(ctx context.Context) (err error) { rw, err = w.CreateResourceSetWriterContext(ctx, st.Name); return })
		}
		if err != nil {
			return nil, err
		}
		return &resourceHandle{rw}, nil
	case "end":
		return nil, r.call(w.WriteEnd, w.WriteEndContext)
	case "flush":
		return nil, r.call(w.Flush, w.FlushContext)
	case "error":
		return nil, r.inStreamError(st, w.OnInStreamError, w.OnInStreamErrorContext)
	}
	return nil, unknownOp("parameter", st.Op)
}

type collectionHandle struct {
	w *writer.CollectionWriter
}

func (h *collectionHandle) state() core.State {
	return h.w.State()
}

func (h *collectionHandle) do(r *replay, st *Step) (handle, error) {
	w := h.w
	switch st.Op {
	case "start":
		var start *payload.CollectionStart
		if st.Name != "" {
			start = &payload.CollectionStart{Name: st.Name}
		}
		return nil, r.call(
			func() error { return w.WriteStart(start) },
			func(ctx context.Context) error { return w.WriteStartContext(ctx, start) })
	case "item":
		return nil, r.call(
			func() error { return w.WriteItem(st.Value) },
			func(ctx context.Context) error { return w.WriteItemContext(ctx, st.Value) })
	case "end":
		return nil, r.call(w.WriteEnd, w.WriteEndContext)
	case "flush":
		return nil, r.call(w.Flush, w.FlushContext)
	case "error":
		return nil, r.inStreamError(st, w.OnInStreamError, w.OnInStreamErrorContext)
	}
	return nil, unknownOp("collection", st.Op)
}

type resourceHandle struct {
	w *writer.ResourceWriter
}

func (h *resourceHandle) state() core.State {
	return h.w.State()
}

func (h *resourceHandle) do(r *replay, st *Step) (handle, error) {
	w := h.w
	switch st.Op {
	case "start":
		return nil, r.call(
			func() error { return w.WriteStartResource(st.Resource) },
			func(ctx context.Context) error { return w.WriteStartResourceContext(ctx, st.Resource) })
	case "startSet":
		return nil, r.call(
			func() error { return w.WriteStartResourceSet(st.Set) },
			func(ctx context.Context) error { return w.WriteStartResourceSetContext(ctx, st.Set) })
	case "nested":
		return nil, r.call(
			func() error { return w.WriteStartNestedInfo(st.Nested) },
			func(ctx context.Context) error { return w.WriteStartNestedInfoContext(ctx, st.Nested) })
	case "property":
		p := st.Property
		if p == nil {
			p = &payload.PropertyInfo{Name: st.Name}
		}
		return nil, r.call(
			func() error { return w.WriteStartProperty(p) },
			func(ctx context.Context) error { return w.WriteStartPropertyContext(ctx, p) })
	case "primitive":
		return nil, r.call(
			func() error { return w.WritePrimitive(st.Value) },
			func(ctx context.Context) error { return w.WritePrimitiveContext(ctx, st.Value) })
	case "stream":
		return nil, r.call(
			func() error { return w.WriteStream(strings.NewReader(st.Stream)) },
			func(ctx context.Context) error { return w.WriteStreamContext(ctx, strings.NewReader(st.Stream)) })
	case "link":
		link := &payload.EntityReferenceLink{URL: st.Link}
		return nil, r.call(
			func() error { return w.WriteEntityReferenceLink(link) },
			func(ctx context.Context) error { return w.WriteEntityReferenceLinkContext(ctx, link) })
	case "end":
		return nil, r.call(w.WriteEnd, w.WriteEndContext)
	case "flush":
		return nil, r.call(w.Flush, w.FlushContext)
	case "error":
		return nil, r.inStreamError(st, w.OnInStreamError, w.OnInStreamErrorContext)
	}
	return nil, unknownOp("resource", st.Op)
}
