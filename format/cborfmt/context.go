package cborfmt

import (
	"context"
	"io"

	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/writer"
)

// Encoding only touches memory, so the Context forms just refuse a
// done context.

func (e *Encoder) StartPayloadContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.StartPayload()
}

func (e *Encoder) EndPayloadContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.EndPayload()
}

func (e *Encoder) WriteValueContext(ctx context.Context, name string, v interface{}, t *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.WriteValue(name, v, t)
}

func (e *Encoder) StartCollectionContext(ctx context.Context, start *payload.CollectionStart, item *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.StartCollection(start, item)
}

func (e *Encoder) WriteItemContext(ctx context.Context, v interface{}, item *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.WriteItem(v, item)
}

func (e *Encoder) EndCollectionContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.EndCollection()
}

func (e *Encoder) StartResourceContext(ctx context.Context, r *payload.Resource, t *model.StructuredType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.StartResource(r, t)
}

func (e *Encoder) EndResourceContext(ctx context.Context, r *payload.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.EndResource(r)
}

func (e *Encoder) StartResourceSetContext(ctx context.Context, set *payload.ResourceSet, item *model.StructuredType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.StartResourceSet(set, item)
}

func (e *Encoder) EndResourceSetContext(ctx context.Context, set *payload.ResourceSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.EndResourceSet(set)
}

func (e *Encoder) StartNestedInfoContext(ctx context.Context, info *payload.NestedInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.StartNestedInfo(info)
}

func (e *Encoder) EndNestedInfoContext(ctx context.Context, info *payload.NestedInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.EndNestedInfo(info)
}

func (e *Encoder) StartPropertyContext(ctx context.Context, p *payload.PropertyInfo, t *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.StartProperty(p, t)
}

func (e *Encoder) WritePrimitiveContext(ctx context.Context, v interface{}, t *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.WritePrimitive(v, t)
}

func (e *Encoder) WriteStreamContext(ctx context.Context, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.WriteStream(r)
}

func (e *Encoder) EndPropertyContext(ctx context.Context, p *payload.PropertyInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.EndProperty(p)
}

func (e *Encoder) WriteEntityReferenceLinkContext(ctx context.Context, link *payload.EntityReferenceLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.WriteEntityReferenceLink(link)
}

func (e *Encoder) WriteInStreamErrorContext(ctx context.Context, ie *payload.InStreamError) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.WriteInStreamError(ie)
}

func (e *Encoder) NewCollectionEncoderContext(ctx context.Context, name string, item *model.TypeRef) (writer.CollectionEncoder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.NewCollectionEncoder(name, item)
}

func (e *Encoder) NewResourceEncoderContext(ctx context.Context, name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.NewResourceEncoder(name, t)
}

func (e *Encoder) NewResourceSetEncoderContext(ctx context.Context, name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.NewResourceSetEncoder(name, t)
}
