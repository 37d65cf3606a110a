package testutil

import (
	"context"
	"fmt"
	"io"

	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/writer"
)

// Recorder is an encoder that writes nothing and remembers every
// hook call.  It serves as a writer.ParameterEncoder,
// writer.CollectionEncoder, and writer.ResourceEncoder.
//
// Nested encoders made by a Recorder share its log and its failures.
// Their entries are prefixed with the name they were made for.
type Recorder struct {
	prefix string
	shared *recording
}

type recording struct {
	log  []string
	fail map[string]error
}

// NewRecorder makes an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		shared: &recording{
			fail: make(map[string]error),
		},
	}
}

// FailOn makes every later call of the named hook (for example
// "EndPayload") return err.  The hook is still recorded.
func (r *Recorder) FailOn(hook string, err error) {
	r.shared.fail[hook] = err
}

// Log returns all calls so far.
func (r *Recorder) Log() []string {
	acc := make([]string, len(r.shared.log))
	copy(acc, r.shared.log)
	return acc
}

// Last returns the most recent call or "".
func (r *Recorder) Last() string {
	if n := len(r.shared.log); 0 < n {
		return r.shared.log[n-1]
	}
	return ""
}

func (r *Recorder) record(hook string, detail string) error {
	entry := r.prefix + hook
	if detail != "" {
		entry += " " + detail
	}
	r.shared.log = append(r.shared.log, entry)
	return r.shared.fail[hook]
}

func (r *Recorder) nested(name string) *Recorder {
	return &Recorder{
		prefix: r.prefix + name + ":",
		shared: r.shared,
	}
}

func (r *Recorder) StartPayload() error {
	return r.record("StartPayload", "")
}

func (r *Recorder) EndPayload() error {
	return r.record("EndPayload", "")
}

func (r *Recorder) WriteValue(name string, v interface{}, t *model.TypeRef) error {
	return r.record("WriteValue", fmt.Sprintf("%s=%v", name, v))
}

func (r *Recorder) NewCollectionEncoder(name string, item *model.TypeRef) (writer.CollectionEncoder, error) {
	if err := r.record("NewCollectionEncoder", name); err != nil {
		return nil, err
	}
	return r.nested(name), nil
}

func (r *Recorder) NewResourceEncoder(name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	if err := r.record("NewResourceEncoder", name); err != nil {
		return nil, err
	}
	return r.nested(name), nil
}

func (r *Recorder) NewResourceSetEncoder(name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	if err := r.record("NewResourceSetEncoder", name); err != nil {
		return nil, err
	}
	return r.nested(name), nil
}

func (r *Recorder) Flush() error {
	return r.record("Flush", "")
}

func (r *Recorder) StartCollection(start *payload.CollectionStart, item *model.TypeRef) error {
	return r.record("StartCollection", start.Name)
}

func (r *Recorder) WriteItem(v interface{}, item *model.TypeRef) error {
	return r.record("WriteItem", fmt.Sprint(v))
}

func (r *Recorder) EndCollection() error {
	return r.record("EndCollection", "")
}

func (r *Recorder) StartResource(res *payload.Resource, t *model.StructuredType) error {
	if res == nil {
		return r.record("StartResource", "null")
	}
	name := res.TypeName
	if name == "" && t != nil {
		name = t.Name
	}
	return r.record("StartResource", name)
}

func (r *Recorder) EndResource(res *payload.Resource) error {
	return r.record("EndResource", "")
}

func (r *Recorder) StartResourceSet(set *payload.ResourceSet, item *model.StructuredType) error {
	return r.record("StartResourceSet", "")
}

func (r *Recorder) EndResourceSet(set *payload.ResourceSet) error {
	return r.record("EndResourceSet", "")
}

func (r *Recorder) StartNestedInfo(info *payload.NestedInfo) error {
	return r.record("StartNestedInfo", info.Name)
}

func (r *Recorder) EndNestedInfo(info *payload.NestedInfo) error {
	return r.record("EndNestedInfo", info.Name)
}

func (r *Recorder) StartProperty(p *payload.PropertyInfo, t *model.TypeRef) error {
	return r.record("StartProperty", p.Name)
}

func (r *Recorder) WritePrimitive(v interface{}, t *model.TypeRef) error {
	return r.record("WritePrimitive", fmt.Sprint(v))
}

func (r *Recorder) WriteStream(in io.Reader) error {
	bs, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return r.record("WriteStream", string(bs))
}

func (r *Recorder) EndProperty(p *payload.PropertyInfo) error {
	return r.record("EndProperty", p.Name)
}

func (r *Recorder) WriteEntityReferenceLink(link *payload.EntityReferenceLink) error {
	return r.record("WriteEntityReferenceLink", link.URL)
}

func (r *Recorder) WriteInStreamError(e *payload.InStreamError) error {
	return r.record("WriteInStreamError", e.Code)
}

// The Context forms give up on a done context and otherwise behave
// like their blocking counterparts.

func (r *Recorder) StartPayloadContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.StartPayload()
}

func (r *Recorder) EndPayloadContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.EndPayload()
}

func (r *Recorder) WriteValueContext(ctx context.Context, name string, v interface{}, t *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.WriteValue(name, v, t)
}

func (r *Recorder) NewCollectionEncoderContext(ctx context.Context, name string, item *model.TypeRef) (writer.CollectionEncoder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.NewCollectionEncoder(name, item)
}

func (r *Recorder) NewResourceEncoderContext(ctx context.Context, name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.NewResourceEncoder(name, t)
}

func (r *Recorder) NewResourceSetEncoderContext(ctx context.Context, name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.NewResourceSetEncoder(name, t)
}

func (r *Recorder) FlushContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Flush()
}

func (r *Recorder) StartCollectionContext(ctx context.Context, start *payload.CollectionStart, item *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.StartCollection(start, item)
}

func (r *Recorder) WriteItemContext(ctx context.Context, v interface{}, item *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.WriteItem(v, item)
}

func (r *Recorder) EndCollectionContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.EndCollection()
}

func (r *Recorder) StartResourceContext(ctx context.Context, res *payload.Resource, t *model.StructuredType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.StartResource(res, t)
}

func (r *Recorder) EndResourceContext(ctx context.Context, res *payload.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.EndResource(res)
}

func (r *Recorder) StartResourceSetContext(ctx context.Context, set *payload.ResourceSet, item *model.StructuredType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.StartResourceSet(set, item)
}

func (r *Recorder) EndResourceSetContext(ctx context.Context, set *payload.ResourceSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.EndResourceSet(set)
}

func (r *Recorder) StartNestedInfoContext(ctx context.Context, info *payload.NestedInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.StartNestedInfo(info)
}

func (r *Recorder) EndNestedInfoContext(ctx context.Context, info *payload.NestedInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.EndNestedInfo(info)
}

func (r *Recorder) StartPropertyContext(ctx context.Context, p *payload.PropertyInfo, t *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.StartProperty(p, t)
}

func (r *Recorder) WritePrimitiveContext(ctx context.Context, v interface{}, t *model.TypeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.WritePrimitive(v, t)
}

func (r *Recorder) WriteStreamContext(ctx context.Context, in io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.WriteStream(in)
}

func (r *Recorder) EndPropertyContext(ctx context.Context, p *payload.PropertyInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.EndProperty(p)
}

func (r *Recorder) WriteEntityReferenceLinkContext(ctx context.Context, link *payload.EntityReferenceLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.WriteEntityReferenceLink(link)
}

func (r *Recorder) WriteInStreamErrorContext(ctx context.Context, e *payload.InStreamError) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.WriteInStreamError(e)
}

var (
	_ writer.ParameterEncoder  = (*Recorder)(nil)
	_ writer.CollectionEncoder = (*Recorder)(nil)
	_ writer.ResourceEncoder   = (*Recorder)(nil)
)
