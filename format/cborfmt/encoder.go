// Package cborfmt writes payloads as CBOR.
//
// The layout follows jsonfmt: objects become maps with text keys,
// annotations keep their "@odata." names, and top-level collections
// and resource sets are wrapped in a map under "value".  Maps and
// arrays use indefinite lengths since their sizes aren't known when
// they start.
package cborfmt

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Comcast/quill/format"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/transport"
	"github.com/Comcast/quill/writer"
)

// ContentType is the media type of what an Encoder writes.
const ContentType = "application/cbor"

var encMode cbor.EncMode

func init() {
	opts := cbor.PreferredUnsortedEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	opts.IndefLength = cbor.IndefLengthAllowed
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic("cborfmt: encoder initialization failed: " + err.Error())
	}
}

// Options tune an Encoder.
type Options struct {
	// ContextURL, if not empty, is written as "@odata.context" in
	// the top-level map.
	ContextURL string

	Debug bool
}

type container struct {
	array   bool
	wrapped bool
	name    string
}

type doc struct {
	enc     *cbor.Encoder
	t       transport.Transport
	stack   []container
	nested  format.Nesting
	prop    string
	context string
	debug   bool

	// err is the first encoding error.  Nothing is written after
	// it.
	err error
}

// Encoder writes CBOR to a transport.Transport.
type Encoder struct {
	*doc
	top bool
}

// New makes an Encoder that writes to t.
func New(t transport.Transport, opts Options) *Encoder {
	return &Encoder{
		doc: &doc{
			enc:     encMode.NewEncoder(t),
			t:       t,
			context: opts.ContextURL,
			debug:   opts.Debug,
		},
		top: true,
	}
}

func (d *doc) emit(v interface{}) {
	if d.err == nil {
		d.err = d.enc.Encode(v)
	}
}

func (d *doc) root() bool {
	return len(d.stack) == 0
}

func (d *doc) str(key, v string) {
	if v != "" {
		d.emit(key)
		d.emit(v)
	}
}

func (d *doc) beginMap() {
	if d.err == nil {
		d.err = d.enc.StartIndefiniteMap()
	}
	d.stack = append(d.stack, container{})
}

func (d *doc) beginArray(wrapped bool, name string) {
	if d.err == nil {
		d.err = d.enc.StartIndefiniteArray()
	}
	d.stack = append(d.stack, container{array: true, wrapped: wrapped, name: name})
}

func (d *doc) end() container {
	c := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	if d.err == nil {
		d.err = d.enc.EndIndefinite()
	}
	return c
}

func (d *doc) value(v interface{}, t *model.TypeRef) error {
	switch x := v.(type) {
	case nil:
		d.emit(nil)
	case payload.Decimal:
		d.emit(string(x))
	case time.Time:
		if layout := format.TimeLayout(t); layout != time.RFC3339Nano {
			d.emit(x.Format(layout))
		} else {
			d.emit(x)
		}
	case time.Duration:
		d.emit(format.ISODuration(x))
	case payload.EnumValue:
		d.emit(x.Value)
	case *payload.EnumValue:
		d.emit(x.Value)
	default:
		if _, ok := payload.PrimitiveName(v); !ok {
			return fmt.Errorf("cannot encode %T as CBOR", v)
		}
		d.emit(v)
	}
	return d.err
}

func (d *doc) wrap(count *int64) {
	d.beginMap()
	d.str("@odata.context", d.context)
	if count != nil {
		d.emit("@odata.count")
		d.emit(*count)
	}
	d.emit("value")
	d.beginArray(true, "")
}

func (d *doc) content(set *payload.ResourceSet) string {
	p := d.nested.Claim(len(d.stack))
	if p == nil {
		return ""
	}
	if set != nil && set.Count != nil {
		d.emit(p.Info.Name + "@odata.count")
		d.emit(*set.Count)
	}
	d.emit(p.Info.Name)
	return p.Info.Name
}

func (d *doc) stream(name string, r *payload.StreamReference) {
	d.str(name+"@odata.mediaEditLink", r.EditLink)
	d.str(name+"@odata.mediaReadLink", r.ReadLink)
	d.str(name+"@odata.mediaContentType", r.ContentType)
	d.str(name+"@odata.mediaEtag", r.ETag)
}

func (d *doc) property(p *payload.Property) error {
	switch v := p.Value.(type) {
	case payload.StreamReference:
		p = &payload.Property{Name: p.Name, Value: &v}
		return d.property(p)
	case payload.CollectionValue:
		p = &payload.Property{Name: p.Name, Value: &v}
		return d.property(p)
	case *payload.StreamReference:
		d.stream(p.Name, v)
		return d.err
	case *payload.CollectionValue:
		if v.TypeName != "" {
			d.str(p.Name+"@odata.type", "#"+v.TypeName)
		}
		d.emit(p.Name)
		d.beginArray(false, "")
		for _, x := range v.Items {
			if err := d.value(x, nil); err != nil {
				return err
			}
		}
		d.end()
		return d.err
	}
	d.emit(p.Name)
	return d.value(p.Value, nil)
}

func (e *Encoder) child(name string) *Encoder {
	e.emit(name)
	return &Encoder{doc: e.doc}
}

func (e *Encoder) StartPayload() error {
	e.beginMap()
	return e.err
}

func (e *Encoder) EndPayload() error {
	e.end()
	return e.err
}

func (e *Encoder) WriteValue(name string, v interface{}, t *model.TypeRef) error {
	e.emit(name)
	return e.value(v, t)
}

func (e *Encoder) NewCollectionEncoder(name string, item *model.TypeRef) (writer.CollectionEncoder, error) {
	return e.child(name), e.err
}

func (e *Encoder) NewResourceEncoder(name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	return e.child(name), e.err
}

func (e *Encoder) NewResourceSetEncoder(name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	return e.child(name), e.err
}

func (e *Encoder) StartCollection(start *payload.CollectionStart, item *model.TypeRef) error {
	if e.root() {
		e.wrap(nil)
	} else {
		e.beginArray(false, "")
	}
	return e.err
}

func (e *Encoder) WriteItem(v interface{}, item *model.TypeRef) error {
	return e.value(v, item)
}

func (e *Encoder) EndCollection() error {
	if c := e.end(); c.wrapped {
		e.end()
	}
	return e.err
}

// StartResource writes null for a nil resource.
func (e *Encoder) StartResource(r *payload.Resource, t *model.StructuredType) error {
	root := e.root()
	e.content(nil)
	if r == nil {
		e.emit(nil)
		return e.err
	}
	e.beginMap()
	if root {
		e.str("@odata.context", e.context)
	}
	if r.TypeName != "" {
		e.str("@odata.type", "#"+r.TypeName)
	}
	e.str("@odata.id", r.ID)
	e.str("@odata.etag", r.ETag)
	e.str("@odata.editLink", r.EditLink)
	if r.MediaResource != nil {
		e.stream("", r.MediaResource)
	}
	for _, as := range [][]*payload.OperationAdvert{r.Actions, r.Functions} {
		for _, a := range as {
			e.emit("#" + a.Metadata)
			e.beginMap()
			e.str("title", a.Title)
			e.str("target", a.Target)
			e.end()
		}
	}
	for _, p := range r.Properties {
		if err := e.property(p); err != nil {
			return err
		}
	}
	return e.err
}

func (e *Encoder) EndResource(r *payload.Resource) error {
	if r != nil {
		e.end()
	}
	return e.err
}

func (e *Encoder) StartResourceSet(set *payload.ResourceSet, item *model.StructuredType) error {
	if e.root() {
		e.wrap(set.Count)
		return e.err
	}
	e.beginArray(false, e.content(set))
	return e.err
}

func (e *Encoder) EndResourceSet(set *payload.ResourceSet) error {
	c := e.end()
	switch {
	case c.wrapped:
		e.str("@odata.nextLink", set.NextPageLink)
		e.end()
	case c.name != "":
		e.str(c.name+"@odata.nextLink", set.NextPageLink)
	}
	return e.err
}

func (e *Encoder) StartNestedInfo(info *payload.NestedInfo) error {
	e.nested.Push(info, len(e.stack))
	return nil
}

func (e *Encoder) EndNestedInfo(info *payload.NestedInfo) error {
	p := e.nested.Pop()
	switch {
	case p == nil:
	case 0 < len(p.Links):
		e.emit(info.Name + "@odata.bind")
		if p.Bind() {
			e.emit(p.Links)
		} else {
			e.emit(p.Links[0])
		}
	case !p.Content:
		e.str(info.Name+"@odata.navigationLink", info.URL)
	}
	return e.err
}

func (e *Encoder) StartProperty(p *payload.PropertyInfo, t *model.TypeRef) error {
	e.prop = p.Name
	if p.TypeName != "" {
		e.str(p.Name+"@odata.type", "#"+p.TypeName)
	}
	return e.err
}

func (e *Encoder) WritePrimitive(v interface{}, t *model.TypeRef) error {
	e.emit(e.prop)
	return e.value(v, t)
}

// WriteStream writes the stream as an indefinite-length byte string,
// one chunk per read.
func (e *Encoder) WriteStream(r io.Reader) error {
	e.emit(e.prop)
	if e.err != nil {
		return e.err
	}
	if e.err = e.enc.StartIndefiniteByteString(); e.err != nil {
		return e.err
	}
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if 0 < n {
			e.emit(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	if e.err == nil {
		e.err = e.enc.EndIndefinite()
	}
	return e.err
}

func (e *Encoder) EndProperty(p *payload.PropertyInfo) error {
	e.prop = ""
	return e.err
}

func (e *Encoder) WriteEntityReferenceLink(link *payload.EntityReferenceLink) error {
	if !e.nested.Link(link.URL) {
		e.beginMap()
		e.str("@odata.id", link.URL)
		e.end()
	}
	return e.err
}

func (e *Encoder) WriteInStreamError(ie *payload.InStreamError) error {
	wrap := e.root() || e.stack[len(e.stack)-1].array
	if wrap {
		e.beginMap()
	}
	e.emit("error")
	e.beginMap()
	e.str("code", ie.Code)
	e.str("message", ie.Message)
	e.str("target", ie.Target)
	e.end()
	if wrap {
		e.end()
	}
	return e.err
}

// Flush flushes the transport.  Flushing a nested encoder does
// nothing.
func (e *Encoder) Flush() error {
	if e.err != nil || !e.top {
		return e.err
	}
	if e.debug {
		log.Printf("cborfmt flushing")
	}
	return e.t.Flush()
}

func (e *Encoder) FlushContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.err != nil || !e.top {
		return e.err
	}
	if e.debug {
		log.Printf("cborfmt flushing")
	}
	return e.t.FlushContext(ctx)
}

var (
	_ writer.ParameterEncoder  = (*Encoder)(nil)
	_ writer.CollectionEncoder = (*Encoder)(nil)
	_ writer.ResourceEncoder   = (*Encoder)(nil)
)
