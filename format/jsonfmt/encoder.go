// Package jsonfmt writes payloads as OData-style JSON.
//
// One Encoder serves all three writers.  Nested encoders made for a
// parameter share their parent's document, and only the encoder
// made by New flushes the transport.
//
// Top-level collections and resource sets are wrapped as
// {"value":[...]}.  Entity reference links are written as
// "Name@odata.bind", and a nested resource info with no content
// becomes "Name@odata.navigationLink" when it has a URL.
package jsonfmt

import (
	"context"
	"encoding/base64"
	"io"
	"log"

	jsoniter "github.com/json-iterator/go"

	"github.com/Comcast/quill/format"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/transport"
	"github.com/Comcast/quill/writer"
)

// ContentType is the media type of what an Encoder writes.
const ContentType = "application/json;odata.metadata=minimal"

// Options tune an Encoder.
type Options struct {
	// ContextURL, if not empty, is written as "@odata.context" on
	// the top-level object.
	ContextURL string

	// IEEE754Compatible writes Edm.Int64 and Edm.Decimal values
	// as strings.
	IEEE754Compatible bool

	Debug bool
}

// container is an open JSON object or array.
type container struct {
	array bool
	n     int

	// wrapped arrays are the "value" of an object that closes
	// with them.
	wrapped bool

	// name prefixes annotations written after the array closes.
	name string
}

type doc struct {
	s       *jsoniter.Stream
	t       transport.Transport
	stack   []container
	nested  format.Nesting
	prop    string
	context string
	ieee754 bool
	debug   bool
}

// Encoder writes JSON to a transport.Transport.
type Encoder struct {
	*doc
	top bool
}

// New makes an Encoder that writes to t.
func New(t transport.Transport, opts Options) *Encoder {
	return &Encoder{
		doc: &doc{
			s:       jsoniter.NewStream(jsoniter.ConfigDefault, t, 512),
			t:       t,
			stack:   make([]container, 0, 16),
			context: opts.ContextURL,
			ieee754: opts.IEEE754Compatible,
			debug:   opts.Debug,
		},
		top: true,
	}
}

func (d *doc) logf(format string, args ...interface{}) {
	if d.debug {
		log.Printf("jsonfmt "+format, args...)
	}
}

func (d *doc) root() bool {
	return len(d.stack) == 0
}

func (d *doc) current() *container {
	if n := len(d.stack); 0 < n {
		return &d.stack[n-1]
	}
	return nil
}

// prep separates array elements.
func (d *doc) prep() {
	if c := d.current(); c != nil && c.array {
		if 0 < c.n {
			d.s.WriteMore()
		}
		c.n++
	}
}

func (d *doc) key(name string) {
	if c := d.current(); c != nil {
		if 0 < c.n {
			d.s.WriteMore()
		}
		c.n++
	}
	d.s.WriteObjectField(name)
}

func (d *doc) str(name, v string) {
	if v != "" {
		d.key(name)
		d.s.WriteString(v)
	}
}

func (d *doc) beginObject() {
	d.prep()
	d.s.WriteObjectStart()
	d.stack = append(d.stack, container{})
}

func (d *doc) beginArray(wrapped bool, name string) {
	d.prep()
	d.s.WriteArrayStart()
	d.stack = append(d.stack, container{array: true, wrapped: wrapped, name: name})
}

func (d *doc) end() container {
	c := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	if c.array {
		d.s.WriteArrayEnd()
	} else {
		d.s.WriteObjectEnd()
	}
	return c
}

// wrap starts a top-level {"value":[ ... ]}.
func (d *doc) wrap(count *int64) {
	d.beginObject()
	d.str("@odata.context", d.context)
	if count != nil {
		d.key("@odata.count")
		d.s.WriteInt64(*count)
	}
	d.key("value")
	d.beginArray(true, "")
}

// content notes that the innermost nested resource info, if it's
// waiting at this level, is getting a resource or a resource set.
// It returns the name of that nested resource info or "".
func (d *doc) content(set *payload.ResourceSet) string {
	p := d.nested.Claim(len(d.stack))
	if p == nil {
		return ""
	}
	if set != nil && set.Count != nil {
		d.key(p.Info.Name + "@odata.count")
		d.s.WriteInt64(*set.Count)
	}
	d.key(p.Info.Name)
	return p.Info.Name
}

func (d *doc) stream(name string, r *payload.StreamReference) {
	d.str(name+"@odata.mediaEditLink", r.EditLink)
	d.str(name+"@odata.mediaReadLink", r.ReadLink)
	d.str(name+"@odata.mediaContentType", r.ContentType)
	d.str(name+"@odata.mediaEtag", r.ETag)
}

func (d *doc) adverts(as []*payload.OperationAdvert) {
	for _, a := range as {
		d.key("#" + a.Metadata)
		d.beginObject()
		d.str("title", a.Title)
		d.str("target", a.Target)
		d.end()
	}
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
		return nil
	case *payload.CollectionValue:
		if v.TypeName != "" {
			d.str(p.Name+"@odata.type", "#"+v.TypeName)
		}
		d.key(p.Name)
		d.beginArray(false, "")
		for _, x := range v.Items {
			if err := d.value(x, nil); err != nil {
				return err
			}
		}
		d.end()
		return nil
	}
	d.key(p.Name)
	return d.value(p.Value, nil)
}

func (e *Encoder) child(name string) *Encoder {
	e.key(name)
	return &Encoder{doc: e.doc}
}

// Parameter payloads

func (e *Encoder) StartPayload() error {
	e.beginObject()
	return nil
}

func (e *Encoder) EndPayload() error {
	e.end()
	return nil
}

func (e *Encoder) WriteValue(name string, v interface{}, t *model.TypeRef) error {
	e.key(name)
	return e.value(v, t)
}

func (e *Encoder) NewCollectionEncoder(name string, item *model.TypeRef) (writer.CollectionEncoder, error) {
	return e.child(name), nil
}

func (e *Encoder) NewResourceEncoder(name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	return e.child(name), nil
}

func (e *Encoder) NewResourceSetEncoder(name string, t *model.TypeRef) (writer.ResourceEncoder, error) {
	return e.child(name), nil
}

// Collections

func (e *Encoder) StartCollection(start *payload.CollectionStart, item *model.TypeRef) error {
	if e.root() {
		e.wrap(nil)
	} else {
		e.beginArray(false, "")
	}
	return nil
}

func (e *Encoder) WriteItem(v interface{}, item *model.TypeRef) error {
	return e.value(v, item)
}

func (e *Encoder) EndCollection() error {
	if c := e.end(); c.wrapped {
		e.end()
	}
	return nil
}

// Resources

// StartResource writes null for a nil resource.
func (e *Encoder) StartResource(r *payload.Resource, t *model.StructuredType) error {
	root := e.root()
	e.content(nil)
	if r == nil {
		e.prep()
		e.s.WriteNil()
		return e.s.Error
	}
	e.beginObject()
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
	e.adverts(r.Actions)
	e.adverts(r.Functions)
	for _, p := range r.Properties {
		if err := e.property(p); err != nil {
			return err
		}
	}
	return e.s.Error
}

func (e *Encoder) EndResource(r *payload.Resource) error {
	if r != nil {
		e.end()
	}
	return nil
}

func (e *Encoder) StartResourceSet(set *payload.ResourceSet, item *model.StructuredType) error {
	if e.root() {
		e.wrap(set.Count)
		return nil
	}
	e.beginArray(false, e.content(set))
	return nil
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
	return nil
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
		e.key(info.Name + "@odata.bind")
		if !p.Bind() {
			e.s.WriteString(p.Links[0])
			break
		}
		e.beginArray(false, "")
		for _, l := range p.Links {
			e.prep()
			e.s.WriteString(l)
		}
		e.end()
	case !p.Content:
		e.str(info.Name+"@odata.navigationLink", info.URL)
	}
	return nil
}

func (e *Encoder) StartProperty(p *payload.PropertyInfo, t *model.TypeRef) error {
	e.prop = p.Name
	if p.TypeName != "" {
		e.str(p.Name+"@odata.type", "#"+p.TypeName)
	}
	return nil
}

func (e *Encoder) WritePrimitive(v interface{}, t *model.TypeRef) error {
	e.key(e.prop)
	return e.value(v, t)
}

// WriteStream writes the stream's bytes as a base64url string.
func (e *Encoder) WriteStream(r io.Reader) error {
	bs, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	e.key(e.prop)
	e.s.WriteString(base64.URLEncoding.EncodeToString(bs))
	return nil
}

func (e *Encoder) EndProperty(p *payload.PropertyInfo) error {
	e.prop = ""
	return nil
}

func (e *Encoder) WriteEntityReferenceLink(link *payload.EntityReferenceLink) error {
	if !e.nested.Link(link.URL) {
		e.beginObject()
		e.str("@odata.id", link.URL)
		e.end()
	}
	return nil
}

// WriteInStreamError writes {"error":{...}} in place, or just
// "error":{...} inside an object.
func (e *Encoder) WriteInStreamError(ie *payload.InStreamError) error {
	wrap := true
	if c := e.current(); c != nil && !c.array {
		wrap = false
	}
	if wrap {
		e.beginObject()
	}
	e.key("error")
	e.beginObject()
	e.str("code", ie.Code)
	e.str("message", ie.Message)
	e.str("target", ie.Target)
	e.end()
	if wrap {
		e.end()
	}
	return nil
}

// Flush hands what has been written to the transport and flushes
// it.  Flushing a nested encoder does nothing.
func (e *Encoder) Flush() error {
	if !e.top {
		return nil
	}
	if err := e.s.Flush(); err != nil {
		return err
	}
	e.logf("flushing")
	return e.t.Flush()
}

func (e *Encoder) FlushContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.top {
		return nil
	}
	if err := e.s.Flush(); err != nil {
		return err
	}
	e.logf("flushing")
	return e.t.FlushContext(ctx)
}

var (
	_ writer.ParameterEncoder  = (*Encoder)(nil)
	_ writer.CollectionEncoder = (*Encoder)(nil)
	_ writer.ResourceEncoder   = (*Encoder)(nil)
)
