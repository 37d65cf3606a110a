package goja

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/Comcast/quill/payload"
)

func absent(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// object returns v as an object, or nil if it's absent.
func (s *session) object(v goja.Value, what string) (*goja.Object, error) {
	if absent(v) {
		return nil, nil
	}
	if _, is := v.Export().(map[string]interface{}); !is {
		return nil, fmt.Errorf("%s must be an object, not %T", what, v.Export())
	}
	return v.ToObject(s.o), nil
}

func str(o *goja.Object, key string) string {
	if v := o.Get(key); !absent(v) {
		return v.String()
	}
	return ""
}

// scalar converts a script value into a value a writer accepts.
//
// {enum: "Red", type: "Shop.Color"} is an enum member.  Anything
// with a readLink, editLink, or contentType is a stream reference.
// Arrays are collection values.
func (s *session) scalar(v goja.Value) (interface{}, error) {
	if absent(v) {
		return nil, nil
	}
	switch x := v.Export().(type) {
	case map[string]interface{}:
		o := v.ToObject(s.o)
		if _, have := x["enum"]; have {
			return &payload.EnumValue{TypeName: str(o, "type"), Value: str(o, "enum")}, nil
		}
		for _, k := range []string{"readLink", "editLink", "contentType"} {
			if _, have := x[k]; have {
				return stream(o), nil
			}
		}
		return nil, fmt.Errorf("unsupported object value with keys %v", o.Keys())
	case []interface{}:
		cv := &payload.CollectionValue{Items: make([]interface{}, 0, len(x))}
		o := v.ToObject(s.o)
		for i := range x {
			item, err := s.scalar(o.Get(fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			cv.Items = append(cv.Items, item)
		}
		return cv, nil
	default:
		return x, nil
	}
}

func stream(o *goja.Object) *payload.StreamReference {
	return &payload.StreamReference{
		EditLink:    str(o, "editLink"),
		ReadLink:    str(o, "readLink"),
		ContentType: str(o, "contentType"),
		ETag:        str(o, "etag"),
	}
}

func (s *session) adverts(v goja.Value) ([]*payload.OperationAdvert, error) {
	if absent(v) {
		return nil, nil
	}
	xs, is := v.Export().([]interface{})
	if !is {
		return nil, fmt.Errorf("operations must be an array, not %T", v.Export())
	}
	o := v.ToObject(s.o)
	acc := make([]*payload.OperationAdvert, 0, len(xs))
	for i := range xs {
		a, err := s.object(o.Get(fmt.Sprint(i)), "operation")
		if err != nil {
			return nil, err
		}
		if a == nil {
			continue
		}
		acc = append(acc, &payload.OperationAdvert{
			Metadata: str(a, "metadata"),
			Title:    str(a, "title"),
			Target:   str(a, "target"),
		})
	}
	return acc, nil
}

// resource converts {type, id, etag, editLink, media, actions,
// functions, properties}.  Properties keep the script's order.
func (s *session) toResource(v goja.Value) (*payload.Resource, error) {
	o, err := s.object(v, "resource")
	if err != nil || o == nil {
		return nil, err
	}
	r := &payload.Resource{
		TypeName: str(o, "type"),
		ID:       str(o, "id"),
		ETag:     str(o, "etag"),
		EditLink: str(o, "editLink"),
	}
	if m, err := s.object(o.Get("media"), "media"); err != nil {
		return nil, err
	} else if m != nil {
		r.MediaResource = stream(m)
	}
	if r.Actions, err = s.adverts(o.Get("actions")); err != nil {
		return nil, err
	}
	if r.Functions, err = s.adverts(o.Get("functions")); err != nil {
		return nil, err
	}
	ps, err := s.object(o.Get("properties"), "properties")
	if err != nil {
		return nil, err
	}
	if ps != nil {
		for _, k := range ps.Keys() {
			x, err := s.scalar(ps.Get(k))
			if err != nil {
				return nil, fmt.Errorf("property '%s': %w", k, err)
			}
			r.Properties = append(r.Properties, &payload.Property{Name: k, Value: x})
		}
	}
	return r, nil
}

func (s *session) toResourceSet(v goja.Value) (*payload.ResourceSet, error) {
	o, err := s.object(v, "resource set")
	if err != nil || o == nil {
		return nil, err
	}
	set := &payload.ResourceSet{
		TypeName:     str(o, "type"),
		NextPageLink: str(o, "nextLink"),
	}
	if c := o.Get("count"); !absent(c) {
		n := c.ToInteger()
		set.Count = &n
	}
	return set, nil
}

// nestedInfo converts {name, collection, url}.
func (s *session) toNestedInfo(v goja.Value) (*payload.NestedInfo, error) {
	o, err := s.object(v, "nested resource info")
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}
	info := &payload.NestedInfo{
		Name: str(o, "name"),
		URL:  str(o, "url"),
	}
	if c := o.Get("collection"); !absent(c) {
		info.IsCollection = payload.Bool(c.ToBoolean())
	}
	return info, nil
}

func (s *session) toInStreamError(v goja.Value) (*payload.InStreamError, error) {
	o, err := s.object(v, "error")
	if err != nil || o == nil {
		return nil, err
	}
	return &payload.InStreamError{
		Code:    str(o, "code"),
		Message: str(o, "message"),
		Target:  str(o, "target"),
	}, nil
}
