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

package validate

import (
	"net/url"
	"strings"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
)

// BaseURI requires an empty or absolute URI.
func BaseURI(uri string) error {
	if uri == "" {
		return nil
	}
	u, err := url.Parse(uri)
	if err != nil || !u.IsAbs() {
		return &core.ConfigError{Msg: "base URI '" + uri + "' must be absolute"}
	}
	return nil
}

// ResourceType resolves the type of a resource (or the item type of a
// resource set) and checks it against the expected type.
//
// An empty name means the expected type.  Without a resolver nothing
// can be checked, and the result is the expected type.
func ResourceType(r model.Resolver, name string, expected *model.StructuredType) (*model.StructuredType, error) {
	if name == "" || r == nil {
		return expected, nil
	}
	t, have := r.StructuredType(name)
	if !have {
		return nil, &core.SchemaError{Msg: "type '" + name + "' not found in model"}
	}
	if expected != nil && !t.DerivesFrom(expected) {
		return nil, &core.SchemaError{
			Msg: "type '" + t.Name + "' is not compatible with expected type '" + expected.Name + "'",
		}
	}
	return t, nil
}

// SetItemType strips "Collection(...)" from a resource set's type
// name.
func SetItemType(name string) string {
	const prefix = "Collection("
	if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ")") {
		return name[len(prefix) : len(name)-1]
	}
	return name
}

// DerivedType enforces a derived type constraint: when the
// constraint is non-empty, a value whose type isn't the declared
// type itself must be one of the listed types.
func DerivedType(constraint []string, actual, declared *model.StructuredType, what string) error {
	if len(constraint) == 0 || actual == nil || declared == nil || actual.Name == declared.Name {
		return nil
	}
	for _, name := range constraint {
		if name == actual.Name {
			return nil
		}
	}
	return &core.SchemaError{
		Msg: "type '" + actual.Name + "' of " + what + " is not allowed by the derived type constraint; expected one of " +
			quoteList(constraint),
	}
}

// MediaResource checks that a media link entry carries a media
// resource and that nothing else does.
func MediaResource(t *model.StructuredType, res *payload.Resource) error {
	if t == nil {
		return nil
	}
	mle := t.IsMediaLinkEntry()
	switch {
	case mle && res.MediaResource == nil:
		return &core.ShapeError{
			Msg: "type '" + t.Name + "' is a media link entry but no media resource was given",
		}
	case !mle && res.MediaResource != nil:
		return &core.ShapeError{
			Msg: "type '" + t.Name + "' is not a media link entry but a media resource was given",
		}
	}
	return nil
}

// Operations rejects advertised actions and functions in requests and
// requires their metadata.
func Operations(request bool, res *payload.Resource) error {
	n := len(res.Actions) + len(res.Functions)
	if n == 0 {
		return nil
	}
	if request {
		return &core.ShapeError{Msg: "actions and functions can only be advertised in responses"}
	}
	for _, ops := range [][]*payload.OperationAdvert{res.Actions, res.Functions} {
		for _, op := range ops {
			if op == nil || op.Metadata == "" {
				return &core.ShapeError{Msg: "advertised operation must have metadata"}
			}
		}
	}
	return nil
}

// NextPageLink rejects a next page link in a request.
func NextPageLink(request bool, set *payload.ResourceSet) error {
	if request && set.NextPageLink != "" {
		return &core.ShapeError{Msg: "a next page link can only be written in a response"}
	}
	return nil
}

// NestedCardinality checks the advertised cardinality of a nested
// resource info against the declared one (nil when undeclared).
func NestedCardinality(info *payload.NestedInfo, declared *bool) error {
	if info.IsCollection == nil || declared == nil || *info.IsCollection == *declared {
		return nil
	}
	if *info.IsCollection {
		return &core.ShapeError{
			Msg: "nested resource info '" + info.Name + "' is a collection but the declared property is singular",
		}
	}
	return &core.ShapeError{
		Msg: "nested resource info '" + info.Name + "' is singular but the declared property is a collection",
	}
}

// NestedContent checks the content about to be written under a nested
// resource info (a resource set when set is true) against its
// cardinality.  The advertised cardinality wins over the declared
// one.  Neither being known is itself an error.
func NestedContent(info *payload.NestedInfo, declared *bool, set bool) error {
	isColl := info.IsCollection
	if isColl == nil {
		isColl = declared
	}
	if isColl == nil {
		return &core.ShapeError{
			Msg: "nested resource info '" + info.Name + "' must specify IsCollection before content is written",
		}
	}
	switch {
	case *isColl && !set:
		return &core.ShapeError{
			Msg: "nested resource info '" + info.Name + "' is a collection but a resource was written",
		}
	case !*isColl && set:
		return &core.ShapeError{
			Msg: "nested resource info '" + info.Name + "' is singular but a resource set was written",
		}
	}
	return nil
}

// DeferredLink rejects a nested resource info without content in a
// request.
func DeferredLink(request bool, info *payload.NestedInfo) error {
	if request {
		return &core.ShapeError{
			Msg: "nested resource info '" + info.Name + "' has no content; deferred links are only allowed in responses",
		}
	}
	return nil
}

// EntityReferenceLink checks a link written inside a nested resource
// info.
func EntityReferenceLink(request bool, link *payload.EntityReferenceLink) error {
	if link == nil || link.URL == "" {
		return &core.SchemaError{Msg: "entity reference link URL must not be empty"}
	}
	if !request {
		return &core.ShapeError{Msg: "entity reference links in nested resource info are only allowed in requests"}
	}
	return nil
}

// InStreamError rejects error content in requests.
func InStreamError(request bool) error {
	if request {
		return &core.ShapeError{Msg: "in-stream errors can only be written in responses"}
	}
	return nil
}

// StreamProperty checks that a property can be written as a stream.
func StreamProperty(request bool, name string, declared *model.TypeRef) error {
	if request {
		return &core.ShapeError{Msg: "stream property '" + name + "' is not allowed in a request"}
	}
	if declared != nil && !declared.IsStream() {
		return &core.SchemaError{
			Msg: "property '" + name + "' of type " + declared.FullName() + " cannot be written as a stream",
		}
	}
	return nil
}

// DeclaredProperty finds a property's declared type.  Undeclared
// properties are fine on open types (and when there's no type);
// otherwise they're a SchemaError.
func DeclaredProperty(owner *model.StructuredType, name string) (*model.Property, error) {
	if owner == nil {
		return nil, nil
	}
	if p, have := owner.Property(name); have {
		return p, nil
	}
	if owner.Open {
		return nil, nil
	}
	return nil, &core.SchemaError{
		Msg: "property '" + name + "' does not exist on type '" + owner.Name + "'",
	}
}

// PropertyValue checks a property written with the start of a
// resource: nullability, then shape (collection, stream, scalar),
// then the value itself.
func PropertyValue(r model.Resolver, request bool, decl *model.Property, p *payload.Property) error {
	var t *model.TypeRef
	if decl != nil {
		t = decl.Type
	}

	if p.Value == nil {
		switch {
		case t.IsCollection():
			return &core.SchemaError{Msg: "collection property '" + p.Name + "' cannot be null"}
		case t.IsStream():
			return &core.SchemaError{Msg: "stream property '" + p.Name + "' cannot be null"}
		}
		return Value(r, "property", p.Name, t, nil)
	}

	switch v := p.Value.(type) {
	case payload.StreamReference, *payload.StreamReference:
		return StreamProperty(request, p.Name, t)
	case payload.CollectionValue:
		return collectionProperty(r, p.Name, t, &v)
	case *payload.CollectionValue:
		return collectionProperty(r, p.Name, t, v)
	}

	switch {
	case t.IsCollection():
		return &core.SchemaError{
			Msg: "non-collection value for collection property '" + p.Name + "' of type " + t.FullName(),
		}
	case t.IsStream():
		return &core.SchemaError{
			Msg: "stream property '" + p.Name + "' must be written as a stream reference",
		}
	case t.IsStructured():
		return &core.SchemaError{
			Msg: "structured property '" + p.Name + "' must be written as nested resource info",
		}
	}
	if err := ScalarValue("property", p.Name, p.Value); err != nil {
		return err
	}
	return Value(r, "property", p.Name, t, p.Value)
}

func collectionProperty(r model.Resolver, name string, t *model.TypeRef, v *payload.CollectionValue) error {
	if t != nil && !t.IsCollection() {
		return &core.SchemaError{
			Msg: "collection value for non-collection property '" + name + "' of type " + t.FullName(),
		}
	}
	if err := CollectionType(t, v.TypeName); err != nil {
		return err
	}
	if t == nil && r != nil && v.TypeName == "" {
		return &core.SchemaError{
			Msg: "collection property '" + name + "' is not declared, so its value needs a type name",
		}
	}
	var item *model.TypeRef
	if t != nil {
		item = t.Elem
	}
	for _, x := range v.Items {
		if err := CollectionItem(r, item, x); err != nil {
			return err
		}
	}
	return nil
}
