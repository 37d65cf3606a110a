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
	"fmt"
	"strings"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
)

// Path is the writer call through which something is being written.
type Path int

const (
	ValuePath Path = iota
	CollectionPath
	ResourcePath
	ResourceSetPath
)

func (p Path) String() string {
	switch p {
	case ValuePath:
		return "a value"
	case CollectionPath:
		return "a collection"
	case ResourcePath:
		return "a resource"
	case ResourceSetPath:
		return "a resource set"
	}
	return "something"
}

// Allows reports whether a declared type can be written through p.
func (p Path) Allows(t *model.TypeRef) bool {
	switch p {
	case ValuePath:
		return t.IsScalar()
	case CollectionPath:
		return t.IsCollection() && t.Elem.IsScalar()
	case ResourcePath:
		return t.IsStructured()
	case ResourceSetPath:
		return t.IsCollection() && t.Elem.IsStructured()
	}
	return false
}

// Parameter finds the declared type of a parameter.  Without an
// operation there's nothing to find and nothing to complain about.
func Parameter(op *model.Operation, name string) (*model.TypeRef, error) {
	if op == nil {
		return nil, nil
	}
	p, have := op.Parameter(name)
	if !have {
		return nil, &core.SchemaError{
			Msg: "parameter '" + name + "' not found in operation '" + op.Name + "'",
		}
	}
	return p.Type, nil
}

// ParameterKind checks that a declared parameter is written through
// the right path.
func ParameterKind(op *model.Operation, name string, t *model.TypeRef, p Path) error {
	if t == nil || p.Allows(t) {
		return nil
	}
	return &core.SchemaError{
		Msg: "parameter '" + name + "' of operation '" + op.Name + "' has type " + t.FullName() +
			" of kind " + t.KindName() + " and cannot be written as " + p.String(),
	}
}

// describe names a value's type for messages.
func describe(v interface{}) string {
	if name, ok := payload.PrimitiveName(v); ok {
		return name
	}
	switch e := v.(type) {
	case payload.EnumValue:
		return "enum " + e.TypeName
	case *payload.EnumValue:
		return "enum " + e.TypeName
	}
	return fmt.Sprintf("%T", v)
}

// ScalarValue checks that v is something that can be written as a
// single value at all.
func ScalarValue(what, name string, v interface{}) error {
	if payload.IsStream(v) {
		return &core.SchemaError{
			Msg: "stream content cannot be written as the value of " + what + " '" + name + "'",
		}
	}
	if !payload.IsScalar(v) {
		return &core.SchemaError{
			Msg: "unsupported value type " + describe(v) + " for " + what + " '" + name + "'",
		}
	}
	return nil
}

func enumOf(v interface{}) (*payload.EnumValue, bool) {
	switch e := v.(type) {
	case payload.EnumValue:
		return &e, true
	case *payload.EnumValue:
		return e, e != nil
	case string:
		return &payload.EnumValue{Value: e}, true
	}
	return nil, false
}

func incompatible(what, name string, t *model.TypeRef, v interface{}) error {
	subject := what
	if name != "" {
		subject += " '" + name + "'"
	}
	return &core.SchemaError{
		Msg: "value of type " + describe(v) + " is not compatible with type " + t.FullName() + " of " + subject,
	}
}

// Value checks a scalar against its declared type: compatibility
// first, then nullability.  A nil type (nothing declared) accepts
// anything.
func Value(r model.Resolver, what, name string, t *model.TypeRef, v interface{}) error {
	if t == nil || t.Kind == model.UntypedKind {
		return nil
	}
	if v == nil {
		if !t.Nullable {
			subject := what
			if name != "" {
				subject += " '" + name + "'"
			}
			return &core.SchemaError{
				Msg: "null value for non-nullable " + subject + " of type " + t.FullName(),
			}
		}
		return nil
	}

	switch t.Kind {
	case model.PrimitiveKind:
		if t.IsStream() || !payload.Compatible(t.Name, v) {
			return incompatible(what, name, t, v)
		}
	case model.EnumKind:
		e, ok := enumOf(v)
		if !ok || (e.TypeName != "" && e.TypeName != t.Name) {
			return incompatible(what, name, t, v)
		}
		if r != nil {
			if et, have := r.EnumType(t.Name); have && !et.Has(e.Value) {
				return &core.SchemaError{
					Msg: "'" + e.Value + "' is not a member of enum type " + t.Name,
				}
			}
		}
	case model.TypeDefinitionKind:
		if r == nil {
			return nil
		}
		td, have := r.TypeDefinition(t.Name)
		if !have {
			return &core.SchemaError{Msg: "type definition " + t.Name + " not found in model"}
		}
		if !payload.Compatible(td.Underlying, v) {
			return incompatible(what, name, t, v)
		}
	default:
		return incompatible(what, name, t, v)
	}
	return nil
}

// CollectionItem checks one item of a collection against the
// declared item type.  Collections of collections and streams are
// always rejected.
func CollectionItem(r model.Resolver, item *model.TypeRef, v interface{}) error {
	switch v.(type) {
	case payload.CollectionValue, *payload.CollectionValue, []interface{}:
		return &core.SchemaError{Msg: "nested collections are not supported"}
	}
	if payload.IsStream(v) {
		return &core.SchemaError{Msg: "stream values are not allowed in collections"}
	}
	if !payload.IsScalar(v) {
		return &core.SchemaError{Msg: "unsupported collection item type " + describe(v)}
	}
	if v == nil && item != nil && !item.Nullable {
		return &core.SchemaError{
			Msg: "null item in collection of non-nullable " + item.FullName(),
		}
	}
	return Value(r, "collection item", "", item, v)
}

// CollectionType checks the type name carried by a collection value
// against the declared collection type.  An empty name means none was
// given, but a name that's only space, or "Collection()", is empty
// and rejected.
func CollectionType(declared *model.TypeRef, typeName string) error {
	if typeName == "" {
		return nil
	}
	elem := strings.TrimSpace(typeName)
	if strings.HasPrefix(elem, "Collection(") && strings.HasSuffix(elem, ")") {
		elem = strings.TrimSpace(elem[len("Collection(") : len(elem)-1])
	}
	if elem == "" {
		return &core.SchemaError{Msg: "type name must not be empty"}
	}
	if declared == nil {
		return nil
	}
	name := typeName
	if !strings.HasPrefix(name, "Collection(") {
		name = "Collection(" + name + ")"
	}
	if name != declared.FullName() {
		return &core.SchemaError{
			Msg: "collection type " + name + " is not compatible with declared type " + declared.FullName(),
		}
	}
	return nil
}
