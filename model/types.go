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

package model

import "strings"

// TypeKind classifies a TypeRef.
type TypeKind string

const (
	PrimitiveKind      TypeKind = "primitive"
	EnumKind           TypeKind = "enum"
	TypeDefinitionKind TypeKind = "typedef"
	ComplexKind        TypeKind = "complex"
	EntityKind         TypeKind = "entity"
	CollectionKind     TypeKind = "collection"
	UntypedKind        TypeKind = "untyped"
)

// Primitive type names.
const (
	Binary         = "Edm.Binary"
	Boolean        = "Edm.Boolean"
	Byte           = "Edm.Byte"
	SByte          = "Edm.SByte"
	Int16          = "Edm.Int16"
	Int32          = "Edm.Int32"
	Int64          = "Edm.Int64"
	Single         = "Edm.Single"
	Double         = "Edm.Double"
	Decimal        = "Edm.Decimal"
	String         = "Edm.String"
	Guid           = "Edm.Guid"
	Date           = "Edm.Date"
	TimeOfDay      = "Edm.TimeOfDay"
	DateTimeOffset = "Edm.DateTimeOffset"
	Duration       = "Edm.Duration"
	Stream         = "Edm.Stream"
	Untyped        = "Edm.Untyped"
)

var primitives = map[string]bool{
	Binary: true, Boolean: true, Byte: true, SByte: true,
	Int16: true, Int32: true, Int64: true,
	Single: true, Double: true, Decimal: true,
	String: true, Guid: true, Date: true, TimeOfDay: true,
	DateTimeOffset: true, Duration: true, Stream: true,
}

// IsPrimitiveName reports whether name is a built-in primitive type.
func IsPrimitiveName(name string) bool {
	return primitives[name]
}

// TypeRef is a reference to a declared type together with its
// nullability.
type TypeRef struct {
	Kind     TypeKind
	Name     string
	Nullable bool

	// Elem is the item type of a collection.
	Elem *TypeRef
}

// Primitive makes a TypeRef for a built-in primitive type.
func Primitive(name string, nullable bool) *TypeRef {
	return &TypeRef{Kind: PrimitiveKind, Name: name, Nullable: nullable}
}

// CollectionOf makes a collection TypeRef.  Collections themselves
// are never nullable.
func CollectionOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: CollectionKind, Elem: elem}
}

// FullName renders the reference the way it's written in a model
// document, e.g. "Collection(Edm.String)".
func (t *TypeRef) FullName() string {
	if t == nil {
		return ""
	}
	if t.Kind == CollectionKind {
		return "Collection(" + t.Elem.FullName() + ")"
	}
	return t.Name
}

func (t *TypeRef) String() string {
	return t.FullName()
}

// IsCollection reports whether t is a collection.
func (t *TypeRef) IsCollection() bool {
	return t != nil && t.Kind == CollectionKind
}

// IsStructured reports whether t is a complex or entity type.
func (t *TypeRef) IsStructured() bool {
	return t != nil && (t.Kind == ComplexKind || t.Kind == EntityKind)
}

// IsScalar reports whether t is written as a single value:
// primitive, enum, type definition, or untyped.
func (t *TypeRef) IsScalar() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case PrimitiveKind, EnumKind, TypeDefinitionKind, UntypedKind:
		return true
	}
	return false
}

// IsStream reports whether t is the stream primitive.
func (t *TypeRef) IsStream() bool {
	return t != nil && t.Kind == PrimitiveKind && t.Name == Stream
}

// KindName is a human description of t's kind for messages.
func (t *TypeRef) KindName() string {
	if t == nil {
		return "none"
	}
	return string(t.Kind)
}

// collectionElem returns the item name of "Collection(x)" or "".
func collectionElem(name string) string {
	const prefix = "Collection("
	if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ")") {
		return name[len(prefix) : len(name)-1]
	}
	return ""
}
