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

// Package payload has the items a caller hands to a writer.
//
// Scalar values are plain Go values (see PrimitiveName) or EnumValue.
// Structural items (Resource, ResourceSet, NestedInfo, ...) only
// carry what's needed to emit their start; their content is written
// through subsequent writer calls.
package payload

// Resource is an entity or complex instance.
type Resource struct {
	// TypeName is the qualified type.  Empty means the expected
	// type.
	TypeName string `json:"type,omitempty" yaml:"type,omitempty"`

	ID       string `json:"id,omitempty" yaml:",omitempty"`
	EditLink string `json:"editLink,omitempty" yaml:"editLink,omitempty"`
	ETag     string `json:"etag,omitempty" yaml:",omitempty"`

	// Properties are written in order with the start of the
	// resource.  Values are scalars, *CollectionValue, or
	// *StreamReference.
	Properties []*Property `json:"properties,omitempty" yaml:",omitempty"`

	// MediaResource is required for media link entries.
	MediaResource *StreamReference `json:"mediaResource,omitempty" yaml:"mediaResource,omitempty"`

	Actions   []*OperationAdvert `json:"actions,omitempty" yaml:",omitempty"`
	Functions []*OperationAdvert `json:"functions,omitempty" yaml:",omitempty"`
}

// Property is a named value.
type Property struct {
	Name  string      `json:"name" yaml:"name"`
	Value interface{} `json:"value" yaml:"value"`
}

// CollectionValue is the value of a collection property.  Items are
// scalars.
type CollectionValue struct {
	TypeName string        `json:"type,omitempty" yaml:"type,omitempty"`
	Items    []interface{} `json:"items" yaml:"items"`
}

// EnumValue is a member (or flags) of a declared enumeration.
type EnumValue struct {
	TypeName string `json:"type,omitempty" yaml:"type,omitempty"`
	Value    string `json:"value" yaml:"value"`
}

// StreamReference describes a media resource or a stream property
// value without carrying the bytes.
type StreamReference struct {
	EditLink    string `json:"editLink,omitempty" yaml:"editLink,omitempty"`
	ReadLink    string `json:"readLink,omitempty" yaml:"readLink,omitempty"`
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	ETag        string `json:"etag,omitempty" yaml:",omitempty"`
}

// PropertyInfo starts a property whose value is written separately,
// either as a primitive or as a stream of bytes.
type PropertyInfo struct {
	Name     string `json:"name" yaml:"name"`
	TypeName string `json:"type,omitempty" yaml:"type,omitempty"`
}

// ResourceSet is a collection of resources.
type ResourceSet struct {
	// TypeName is the qualified item type, optionally wrapped as
	// "Collection(...)".
	TypeName string `json:"type,omitempty" yaml:"type,omitempty"`

	// NextPageLink is only allowed in responses.
	NextPageLink string `json:"nextLink,omitempty" yaml:"nextLink,omitempty"`

	Count *int64 `json:"count,omitempty" yaml:",omitempty"`
}

// NestedInfo starts a nested relationship (or a complex property)
// under a resource.
type NestedInfo struct {
	Name string `json:"name" yaml:"name"`

	// IsCollection is the advertised cardinality.  Nil means
	// unspecified, which is only acceptable when the model
	// declares the relationship.
	IsCollection *bool `json:"isCollection,omitempty" yaml:"isCollection,omitempty"`

	URL string `json:"url,omitempty" yaml:",omitempty"`
}

// OperationAdvert advertises an action or a function on a resource.
type OperationAdvert struct {
	Metadata string `json:"metadata" yaml:"metadata"`
	Title    string `json:"title,omitempty" yaml:",omitempty"`
	Target   string `json:"target,omitempty" yaml:",omitempty"`
}

// EntityReferenceLink refers to an existing entity by URL.
type EntityReferenceLink struct {
	URL string `json:"url" yaml:"url"`
}

// CollectionStart starts a collection of scalars.
type CollectionStart struct {
	Name string `json:"name,omitempty" yaml:",omitempty"`
}

// InStreamError is error content written in the middle of a
// response.
type InStreamError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Target  string `json:"target,omitempty" yaml:",omitempty"`
}

func (e *InStreamError) Error() string {
	return e.Code + ": " + e.Message
}

// Bool returns a pointer to b.  Handy for NestedInfo.IsCollection.
func Bool(b bool) *bool {
	return &b
}
