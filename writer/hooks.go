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

package writer

import (
	"context"
	"io"

	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
)

// ParameterHooks are the blocking emission hooks of a parameter
// payload encoder.
type ParameterHooks interface {
	StartPayload() error
	EndPayload() error

	// WriteValue emits a named scalar.  The declared type is nil
	// when the writer has no operation.
	WriteValue(name string, v interface{}, t *model.TypeRef) error

	NewCollectionEncoder(name string, item *model.TypeRef) (CollectionEncoder, error)
	NewResourceEncoder(name string, t *model.TypeRef) (ResourceEncoder, error)
	NewResourceSetEncoder(name string, t *model.TypeRef) (ResourceEncoder, error)

	Flush() error
}

// ParameterHooksContext are the ParameterHooks for asynchronous
// writers.
type ParameterHooksContext interface {
	StartPayloadContext(ctx context.Context) error
	EndPayloadContext(ctx context.Context) error
	WriteValueContext(ctx context.Context, name string, v interface{}, t *model.TypeRef) error
	NewCollectionEncoderContext(ctx context.Context, name string, item *model.TypeRef) (CollectionEncoder, error)
	NewResourceEncoderContext(ctx context.Context, name string, t *model.TypeRef) (ResourceEncoder, error)
	NewResourceSetEncoderContext(ctx context.Context, name string, t *model.TypeRef) (ResourceEncoder, error)
	FlushContext(ctx context.Context) error
}

// ParameterEncoder is what a ParameterWriter needs.
type ParameterEncoder interface {
	ParameterHooks
	ParameterHooksContext
}

// CollectionHooks are the blocking emission hooks of a collection
// encoder.
type CollectionHooks interface {
	StartCollection(start *payload.CollectionStart, item *model.TypeRef) error
	WriteItem(v interface{}, item *model.TypeRef) error
	EndCollection() error
	Flush() error
}

// CollectionHooksContext are the CollectionHooks for asynchronous
// writers.
type CollectionHooksContext interface {
	StartCollectionContext(ctx context.Context, start *payload.CollectionStart, item *model.TypeRef) error
	WriteItemContext(ctx context.Context, v interface{}, item *model.TypeRef) error
	EndCollectionContext(ctx context.Context) error
	FlushContext(ctx context.Context) error
}

// CollectionEncoder is what a CollectionWriter needs.
type CollectionEncoder interface {
	CollectionHooks
	CollectionHooksContext
}

// ResourceHooks are the blocking emission hooks of a resource
// encoder.
type ResourceHooks interface {
	// StartResource emits the start of a resource together with
	// its properties.  The type is nil when nothing is known.
	StartResource(r *payload.Resource, t *model.StructuredType) error
	EndResource(r *payload.Resource) error

	StartResourceSet(set *payload.ResourceSet, item *model.StructuredType) error
	EndResourceSet(set *payload.ResourceSet) error

	StartNestedInfo(info *payload.NestedInfo) error
	EndNestedInfo(info *payload.NestedInfo) error

	StartProperty(p *payload.PropertyInfo, t *model.TypeRef) error
	WritePrimitive(v interface{}, t *model.TypeRef) error
	WriteStream(r io.Reader) error
	EndProperty(p *payload.PropertyInfo) error

	WriteEntityReferenceLink(link *payload.EntityReferenceLink) error
	WriteInStreamError(e *payload.InStreamError) error

	Flush() error
}

// ResourceHooksContext are the ResourceHooks for asynchronous
// writers.
type ResourceHooksContext interface {
	StartResourceContext(ctx context.Context, r *payload.Resource, t *model.StructuredType) error
	EndResourceContext(ctx context.Context, r *payload.Resource) error
	StartResourceSetContext(ctx context.Context, set *payload.ResourceSet, item *model.StructuredType) error
	EndResourceSetContext(ctx context.Context, set *payload.ResourceSet) error
	StartNestedInfoContext(ctx context.Context, info *payload.NestedInfo) error
	EndNestedInfoContext(ctx context.Context, info *payload.NestedInfo) error
	StartPropertyContext(ctx context.Context, p *payload.PropertyInfo, t *model.TypeRef) error
	WritePrimitiveContext(ctx context.Context, v interface{}, t *model.TypeRef) error
	WriteStreamContext(ctx context.Context, r io.Reader) error
	EndPropertyContext(ctx context.Context, p *payload.PropertyInfo) error
	WriteEntityReferenceLinkContext(ctx context.Context, link *payload.EntityReferenceLink) error
	WriteInStreamErrorContext(ctx context.Context, e *payload.InStreamError) error
	FlushContext(ctx context.Context) error
}

// ResourceEncoder is what a ResourceWriter needs.
type ResourceEncoder interface {
	ResourceHooks
	ResourceHooksContext
}

// The async* adapters bind a context to an encoder so that one
// implementation of each operation serves both modes.

type asyncParameter struct {
	ctx context.Context
	enc ParameterEncoder
}

func (a asyncParameter) StartPayload() error {
	return a.enc.StartPayloadContext(a.ctx)
}

func (a asyncParameter) EndPayload() error {
	return a.enc.EndPayloadContext(a.ctx)
}

func (a asyncParameter) WriteValue(name string, v interface{}, t *model.TypeRef) error {
	return a.enc.WriteValueContext(a.ctx, name, v, t)
}

func (a asyncParameter) NewCollectionEncoder(name string, item *model.TypeRef) (CollectionEncoder, error) {
	return a.enc.NewCollectionEncoderContext(a.ctx, name, item)
}

func (a asyncParameter) NewResourceEncoder(name string, t *model.TypeRef) (ResourceEncoder, error) {
	return a.enc.NewResourceEncoderContext(a.ctx, name, t)
}

func (a asyncParameter) NewResourceSetEncoder(name string, t *model.TypeRef) (ResourceEncoder, error) {
	return a.enc.NewResourceSetEncoderContext(a.ctx, name, t)
}

func (a asyncParameter) Flush() error {
	return a.enc.FlushContext(a.ctx)
}

type asyncCollection struct {
	ctx context.Context
	enc CollectionEncoder
}

func (a asyncCollection) StartCollection(start *payload.CollectionStart, item *model.TypeRef) error {
	return a.enc.StartCollectionContext(a.ctx, start, item)
}

func (a asyncCollection) WriteItem(v interface{}, item *model.TypeRef) error {
	return a.enc.WriteItemContext(a.ctx, v, item)
}

func (a asyncCollection) EndCollection() error {
	return a.enc.EndCollectionContext(a.ctx)
}

func (a asyncCollection) Flush() error {
	return a.enc.FlushContext(a.ctx)
}

type asyncResource struct {
	ctx context.Context
	enc ResourceEncoder
}

func (a asyncResource) StartResource(r *payload.Resource, t *model.StructuredType) error {
	return a.enc.StartResourceContext(a.ctx, r, t)
}

func (a asyncResource) EndResource(r *payload.Resource) error {
	return a.enc.EndResourceContext(a.ctx, r)
}

func (a asyncResource) StartResourceSet(set *payload.ResourceSet, item *model.StructuredType) error {
	return a.enc.StartResourceSetContext(a.ctx, set, item)
}

func (a asyncResource) EndResourceSet(set *payload.ResourceSet) error {
	return a.enc.EndResourceSetContext(a.ctx, set)
}

func (a asyncResource) StartNestedInfo(info *payload.NestedInfo) error {
	return a.enc.StartNestedInfoContext(a.ctx, info)
}

func (a asyncResource) EndNestedInfo(info *payload.NestedInfo) error {
	return a.enc.EndNestedInfoContext(a.ctx, info)
}

func (a asyncResource) StartProperty(p *payload.PropertyInfo, t *model.TypeRef) error {
	return a.enc.StartPropertyContext(a.ctx, p, t)
}

func (a asyncResource) WritePrimitive(v interface{}, t *model.TypeRef) error {
	return a.enc.WritePrimitiveContext(a.ctx, v, t)
}

func (a asyncResource) WriteStream(r io.Reader) error {
	return a.enc.WriteStreamContext(a.ctx, r)
}

func (a asyncResource) EndProperty(p *payload.PropertyInfo) error {
	return a.enc.EndPropertyContext(a.ctx, p)
}

func (a asyncResource) WriteEntityReferenceLink(link *payload.EntityReferenceLink) error {
	return a.enc.WriteEntityReferenceLinkContext(a.ctx, link)
}

func (a asyncResource) WriteInStreamError(e *payload.InStreamError) error {
	return a.enc.WriteInStreamErrorContext(a.ctx, e)
}

func (a asyncResource) Flush() error {
	return a.enc.FlushContext(a.ctx)
}
