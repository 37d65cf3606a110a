package writer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/util/testutil"
	"github.com/Comcast/quill/writer"
)

func TestResourceNested(t *testing.T) {
	m := shop(t)
	r := testutil.NewRecorder()
	w, err := writer.NewResourceWriter(r, entity(t, m, "Customer"), writer.Settings{Model: m})
	must(t, err)

	must(t, w.WriteStartResource(&payload.Resource{
		Properties: []*payload.Property{
			{Name: "Id", Value: 7},
			{Name: "Name", Value: "Ann"},
		},
	}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders"}))
	must(t, w.WriteStartResourceSet(nil))
	must(t, w.WriteStartResource(&payload.Resource{
		TypeName:   "Shop.GiftOrder",
		Properties: []*payload.Property{{Name: "Id", Value: 1}},
	}))
	must(t, w.WriteEnd())
	must(t, w.WriteEnd())
	must(t, w.WriteEnd())
	must(t, w.WriteStartProperty(&payload.PropertyInfo{Name: "Favorite"}))
	must(t, w.WritePrimitive("Red"))
	must(t, w.WriteEnd())
	if got := w.Path(); len(got) != 2 || got[1] != "resource" {
		t.Fatalf("path %v", got)
	}
	must(t, w.WriteEnd())

	if w.State() != "completed" {
		t.Fatalf("state %s", w.State())
	}
	checkLog(t, r,
		"StartResource Shop.Customer",
		"StartNestedInfo Orders",
		"StartResourceSet",
		"StartResource Shop.GiftOrder",
		"EndResource",
		"EndResourceSet",
		"EndNestedInfo Orders",
		"StartProperty Favorite",
		"WritePrimitive Red",
		"EndProperty Favorite",
		"EndResource",
		"Flush")
	checkHistory(t, w.History(),
		"start", "resource", "nestedInfo", "nestedInfoWithContent", "resourceSet", "resource",
		"resourceSet", "nestedInfoWithContent", "resource", "property", "resource", "completed")
}

func TestResourceDepth(t *testing.T) {
	coll := payload.Bool(true)
	single := payload.Bool(false)
	w, err := writer.NewResourceWriter(testutil.NewRecorder(), nil, writer.Settings{MaxNestingDepth: 2})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Parts", IsCollection: coll}))
	must(t, w.WriteStartResourceSet(nil))
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Buyer", IsCollection: single}))
	err = w.WriteStartResource(&payload.Resource{})
	testutil.ErrorClass(t, err, "shape", "maximum nesting depth of 2 exceeded")
	if w.State() != "error" {
		t.Fatalf("state %s", w.State())
	}
}

func TestResourceTopLevel(t *testing.T) {
	w, err := writer.NewResourceWriter(testutil.NewRecorder(), nil, writer.Settings{})
	must(t, err)
	testutil.ErrorClass(t, w.WriteStartResourceSet(nil), "shape", "resource writer")

	w, err = writer.NewResourceSetWriter(testutil.NewRecorder(), nil, writer.Settings{})
	must(t, err)
	testutil.ErrorClass(t, w.WriteStartResource(&payload.Resource{}), "shape", "resource set writer")
}

func TestResourceRules(t *testing.T) {
	m := shop(t)
	customer := entity(t, m, "Customer")
	tests := []struct {
		name     string
		response bool
		res      *payload.Resource
		class    string
		want     string
	}{
		{
			name:  "incompatible type",
			res:   &payload.Resource{TypeName: "Shop.Order"},
			class: "schema",
			want:  "not compatible with expected type 'Shop.Customer'",
		},
		{
			name:  "unknown type",
			res:   &payload.Resource{TypeName: "Shop.Nope"},
			class: "schema",
			want:  "not found in model",
		},
		{
			name:  "undeclared property",
			res:   &payload.Resource{Properties: []*payload.Property{{Name: "Nope", Value: 1}}},
			class: "schema",
			want:  "property 'Nope' does not exist on type 'Shop.Customer'",
		},
		{
			name: "duplicate property",
			res: &payload.Resource{Properties: []*payload.Property{
				{Name: "Name", Value: "a"},
				{Name: "Name", Value: "b"},
			}},
			class: "shape",
			want:  "duplicate property name 'Name'",
		},
		{
			name:  "reserved name",
			res:   &payload.Resource{Properties: []*payload.Property{{Name: "a.b", Value: 1}}},
			class: "schema",
			want:  "reserved characters '.'",
		},
		{
			name:  "null non-nullable",
			res:   &payload.Resource{Properties: []*payload.Property{{Name: "Id", Value: nil}}},
			class: "schema",
			want:  "null value for non-nullable property 'Id'",
		},
		{
			name: "operations in request",
			res: &payload.Resource{
				Actions: []*payload.OperationAdvert{{Metadata: "#Shop.Ship"}},
			},
			class: "shape",
			want:  "only be advertised in responses",
		},
		{
			name: "stream reference in request",
			res: &payload.Resource{Properties: []*payload.Property{
				{Name: "Photo", Value: &payload.StreamReference{ReadLink: "http://x/photo"}},
			}},
			class: "shape",
			want:  "not allowed in a request",
		},
		{
			name:     "stream reference in response",
			response: true,
			res: &payload.Resource{Properties: []*payload.Property{
				{Name: "Photo", Value: &payload.StreamReference{ReadLink: "http://x/photo"}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := writer.NewResourceWriter(testutil.NewRecorder(), customer, writer.Settings{
				Model:    m,
				Response: tt.response,
			})
			must(t, err)
			err = w.WriteStartResource(tt.res)
			if tt.class == "" {
				must(t, err)
				return
			}
			testutil.ErrorClass(t, err, tt.class, tt.want)
			if w.State() != "error" {
				t.Fatalf("state %s", w.State())
			}
		})
	}
}

func TestResourceMediaLinkEntry(t *testing.T) {
	m := shop(t)
	w, err := writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Picture"), writer.Settings{Model: m})
	must(t, err)
	testutil.ErrorClass(t, w.WriteStartResource(&payload.Resource{}), "shape", "media link entry")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Picture"), writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{
		MediaResource: &payload.StreamReference{EditLink: "http://x/pic/$value"},
	}))
}

func TestResourceNull(t *testing.T) {
	m := shop(t)
	r := testutil.NewRecorder()
	w, err := writer.NewResourceWriter(r, entity(t, m, "Order"), writer.Settings{Model: m, Response: true})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{Properties: []*payload.Property{{Name: "Id", Value: 1}}}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Buyer"}))
	must(t, w.WriteStartResource(nil))
	must(t, w.WriteEnd())
	must(t, w.WriteEnd())
	must(t, w.WriteEnd())
	checkLog(t, r,
		"StartResource Shop.Order",
		"StartNestedInfo Buyer",
		"StartResource null",
		"EndResource",
		"EndNestedInfo Buyer",
		"EndResource",
		"Flush")

	// Null skips the rules for resource content.
	w, err = writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Customer"), writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{Properties: []*payload.Property{{Name: "Id", Value: 1}}}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Best"}))
	must(t, w.WriteStartResource(nil))

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Picture"), writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(nil))
	testutil.ErrorClass(t, w.WriteStartProperty(&payload.PropertyInfo{Name: "Thumb"}), "shape", "in a null resource")
	if w.State() != "error" {
		t.Fatalf("state %s", w.State())
	}

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), nil, writer.Settings{})
	must(t, err)
	must(t, w.WriteStartResource(nil))
	testutil.ErrorClass(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Buyer"}), "shape", "in a null resource")
}

func TestResourceNestedCardinality(t *testing.T) {
	m := shop(t)
	customer := entity(t, m, "Customer")
	s := writer.Settings{Model: m}

	w, err := writer.NewResourceWriter(testutil.NewRecorder(), customer, s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	err = w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders", IsCollection: payload.Bool(false)})
	testutil.ErrorClass(t, err, "shape", "is singular but the declared property is a collection")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), customer, s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders"}))
	testutil.ErrorClass(t, w.WriteStartResource(&payload.Resource{}), "shape", "is a collection but a resource was written")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), nil, s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Anything"}))
	testutil.ErrorClass(t, w.WriteStartResourceSet(nil), "shape", "must specify IsCollection")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), customer, s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Best"}))
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteEnd())
	testutil.ErrorClass(t, w.WriteStartResource(&payload.Resource{}), "shape", "already has content")
}

func TestResourceDerivedTypeConstraint(t *testing.T) {
	m := shop(t)
	customer := entity(t, m, "Customer")
	s := writer.Settings{Model: m}

	w, err := writer.NewResourceWriter(testutil.NewRecorder(), customer, s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Best"}))
	err = w.WriteStartResource(&payload.Resource{TypeName: "Shop.GiftOrder"})
	testutil.ErrorClass(t, err, "schema", "derived type constraint")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), customer, s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Best"}))
	must(t, w.WriteStartResource(&payload.Resource{TypeName: "Shop.RushOrder"}))
}

func TestResourceNestedDeclarations(t *testing.T) {
	m := shop(t)
	s := writer.Settings{Model: m}

	w, err := writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Customer"), s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	testutil.ErrorClass(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Name"}), "schema",
		"cannot be written as nested resource info")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Customer"), s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	testutil.ErrorClass(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Nope"}), "schema", "does not exist")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Customer"), s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Home"}))
	must(t, w.WriteStartResource(&payload.Resource{
		Properties: []*payload.Property{{Name: "Street", Value: "Main"}},
	}))
	must(t, w.WriteEnd())
	must(t, w.WriteEnd())
	testutil.ErrorClass(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Home"}), "shape", "duplicate")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), entity(t, m, "Bag"), s)
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{
		Properties: []*payload.Property{{Name: "Anything", Value: 1.5}},
	}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Extra", IsCollection: payload.Bool(false)}))
	must(t, w.WriteStartResource(&payload.Resource{}))
}

func TestResourceDeferredLinks(t *testing.T) {
	m := shop(t)
	customer := entity(t, m, "Customer")

	w, err := writer.NewResourceWriter(testutil.NewRecorder(), customer, writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders"}))
	testutil.ErrorClass(t, w.WriteEnd(), "shape", "deferred links are only allowed in responses")

	r := testutil.NewRecorder()
	w, err = writer.NewResourceWriter(r, customer, writer.Settings{Model: m, Response: true})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders", URL: "http://x/Customers(1)/Orders"}))
	must(t, w.WriteEnd())
	must(t, w.WriteEnd())
	checkLog(t, r, "StartResource Shop.Customer", "StartNestedInfo Orders", "EndNestedInfo Orders", "EndResource", "Flush")
}

func TestResourceEntityReferenceLinks(t *testing.T) {
	m := shop(t)
	customer := entity(t, m, "Customer")

	r := testutil.NewRecorder()
	w, err := writer.NewResourceWriter(r, customer, writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders"}))
	must(t, w.WriteEntityReferenceLink(&payload.EntityReferenceLink{URL: "http://x/Orders(1)"}))
	must(t, w.WriteEntityReferenceLink(&payload.EntityReferenceLink{URL: "http://x/Orders(2)"}))
	must(t, w.WriteEnd())
	must(t, w.WriteEnd())
	checkLog(t, r,
		"StartResource Shop.Customer",
		"StartNestedInfo Orders",
		"WriteEntityReferenceLink http://x/Orders(1)",
		"WriteEntityReferenceLink http://x/Orders(2)",
		"EndNestedInfo Orders",
		"EndResource",
		"Flush")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), customer, writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders"}))
	testutil.ErrorClass(t, w.WriteEntityReferenceLink(&payload.EntityReferenceLink{}), "schema", "must not be empty")

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), customer, writer.Settings{Model: m, Response: true})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartNestedInfo(&payload.NestedInfo{Name: "Orders"}))
	testutil.ErrorClass(t, w.WriteEntityReferenceLink(&payload.EntityReferenceLink{URL: "http://x/Orders(1)"}),
		"shape", "only allowed in requests")
}

func TestResourceProperties(t *testing.T) {
	m := shop(t)
	customer := entity(t, m, "Customer")

	r := testutil.NewRecorder()
	w, err := writer.NewResourceWriter(r, customer, writer.Settings{Model: m, Response: true})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{
		Properties: []*payload.Property{{Name: "Id", Value: 1}},
	}))
	testutil.ErrorClass(t, w.WriteStartProperty(&payload.PropertyInfo{Name: "Id"}), "shape", "duplicate property name 'Id'")

	r = testutil.NewRecorder()
	w, err = writer.NewResourceWriter(r, customer, writer.Settings{Model: m, Response: true})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartProperty(&payload.PropertyInfo{Name: "Photo"}))
	testutil.ErrorClass(t, w.WriteEnd(), "sequence", `cannot WriteEnd in state "property"`)

	r = testutil.NewRecorder()
	w, err = writer.NewResourceWriter(r, customer, writer.Settings{Model: m, Response: true})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartProperty(&payload.PropertyInfo{Name: "Photo"}))
	must(t, w.WriteStream(strings.NewReader("jpeg")))
	testutil.ErrorClass(t, w.WritePrimitive("again"), "sequence", "")

	r = testutil.NewRecorder()
	w, err = writer.NewResourceWriter(r, customer, writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartProperty(&payload.PropertyInfo{Name: "Photo"}))
	testutil.ErrorClass(t, w.WriteStream(strings.NewReader("jpeg")), "shape", "not allowed in a request")

	r = testutil.NewRecorder()
	w, err = writer.NewResourceWriter(r, customer, writer.Settings{Model: m})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.WriteStartProperty(&payload.PropertyInfo{Name: "Name"}))
	testutil.ErrorClass(t, w.WritePrimitive(5), "schema", "not compatible")
}

func TestResourceInStreamError(t *testing.T) {
	r := testutil.NewRecorder()
	w, err := writer.NewResourceWriter(r, nil, writer.Settings{Response: true})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	must(t, w.OnInStreamError(&payload.InStreamError{Code: "500", Message: "oops"}))
	if w.State() != "error" {
		t.Fatalf("state %s", w.State())
	}
	if r.Last() != "WriteInStreamError 500" {
		t.Fatalf("last %s", r.Last())
	}

	w, err = writer.NewResourceWriter(testutil.NewRecorder(), nil, writer.Settings{})
	must(t, err)
	must(t, w.WriteStartResource(&payload.Resource{}))
	testutil.ErrorClass(t, w.OnInStreamError(&payload.InStreamError{Code: "500"}), "shape", "only be written in responses")
}

func TestResourceNextPageLink(t *testing.T) {
	w, err := writer.NewResourceSetWriter(testutil.NewRecorder(), nil, writer.Settings{})
	must(t, err)
	testutil.ErrorClass(t, w.WriteStartResourceSet(&payload.ResourceSet{NextPageLink: "http://x?page=2"}),
		"shape", "only be written in a response")

	w, err = writer.NewResourceSetWriter(testutil.NewRecorder(), nil, writer.Settings{Response: true})
	must(t, err)
	must(t, w.WriteStartResourceSet(&payload.ResourceSet{NextPageLink: "http://x?page=2"}))
	must(t, w.WriteEnd())
}

func TestResourceAsync(t *testing.T) {
	m := shop(t)
	ctx := context.Background()
	r := testutil.NewRecorder()
	w, err := writer.NewResourceSetWriter(r, entity(t, m, "Order"), writer.Settings{Model: m, Mode: core.Asynchronous})
	must(t, err)
	testutil.ErrorClass(t, w.WriteStartResourceSet(nil), "config", "")
	must(t, w.WriteStartResourceSetContext(ctx, &payload.ResourceSet{TypeName: "Collection(Shop.Order)"}))
	must(t, w.WriteStartResourceContext(ctx, &payload.Resource{}))
	must(t, w.WriteStartPropertyContext(ctx, &payload.PropertyInfo{Name: "Id"}))
	must(t, w.WritePrimitiveContext(ctx, 3))
	must(t, w.WriteEndContext(ctx))
	must(t, w.WriteEndContext(ctx))
	must(t, w.FlushContext(ctx))
	must(t, w.WriteEndContext(ctx))
	checkLog(t, r,
		"StartResourceSet",
		"StartResource Shop.Order",
		"StartProperty Id",
		"WritePrimitive 3",
		"EndProperty Id",
		"EndResource",
		"Flush",
		"EndResourceSet",
		"Flush")
}
