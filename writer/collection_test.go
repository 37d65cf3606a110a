package writer_test

import (
	"testing"

	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/util/testutil"
	"github.com/Comcast/quill/writer"
)

func TestCollection(t *testing.T) {
	r := testutil.NewRecorder()
	w, err := writer.NewCollectionWriter(r, model.Primitive(model.Int32, false), writer.Settings{})
	must(t, err)
	must(t, w.WriteStart(&payload.CollectionStart{Name: "ids"}))
	must(t, w.WriteItem(1))
	must(t, w.WriteItem(int64(2)))
	must(t, w.WriteEnd())
	checkHistory(t, w.History(), "start", "collection", "completed")
	checkLog(t, r, "StartCollection ids", "WriteItem 1", "WriteItem 2", "EndCollection", "Flush")
}

func TestCollectionItems(t *testing.T) {
	tests := []struct {
		name  string
		item  *model.TypeRef
		value interface{}
		want  string
	}{
		{"null", model.Primitive(model.Int32, false), nil, "null item in collection of non-nullable Edm.Int32"},
		{"nested", nil, []interface{}{1}, "nested collections are not supported"},
		{"stream", nil, &payload.StreamReference{}, "stream values are not allowed"},
		{"range", model.Primitive(model.Byte, true), 300, "not compatible"},
		{"unsupported", nil, map[string]int{}, "unsupported collection item type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := writer.NewCollectionWriter(testutil.NewRecorder(), tt.item, writer.Settings{})
			must(t, err)
			must(t, w.WriteStart(nil))
			testutil.ErrorClass(t, w.WriteItem(tt.value), "schema", tt.want)
			if w.State() != "error" {
				t.Fatalf("state %s", w.State())
			}
		})
	}
}

func TestCollectionSequence(t *testing.T) {
	w, err := writer.NewCollectionWriter(testutil.NewRecorder(), nil, writer.Settings{})
	must(t, err)
	testutil.ErrorClass(t, w.WriteItem("early"), "sequence", `cannot WriteItem in state "start"`)
	if w.State() != "error" {
		t.Fatalf("state %s", w.State())
	}

	w, err = writer.NewCollectionWriter(testutil.NewRecorder(), nil, writer.Settings{})
	must(t, err)
	must(t, w.WriteStart(nil))
	must(t, w.WriteEnd())
	testutil.ErrorClass(t, w.WriteItem("late"), "sequence", "")
	if w.State() != "completed" {
		t.Fatalf("state %s", w.State())
	}
}

func TestCollectionStructuredItems(t *testing.T) {
	m := shop(t)
	_, err := writer.NewCollectionWriter(testutil.NewRecorder(), entity(t, m, "Order").Ref(true), writer.Settings{})
	testutil.ErrorClass(t, err, "schema", "is not supported")
}

func TestCollectionInStreamError(t *testing.T) {
	w, err := writer.NewCollectionWriter(testutil.NewRecorder(), nil, writer.Settings{Response: true})
	must(t, err)
	must(t, w.WriteStart(nil))
	testutil.ErrorClass(t, w.OnInStreamError(&payload.InStreamError{Code: "x"}), "shape", "")
	if w.State() != "error" {
		t.Fatalf("state %s", w.State())
	}
}
