package bolt

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Comcast/quill/model"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "models.db"))
	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	f := false
	doc := &model.Document{
		Namespace: "Shop",
		Operations: []model.OperationDoc{
			{
				Name: "Reset",
				Parameters: []model.PropertyDoc{
					{Name: "a", Type: "Edm.Int32", Nullable: &f},
				},
			},
		},
	}
	if err := s.Put(ctx, "shop", doc); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "empty", &model.Document{}); err != nil {
		t.Fatal(err)
	}

	names, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"empty", "shop"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names %v, want %v", names, want)
	}

	m, err := s.Model(ctx, "shop")
	if err != nil {
		t.Fatal(err)
	}
	op, have := m.Operation("Reset")
	if !have {
		t.Fatal("Reset not found")
	}
	if p, _ := op.Parameter("a"); p.Type.Nullable {
		t.Fatal("nullability lost in storage")
	}

	if err := s.Delete(ctx, "shop"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Model(ctx, "shop"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorePutRejectsBadDocument(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "models.db"))
	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	doc := &model.Document{
		Types: []model.TypeDoc{{Name: "A", Base: "Missing"}},
	}
	if err := s.Put(ctx, "bad", doc); err == nil {
		t.Fatal("expected an error")
	}
}

func TestStoreNotOpen(t *testing.T) {
	s := NewStore("unused.db")
	if _, err := s.List(context.Background()); err != ErrNotOpen {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}
