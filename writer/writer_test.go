package writer_test

import (
	"reflect"
	"testing"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/util/testutil"
	"github.com/Comcast/quill/writer"
)

var shopSrc = `
namespace: Shop
enums:
  - name: Color
    members: [Red, Green]
types:
  - name: Address
    properties:
      - {name: Street, type: Edm.String}
  - name: Customer
    kind: entity
    properties:
      - {name: Id, type: Edm.Int32, nullable: false}
      - {name: Name, type: Edm.String}
      - {name: Photo, type: Edm.Stream}
      - {name: Home, type: Address}
      - {name: Favorite, type: Color}
    navigation:
      - {name: Orders, type: Collection(Order)}
      - {name: Best, type: Order, derivedTypeConstraint: [Shop.RushOrder]}
  - name: Order
    kind: entity
    properties:
      - {name: Id, type: Edm.Int32, nullable: false}
    navigation:
      - {name: Parts, type: Collection(Order)}
      - {name: Buyer, type: Customer}
  - name: RushOrder
    kind: entity
    base: Order
  - name: GiftOrder
    kind: entity
    base: Order
  - name: Picture
    kind: entity
    hasStream: true
  - name: Bag
    kind: entity
    open: true
operations:
  - name: Reset
    parameters:
      - {name: a, type: Edm.Int32, nullable: false}
      - {name: b, type: Edm.String}
  - name: Tag
    parameters:
      - {name: tags, type: Collection(Edm.String)}
      - {name: color, type: Color}
  - name: Place
    parameters:
      - {name: order, type: Order}
      - {name: orders, type: Collection(Order)}
  - name: Rate
    bound: true
    parameters:
      - {name: self, type: Customer, nullable: false}
      - {name: stars, type: Edm.Int32, nullable: false}
`

func shop(t *testing.T) *model.Model {
	m, err := model.ParseYAML([]byte(shopSrc))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func operation(t *testing.T, m *model.Model, name string) *model.Operation {
	op, have := m.Operation(name)
	if !have {
		t.Fatalf("no operation %s", name)
	}
	return op
}

func entity(t *testing.T, m *model.Model, name string) *model.StructuredType {
	st, have := m.StructuredType(name)
	if !have {
		t.Fatalf("no type %s", name)
	}
	return st
}

func states(ss ...string) []core.State {
	acc := make([]core.State, len(ss))
	for i, s := range ss {
		acc[i] = core.State(s)
	}
	return acc
}

func checkHistory(t *testing.T, got []core.State, want ...string) {
	t.Helper()
	if !reflect.DeepEqual(got, states(want...)) {
		t.Fatalf("history %v, want %v", got, want)
	}
}

func checkLog(t *testing.T, r *testutil.Recorder, want ...string) {
	t.Helper()
	if got := r.Log(); !reflect.DeepEqual(got, want) {
		t.Fatalf("log\n  %q\nwant\n  %q", got, want)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestGrammars(t *testing.T) {
	gs := writer.Grammars()
	for _, name := range []string{"parameter", "collection", "resource"} {
		g, have := gs[name]
		if !have {
			t.Fatalf("no %s grammar", name)
		}
		if !g.Compiled() {
			t.Fatalf("%s grammar not compiled", name)
		}
		if g.ErrorState() != "error" || g.CompletedState() != "completed" {
			t.Fatalf("%s grammar: odd terminal states", name)
		}
	}
}

func TestSettingsCheck(t *testing.T) {
	if err := (writer.Settings{BaseURI: "relative/path"}).Check(); core.Classify(err) != "config" {
		t.Fatalf("expected config error, got %v", err)
	}
	if err := (writer.Settings{MaxNestingDepth: -1}).Check(); core.Classify(err) != "config" {
		t.Fatalf("expected config error, got %v", err)
	}
	if err := (writer.Settings{BaseURI: "https://example.com/svc/"}).Check(); err != nil {
		t.Fatal(err)
	}
	_, err := writer.NewResourceWriter(testutil.NewRecorder(), nil, writer.Settings{BaseURI: "svc"})
	testutil.ErrorClass(t, err, "config", "must be absolute")
}
