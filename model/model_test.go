package model

import (
	"strings"
	"testing"
)

var shopSrc = `
namespace: Shop
enums:
  - name: Color
    members: [Red, Green, Blue]
  - name: Access
    flags: true
    members: [Read, Write]
typeDefinitions:
  - name: Money
    underlying: Edm.Decimal
types:
  - name: Address
    properties:
      - {name: Street, type: Edm.String, nullable: false}
      - {name: Zip, type: Edm.String}
  - name: HomeAddress
    base: Address
  - name: Customer
    kind: entity
    properties:
      - {name: Id, type: Edm.Int32, nullable: false}
      - {name: Tags, type: Collection(Edm.String)}
      - {name: Home, type: Address, derivedTypeConstraint: [HomeAddress]}
    navigation:
      - {name: Orders, type: Collection(Order)}
  - name: Order
    kind: entity
    hasStream: true
    navigation:
      - {name: Buyer, type: Customer}
operations:
  - name: Reset
    parameters:
      - {name: a, type: Edm.Int32, nullable: false}
      - {name: b, type: Edm.String}
  - name: Rate
    bound: true
    parameters:
      - {name: self, type: Customer, nullable: false}
      - {name: stars, type: Edm.Int32, nullable: false}
entitySets:
  - {name: Customers, type: Customer}
`

func shop(t *testing.T) *Model {
	m, err := ParseYAML([]byte(shopSrc))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestParseYAML(t *testing.T) {
	m := shop(t)

	op, have := m.Operation("Reset")
	if !have {
		t.Fatal("Reset not found")
	}
	if op.Name != "Shop.Reset" || op.Bound {
		t.Fatalf("unexpected operation %#v", op)
	}
	a, _ := op.Parameter("a")
	if a.Type.Nullable || a.Type.Name != Int32 || a.Type.Kind != PrimitiveKind {
		t.Fatalf("unexpected parameter a: %#v", a.Type)
	}
	b, _ := op.Parameter("b")
	if !b.Type.Nullable {
		t.Fatal("b should default to nullable")
	}

	cust, have := m.StructuredType("Shop.Customer")
	if !have || cust.Kind != EntityKind {
		t.Fatal("Customer not found")
	}
	tags, _ := cust.Property("Tags")
	if got := tags.Type.FullName(); got != "Collection(Edm.String)" {
		t.Fatalf("Tags is %s", got)
	}
	home, _ := cust.Property("Home")
	if home.Type.Kind != ComplexKind || home.DerivedTypeConstraint[0] != "Shop.HomeAddress" {
		t.Fatalf("unexpected Home %#v", home)
	}
	orders, have := cust.NavigationProperty("Orders")
	if !have || !orders.IsCollection() || orders.Target() != "Shop.Order" {
		t.Fatalf("unexpected Orders %#v", orders)
	}

	order, _ := m.StructuredType("Order")
	if !order.IsMediaLinkEntry() {
		t.Fatal("Order should be a media link entry")
	}

	addr, _ := m.StructuredType("Address")
	homeAddr, _ := m.StructuredType("HomeAddress")
	if !homeAddr.DerivesFrom(addr) || addr.DerivesFrom(homeAddr) {
		t.Fatal("derivation is wrong")
	}
	if _, have := homeAddr.Property("Street"); !have {
		t.Fatal("inherited property not found")
	}

	if set, have := m.EntitySet("Customers"); !have || set.Type != cust {
		t.Fatal("entity set not resolved")
	}
}

func TestEnumHas(t *testing.T) {
	m := shop(t)
	color, _ := m.EnumType("Color")
	if !color.Has("Red") || color.Has("Purple") {
		t.Fatal("Color membership is wrong")
	}
	access, _ := m.EnumType("Access")
	if !access.Has("Read, Write") || access.Has("Read,Execute") {
		t.Fatal("Access membership is wrong")
	}
}

func TestRef(t *testing.T) {
	m := shop(t)
	tests := []struct {
		name string
		kind TypeKind
		want string
	}{
		{"Edm.Guid", PrimitiveKind, "Edm.Guid"},
		{"Color", EnumKind, "Shop.Color"},
		{"Money", TypeDefinitionKind, "Shop.Money"},
		{"Collection(Address)", CollectionKind, "Collection(Shop.Address)"},
		{"Edm.Untyped", UntypedKind, "Edm.Untyped"},
	}
	for _, tc := range tests {
		ref, err := m.Ref(tc.name, false)
		if err != nil {
			t.Fatal(err)
		}
		if ref.Kind != tc.kind || ref.FullName() != tc.want {
			t.Errorf("%s: got %s %s", tc.name, ref.Kind, ref.FullName())
		}
	}
}

func TestCompileProblems(t *testing.T) {
	tests := []struct {
		description string
		src         string
		want        string
	}{
		{
			description: "unknown property type",
			src:         "types: [{name: A, properties: [{name: x, type: Nope}]}]",
			want:        `unknown type "Nope"`,
		},
		{
			description: "nested collection",
			src:         "operations: [{name: Op, parameters: [{name: x, type: Collection(Collection(Edm.Int32))}]}]",
			want:        "nested collections are not supported",
		},
		{
			description: "cyclic base",
			src:         "types: [{name: A, base: B}, {name: B, base: A}, {name: C, base: A}]",
			want:        "cyclic base type",
		},
		{
			description: "navigation to complex",
			src:         "types: [{name: A, kind: entity, navigation: [{name: n, type: B}]}, {name: B}]",
			want:        "must target an entity type",
		},
		{
			description: "bad typedef",
			src:         "typeDefinitions: [{name: T, underlying: Shop.Thing}]",
			want:        `unknown type "Shop.Thing"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			_, err := ParseYAML([]byte(tc.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %q, wanted %q", err, tc.want)
			}
		})
	}
}
