package goja

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/format/jsonfmt"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/transport"
	"github.com/Comcast/quill/util/testutil"
	"github.com/Comcast/quill/writer"
)

var shopSrc = `
namespace: Shop
types:
  - name: Customer
    kind: entity
    properties:
      - {name: Id, type: Edm.Int32, nullable: false}
      - {name: Name, type: Edm.String}
    navigation:
      - {name: Orders, type: Collection(Order)}
  - name: Order
    kind: entity
    properties:
      - {name: Id, type: Edm.Int32, nullable: false}
operations:
  - name: Tag
    parameters:
      - {name: tags, type: Collection(Edm.String)}
      - {name: n, type: Edm.Int32, nullable: false}
`

func jsonDriver(t *testing.T, s writer.Settings) (*Driver, *bytes.Buffer) {
	out := &bytes.Buffer{}
	d := NewDriver(jsonfmt.New(transport.NewStream(out), jsonfmt.Options{}), s)
	d.Testing = true
	return d, out
}

func exec(t *testing.T, d *Driver, code string) interface{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	x, err := d.Exec(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestReturn(t *testing.T) {
	d := NewDriver(testutil.NewRecorder(), writer.Settings{})
	x := exec(t, d, `return {likes:"chips", n:_.esc("a b")};`)
	if !testutil.SameJSON(x, `{"likes":"chips","n":"a+b"}`) {
		t.Fatalf("got %s", testutil.JS(x))
	}
}

func TestParameters(t *testing.T) {
	for _, mode := range []core.Mode{core.Synchronous, core.Asynchronous} {
		d, out := jsonDriver(t, writer.Settings{Mode: mode})
		x := exec(t, d, `
var p = _.parameters(null);
p.start();
p.value("a", 5);
var c = p.collection("tags");
c.start();
c.item("x");
c.item("y");
c.end();
var r = p.resource("order");
r.start({properties: {Id: 1}});
r.end();
p.end();
return p.state();
`)
		if x != "completed" {
			t.Fatalf("state %v", x)
		}
		if got, want := out.String(), `{"a":5,"tags":["x","y"],"order":{"Id":1}}`; got != want {
			t.Fatalf("mode %v: got %s, want %s", mode, got, want)
		}
	}
}

func TestResourceSet(t *testing.T) {
	d, out := jsonDriver(t, writer.Settings{Response: true})
	exec(t, d, `
var w = _.resourceSet(null);
w.startSet({count: 1, nextLink: "https://example.com/Orders?page=2"});
w.start({type: "Shop.Order", id: "Orders(1)", properties: {Id: 1, Tags: ["a", "b"]}});
w.nested({name: "Buyer", collection: false, url: "Orders(1)/Buyer"});
w.end();
w.end();
w.end();
`)
	want := `{"@odata.count":1,"value":[` +
		`{"@odata.type":"#Shop.Order","@odata.id":"Orders(1)","Id":1,"Tags":["a","b"],"Buyer@odata.navigationLink":"Orders(1)/Buyer"}` +
		`],"@odata.nextLink":"https://example.com/Orders?page=2"}`
	if got := out.String(); got != want {
		t.Fatalf("got %s", got)
	}
}

func TestRejection(t *testing.T) {
	m, err := model.ParseYAML([]byte(shopSrc))
	if err != nil {
		t.Fatal(err)
	}
	d, _ := jsonDriver(t, writer.Settings{Model: m})
	x := exec(t, d, `
var r = _.resource("Customer");
r.start({properties: {Id: 1}});
try {
  r.nested({name: "Nope"});
} catch (e) {
  return r.state() + ": " + e;
}
return "no complaint";
`)
	s, is := x.(string)
	if !is || !strings.HasPrefix(s, "error: ") || !strings.Contains(s, "does not exist") {
		t.Fatalf("got %v", x)
	}
}

func TestUnknownNames(t *testing.T) {
	m, err := model.ParseYAML([]byte(shopSrc))
	if err != nil {
		t.Fatal(err)
	}
	d, _ := jsonDriver(t, writer.Settings{Model: m})
	for _, code := range []string{
		`_.parameters("Nope");`,
		`_.resource("Nope");`,
		`_.collection("Shop.Customer");`,
	} {
		if _, err := d.Exec(context.Background(), code); err == nil {
			t.Fatalf("%s: expected an error", code)
		}
	}

	d.Settings.Model = nil
	if _, err := d.Exec(context.Background(), `_.parameters("Tag");`); err == nil {
		t.Fatal("expected an error without a model")
	}
}

func TestTimeout(t *testing.T) {
	d, _ := jsonDriver(t, writer.Settings{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.Exec(ctx, `for (;;) { _.sleep(5); }`); err != Interrupted {
		t.Fatalf("got %v", err)
	}
}

func TestCronNext(t *testing.T) {
	d, _ := jsonDriver(t, writer.Settings{})
	x := exec(t, d, `return _.cronNext("* * * * *");`)
	s, is := x.(string)
	if !is {
		t.Fatalf("got %T", x)
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(context.Background(), `_.cronNext("bad");`); err == nil {
		t.Fatal("expected an error")
	}
}

func TestRequires(t *testing.T) {
	d, _ := jsonDriver(t, writer.Settings{})
	d.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"file://tacos.js": `function tacos() { return "queso"; }`,
		"file://chips.js": `var chips = "salsa";`,
	})
	x := exec(t, d, `require("file://tacos.js");
return tacos();`)
	if x != "queso" {
		t.Fatalf("got %v", x)
	}

	src := map[string]interface{}{
		"code":     `require("file://tacos.js"); return tacos() + " " + chips;`,
		"requires": []interface{}{"file://chips.js"},
	}
	ctx := context.Background()
	if x, err := d.Exec(ctx, src); err != nil {
		t.Fatal(err)
	} else if x != "queso salsa" {
		t.Fatalf("got %v", x)
	}

	if _, err := d.Exec(ctx, `require("file://nope.js");`); err == nil {
		t.Fatal("expected an error")
	}
}

func TestInlineRequires(t *testing.T) {
	provider := MakeMapLibraryProvider(map[string]string{"a": "var a = 1;"})
	got, err := InlineRequires(context.Background(), `require("a"); return a;`, provider)
	if err != nil {
		t.Fatal(err)
	}
	if want := "var a = 1;\n return a;"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := InlineRequires(context.Background(), `require(a);`, provider); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAsSource(t *testing.T) {
	code, libs, err := AsSource(map[interface{}]interface{}{
		"code":     "return 1;",
		"requires": "file://x.js",
	})
	if err != nil {
		t.Fatal(err)
	}
	if code != "return 1;" || len(libs) != 1 || libs[0] != "file://x.js" {
		t.Fatalf("got %q %v", code, libs)
	}
	if _, _, err := AsSource(42); err == nil {
		t.Fatal("expected an error")
	}
	if _, _, err := AsSource(map[string]interface{}{}); err == nil {
		t.Fatal("expected an error")
	}
}
