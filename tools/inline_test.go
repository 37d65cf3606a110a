package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInline(t *testing.T) {
	input := `
script: %inline("tacos")
expect: %inline( "queso")
`
	want := `
script: TACOS
expect: %inline( "queso")
`

	find := func(name string) ([]byte, error) {
		return []byte(strings.ToUpper(name)), nil
	}

	got, err := Inline([]byte(input), find)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("got %s", got)
	}
}

func TestReadFileWithInlines(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "body.txt"), []byte("chips"), 0644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "main.txt")
	if err := os.WriteFile(main, []byte(`likes %inline("body.txt")`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFileWithInlines(main)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "likes chips" {
		t.Fatalf("got %s", got)
	}
	if _, err := ReadAllWithInlines(strings.NewReader(`%inline("nope")`), dir); err == nil {
		t.Fatal("expected an error")
	}
}
