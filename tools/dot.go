package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/quill/core"
)

var kindColors = map[core.Kind]string{
	core.KindStart:       "#99ddc8",
	core.KindOpen:        "#52aa5e",
	core.KindActiveChild: "#2d93ad",
	core.KindCompleted:   "#bcf2db",
	core.KindError:       "#f98b8b",
}

// Dot writes a Graphviz dot file for the given grammar.
//
// The optional from and to can be states during a transition.  If
// not empty, the edge between them is red and the to state is
// outlined in red.
func Dot(g *core.Grammar, w io.Writer, from, to core.State) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	f("digraph %s {\n", dotID(g.Name))
	f(`  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	for _, name := range g.Names() {
		n := g.States[name]
		label := string(name)
		if n.Doc != "" {
			label += "<BR/><FONT POINT-SIZE='8'>" + htmlEscape(firstSentence(n.Doc)) + "</FONT>"
		}
		style := "filled"
		switch {
		case n.Kind == core.KindStart:
			style += ",bold"
		case n.Kind.Terminal():
			style += ",dashed"
		}
		periph := 1
		if n.Depth {
			periph = 2
		}
		color := "black"
		if name == to {
			color = "red"
		}
		f("  %s [style=\"%s\", peripheries=%d, color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			dotID(string(name)), style, periph, color, kindColors[n.Kind], label)
	}

	for _, name := range g.Names() {
		n := g.States[name]
		for i, t := range n.Targets {
			color := "black"
			if name == from && t == to {
				color = "red"
			}
			f("  %s -> %s [ color=\"%s\" label = \"%d/%d\" ]\n",
				dotID(string(name)), dotID(string(t)), color, i+1, len(n.Targets))
		}
	}

	f("}\n")
	return err
}

// PNG renders a grammar with Graphviz's dot command.
//
// This function writes two files: basename.dot and basename.png.
func PNG(g *core.Grammar, basename string, from, to core.State) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(g, dotfile, from, to); err != nil {
		dotfile.Close()
		return pngname, err
	}
	if err := dotfile.Close(); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func firstSentence(doc string) string {
	doc = strings.TrimSpace(doc)
	if 40 < len(doc) {
		if period := strings.Index(doc, ". "); 0 < period {
			doc = doc[0 : period+1]
		}
	}
	return doc
}

func dotID(s string) string {
	return `"` + strings.Replace(s, `"`, `\"`, -1) + `"`
}

func htmlEscape(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	return s
}
