package tools

import (
	"encoding/json"
	"fmt"
	"html"
	"io"

	md "github.com/russross/blackfriday/v2"

	"github.com/Comcast/quill/core"
)

// RenderGrammarHTML writes an HTML fragment documenting a grammar.
// Docs are Markdown.
func RenderGrammarHTML(g *core.Grammar, out io.Writer) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(out, format+"\n", args...)
		}
	}

	f(`<div class="grammarDoc doc">%s</div>`, md.Run([]byte(g.Doc)))

	f(`<div class="states"><table>`)
	row := func(name core.State) {
		n := g.States[name]
		id := html.EscapeString(string(name))
		f(`<tr class="state %s"><td><span id="%s" class="stateName">%s</span></td><td>`, n.Kind, id, id)
		if n.Doc != "" {
			f(`<div class="stateDoc doc">%s</div>`, md.Run([]byte(n.Doc)))
		}
		f(`<div>kind: <span class="kind">%s</span></div>`, n.Kind)
		if n.Depth {
			f(`<div class="depth">counts toward nesting depth</div>`)
		}
		if 0 < len(n.Targets) {
			f(`<div class="targets">`)
			for _, t := range n.Targets {
				t := html.EscapeString(string(t))
				f(`<a href="#%s"><code>%s</code></a>`, t, t)
			}
			f(`</div>`)
		}
		f(`</td></tr>`)
	}
	// Start first, then the rest in order.
	start := g.StartState()
	if _, have := g.States[start]; have {
		row(start)
	}
	for _, name := range g.Names() {
		if name != start {
			row(name)
		}
	}
	f(`</table></div>`)

	return err
}

// RenderGrammarPage writes a complete HTML page for a grammar.
func RenderGrammarPage(g *core.Grammar, out io.Writer, cssFiles []string, includeGraph bool) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/grammar-html.css"}
	}

	title := html.EscapeString(g.Name)
	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s writer</title>
`, title)

	if includeGraph {
		js, err := json.Marshal(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, `
  <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
  <script>
  var thisGrammar = %s;
  mermaid.initialize({startOnLoad: true});
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(cssFile))
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s writer</h1>
`, title)

	if includeGraph {
		fmt.Fprintf(out, "<div class=\"mermaid\">\n")
		if err := Mermaid(g, out, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "</div>\n")
	}

	if err := RenderGrammarHTML(g, out); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, `
  </body>
</html>
`)
	return err
}
