// Package main renders and analyzes writer grammars.
//
//	grammartool list
//	grammartool dot resource > resource.dot
//	grammartool png resource
//	grammartool mermaid parameter
//	grammartool html -g collection > collection.html
//	grammartool analyze my-grammar.yaml
//	grammartool json resource
//
// A grammar is the name of a writer's grammar or a YAML file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/tools"
	"github.com/Comcast/quill/writer"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s list|dot|png|mermaid|html|analyze|json [flags] GRAMMAR\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var (
		from      = fs.String("from", "", "highlight a transition from this state")
		to        = fs.String("to", "", "highlight a transition to this state")
		showError = fs.Bool("e", false, "mermaid: show the error state")
		graph     = fs.Bool("g", false, "html: include a graph")
		css       = fs.String("css", "", "html: stylesheet URL")
	)
	fs.Parse(os.Args[2:])

	if cmd == "list" {
		gs := writer.Grammars()
		names := make([]string, 0, len(gs))
		for name := range gs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	g, err := grammar(fs.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	switch cmd {
	case "dot":
		err = tools.Dot(g, os.Stdout, core.State(*from), core.State(*to))
	case "png":
		var filename string
		if filename, err = tools.PNG(g, g.Name, core.State(*from), core.State(*to)); err == nil {
			fmt.Println(filename)
		}
	case "mermaid":
		err = tools.Mermaid(g, os.Stdout, &tools.MermaidOpts{ShowError: *showError})
	case "html":
		var cssFiles []string
		if *css != "" {
			cssFiles = []string{*css}
		}
		err = tools.RenderGrammarPage(g, os.Stdout, cssFiles, *graph)
	case "analyze":
		err = printJSON(tools.Analyze(g))
	case "json":
		err = printJSON(g)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func grammar(name string) (*core.Grammar, error) {
	if g, have := writer.Grammars()[name]; have {
		return g, nil
	}
	bs, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("'%s' is neither a writer grammar nor a readable file: %w", name, err)
	}
	return core.ParseGrammar(bs)
}

func printJSON(x interface{}) error {
	bs, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", bs)
	return nil
}
