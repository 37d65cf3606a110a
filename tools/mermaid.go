/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"fmt"
	"io"

	"github.com/Comcast/quill/core"
)

type MermaidOpts struct {
	// ShowError adds the error state with an edge from every
	// other state.  Usually that's just noise.
	ShowError bool `json:"showError,omitempty"`

	// DepthFill is the fill color of states that count a level
	// of nesting.
	DepthFill string `json:"depthFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given grammar.
func Mermaid(g *core.Grammar, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			DepthFill: "#bcf2db",
		}
	}

	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	f("graph TB\n")

	nids := make(map[core.State]string)
	for i, name := range g.Names() {
		if name == g.ErrorState() && !opts.ShowError {
			continue
		}
		nid := fmt.Sprintf("n%d", i+1)
		nids[name] = nid
		n := g.States[name]
		if n.Kind.Terminal() || n.Kind == core.KindStart {
			f("  %s([\"%s\"])\n", nid, name)
		} else {
			f("  %s[\"%s\"]\n", nid, name)
		}
		if n.Depth && opts.DepthFill != "" {
			f("  style %s fill:%s\n", nid, opts.DepthFill)
		}
	}

	for _, name := range g.Names() {
		nid, have := nids[name]
		if !have {
			continue
		}
		for _, t := range g.States[name].Targets {
			f("  %s --> %s\n", nid, nids[t])
		}
		if opts.ShowError && name != g.ErrorState() {
			f("  %s -.-> %s\n", nid, nids[g.ErrorState()])
		}
	}

	return err
}
