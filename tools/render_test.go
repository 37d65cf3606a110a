/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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
	"bytes"
	"strings"
	"testing"

	"github.com/Comcast/quill/writer"
)

func TestDot(t *testing.T) {
	var out bytes.Buffer
	if err := Dot(writer.ParameterGrammar, &out, "canWriteParameter", "activeSubWriter"); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{
		`digraph "parameter" {`,
		`"canWriteParameter" -> "activeSubWriter" [ color="red" label = "2/3" ]`,
		`"start" -> "completed" [ color="black" label = "2/2" ]`,
		`"activeSubWriter" [style="filled", peripheries=1, color="red"`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("no %s in\n%s", want, s)
		}
	}
}

func TestMermaid(t *testing.T) {
	var out bytes.Buffer
	if err := Mermaid(writer.CollectionGrammar, &out, nil); err != nil {
		t.Fatal(err)
	}
	want := `graph TB
  n1["collection"]
  style n1 fill:#bcf2db
  n2(["completed"])
  n4(["start"])
  n1 --> n1
  n1 --> n2
  n4 --> n1
`
	if got := out.String(); got != want {
		t.Fatalf("got\n%s", got)
	}

	out.Reset()
	if err := Mermaid(writer.CollectionGrammar, &out, &MermaidOpts{ShowError: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "n4 -.-> n3") {
		t.Fatalf("got\n%s", out.String())
	}
}

func TestRenderGrammarPage(t *testing.T) {
	var out bytes.Buffer
	if err := RenderGrammarPage(writer.ResourceGrammar, &out, nil, true); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{
		`<title>resource writer</title>`,
		`<span id="nestedInfo" class="stateName">nestedInfo</span>`,
		`<p>A property whose value is written separately.</p>`,
		`<div class="mermaid">`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("no %s in\n%s", want, s)
		}
	}
	if i, j := strings.Index(s, `id="start"`), strings.Index(s, `id="completed"`); j < i {
		t.Fatal("start isn't first")
	}
}
