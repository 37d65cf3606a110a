package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/jsccast/yaml"
	"github.com/tidwall/jsonc"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/format/cborfmt"
	"github.com/Comcast/quill/format/jsonfmt"
	"github.com/Comcast/quill/match"
	jsdriver "github.com/Comcast/quill/interpreters/goja"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/payload"
	"github.com/Comcast/quill/transport"
	"github.com/Comcast/quill/writer"
)

// Step is one writer call in a Session.
//
// Ops for a parameter writer: start, value (name, value), collection
// (name), resource (name), resourceSet (name), end, flush, error.
//
// Ops for a collection writer: start (optional name), item (value),
// end, flush, error.
//
// Ops for a resource writer: start (resource), startSet (set),
// nested, property, primitive (value), stream, link, end, flush,
// error.
//
// collection, resource, and resourceSet on a parameter writer make a
// nested writer, which receives the following steps until it
// completes or fails.
type Step struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	Op   string      `json:"op" yaml:"op"`
	Name string      `json:"name,omitempty" yaml:"name,omitempty"`
	Value interface{} `json:"value,omitempty" yaml:"value,omitempty"`

	Resource *payload.Resource     `json:"resource,omitempty" yaml:"resource,omitempty"`
	Set      *payload.ResourceSet  `json:"set,omitempty" yaml:"set,omitempty"`
	Nested   *payload.NestedInfo   `json:"nested,omitempty" yaml:"nested,omitempty"`
	Property *payload.PropertyInfo `json:"property,omitempty" yaml:"property,omitempty"`
	Error    *payload.InStreamError `json:"error,omitempty" yaml:"error,omitempty"`
	Link     string                `json:"link,omitempty" yaml:"link,omitempty"`
	Stream   string                `json:"stream,omitempty" yaml:"stream,omitempty"`

	// Fails, if not empty, is the class (see core.Classify) of
	// the error this step must return.
	Fails string `json:"fails,omitempty" yaml:"fails,omitempty"`
}

// Session is a recorded sequence of writer calls together with the
// output they should produce.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Writer is "parameter", "collection", "resource", or
	// "resourceSet".
	Writer string `json:"writer" yaml:"writer"`

	// Operation names the operation of a parameter writer.
	Operation string `json:"operation,omitempty" yaml:"operation,omitempty"`

	// Type is the expected structured type of a resource writer
	// or the primitive item type of a collection writer.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Response        bool   `json:"response,omitempty" yaml:"response,omitempty"`
	Async           bool   `json:"async,omitempty" yaml:"async,omitempty"`
	MaxNestingDepth int    `json:"maxNestingDepth,omitempty" yaml:"maxNestingDepth,omitempty"`
	BaseURI         string `json:"baseURI,omitempty" yaml:"baseURI,omitempty"`

	// Format is "json" (the default) or "cbor".
	Format     string `json:"format,omitempty" yaml:"format,omitempty"`
	ContextURL string `json:"contextURL,omitempty" yaml:"contextURL,omitempty"`
	IEEE754    bool   `json:"ieee754,omitempty" yaml:"ieee754,omitempty"`

	// Script, if given, is JavaScript (see interpreters/goja)
	// that's run instead of Steps.  If the script returns a
	// string, that's taken as the final state.
	Script interface{} `json:"script,omitempty" yaml:"script,omitempty"`

	Steps []Step `json:"steps,omitempty" yaml:"steps,omitempty"`

	// Expect is the expected output.  JSON is compared as text
	// with surrounding space trimmed, and CBOR is compared in
	// diagnostic notation.
	Expect string `json:"expect,omitempty" yaml:"expect,omitempty"`

	// Pattern, if given, is matched (see package match) against
	// the decoded output.
	Pattern interface{} `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// State is the expected final state of the writer.
	State string `json:"state,omitempty" yaml:"state,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// ParseSession reads a Session from YAML or, when jsonish, from JSON
// that may have comments and trailing commas.
func ParseSession(bs []byte, jsonish bool) (*Session, error) {
	var s Session
	if jsonish {
		d := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(bs)))
		d.UseNumber()
		if err := d.Decode(&s); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	s.normalize()
	return &s, nil
}

// ReadSession reads a Session file, processing '%inline("NAME")'.
// Files named *.json or *.jsonc are parsed as JSON.
func ReadSession(filename string) (*Session, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(filename) {
	case ".json", ".jsonc":
		return ParseSession(bs, true)
	}
	return ParseSession(bs, false)
}

func (s *Session) normalize() {
	for i := range s.Steps {
		st := &s.Steps[i]
		st.Value = Normalize(st.Value)
		if st.Resource != nil {
			for _, p := range st.Resource.Properties {
				p.Value = Normalize(p.Value)
			}
		}
	}
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.Verbose {
		log.Printf(format, args...)
	}
}

// Settings makes the writer settings for the Session.
func (s *Session) Settings(m model.Resolver) writer.Settings {
	ws := writer.Settings{
		Response:        s.Response,
		MaxNestingDepth: s.MaxNestingDepth,
		BaseURI:         s.BaseURI,
		Model:           m,
		Debug:           s.Verbose,
	}
	if s.Async {
		ws.Mode = core.Asynchronous
	}
	return ws
}

// Encoder makes the Session's encoder over t.
func (s *Session) Encoder(t transport.Transport) (jsdriver.Encoder, error) {
	switch s.Format {
	case "", "json":
		return jsonfmt.New(t, jsonfmt.Options{
			ContextURL:        s.ContextURL,
			IEEE754Compatible: s.IEEE754,
			Debug:             s.Verbose,
		}), nil
	case "cbor":
		return cborfmt.New(t, cborfmt.Options{
			ContextURL: s.ContextURL,
			Debug:      s.Verbose,
		}), nil
	}
	return nil, fmt.Errorf("unknown format '%s'", s.Format)
}

// Replay makes the Session's writer, writes to t, and runs every
// step.  Replay returns the final state of the writer.
//
// A step that fails when it shouldn't, or that doesn't fail the way
// it should, stops the replay with an error.
func (s *Session) Replay(ctx context.Context, t transport.Transport, m model.Resolver) (core.State, error) {
	enc, err := s.Encoder(t)
	if err != nil {
		return "", err
	}
	settings := s.Settings(m)

	if s.Script != nil {
		d := jsdriver.NewDriver(enc, settings)
		x, err := d.Exec(ctx, s.Script)
		if err != nil {
			return "", err
		}
		state, _ := x.(string)
		return core.State(state), nil
	}

	top, err := s.open(enc, settings, m)
	if err != nil {
		return "", err
	}
	r := &replay{
		ctx:   ctx,
		async: s.Async,
		stack: []handle{top},
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		s.logf("step %d: %s", i, st.Op)
		err := r.do(st)
		switch {
		case st.Fails == "" && err != nil:
			return top.state(), fmt.Errorf("step %d (%s): %w", i, st.Op, err)
		case st.Fails != "" && core.Classify(err) != st.Fails:
			return top.state(), &StepMismatch{Step: i, Op: st.Op, Want: st.Fails, Err: err}
		}
	}
	return top.state(), nil
}

func (s *Session) open(enc jsdriver.Encoder, settings writer.Settings, m model.Resolver) (handle, error) {
	switch s.Writer {
	case "parameter":
		var op *model.Operation
		if s.Operation != "" {
			if m == nil {
				return nil, errors.New("an operation needs a model")
			}
			var have bool
			if op, have = m.Operation(s.Operation); !have {
				return nil, fmt.Errorf("unknown operation '%s'", s.Operation)
			}
		}
		w, err := writer.NewParameterWriter(enc, op, settings)
		if err != nil {
			return nil, err
		}
		return &parameterHandle{w}, nil
	case "collection":
		var item *model.TypeRef
		if s.Type != "" {
			if !model.IsPrimitiveName(s.Type) {
				return nil, fmt.Errorf("'%s' is not a primitive type", s.Type)
			}
			item = model.Primitive(s.Type, true)
		}
		w, err := writer.NewCollectionWriter(enc, item, settings)
		if err != nil {
			return nil, err
		}
		return &collectionHandle{w}, nil
	case "resource", "resourceSet":
		var st *model.StructuredType
		if s.Type != "" {
			if m == nil {
				return nil, errors.New("a type needs a model")
			}
			var have bool
			if st, have = m.StructuredType(s.Type); !have {
				return nil, fmt.Errorf("unknown type '%s'", s.Type)
			}
		}
		var (
			w   *writer.ResourceWriter
			err error
		)
		if s.Writer == "resource" {
			w, err = writer.NewResourceWriter(enc, st, settings)
		} else {
			w, err = writer.NewResourceSetWriter(enc, st, settings)
		}
		if err != nil {
			return nil, err
		}
		return &resourceHandle{w}, nil
	}
	return nil, fmt.Errorf("unknown writer '%s'", s.Writer)
}

// StepMismatch reports a step that didn't fail as expected.
type StepMismatch struct {
	Step int
	Op   string
	Want string
	Err  error
}

func (e *StepMismatch) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("step %d (%s) should have failed with a %s error", e.Step, e.Op, e.Want)
	}
	return fmt.Sprintf("step %d (%s) should have failed with a %s error, not %v", e.Step, e.Op, e.Want, e.Err)
}

// OutputMismatch reports unexpected output or an unexpected final
// state.
type OutputMismatch struct {
	What      string
	Got, Want string
}

func (e *OutputMismatch) Error() string {
	return fmt.Sprintf("%s: got %s, want %s", e.What, e.Got, e.Want)
}

// Check replays the Session into memory and verifies the output
// and the final state.  It returns the output it got.
func (s *Session) Check(ctx context.Context, m model.Resolver) ([]byte, error) {
	var out bytes.Buffer
	state, err := s.Replay(ctx, transport.NewStream(&out), m)
	if err != nil {
		return out.Bytes(), err
	}
	if s.State != "" && string(state) != s.State {
		return out.Bytes(), &OutputMismatch{What: "state", Got: string(state), Want: s.State}
	}
	if s.Pattern != nil {
		if err := s.matchOutput(out.Bytes()); err != nil {
			return out.Bytes(), err
		}
	}
	if s.Expect == "" {
		return out.Bytes(), nil
	}
	got := strings.TrimSpace(out.String())
	if s.Format == "cbor" {
		if got, err = diagnose(out.Bytes()); err != nil {
			return out.Bytes(), err
		}
	}
	if want := strings.TrimSpace(s.Expect); got != want {
		return out.Bytes(), &OutputMismatch{What: "output", Got: got, Want: want}
	}
	return out.Bytes(), nil
}

var cborMaps, _ = cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
}.DecMode()

func (s *Session) matchOutput(bs []byte) error {
	var x interface{}
	var err error
	if s.Format == "cbor" {
		err = cborMaps.Unmarshal(bs, &x)
	} else {
		err = json.Unmarshal(bs, &x)
	}
	if err != nil {
		return fmt.Errorf("decoding output: %w", err)
	}
	bss, err := match.Matches(s.Pattern, x)
	if err != nil {
		return err
	}
	if len(bss) == 0 {
		return &OutputMismatch{What: "pattern", Got: string(bs), Want: fmt.Sprint(s.Pattern)}
	}
	s.logf("bindings %v", bss[0])
	return nil
}

func diagnose(bs []byte) (string, error) {
	if len(bs) == 0 {
		return "", nil
	}
	return cbor.Diagnose(bs)
}
