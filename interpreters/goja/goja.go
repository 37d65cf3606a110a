// Package goja drives payload writers from JavaScript.
//
// A script sees one global, "_", with constructors for the writers
// and a few utilities:
//
//	_.parameters(op)      a parameter writer for the named operation (or null)
//	_.resource(type)      a resource writer expecting the named type (or null)
//	_.resourceSet(type)   a resource set writer
//	_.collection(item)    a collection writer for the named primitive item type
//	_.cronNext(expr)      the next time matching a cron expression (RFC 3339)
//	_.esc(s)              URL query escaping
//	_.log(x)              log x as JSON
//
// Writer methods throw when the writer rejects a call.  Every
// top-level writer shares the Driver's encoder.
//
// A script is run as the body of a function, so it can return a
// value.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/writer"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Run if the context is done
	// before the script finishes.
	Interrupted = errors.New(InterruptedMessage)
)

// Encoder can serve every kind of writer.  Both format encoders
// are Encoders.
type Encoder interface {
	writer.ParameterEncoder
	writer.CollectionEncoder
	writer.ResourceEncoder
}

// LibraryProvider resolves the name of a library to its source.
type LibraryProvider func(ctx context.Context, name string) (string, error)

// Driver runs scripts that write payloads.
type Driver struct {
	// Settings are given to every writer a script makes.
	Settings writer.Settings

	Encoder Encoder

	// Testing adds _.sleep(ms).
	Testing bool

	// LibraryProvider resolves "require" and "requires".  Nil
	// means DefaultLibraryProvider.
	LibraryProvider LibraryProvider
}

// NewDriver makes a Driver.
func NewDriver(enc Encoder, s writer.Settings) *Driver {
	return &Driver{
		Settings: s,
		Encoder:  enc,
	}
}

// DefaultLibraryProvider reads "file://" libraries relative to the
// working directory.
var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a LibraryProvider for "file://name"
// libraries under dir.
func MakeFileLibraryProvider(dir string) LibraryProvider {
	return func(ctx context.Context, name string) (string, error) {
		filename := strings.TrimPrefix(name, "file://")
		if filename == name {
			return "", fmt.Errorf("bad library name '%s'", name)
		}
		if strings.Contains(filename, "..") {
			return "", fmt.Errorf("library '%s' is outside %s", name, dir)
		}
		bs, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
}

// MakeMapLibraryProvider makes a LibraryProvider that serves srcs.
func MakeMapLibraryProvider(srcs map[string]string) LibraryProvider {
	return func(ctx context.Context, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func (d *Driver) provide(ctx context.Context, name string) (string, error) {
	if d.LibraryProvider != nil {
		return d.LibraryProvider(ctx, name)
	}
	return DefaultLibraryProvider(ctx, name)
}

// AsSource accepts either a string or a map with "code" and an
// optional "requires" (a string or a list of strings).
func AsSource(src interface{}) (code string, libs []string, err error) {
	var m map[string]interface{}
	switch vv := src.(type) {
	case string:
		return vv, nil, nil
	case map[string]interface{}:
		m = vv
	case map[interface{}]interface{}:
		m = make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s, is := k.(string)
			if !is {
				return "", nil, fmt.Errorf("bad source key (%T)", k)
			}
			m[s] = v
		}
	default:
		return "", nil, fmt.Errorf("bad script source (%T)", src)
	}

	code, is := m["code"].(string)
	if !is {
		return "", nil, errors.New("script source has no code")
	}

	switch vv := m["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				return "", nil, fmt.Errorf("bad library (%T)", x)
			}
			libs = append(libs, s)
		}
	default:
		return "", nil, fmt.Errorf("bad requires (%T)", vv)
	}
	return code, libs, nil
}

// Compile resolves libraries and compiles the script.  It can block
// if the library provider does.
func (d *Driver) Compile(ctx context.Context, src interface{}) (*goja.Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}
	if code, err = InlineRequires(ctx, code, d.provide); err != nil {
		return nil, err
	}
	var acc strings.Builder
	for _, lib := range libs {
		s, err := d.provide(ctx, lib)
		if err != nil {
			return nil, err
		}
		acc.WriteString(s)
		acc.WriteString("\n")
	}
	fmt.Fprintf(&acc, "(function() {\n%s\n}());\n", code)

	p, err := goja.Compile("", acc.String(), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, code)
	}
	return p, nil
}

// Run executes a compiled script and returns what it returned,
// exported to Go.
func (d *Driver) Run(ctx context.Context, p *goja.Program) (interface{}, error) {
	if d.Encoder == nil {
		return nil, errors.New("driver has no encoder")
	}
	o := goja.New()
	s := &session{
		ctx: ctx,
		d:   d,
		o:   o,
	}
	if err := o.Set("_", s.env()); err != nil {
		return nil, err
	}

	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// Canceled after RunProgram returns means we weren't
		// interrupted.
		o.Interrupt(InterruptedMessage)
	}()
	v, err := o.RunProgram(p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}
	return v.Export(), nil
}

// Exec compiles and runs src.
func (d *Driver) Exec(ctx context.Context, src interface{}) (interface{}, error) {
	p, err := d.Compile(ctx, src)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, p)
}

// session is one run of a script.
type session struct {
	ctx context.Context
	d   *Driver
	o   *goja.Runtime
}

func (s *session) async() bool {
	return s.d.Settings.Mode == core.Asynchronous
}

func (s *session) protest(x interface{}) {
	panic(s.o.ToValue(x))
}

func (s *session) env() map[string]interface{} {
	env := map[string]interface{}{
		"parameters":  s.parameters,
		"resource":    s.resource,
		"resourceSet": s.resourceSet,
		"collection":  s.collection,
	}

	env["cronNext"] = func(expr string) string {
		c, err := cronexpr.Parse(expr)
		if err != nil {
			s.protest(err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x string) string {
		return url.QueryEscape(x)
	}

	env["log"] = func(x goja.Value) goja.Value {
		js, err := json.Marshal(x.Export())
		if err != nil {
			log.Println("goja log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}
		return x
	}

	if s.d.Testing {
		env["sleep"] = func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	return env
}
