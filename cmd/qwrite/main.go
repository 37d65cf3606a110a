// Package main replays writer sessions.
//
// A session (see tools.Session) names a writer and lists the calls
// to make, or gives a script that makes them.  qwrite either checks
// the session's output against what it expects or sends the output
// to a destination:
//
//	qwrite -m shop.yaml -f order.yaml -check
//	qwrite -db models.db -model shop -f order.yaml -to https://example.com/svc/Place
//	qwrite -m shop.yaml -f order.yaml -to ws://localhost:8080/payloads
//	qwrite -m shop.yaml -f order.yaml -to mqtt:tcp://localhost:1883 -topic payloads
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Comcast/quill/format/cborfmt"
	"github.com/Comcast/quill/format/jsonfmt"
	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/model/bolt"
	"github.com/Comcast/quill/tools"
	"github.com/Comcast/quill/transport"
)

type Opts struct {
	sessionFile string
	modelFile   string
	dbFile      string
	modelName   string
	to          string
	topic       string
	compress    bool
	check       bool
	timeout     time.Duration
	verbose     bool
}

func main() {
	opts := &Opts{}
	flag.StringVar(&opts.sessionFile, "f", "session.yaml", "session file (YAML, JSON, or JSONC)")
	flag.StringVar(&opts.modelFile, "m", "", "model document (YAML)")
	flag.StringVar(&opts.dbFile, "db", "", "model database (see modeldb)")
	flag.StringVar(&opts.modelName, "model", "", "name of the model in the database")
	flag.StringVar(&opts.to, "to", "-", "destination: '-' (stdout), http(s)://, ws(s)://, or mqtt:BROKER")
	flag.StringVar(&opts.topic, "topic", "quill", "MQTT topic")
	flag.BoolVar(&opts.compress, "z", false, "zstd-compress HTTP bodies")
	flag.BoolVar(&opts.check, "check", false, "check output against the session's expectations")
	flag.DurationVar(&opts.timeout, "t", 10*time.Second, "timeout")
	flag.BoolVar(&opts.verbose, "v", false, "verbose")
	flag.Parse()

	if err := opts.run(); err != nil {
		log.Fatal(err)
	}
}

func (opts *Opts) run() error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	s, err := tools.ReadSession(opts.sessionFile)
	if err != nil {
		return err
	}
	if opts.verbose {
		s.Verbose = true
	}

	m, err := opts.model(ctx)
	if err != nil {
		return err
	}

	if opts.check {
		out, err := s.Check(ctx, m)
		if err != nil {
			return err
		}
		log.Printf("ok (%d bytes)", len(out))
		return nil
	}

	t, closer, err := opts.transport(ctx, s)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	state, err := s.Replay(ctx, t, m)
	if err != nil {
		return err
	}
	if opts.verbose {
		log.Printf("final state %s", state)
	}
	if opts.to == "-" {
		fmt.Println()
	}
	return nil
}

// model returns nil if there's no model.  Sessions that don't need
// one can still run.
func (opts *Opts) model(ctx context.Context) (model.Resolver, error) {
	switch {
	case opts.modelFile != "" && opts.dbFile != "":
		return nil, errors.New("use -m or -db but not both")
	case opts.modelFile != "":
		bs, err := os.ReadFile(opts.modelFile)
		if err != nil {
			return nil, err
		}
		return model.ParseYAML(bs)
	case opts.dbFile != "":
		store := bolt.NewStore(opts.dbFile)
		store.Debug = opts.verbose
		if err := store.Open(ctx); err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Model(ctx, opts.modelName)
	}
	return nil, nil
}

func contentType(s *tools.Session) string {
	if s.Format == "cbor" {
		return cborfmt.ContentType
	}
	return jsonfmt.ContentType
}

func (opts *Opts) transport(ctx context.Context, s *tools.Session) (transport.Transport, io.Closer, error) {
	switch to := opts.to; {
	case to == "-":
		return transport.NewStream(os.Stdout), nil, nil
	case strings.HasPrefix(to, "http://"), strings.HasPrefix(to, "https://"):
		h, err := transport.NewHTTP(to, contentType(s))
		if err != nil {
			return nil, nil, err
		}
		h.Compress = opts.compress
		h.Debug = opts.verbose
		return h, nil, nil
	case strings.HasPrefix(to, "ws://"), strings.HasPrefix(to, "wss://"):
		ws, err := transport.DialWebSocket(ctx, to, nil)
		if err != nil {
			return nil, nil, err
		}
		return ws, ws, nil
	case strings.HasPrefix(to, "mqtt:"):
		client, err := transport.NewMQTTClient(strings.TrimPrefix(to, "mqtt:"), "qwrite", 30*time.Second)
		if err != nil {
			return nil, nil, err
		}
		m := transport.NewMQTT(client, opts.topic, 1)
		m.Debug = opts.verbose
		return m, mqttCloser{client}, nil
	}
	return nil, nil, fmt.Errorf("unsupported destination '%s'", opts.to)
}

type mqttCloser struct {
	client mqtt.Client
}

func (c mqttCloser) Close() error {
	c.client.Disconnect(250)
	return nil
}
