package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
)

func TestStream(t *testing.T) {
	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	s := NewStream(bw)
	io.WriteString(s, `{"a":`)
	io.WriteString(s, `1}`)
	if out.Len() != 0 {
		t.Fatal("wrote before flush")
	}
	if s.Buffered() != 7 {
		t.Fatal(s.Buffered())
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != `{"a":1}` {
		t.Fatal(got)
	}
	if s.Buffered() != 0 {
		t.Fatal("buffer not emptied")
	}
	// Nothing buffered.
	if err := s.FlushContext(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestStreamCancelled(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(&out)
	io.WriteString(s, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.FlushContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatal(out.String())
	}
}

type slowWriter struct {
	release chan struct{}
}

func (w *slowWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestStreamDeadline(t *testing.T) {
	w := &slowWriter{release: make(chan struct{})}
	defer close(w.release)
	s := NewStream(w)
	io.WriteString(s, "x")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.FlushContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal(err)
	}
}

func TestWebSocket(t *testing.T) {
	var (
		upgrader = websocket.Upgrader{}
		got      = make(chan string, 4)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				close(got)
				return
			}
			got <- string(msg)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, err := DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(ws, `[1,`)
	io.WriteString(ws, `2]`)
	if err := ws.FlushContext(ctx); err != nil {
		t.Fatal(err)
	}
	// Empty flushes send nothing.
	if err := ws.Flush(); err != nil {
		t.Fatal(err)
	}
	io.WriteString(ws, `3`)
	if err := ws.Flush(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`[1,2]`, `3`} {
		select {
		case msg := <-got:
			if msg != want {
				t.Fatalf("got %q, want %q", msg, want)
			}
		case <-ctx.Done():
			t.Fatal("no message")
		}
	}
	if err := ws.Close(); err != nil {
		t.Fatal(err)
	}
}

type token struct {
	done chan struct{}
	err  error
}

func (t *token) Wait() bool {
	<-t.done
	return true
}

func (t *token) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *token) Done() <-chan struct{} {
	return t.done
}

func (t *token) Error() error {
	return t.err
}

// broker is an mqtt.Client that only publishes.
type broker struct {
	mqtt.Client

	sync.Mutex
	published []string
	hang      bool
	err       error
}

func (b *broker) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b.Lock()
	defer b.Unlock()
	t := &token{done: make(chan struct{}), err: b.err}
	if !b.hang {
		b.published = append(b.published, topic+" "+string(payload.([]byte)))
		close(t.done)
	}
	return t
}

func TestMQTT(t *testing.T) {
	b := &broker{}
	m := NewMQTT(b, "payloads", 1)
	io.WriteString(m, `{"x":1}`)
	if err := m.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := m.Flush(); err != nil {
		t.Fatal(err)
	}
	io.WriteString(m, `{"x":2}`)
	if err := m.FlushContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{`payloads {"x":1}`, `payloads {"x":2}`}
	if len(b.published) != len(want) {
		t.Fatal(b.published)
	}
	for i, s := range want {
		if b.published[i] != s {
			t.Fatalf("got %q, want %q", b.published[i], s)
		}
	}
}

func TestMQTTFailures(t *testing.T) {
	b := &broker{err: errors.New("refused")}
	m := NewMQTT(b, "payloads", 0)
	io.WriteString(m, "x")
	if err := m.Flush(); err == nil || err.Error() != "refused" {
		t.Fatal(err)
	}

	b = &broker{hang: true}
	m = NewMQTT(b, "payloads", 0)
	m.Timeout = 10 * time.Millisecond
	io.WriteString(m, "x")
	if err := m.Flush(); err != ErrPublishTimeout {
		t.Fatal(err)
	}

	io.WriteString(m, "y")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.FlushContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal(err)
	}
}

func TestHTTP(t *testing.T) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	var (
		mu     sync.Mutex
		bodies []string
		cookie string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.Header.Get("Content-Encoding") == "zstd" {
			if bs, err = dec.DecodeAll(bs, nil); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad content type", http.StatusUnsupportedMediaType)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, string(bs))
		if c, err := r.Cookie("session"); err == nil {
			cookie = c.Value
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1"})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h, err := NewHTTP(srv.URL, "application/json")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(h, `{"a":1}`)
	if err := h.Flush(); err != nil {
		t.Fatal(err)
	}
	h.Compress = true
	io.WriteString(h, `{"b":2}`)
	if err := h.FlushContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 || bodies[0] != `{"a":1}` || bodies[1] != `{"b":2}` {
		t.Fatal(bodies)
	}
	if cookie != "s1" {
		t.Fatalf("cookie %q", cookie)
	}
}

func TestHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusConflict)
	}))
	defer srv.Close()

	h, err := NewHTTP(srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(h, "x")
	err = h.Flush()
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusConflict {
		t.Fatal(err)
	}
}
