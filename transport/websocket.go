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

package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket sends each flush as one WebSocket message.
type WebSocket struct {
	// Binary makes messages binary rather than text.
	Binary bool

	Debug bool

	buffer
	conn   *websocket.Conn
	sendMu sync.Mutex
}

// NewWebSocket wraps an open connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// DialWebSocket connects to url.
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn), nil
}

func (w *WebSocket) send(bs []byte, deadline time.Time) error {
	if len(bs) == 0 {
		return nil
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	kind := websocket.TextMessage
	if w.Binary {
		kind = websocket.BinaryMessage
	}
	logf(w.Debug, "websocket sending %d bytes", len(bs))
	return w.conn.WriteMessage(kind, bs)
}

// Flush sends everything buffered as a single message.  Nothing is
// sent if nothing is buffered.
func (w *WebSocket) Flush() error {
	return w.send(w.take(), time.Time{})
}

// FlushContext is Flush with the context's deadline, if any, as the
// write deadline.
func (w *WebSocket) FlushContext(ctx context.Context) error {
	bs := w.take()
	deadline, _ := ctx.Deadline()
	return flushContext(ctx, func() error {
		return w.send(bs, deadline)
	})
}

// Close sends a close message and closes the connection.
func (w *WebSocket) Close() error {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		logf(w.Debug, "websocket close message: %s", err)
	}
	return w.conn.Close()
}
