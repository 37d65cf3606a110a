/* Copyright 2019 Comcast Cable Communications Management, LLC
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
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	// DefaultPublishTimeout bounds a blocking MQTT Flush.
	DefaultPublishTimeout = 10 * time.Second

	// ErrPublishTimeout is returned when the broker doesn't
	// acknowledge a publish in time.
	ErrPublishTimeout = errors.New("timed out waiting for publish")
)

// MQTT publishes each flush as one message on Topic.
type MQTT struct {
	Client   mqtt.Client
	Topic    string
	QoS      byte
	Retained bool

	// Timeout bounds a blocking Flush.  Zero means
	// DefaultPublishTimeout.
	Timeout time.Duration

	Debug bool

	buffer
}

// NewMQTT makes an MQTT transport.  The client should already be
// connected.
func NewMQTT(client mqtt.Client, topic string, qos byte) *MQTT {
	return &MQTT{
		Client: client,
		Topic:  topic,
		QoS:    qos,
	}
}

func (m *MQTT) timeout() time.Duration {
	if m.Timeout <= 0 {
		return DefaultPublishTimeout
	}
	return m.Timeout
}

func (m *MQTT) publish(bs []byte) mqtt.Token {
	logf(m.Debug, "mqtt publishing %d bytes to %s", len(bs), m.Topic)
	return m.Client.Publish(m.Topic, m.QoS, m.Retained, bs)
}

// Flush publishes everything buffered and waits for the broker.
func (m *MQTT) Flush() error {
	bs := m.take()
	if len(bs) == 0 {
		return nil
	}
	t := m.publish(bs)
	if !t.WaitTimeout(m.timeout()) {
		return ErrPublishTimeout
	}
	return t.Error()
}

// FlushContext is Flush that waits until ctx is done instead of
// Timeout.
func (m *MQTT) FlushContext(ctx context.Context) error {
	bs := m.take()
	if len(bs) == 0 {
		return ctx.Err()
	}
	return flushContext(ctx, func() error {
		t := m.publish(bs)
		t.Wait()
		return t.Error()
	})
}

// NewMQTTClient makes and connects a client with mostly default
// options.
func NewMQTTClient(broker, clientID string, keepAlive time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetKeepAlive(keepAlive)
	c := mqtt.NewClient(opts)
	if t := c.Connect(); t.Wait() && t.Error() != nil {
		return nil, t.Error()
	}
	return c, nil
}
