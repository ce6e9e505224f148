// Package mqtt publishes measurements to and receives values from a mqtt broker.
package mqtt

import (
	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/womat/debug"
)

const (
	// quiesce is the specified number of milliseconds to wait for existing work to be completed.
	quiesce = 250
	// qosSubscribe is the quality of service of subscriptions.
	qosSubscribe = 1
)

// Handler contains the handler of the mqtt broker.
type Handler struct {
	handler mqttlib.Client
	// C is the channel to service the mqtt message
	// sending a message to channel C will send the message.
	C chan Message
}

// Message contains the properties of the mqtt message.
type Message struct {
	Topic    string
	Payload  []byte
	Qos      byte
	Retained bool
}

// New generate a new mqtt broker client.
func New() *Handler {
	return &Handler{
		C: make(chan Message),
	}
}

// Connect connects to the mqtt broker with the client id.
// If no broker is defined, no mqtt message are send.
func (m *Handler) Connect(broker, clientID string) error {
	if broker == "" {
		return nil
	}

	opts := mqttlib.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	m.handler = mqttlib.NewClient(opts)
	return m.ReConnect()
}

// ReConnect reconnects to the defined mqtt broker.
func (m *Handler) ReConnect() error {
	t := m.handler.Connect()
	<-t.Done()
	return t.Error()
}

// IsConnected reports whether a broker is defined and connected.
func (m *Handler) IsConnected() bool {
	return m.handler != nil && m.handler.IsConnected()
}

// Disconnect will end the connection to the broker.
func (m *Handler) Disconnect() error {
	if m.handler == nil {
		return nil
	}

	m.handler.Disconnect(quiesce)
	return nil
}

// Subscribe calls f with the payload of every message received on topic.
// If no broker or topic is defined, Subscribe does nothing.
// f is called on the goroutine of the mqtt client and must not block.
func (m *Handler) Subscribe(topic string, f func(payload []byte)) error {
	if m.handler == nil || topic == "" {
		return nil
	}

	t := m.handler.Subscribe(topic, qosSubscribe, func(_ mqttlib.Client, msg mqttlib.Message) {
		debug.TraceLog.Printf("received %v bytes from topic %v", len(msg.Payload()), msg.Topic())
		f(msg.Payload())
	})
	<-t.Done()
	return t.Error()
}

// Service listen to a message on the channel C and send the message to mqtt.
// If no handler or topic is defined, the message will be ignored.
func (m *Handler) Service() {
	for d := range m.C {
		if m.handler == nil || d.Topic == "" {
			continue
		}

		go m.publish(d)
	}
}

func (m *Handler) publish(msg Message) {
	if !m.handler.IsConnected() {
		debug.DebugLog.Printf("mqtt broker isn't connected, reconnect it")

		if err := m.ReConnect(); err != nil {
			debug.ErrorLog.Printf("can't reconnect to mqtt broker %v", err)
			return
		}
	}

	debug.DebugLog.Printf("publishing %v bytes to topic %v", len(msg.Payload), msg.Topic)
	t := m.handler.Publish(msg.Topic, msg.Qos, msg.Retained, msg.Payload)

	<-t.Done()
	if err := t.Error(); err != nil {
		debug.ErrorLog.Printf("publishing topic %v: %v", msg.Topic, err)
	}
}
