package adaptor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	pb "github.com/ponyo877/roomwatch/grpc"
	"github.com/ponyo877/roomwatch/server/domain"
)

const (
	DefaultTopicPrefix = "roomwatch"
	publishTimeout     = 2 * time.Second
)

var (
	_ domain.Notifier = (*Dispatcher)(nil)
	_ domain.Notifier = (*MQTTNotifier)(nil)
)

// publisher is the part of mqtt.Client the notifier needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier mirrors kiosk notifications onto a broker for kiosks that
// listen there instead of on a gRPC stream.
type MQTTNotifier struct {
	client publisher
	prefix string
	qos    byte

	mu        sync.Mutex
	published map[string]uint64
	errors    uint64
}

func newMQTTNotifier(client publisher, prefix string) *MQTTNotifier {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTTNotifier{
		client:    client,
		prefix:    prefix,
		qos:       1,
		published: make(map[string]uint64),
	}
}

// DialMQTT connects to broker and returns a notifier publishing under
// prefix, along with the client so the caller can disconnect it.
func DialMQTT(broker, clientID, prefix string) (*MQTTNotifier, mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Printf("MQTT connection to %s lost: %v", broker, err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	log.Printf("Connected to MQTT broker %s", broker)
	return newMQTTNotifier(client, prefix), client, nil
}

func (m *MQTTNotifier) AssignmentTopic(kiosk string) string {
	return m.prefix + "/kiosk/" + kiosk + "/assignment"
}

func (m *MQTTNotifier) HintTopic(roomID int) string {
	return m.prefix + "/room/" + strconv.Itoa(roomID) + "/hint"
}

func (m *MQTTNotifier) SendRoomAssignment(ctx context.Context, kiosk string, roomID int) error {
	return m.publish(m.AssignmentTopic(kiosk), pb.NewAssignmentNotification(roomID))
}

func (m *MQTTNotifier) SendHint(ctx context.Context, roomID int, text string) error {
	return m.publish(m.HintTopic(roomID), pb.NewHintNotification(roomID, text))
}

func (m *MQTTNotifier) publish(topic string, n *pb.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		m.countError()
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	token := m.client.Publish(topic, m.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		m.countError()
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		m.countError()
		return fmt.Errorf("publish to %s failed: %w", topic, err)
	}

	m.mu.Lock()
	m.published[topic]++
	m.mu.Unlock()
	return nil
}

func (m *MQTTNotifier) countError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

// Published returns how many messages went out on topic.
func (m *MQTTNotifier) Published(topic string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[topic]
}

func (m *MQTTNotifier) Errors() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors
}
