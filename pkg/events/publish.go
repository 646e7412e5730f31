package events

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Envelope is the wire form of an Event on the in-process bus.
type Envelope struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
	At   time.Time              `json:"at"`
}

func Publish(pub message.Publisher, topic string, ev Event) error {
	payload, err := json.Marshal(Envelope{
		Type: ev.EventType(),
		Data: ev.Payload(),
		At:   ev.Timestamp(),
	})
	if err != nil {
		return err
	}
	return pub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}
