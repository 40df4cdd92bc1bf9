package plugin

import (
	"time"

	"github.com/lion-wasm/lion/internal/domain/ids"
)

// Destination is either a direct plugin address or a topic.
type Destination struct {
	Plugin ids.PluginID
	Topic  ids.Topic
	IsTopic bool
}

// ToPlugin builds a direct-addressed destination.
func ToPlugin(id ids.PluginID) Destination { return Destination{Plugin: id} }

// ToTopic builds a topic destination.
func ToTopic(t ids.Topic) Destination { return Destination{Topic: t, IsTopic: true} }

func (d Destination) String() string {
	if d.IsTopic {
		return "topic:" + string(d.Topic)
	}
	return d.Plugin.String()
}

// Message is one unit of inter-plugin communication.
type Message struct {
	ID            string
	Source        ids.PluginID
	Destination   Destination
	Payload       []byte
	Timestamp     time.Time
	CorrelationID string
}
