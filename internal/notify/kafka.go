// Package notify announces freshly published exports on a Kafka topic
// so downstream consumers can react without polling the export dir.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"geoexport/internal/pipeline"
)

type Config struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	Acks    int16    `koanf:"required_acks"` // 0,1,-1
}

// Enabled reports whether notification is configured at all.
func (c Config) Enabled() bool { return len(c.Brokers) > 0 }

// Event is the wire payload, one message per published artifact.
type Event struct {
	Source      string `json:"source"`
	Artifact    string `json:"artifact"`
	Bytes       int64  `json:"bytes"`
	Mode        string `json:"mode"`
	PublishedAt string `json:"published_at"`
}

type Producer struct {
	cfg  Config
	mode pipeline.Mode
	p    sarama.SyncProducer
}

// NewProducer connects a synchronous producer: a run-to-completion
// batch wants delivery confirmed before the process exits.
func NewProducer(cfg Config, mode pipeline.Mode) (*Producer, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Successes = true
	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	return &Producer{cfg: cfg, mode: mode, p: p}, nil
}

// Published satisfies pipeline.PublishHook.
func (n *Producer) Published(pub pipeline.Published) error {
	ev := Event{
		Source:      pub.Source.String(),
		Artifact:    pub.Path,
		Bytes:       pub.Bytes,
		Mode:        string(n.mode),
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}
	_, _, err = n.p.SendMessage(&sarama.ProducerMessage{
		Topic: n.cfg.Topic,
		Key:   sarama.StringEncoder(ev.Source),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}

func (n *Producer) Close() error {
	return n.p.Close()
}
