// Package sink forwards poll updates to a message broker.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/kjannette/stocks-backend/internal/chart"
	"github.com/kjannette/stocks-backend/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Kafka publishes one message per quote and per chart update, keyed by
// symbol so a partition keeps each symbol in order.
type Kafka struct {
	w     messageWriter
	topic string
	log   zerolog.Logger
}

type quoteMessage struct {
	Type  string       `json:"type"`
	At    time.Time    `json:"at"`
	Quote models.Quote `json:"quote"`
}

// chartMessage carries the raw payload next to the series built at the
// update's resolved interval.
type chartMessage struct {
	Type   string             `json:"type"`
	At     time.Time          `json:"at"`
	Chart  models.ChartUpdate `json:"chart"`
	Series chart.Series       `json:"series"`
}

func NewKafka(brokerURL, topic string, log zerolog.Logger) *Kafka {
	w := &kafkaGo.Writer{
		Addr:         kafkaGo.TCP(brokerURL),
		Topic:        topic,
		Balancer:     &kafkaGo.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafkaGo.RequireOne,
	}
	return newKafka(w, topic, log)
}

func newKafka(w messageWriter, topic string, log zerolog.Logger) *Kafka {
	return &Kafka{
		w:     w,
		topic: topic,
		log:   log.With().Str("component", "sink").Str("topic", topic).Logger(),
	}
}

// Publish writes u's quotes and chart. Sparks stay local.
func (k *Kafka) Publish(ctx context.Context, u models.Update) error {
	msgs, err := Messages(u)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	k.log.Debug().Int("messages", len(msgs)).Msg("published update")
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}

// Messages encodes an update as broker messages.
func Messages(u models.Update) ([]kafkaGo.Message, error) {
	msgs := make([]kafkaGo.Message, 0, len(u.Quotes)+1)
	for _, q := range u.Quotes {
		b, err := json.Marshal(quoteMessage{Type: "quote", At: u.At, Quote: q})
		if err != nil {
			return nil, fmt.Errorf("encode quote %s: %w", q.Symbol, err)
		}
		msgs = append(msgs, kafkaGo.Message{Key: []byte(q.Symbol), Value: b, Time: u.At})
	}
	if u.Chart != nil {
		cu := *u.Chart
		b, err := json.Marshal(chartMessage{
			Type:   "chart",
			At:     u.At,
			Chart:  cu,
			Series: chart.Build(cu.Chart, cu.Range, cu.Interval),
		})
		if err != nil {
			return nil, fmt.Errorf("encode chart %s: %w", u.Chart.Symbol, err)
		}
		msgs = append(msgs, kafkaGo.Message{Key: []byte(u.Chart.Symbol), Value: b, Time: u.At})
	}
	return msgs, nil
}

// EnsureTopic creates topic through the cluster controller. An existing
// topic is not an error.
func EnsureTopic(brokerURL, topic string) error {
	conn, err := kafkaGo.Dial("tcp", brokerURL)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	cc, err := kafkaGo.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cc.Close()

	return cc.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
