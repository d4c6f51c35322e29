package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"

	"github.com/banking/risk-engine/internal/config"
	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
)

// Publisher emits risk alerts for high-tier records
type Publisher interface {
	Publish(ctx context.Context, alert *domain.RiskAlert) error
	Close() error
}

// KafkaPublisher publishes alerts to a Kafka topic, keyed by the
// suspicious account so one account's alerts stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher connects a synchronous producer
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    cfg.AlertsTopic,
		log:      log.Named("alert_publisher"),
	}, nil
}

// Publish sends one alert; the caller decides whether failures matter
func (p *KafkaPublisher) Publish(ctx context.Context, alert *domain.RiskAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(alert.SuspiciousAccountID, 10)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	p.log.Debug("alert message sent",
		logger.StringField("alert_id", alert.ID.String()),
		logger.Int64Field("partition", int64(partition)),
		logger.Int64Field("offset", offset),
	)
	return nil
}

// Close shuts the producer down
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops alerts; used when Kafka is disabled
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

// Publish discards the alert
func (NopPublisher) Publish(context.Context, *domain.RiskAlert) error {
	return nil
}

// Close is a no-op
func (NopPublisher) Close() error {
	return nil
}
