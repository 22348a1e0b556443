package producer

import (
	"context"
	"encoding/json"
	"fmt"

	skafka "github.com/radieske/payments-ledger/internal/shared/kafka"
	"github.com/radieske/payments-ledger/pkg/contracts/events"
)

// KafkaPublisher publica eventos do ledger; a chave é o userId para manter a ordem por usuário
type KafkaPublisher struct {
	Writer skafka.MessageWriter
	Topic  string
}

func NewKafkaPublisher(w skafka.MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e events.PaymentEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := skafka.WriteJSON(ctx, p.Writer, e.UserID, b); err != nil {
		return fmt.Errorf("publish %s: %w", p.Topic, err)
	}
	return nil
}
