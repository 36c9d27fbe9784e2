package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/tu-usuario/orderflow/internal/application/orders"
)

var _ orders.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher publica eventos del ciclo de vida del pedido en un topic
// Kafka. Se invoca después del commit de cada operación; la clave del mensaje
// es el order_id para que los eventos de un mismo pedido conserven el orden
// dentro de su partición.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher construye el publicador.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Publish serializa el evento como JSON y lo escribe en el topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event orders.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

// Close cierra el writer subyacente.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
