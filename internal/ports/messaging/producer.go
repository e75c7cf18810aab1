package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender             MessageSender
	syncQueueURL       string
	settlementQueueURL string
}

func NewProducer(sender MessageSender, syncQueueURL, settlementQueueURL string) *Producer {
	return &Producer{
		sender:             sender,
		syncQueueURL:       syncQueueURL,
		settlementQueueURL: settlementQueueURL,
	}
}

func NewSQSProducer(client SQSClient, syncQueueURL, settlementQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, syncQueueURL, settlementQueueURL)
}

func (p *Producer) PublishSync(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.syncQueueURL, body)
}

func (p *Producer) PublishSettlement(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.settlementQueueURL, body)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with the business key if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			TimeActivityID string `json:"timeActivityId"`
			Record         struct {
				TimeActivityID string `json:"timeActivityId"`
			} `json:"record"`
		}
		if err := json.Unmarshal(b, &payload); err == nil {
			key := payload.TimeActivityID
			if key == "" {
				key = payload.Record.TimeActivityID
			}
			if key != "" {
				span.SetAttributes(attribute.String("app.timeActivityId", key))
			}
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
