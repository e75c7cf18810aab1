package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/pkg/telemetry"
)

type AlertService interface {
	SendPayrollFailureAlert(ctx context.Context, rec *model.PayrollShiftRecord) error
}

// SESAlertService emails the ops inbox when a payroll attempt is persisted
// as a failure row, so bad sends get looked at instead of sitting in the
// table unnoticed.
type SESAlertService struct {
	client    *ses.Client
	sender    string
	recipient string
}

func NewSESAlertService(client *ses.Client, sender, recipient string) *SESAlertService {
	return &SESAlertService{client: client, sender: sender, recipient: recipient}
}

func (s *SESAlertService) SendPayrollFailureAlert(ctx context.Context, rec *model.PayrollShiftRecord) error {
	tracer := otel.Tracer("ses-alert-service")
	ctx, span := tracer.Start(ctx, "send_alert", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if key := telemetry.GetBusinessKeyFromContext(ctx); key != "" {
		span.SetAttributes(attribute.String("app.timeActivityId", key))
	}

	body := fmt.Sprintf(
		"Payroll sync failed for time activity %s (worker %s).\n\nAction: %s\nEvent: %s\nStatus: %d\nMessage: %s\n",
		rec.TimeActivityID, rec.WorkerID, rec.ActionType, rec.EventType, rec.StatusCode, rec.StatusMessage,
	)

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{s.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Payroll sync failure: %s", rec.TimeActivityID)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
