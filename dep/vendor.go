package dep

import (
	"context"
	"crm/config"
	"crm/entity"
	"math/rand"
)

type SendMessage struct {
	MessageID string
	Recipient string
	Body      string
}

type SendResult struct {
	MessageID string
	Status    entity.CommStatus
}

// DeliveryVendor hands personalized messages to a downstream channel
// and reports a per-message outcome.
type DeliveryVendor interface {
	Send(ctx context.Context, msg *SendMessage) (*SendResult, error)
	Close(ctx context.Context) error
}

// simulatedVendor accepts every message and marks it sent with a
// configured probability. It stands in for a real SMS or email gateway.
type simulatedVendor struct {
	successRate float64
}

func NewSimulatedVendor(_ context.Context, cfg config.Vendor) DeliveryVendor {
	successRate := cfg.SuccessRate
	if successRate <= 0 || successRate > 1 {
		successRate = config.DefaultVendorSuccessRate
	}
	return &simulatedVendor{
		successRate: successRate,
	}
}

func (s *simulatedVendor) Send(_ context.Context, msg *SendMessage) (*SendResult, error) {
	status := entity.CommStatusFailed
	if rand.Float64() < s.successRate {
		status = entity.CommStatusSent
	}

	return &SendResult{
		MessageID: msg.MessageID,
		Status:    status,
	}, nil
}

func (s *simulatedVendor) Close(_ context.Context) error {
	return nil
}
