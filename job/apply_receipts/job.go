package apply_receipts

import (
	"context"
	"crm/config"
	"crm/handler"
	"crm/pkg/mq"
	"crm/pkg/service"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// ApplyReceipts consumes vendor delivery receipts from Kafka and applies
// them through the same path as the receipt webhook.
type ApplyReceipts struct {
	cfg             *config.Config
	campaignHandler handler.CampaignHandler

	consumer *mq.Consumer
}

func New(cfg *config.Config, campaignHandler handler.CampaignHandler) service.Job {
	return &ApplyReceipts{
		cfg:             cfg,
		campaignHandler: campaignHandler,
	}
}

func (h *ApplyReceipts) Init(_ context.Context) error {
	mq.RegisterHandler(mq.PayloadDeliveryReceipt, h.handleReceipt)
	return nil
}

func (h *ApplyReceipts) Run(ctx context.Context) error {
	consumer, err := mq.NewConsumer(ctx, mq.ConsumerConfig{
		Brokers:       h.cfg.Kafka.Brokers,
		Topic:         h.cfg.Kafka.ReceiptTopic,
		ConsumerGroup: h.cfg.Kafka.ConsumerGroup,
		InitialOffset: "oldest",
	})
	if err != nil {
		return err
	}
	h.consumer = consumer

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}

func (h *ApplyReceipts) CleanUp(_ context.Context) error {
	if h.consumer != nil {
		return h.consumer.Close()
	}
	return nil
}

func (h *ApplyReceipts) handleReceipt(ctx context.Context, msg *mq.Message) error {
	receipt := new(mq.DeliveryReceipt)
	if err := msg.ParseBody(receipt); err != nil {
		log.Ctx(ctx).Error().Msgf("parse delivery receipt failed: %v", err)
		return err
	}

	req := &handler.OnDeliveryReceiptRequest{
		MessageID: receipt.MessageID,
		Status:    receipt.Status,
		Timestamp: receipt.Timestamp,
	}

	if err := h.campaignHandler.OnDeliveryReceipt(ctx, req, new(handler.OnDeliveryReceiptResponse)); err != nil {
		log.Ctx(ctx).Error().Msgf("apply delivery receipt failed: %v, message_id: %s", err, receipt.GetMessageID())
		return err
	}

	return nil
}
