package handler

import (
	"context"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/validator"
	"crm/repo"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type StatsHandler interface {
	GetAccountStats(ctx context.Context, req *GetAccountStatsRequest, res *GetAccountStatsResponse) error
}

type statsHandler struct {
	customerRepo repo.CustomerRepo
	orderRepo    repo.OrderRepo
	campaignRepo repo.CampaignRepo
	commLogRepo  repo.CommLogRepo
}

func NewStatsHandler(customerRepo repo.CustomerRepo, orderRepo repo.OrderRepo,
	campaignRepo repo.CampaignRepo, commLogRepo repo.CommLogRepo) StatsHandler {
	return &statsHandler{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		campaignRepo: campaignRepo,
		commLogRepo:  commLogRepo,
	}
}

type GetAccountStatsRequest struct {
	ContextInfo
}

type GetAccountStatsResponse struct {
	CustomerCount *uint64 `json:"customer_count,omitempty"`
	OrderCount    *uint64 `json:"order_count,omitempty"`
	CampaignCount *uint64 `json:"campaign_count,omitempty"`
	MessagesSent  *uint64 `json:"messages_sent,omitempty"`
	MessagesTotal *uint64 `json:"messages_total,omitempty"`
	DeliveryRate  *string `json:"delivery_rate,omitempty"`
}

var GetAccountStatsValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
})

func (h *statsHandler) GetAccountStats(ctx context.Context, req *GetAccountStatsRequest, res *GetAccountStatsResponse) error {
	if err := GetAccountStatsValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	userID := req.GetUserID()

	customerCount, err := h.customerRepo.CountByUserID(ctx, userID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count customers failed: %v", err)
		return err
	}

	orderCount, err := h.orderRepo.CountByUserID(ctx, userID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count orders failed: %v", err)
		return err
	}

	campaignCount, err := h.campaignRepo.CountByUserID(ctx, userID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count campaigns failed: %v", err)
		return err
	}

	// delivery rate reflects the most recent campaign only
	var sentCount, totalCount uint64

	campaign, err := h.campaignRepo.GetLatestByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrCampaignNotFound) {
		log.Ctx(ctx).Error().Msgf("get latest campaign failed: %v", err)
		return err
	}

	if campaign != nil {
		aggrs, err := h.commLogRepo.AggrByCampaignIDs(ctx, userID, []uint64{campaign.GetID()})
		if err != nil {
			log.Ctx(ctx).Error().Msgf("aggregate comm logs failed: %v, campaign_id: %v", err, campaign.GetID())
			return err
		}
		if aggr, ok := aggrs[campaign.GetID()]; ok {
			sentCount = aggr.SentCount
			totalCount = aggr.Total
		}
	}

	res.CustomerCount = goutil.Uint64(customerCount)
	res.OrderCount = goutil.Uint64(orderCount)
	res.CampaignCount = goutil.Uint64(campaignCount)
	res.MessagesSent = goutil.Uint64(sentCount)
	res.MessagesTotal = goutil.Uint64(totalCount)
	res.DeliveryRate = goutil.String(formatDeliveryRate(sentCount, totalCount))

	return nil
}

func formatDeliveryRate(sent, total uint64) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(sent)*100/float64(total))
}
