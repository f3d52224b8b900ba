package handler

import (
	"context"
	"crm/dep"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/mq"
	"crm/pkg/validator"
	"crm/repo"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentSends = 10

type CampaignHandler interface {
	CreateCampaign(ctx context.Context, req *CreateCampaignRequest, res *CreateCampaignResponse) error
	SendCampaign(ctx context.Context, req *SendCampaignRequest, res *SendCampaignResponse) error
	GetCampaign(ctx context.Context, req *GetCampaignRequest, res *GetCampaignResponse) error
	GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error
	OnDeliveryReceipt(ctx context.Context, req *OnDeliveryReceiptRequest, res *OnDeliveryReceiptResponse) error
}

type campaignHandler struct {
	campaignRepo    repo.CampaignRepo
	commLogRepo     repo.CommLogRepo
	customerRepo    repo.CustomerRepo
	audienceHandler AudienceHandler
	deliveryVendor  dep.DeliveryVendor
	producer        *mq.Producer
}

func NewCampaignHandler(campaignRepo repo.CampaignRepo, commLogRepo repo.CommLogRepo, customerRepo repo.CustomerRepo,
	audienceHandler AudienceHandler, deliveryVendor dep.DeliveryVendor, producer *mq.Producer) CampaignHandler {
	return &campaignHandler{
		campaignRepo:    campaignRepo,
		commLogRepo:     commLogRepo,
		customerRepo:    customerRepo,
		audienceHandler: audienceHandler,
		deliveryVendor:  deliveryVendor,
		producer:        producer,
	}
}

type CreateCampaignRequest struct {
	ContextInfo

	Name         *string      `json:"name,omitempty"`
	CampaignDesc *string      `json:"campaign_desc,omitempty"`
	Message      *string      `json:"message,omitempty"`
	Filters      *entity.Rule `json:"filters,omitempty"`
	CSVImportID  *string      `json:"csv_import_id,omitempty"`
}

func (r *CreateCampaignRequest) GetName() string {
	if r != nil && r.Name != nil {
		return *r.Name
	}
	return ""
}

func (r *CreateCampaignRequest) GetCampaignDesc() string {
	if r != nil && r.CampaignDesc != nil {
		return *r.CampaignDesc
	}
	return ""
}

func (r *CreateCampaignRequest) GetMessage() string {
	if r != nil && r.Message != nil {
		return *r.Message
	}
	return ""
}

func (r *CreateCampaignRequest) GetCSVImportID() string {
	if r != nil && r.CSVImportID != nil {
		return *r.CSVImportID
	}
	return ""
}

type CreateCampaignResponse struct {
	Campaign *entity.Campaign `json:"campaign,omitempty"`
}

var CreateCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo":   ContextInfoValidator,
	"name":          ResourceNameValidator(false),
	"campaign_desc": ResourceDescValidator(true),
	"message": &validator.String{
		MinLen: 1,
		MaxLen: 1000,
	},
	"csv_import_id": &validator.String{},
})

func (h *campaignHandler) CreateCampaign(ctx context.Context, req *CreateCampaignRequest, res *CreateCampaignResponse) error {
	if err := CreateCampaignValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	if _, err := uuid.Parse(req.GetCSVImportID()); err != nil {
		return errutil.ValidationError(err)
	}

	if err := req.Filters.Validate(); err != nil {
		return errutil.ValidationError(err)
	}

	campaign := entity.NewCampaign(req.GetUserID(), req.GetName(), req.GetCampaignDesc())
	campaign.Message = req.Message
	campaign.Filters = req.Filters
	campaign.CSVImportID = req.CSVImportID

	id, err := h.campaignRepo.Create(ctx, campaign)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("create campaign failed: %v", err)
		return err
	}
	campaign.ID = goutil.Uint64(id)

	res.Campaign = campaign

	return nil
}

type SendCampaignRequest struct {
	ContextInfo

	CampaignID *uint64 `json:"campaign_id,omitempty"`
}

func (r *SendCampaignRequest) GetCampaignID() uint64 {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return 0
}

type SendCampaignResponse struct {
	Campaign    *entity.Campaign `json:"campaign,omitempty"`
	SentCount   *uint64          `json:"sent_count,omitempty"`
	FailedCount *uint64          `json:"failed_count,omitempty"`
}

var SendCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
	"campaign_id": &validator.UInt64{},
})

func (h *campaignHandler) SendCampaign(ctx context.Context, req *SendCampaignRequest, res *SendCampaignResponse) error {
	if err := SendCampaignValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	campaign, err := h.campaignRepo.GetByID(ctx, req.GetUserID(), req.GetCampaignID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed: %v, campaign_id: %v", err, req.GetCampaignID())
		return err
	}

	if campaign.IsSent() {
		return errutil.ConflictError(errors.New("campaign already sent"))
	}

	customers, err := h.audienceHandler.ResolveAudience(ctx, req.GetUserID(), campaign.GetCSVImportID(), campaign.GetFilters())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("resolve audience failed: %v, campaign_id: %v", err, campaign.GetID())
		return err
	}

	var (
		now      = uint64(time.Now().Unix())
		commLogs = make([]*entity.CommLog, len(customers))

		g  = new(errgroup.Group)
		ch = make(chan struct{}, maxConcurrentSends)
	)

	for i, customer := range customers {
		i, customer := i, customer
		ch <- struct{}{}

		g.Go(func() error {
			defer func() {
				<-ch
			}()

			messageID := uuid.New().String()
			body := campaign.PersonalizeMessage(customer)

			result, err := h.deliveryVendor.Send(ctx, &dep.SendMessage{
				MessageID: messageID,
				Recipient: customer.GetEmail(),
				Body:      body,
			})
			if err != nil {
				log.Ctx(ctx).Error().Msgf("vendor send failed: %v, message_id: %s", err, messageID)
				result = &dep.SendResult{
					MessageID: messageID,
					Status:    entity.CommStatusFailed,
				}
			}

			commLogs[i] = &entity.CommLog{
				CampaignID: goutil.Uint64(campaign.GetID()),
				CustomerID: goutil.Uint64(customer.GetID()),
				UserID:     goutil.Uint64(req.GetUserID()),
				Status:     result.Status,
				Message:    goutil.String(body),
				MessageID:  goutil.String(messageID),
				SentTime:   goutil.Uint64(now),
				CreateTime: goutil.Uint64(now),
			}

			return nil
		})
	}

	_ = g.Wait()

	if len(commLogs) > 0 {
		if err := h.commLogRepo.CreateMany(ctx, commLogs); err != nil {
			log.Ctx(ctx).Error().Msgf("create comm logs failed: %v, campaign_id: %v", err, campaign.GetID())
			return err
		}
	}

	customerIDs := make([]uint64, 0, len(customers))
	for _, customer := range customers {
		customerIDs = append(customerIDs, customer.GetID())
	}

	campaign.CustomerIDs = customerIDs
	campaign.SentTime = goutil.Uint64(now)
	campaign.UpdateTime = goutil.Uint64(now)

	if err := h.campaignRepo.Update(ctx, campaign); err != nil {
		log.Ctx(ctx).Error().Msgf("update campaign failed: %v, campaign_id: %v", err, campaign.GetID())
		return err
	}

	var sentCount, failedCount uint64
	for _, commLog := range commLogs {
		if commLog.GetStatus() == entity.CommStatusSent {
			sentCount++
		} else {
			failedCount++
		}
	}

	h.publishDispatched(ctx, campaign, uint64(len(customers)))

	res.Campaign = campaign
	res.SentCount = goutil.Uint64(sentCount)
	res.FailedCount = goutil.Uint64(failedCount)

	return nil
}

// publishDispatched is best-effort; a broker outage never fails a send.
func (h *campaignHandler) publishDispatched(ctx context.Context, campaign *entity.Campaign, audienceSize uint64) {
	if h.producer == nil {
		return
	}

	if err := h.producer.SendMessage(&mq.Message{
		Payload: mq.PayloadCampaignDispatched,
		Key:     uuid.New().String(),
		Body: &mq.CampaignDispatched{
			CampaignID:   goutil.Uint64(campaign.GetID()),
			UserID:       goutil.Uint64(campaign.GetUserID()),
			AudienceSize: goutil.Uint64(audienceSize),
		},
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("publish campaign dispatched failed: %v, campaign_id: %v", err, campaign.GetID())
	}
}

type CampaignRecipient struct {
	Customer *entity.Customer `json:"customer,omitempty"`
	CommLog  *entity.CommLog  `json:"comm_log,omitempty"`
}

type GetCampaignRequest struct {
	ContextInfo

	CampaignID *uint64 `schema:"campaign_id,omitempty"`
}

func (r *GetCampaignRequest) GetCampaignID() uint64 {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return 0
}

type GetCampaignResponse struct {
	Campaign    *entity.Campaign     `json:"campaign,omitempty"`
	Recipients  []*CampaignRecipient `json:"recipients,omitempty"`
	SentCount   *uint64              `json:"sent_count,omitempty"`
	FailedCount *uint64              `json:"failed_count,omitempty"`
}

var GetCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
	"campaign_id": &validator.UInt64{},
})

func (h *campaignHandler) GetCampaign(ctx context.Context, req *GetCampaignRequest, res *GetCampaignResponse) error {
	if err := GetCampaignValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	campaign, err := h.campaignRepo.GetByID(ctx, req.GetUserID(), req.GetCampaignID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed: %v, campaign_id: %v", err, req.GetCampaignID())
		return err
	}

	commLogs, err := h.commLogRepo.GetByCampaignID(ctx, req.GetUserID(), campaign.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get comm logs failed: %v, campaign_id: %v", err, campaign.GetID())
		return err
	}

	customersByID := make(map[uint64]*entity.Customer)
	if len(campaign.GetCustomerIDs()) > 0 {
		customers, err := h.customerRepo.GetByIDs(ctx, req.GetUserID(), campaign.GetCustomerIDs())
		if err != nil {
			log.Ctx(ctx).Error().Msgf("get customers failed: %v, campaign_id: %v", err, campaign.GetID())
			return err
		}
		for _, customer := range customers {
			customersByID[customer.GetID()] = customer
		}
	}

	var (
		recipients = make([]*CampaignRecipient, 0, len(commLogs))

		sentCount   uint64
		failedCount uint64
	)
	for _, commLog := range commLogs {
		recipients = append(recipients, &CampaignRecipient{
			Customer: customersByID[commLog.GetCustomerID()],
			CommLog:  commLog,
		})

		if commLog.GetStatus() == entity.CommStatusSent {
			sentCount++
		} else {
			failedCount++
		}
	}

	res.Campaign = campaign
	res.Recipients = recipients
	res.SentCount = goutil.Uint64(sentCount)
	res.FailedCount = goutil.Uint64(failedCount)

	return nil
}

type CampaignWithStats struct {
	Campaign    *entity.Campaign `json:"campaign,omitempty"`
	Total       *uint64          `json:"total,omitempty"`
	SentCount   *uint64          `json:"sent_count,omitempty"`
	FailedCount *uint64          `json:"failed_count,omitempty"`
}

type GetCampaignsRequest struct {
	ContextInfo

	Page  *uint32 `schema:"page,omitempty"`
	Limit *uint32 `schema:"limit,omitempty"`
}

type GetCampaignsResponse struct {
	Campaigns  []*CampaignWithStats `json:"campaigns,omitempty"`
	Pagination *repo.Pagination     `json:"pagination,omitempty"`
}

var GetCampaignsValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
})

func (h *campaignHandler) GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error {
	if err := GetCampaignsValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	var (
		page  = uint32(1)
		limit = uint32(20)
	)
	if req.Page != nil && *req.Page > 0 {
		page = *req.Page
	}
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}

	campaigns, pagination, err := h.campaignRepo.GetByUserID(ctx, req.GetUserID(), &repo.Pagination{
		Page:  goutil.Uint32(page),
		Limit: goutil.Uint32(limit),
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaigns failed: %v", err)
		return err
	}

	campaignIDs := make([]uint64, 0, len(campaigns))
	for _, campaign := range campaigns {
		campaignIDs = append(campaignIDs, campaign.GetID())
	}

	aggrs := make(map[uint64]*repo.CommLogAggr)
	if len(campaignIDs) > 0 {
		aggrs, err = h.commLogRepo.AggrByCampaignIDs(ctx, req.GetUserID(), campaignIDs)
		if err != nil {
			log.Ctx(ctx).Error().Msgf("aggregate comm logs failed: %v", err)
			return err
		}
	}

	withStats := make([]*CampaignWithStats, 0, len(campaigns))
	for _, campaign := range campaigns {
		cs := &CampaignWithStats{
			Campaign:    campaign,
			Total:       goutil.Uint64(0),
			SentCount:   goutil.Uint64(0),
			FailedCount: goutil.Uint64(0),
		}

		if aggr, ok := aggrs[campaign.GetID()]; ok {
			cs.Total = goutil.Uint64(aggr.Total)
			cs.SentCount = goutil.Uint64(aggr.SentCount)
			cs.FailedCount = goutil.Uint64(aggr.FailedCount)
		}

		withStats = append(withStats, cs)
	}

	res.Campaigns = withStats
	res.Pagination = pagination

	return nil
}

type OnDeliveryReceiptRequest struct {
	MessageID *string `json:"message_id,omitempty"`
	Status    *string `json:"status,omitempty"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
}

func (r *OnDeliveryReceiptRequest) GetMessageID() string {
	if r != nil && r.MessageID != nil {
		return *r.MessageID
	}
	return ""
}

func (r *OnDeliveryReceiptRequest) GetStatus() string {
	if r != nil && r.Status != nil {
		return *r.Status
	}
	return ""
}

func (r *OnDeliveryReceiptRequest) GetTimestamp() uint64 {
	if r != nil && r.Timestamp != nil {
		return *r.Timestamp
	}
	return 0
}

type OnDeliveryReceiptResponse struct{}

var OnDeliveryReceiptValidator = validator.MustForm(map[string]validator.Validator{
	"message_id": &validator.String{},
	"status":     &validator.String{},
	"timestamp": &validator.UInt64{
		Optional: true,
	},
})

// OnDeliveryReceipt applies a vendor delivery receipt. Receipts are
// idempotent and last-write-wins.
func (h *campaignHandler) OnDeliveryReceipt(ctx context.Context, req *OnDeliveryReceiptRequest, _ *OnDeliveryReceiptResponse) error {
	if err := OnDeliveryReceiptValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	status, ok := entity.CommStatuses[req.GetStatus()]
	if !ok {
		return errutil.ValidationError(errors.New("unknown delivery status"))
	}

	if _, err := h.commLogRepo.GetByMessageID(ctx, req.GetMessageID()); err != nil {
		log.Ctx(ctx).Error().Msgf("get comm log failed: %v, message_id: %s", err, req.GetMessageID())
		return err
	}

	deliveredTime := req.GetTimestamp()
	if deliveredTime == 0 {
		deliveredTime = uint64(time.Now().Unix())
	}

	if err := h.commLogRepo.UpdateByMessageID(ctx, req.GetMessageID(), &entity.CommLog{
		Status:        status,
		DeliveredTime: goutil.Uint64(deliveredTime),
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("update comm log failed: %v, message_id: %s", err, req.GetMessageID())
		return err
	}

	return nil
}
