package repo

import (
	"context"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrCommLogNotFound = errutil.NotFoundError(errors.New("communication log not found"))
)

type CommLog struct {
	ID            *uint64 `json:"id,omitempty"`
	CampaignID    *uint64 `json:"campaign_id,omitempty"`
	CustomerID    *uint64 `json:"customer_id,omitempty"`
	UserID        *uint64 `json:"user_id,omitempty"`
	Status        *uint32 `json:"status,omitempty"`
	Message       *string `json:"message,omitempty"`
	MessageID     *string `json:"message_id,omitempty"`
	SentTime      *uint64 `json:"sent_time,omitempty"`
	DeliveredTime *uint64 `json:"delivered_time,omitempty"`
	CreateTime    *uint64 `json:"create_time,omitempty"`
}

func (m *CommLog) TableName() string {
	return "communication_log_tab"
}

func (m *CommLog) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *CommLog) GetStatus() uint32 {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

// CommLogAggr is the per-campaign delivery rollup.
type CommLogAggr struct {
	CampaignID  uint64 `json:"campaign_id"`
	Total       uint64 `json:"total"`
	SentCount   uint64 `json:"sent_count"`
	FailedCount uint64 `json:"failed_count"`
}

type CommLogRepo interface {
	CreateMany(ctx context.Context, commLogs []*entity.CommLog) error
	GetByCampaignID(ctx context.Context, userID, campaignID uint64) ([]*entity.CommLog, error)
	GetByMessageID(ctx context.Context, messageID string) (*entity.CommLog, error)
	UpdateByMessageID(ctx context.Context, messageID string, commLog *entity.CommLog) error
	AggrByCampaignIDs(ctx context.Context, userID uint64, campaignIDs []uint64) (map[uint64]*CommLogAggr, error)
}

type commLogRepo struct {
	baseRepo BaseRepo
}

func NewCommLogRepo(_ context.Context, baseRepo BaseRepo) CommLogRepo {
	return &commLogRepo{baseRepo: baseRepo}
}

func (r *commLogRepo) CreateMany(ctx context.Context, commLogs []*entity.CommLog) error {
	commLogModels := make([]*CommLog, 0, len(commLogs))
	for _, commLog := range commLogs {
		commLogModels = append(commLogModels, ToCommLogModel(commLog))
	}

	return r.baseRepo.CreateMany(ctx, new(CommLog), commLogModels)
}

func (r *commLogRepo) GetByCampaignID(ctx context.Context, userID, campaignID uint64) ([]*entity.CommLog, error) {
	res, _, err := r.baseRepo.GetMany(ctx, new(CommLog), &Filter{
		Conditions: []*Condition{
			{
				Field:         "user_id",
				Value:         userID,
				Op:            OpEq,
				NextLogicalOp: And,
			},
			{
				Field: "campaign_id",
				Value: campaignID,
				Op:    OpEq,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	commLogs := make([]*entity.CommLog, 0, len(res))
	for _, m := range res {
		commLogs = append(commLogs, ToCommLog(m.(*CommLog)))
	}

	return commLogs, nil
}

func (r *commLogRepo) GetByMessageID(ctx context.Context, messageID string) (*entity.CommLog, error) {
	commLogModel := new(CommLog)

	if err := r.baseRepo.Get(ctx, commLogModel, &Filter{
		Conditions: []*Condition{
			{
				Field: "message_id",
				Value: messageID,
				Op:    OpEq,
			},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommLogNotFound
		}
		return nil, err
	}

	return ToCommLog(commLogModel), nil
}

func (r *commLogRepo) UpdateByMessageID(ctx context.Context, messageID string, commLog *entity.CommLog) error {
	return r.baseRepo.Update(ctx, new(CommLog), &Filter{
		Conditions: []*Condition{
			{
				Field: "message_id",
				Value: messageID,
				Op:    OpEq,
			},
		},
	}, ToCommLogModel(commLog))
}

func (r *commLogRepo) AggrByCampaignIDs(ctx context.Context, userID uint64, campaignIDs []uint64) (map[uint64]*CommLogAggr, error) {
	res, err := r.baseRepo.GroupBy(ctx, new(CommLog), new(CommLogAggr),
		[]string{"campaign_id"},
		r.aggregateFields(),
		&Filter{
			Conditions: []*Condition{
				{
					Field:         "user_id",
					Value:         userID,
					Op:            OpEq,
					NextLogicalOp: And,
				},
				{
					Field: "campaign_id",
					Value: campaignIDs,
					Op:    OpIn,
				},
			},
		})
	if err != nil {
		return nil, err
	}

	aggrs := make(map[uint64]*CommLogAggr, len(res))
	for _, m := range res {
		aggr := m.(*CommLogAggr)
		aggrs[aggr.CampaignID] = aggr
	}

	return aggrs, nil
}

func (r *commLogRepo) aggregateFields() map[string]string {
	return map[string]string{
		"campaign_id":  "campaign_id",
		"total":        "count(*)",
		"sent_count":   "sum(case when status = 1 then 1 else 0 end)",
		"failed_count": "sum(case when status = 2 then 1 else 0 end)",
	}
}

func ToCommLog(commLog *CommLog) *entity.CommLog {
	return &entity.CommLog{
		ID:            commLog.ID,
		CampaignID:    commLog.CampaignID,
		CustomerID:    commLog.CustomerID,
		UserID:        commLog.UserID,
		Status:        entity.CommStatus(commLog.GetStatus()),
		Message:       commLog.Message,
		MessageID:     commLog.MessageID,
		SentTime:      commLog.SentTime,
		DeliveredTime: commLog.DeliveredTime,
		CreateTime:    commLog.CreateTime,
	}
}

func ToCommLogModel(commLog *entity.CommLog) *CommLog {
	var status *uint32
	if commLog.GetStatus() != entity.CommStatusUnknown {
		status = goutil.Uint32(uint32(commLog.GetStatus()))
	}

	return &CommLog{
		ID:            commLog.ID,
		CampaignID:    commLog.CampaignID,
		CustomerID:    commLog.CustomerID,
		UserID:        commLog.UserID,
		Status:        status,
		Message:       commLog.Message,
		MessageID:     commLog.MessageID,
		SentTime:      commLog.SentTime,
		DeliveredTime: commLog.DeliveredTime,
		CreateTime:    commLog.CreateTime,
	}
}
