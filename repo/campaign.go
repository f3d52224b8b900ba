package repo

import (
	"context"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound = errutil.NotFoundError(errors.New("campaign not found"))
)

type Campaign struct {
	ID           *uint64 `json:"id,omitempty"`
	Name         *string `json:"name,omitempty"`
	CampaignDesc *string `json:"campaign_desc,omitempty"`
	UserID       *uint64 `json:"user_id,omitempty"`
	Message      *string `json:"message,omitempty"`
	Filters      *string `json:"filters,omitempty"`
	CustomerIDs  *string `json:"customer_ids,omitempty"`
	CSVImportID  *string `json:"csv_import_id,omitempty"`
	SentTime     *uint64 `json:"sent_time,omitempty"`
	CreateTime   *uint64 `json:"create_time,omitempty"`
	UpdateTime   *uint64 `json:"update_time,omitempty"`
}

func (m *Campaign) TableName() string {
	return "campaign_tab"
}

func (m *Campaign) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *Campaign) GetFilters() string {
	if m != nil && m.Filters != nil {
		return *m.Filters
	}
	return ""
}

func (m *Campaign) GetCustomerIDs() string {
	if m != nil && m.CustomerIDs != nil {
		return *m.CustomerIDs
	}
	return ""
}

type CampaignRepo interface {
	Create(ctx context.Context, campaign *entity.Campaign) (uint64, error)
	Update(ctx context.Context, campaign *entity.Campaign) error
	GetByID(ctx context.Context, userID, campaignID uint64) (*entity.Campaign, error)
	GetByUserID(ctx context.Context, userID uint64, p *Pagination) ([]*entity.Campaign, *Pagination, error)
	GetLatestByUserID(ctx context.Context, userID uint64) (*entity.Campaign, error)
	CountByUserID(ctx context.Context, userID uint64) (uint64, error)
}

type campaignRepo struct {
	baseRepo BaseRepo
}

func NewCampaignRepo(_ context.Context, baseRepo BaseRepo) CampaignRepo {
	return &campaignRepo{baseRepo: baseRepo}
}

func (r *campaignRepo) Create(ctx context.Context, campaign *entity.Campaign) (uint64, error) {
	campaignModel, err := ToCampaignModel(campaign)
	if err != nil {
		return 0, err
	}

	if err := r.baseRepo.Create(ctx, campaignModel); err != nil {
		return 0, err
	}

	return campaignModel.GetID(), nil
}

func (r *campaignRepo) Update(ctx context.Context, campaign *entity.Campaign) error {
	campaignModel, err := ToCampaignModel(campaign)
	if err != nil {
		return err
	}

	return r.baseRepo.Update(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Value: campaign.GetID(),
				Op:    OpEq,
			},
		},
	}, campaignModel)
}

func (r *campaignRepo) GetByID(ctx context.Context, userID, campaignID uint64) (*entity.Campaign, error) {
	campaignModel := new(Campaign)

	if err := r.baseRepo.Get(ctx, campaignModel, &Filter{
		Conditions: []*Condition{
			{
				Field:         "id",
				Value:         campaignID,
				Op:            OpEq,
				NextLogicalOp: And,
			},
			{
				Field: "user_id",
				Value: userID,
				Op:    OpEq,
			},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	return ToCampaign(campaignModel)
}

func (r *campaignRepo) GetByUserID(ctx context.Context, userID uint64, p *Pagination) ([]*entity.Campaign, *Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{
				Field: "user_id",
				Value: userID,
				Op:    OpEq,
			},
		},
		Pagination: p,
	})
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]*entity.Campaign, 0, len(res))
	for _, m := range res {
		campaign, err := ToCampaign(m.(*Campaign))
		if err != nil {
			return nil, nil, err
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, pagination, nil
}

func (r *campaignRepo) GetLatestByUserID(ctx context.Context, userID uint64) (*entity.Campaign, error) {
	campaigns, _, err := r.GetByUserID(ctx, userID, &Pagination{
		Page:  goutil.Uint32(1),
		Limit: goutil.Uint32(1),
	})
	if err != nil {
		return nil, err
	}

	if len(campaigns) == 0 {
		return nil, ErrCampaignNotFound
	}

	return campaigns[0], nil
}

func (r *campaignRepo) CountByUserID(ctx context.Context, userID uint64) (uint64, error) {
	return r.baseRepo.Count(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{
				Field: "user_id",
				Value: userID,
				Op:    OpEq,
			},
		},
	})
}

func ToCampaign(campaign *Campaign) (*entity.Campaign, error) {
	var filters *entity.Rule
	if campaign.GetFilters() != "" {
		filters = new(entity.Rule)
		if err := json.Unmarshal([]byte(campaign.GetFilters()), filters); err != nil {
			return nil, err
		}
	}

	var customerIDs []uint64
	if campaign.GetCustomerIDs() != "" {
		if err := json.Unmarshal([]byte(campaign.GetCustomerIDs()), &customerIDs); err != nil {
			return nil, err
		}
	}

	return &entity.Campaign{
		ID:           campaign.ID,
		Name:         campaign.Name,
		CampaignDesc: campaign.CampaignDesc,
		UserID:       campaign.UserID,
		Message:      campaign.Message,
		Filters:      filters,
		CustomerIDs:  customerIDs,
		CSVImportID:  campaign.CSVImportID,
		SentTime:     campaign.SentTime,
		CreateTime:   campaign.CreateTime,
		UpdateTime:   campaign.UpdateTime,
	}, nil
}

func ToCampaignModel(campaign *entity.Campaign) (*Campaign, error) {
	var filters *string
	if campaign.GetFilters() != nil {
		b, err := json.Marshal(campaign.GetFilters())
		if err != nil {
			return nil, err
		}
		filters = goutil.String(string(b))
	}

	var customerIDs *string
	if len(campaign.GetCustomerIDs()) > 0 {
		b, err := json.Marshal(campaign.GetCustomerIDs())
		if err != nil {
			return nil, err
		}
		customerIDs = goutil.String(string(b))
	}

	return &Campaign{
		ID:           campaign.ID,
		Name:         campaign.Name,
		CampaignDesc: campaign.CampaignDesc,
		UserID:       campaign.UserID,
		Message:      campaign.Message,
		Filters:      filters,
		CustomerIDs:  customerIDs,
		CSVImportID:  campaign.CSVImportID,
		SentTime:     campaign.SentTime,
		CreateTime:   campaign.CreateTime,
		UpdateTime:   campaign.UpdateTime,
	}, nil
}
