package repo

import (
	"context"
	"crm/entity"
	"encoding/json"
)

type Customer struct {
	ID          *uint64 `json:"id,omitempty"`
	UserID      *uint64 `json:"user_id,omitempty"`
	CSVImportID *string `json:"csv_import_id,omitempty"`
	CampaignID  *uint64 `json:"campaign_id,omitempty"`
	Email       *string `json:"email,omitempty"`
	Name        *string `json:"name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Attrs       *string `json:"attrs,omitempty"`
	CreateTime  *uint64 `json:"create_time,omitempty"`
	UpdateTime  *uint64 `json:"update_time,omitempty"`
}

func (m *Customer) TableName() string {
	return "customer_tab"
}

func (m *Customer) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *Customer) GetAttrs() string {
	if m != nil && m.Attrs != nil {
		return *m.Attrs
	}
	return ""
}

type CustomerRepo interface {
	CreateMany(ctx context.Context, customers []*entity.Customer) ([]uint64, error)
	GetByCSVImportID(ctx context.Context, userID uint64, csvImportID string, p *Pagination) ([]*entity.Customer, *Pagination, error)
	GetByIDs(ctx context.Context, userID uint64, customerIDs []uint64) ([]*entity.Customer, error)
	CountByUserID(ctx context.Context, userID uint64) (uint64, error)
}

type customerRepo struct {
	baseRepo BaseRepo
}

func NewCustomerRepo(_ context.Context, baseRepo BaseRepo) CustomerRepo {
	return &customerRepo{baseRepo: baseRepo}
}

func (r *customerRepo) CreateMany(ctx context.Context, customers []*entity.Customer) ([]uint64, error) {
	customerModels := make([]*Customer, 0, len(customers))
	for _, customer := range customers {
		customerModel, err := ToCustomerModel(customer)
		if err != nil {
			return nil, err
		}
		customerModels = append(customerModels, customerModel)
	}

	if err := r.baseRepo.CreateMany(ctx, new(Customer), customerModels); err != nil {
		return nil, err
	}

	customerIDs := make([]uint64, 0, len(customerModels))
	for _, customerModel := range customerModels {
		customerIDs = append(customerIDs, customerModel.GetID())
	}

	return customerIDs, nil
}

func (r *customerRepo) GetByCSVImportID(ctx context.Context, userID uint64, csvImportID string, p *Pagination) ([]*entity.Customer, *Pagination, error) {
	return r.getMany(ctx, &Filter{
		Conditions: []*Condition{
			{
				Field:         "user_id",
				Value:         userID,
				Op:            OpEq,
				NextLogicalOp: And,
			},
			{
				Field: "csv_import_id",
				Value: csvImportID,
				Op:    OpEq,
			},
		},
		Pagination: p,
	})
}

func (r *customerRepo) GetByIDs(ctx context.Context, userID uint64, customerIDs []uint64) ([]*entity.Customer, error) {
	customers, _, err := r.getMany(ctx, &Filter{
		Conditions: []*Condition{
			{
				Field:         "user_id",
				Value:         userID,
				Op:            OpEq,
				NextLogicalOp: And,
			},
			{
				Field: "id",
				Value: customerIDs,
				Op:    OpIn,
			},
		},
	})
	return customers, err
}

func (r *customerRepo) CountByUserID(ctx context.Context, userID uint64) (uint64, error) {
	return r.baseRepo.Count(ctx, new(Customer), &Filter{
		Conditions: []*Condition{
			{
				Field: "user_id",
				Value: userID,
				Op:    OpEq,
			},
		},
	})
}

func (r *customerRepo) getMany(ctx context.Context, f *Filter) ([]*entity.Customer, *Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(Customer), f)
	if err != nil {
		return nil, nil, err
	}

	customers := make([]*entity.Customer, 0, len(res))
	for _, m := range res {
		customer, err := ToCustomer(m.(*Customer))
		if err != nil {
			return nil, nil, err
		}
		customers = append(customers, customer)
	}

	return customers, pagination, nil
}

func ToCustomer(customer *Customer) (*entity.Customer, error) {
	var attrs map[string]interface{}
	if customer.GetAttrs() != "" {
		if err := json.Unmarshal([]byte(customer.GetAttrs()), &attrs); err != nil {
			return nil, err
		}
	}

	return &entity.Customer{
		ID:          customer.ID,
		UserID:      customer.UserID,
		CSVImportID: customer.CSVImportID,
		CampaignID:  customer.CampaignID,
		Email:       customer.Email,
		Name:        customer.Name,
		Phone:       customer.Phone,
		Attrs:       attrs,
		CreateTime:  customer.CreateTime,
		UpdateTime:  customer.UpdateTime,
	}, nil
}

func ToCustomerModel(customer *entity.Customer) (*Customer, error) {
	var attrs *string
	if len(customer.Attrs) > 0 {
		b, err := json.Marshal(customer.Attrs)
		if err != nil {
			return nil, err
		}
		s := string(b)
		attrs = &s
	}

	return &Customer{
		ID:          customer.ID,
		UserID:      customer.UserID,
		CSVImportID: customer.CSVImportID,
		CampaignID:  customer.CampaignID,
		Email:       customer.Email,
		Name:        customer.Name,
		Phone:       customer.Phone,
		Attrs:       attrs,
		CreateTime:  customer.CreateTime,
		UpdateTime:  customer.UpdateTime,
	}, nil
}
