package repo

import (
	"context"
	"crm/entity"
	"encoding/json"
)

type Order struct {
	ID         *uint64  `json:"id,omitempty"`
	UserID     *uint64  `json:"user_id,omitempty"`
	CustomerID *string  `json:"customer_id,omitempty"`
	OrderDate  *uint64  `json:"order_date,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Items      *string  `json:"items,omitempty"`
	UploadID   *string  `json:"upload_id,omitempty"`
	CreateTime *uint64  `json:"create_time,omitempty"`
	UpdateTime *uint64  `json:"update_time,omitempty"`
}

func (m *Order) TableName() string {
	return "order_tab"
}

func (m *Order) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *Order) GetItems() string {
	if m != nil && m.Items != nil {
		return *m.Items
	}
	return ""
}

type OrderRepo interface {
	CreateMany(ctx context.Context, orders []*entity.Order) ([]uint64, error)
	CountByUserID(ctx context.Context, userID uint64) (uint64, error)
}

type orderRepo struct {
	baseRepo BaseRepo
}

func NewOrderRepo(_ context.Context, baseRepo BaseRepo) OrderRepo {
	return &orderRepo{baseRepo: baseRepo}
}

func (r *orderRepo) CreateMany(ctx context.Context, orders []*entity.Order) ([]uint64, error) {
	orderModels := make([]*Order, 0, len(orders))
	for _, order := range orders {
		orderModel, err := ToOrderModel(order)
		if err != nil {
			return nil, err
		}
		orderModels = append(orderModels, orderModel)
	}

	if err := r.baseRepo.CreateMany(ctx, new(Order), orderModels); err != nil {
		return nil, err
	}

	orderIDs := make([]uint64, 0, len(orderModels))
	for _, orderModel := range orderModels {
		orderIDs = append(orderIDs, orderModel.GetID())
	}

	return orderIDs, nil
}

func (r *orderRepo) CountByUserID(ctx context.Context, userID uint64) (uint64, error) {
	return r.baseRepo.Count(ctx, new(Order), &Filter{
		Conditions: []*Condition{
			{
				Field: "user_id",
				Value: userID,
				Op:    OpEq,
			},
		},
	})
}

func ToOrder(order *Order) (*entity.Order, error) {
	var items []string
	if order.GetItems() != "" {
		if err := json.Unmarshal([]byte(order.GetItems()), &items); err != nil {
			return nil, err
		}
	}

	return &entity.Order{
		ID:         order.ID,
		UserID:     order.UserID,
		CustomerID: order.CustomerID,
		OrderDate:  order.OrderDate,
		Amount:     order.Amount,
		Items:      items,
		UploadID:   order.UploadID,
		CreateTime: order.CreateTime,
		UpdateTime: order.UpdateTime,
	}, nil
}

func ToOrderModel(order *entity.Order) (*Order, error) {
	var items *string
	if len(order.Items) > 0 {
		b, err := json.Marshal(order.Items)
		if err != nil {
			return nil, err
		}
		s := string(b)
		items = &s
	}

	return &Order{
		ID:         order.ID,
		UserID:     order.UserID,
		CustomerID: order.CustomerID,
		OrderDate:  order.OrderDate,
		Amount:     order.Amount,
		Items:      items,
		UploadID:   order.UploadID,
		CreateTime: order.CreateTime,
		UpdateTime: order.UpdateTime,
	}, nil
}
