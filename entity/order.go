package entity

// Order is an ingested order row, scoped to one upload batch.
type Order struct {
	ID         *uint64  `json:"id,omitempty"`
	UserID     *uint64  `json:"user_id,omitempty"`
	CustomerID *string  `json:"customer_id,omitempty"`
	OrderDate  *uint64  `json:"order_date,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Items      []string `json:"items,omitempty"`
	UploadID   *string  `json:"upload_id,omitempty"`
	CreateTime *uint64  `json:"create_time,omitempty"`
	UpdateTime *uint64  `json:"update_time,omitempty"`
}

func (e *Order) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Order) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *Order) GetCustomerID() string {
	if e != nil && e.CustomerID != nil {
		return *e.CustomerID
	}
	return ""
}

func (e *Order) GetOrderDate() uint64 {
	if e != nil && e.OrderDate != nil {
		return *e.OrderDate
	}
	return 0
}

func (e *Order) GetAmount() float64 {
	if e != nil && e.Amount != nil {
		return *e.Amount
	}
	return 0
}

func (e *Order) GetUploadID() string {
	if e != nil && e.UploadID != nil {
		return *e.UploadID
	}
	return ""
}
