package entity

type CommStatus uint32

const (
	CommStatusUnknown CommStatus = iota
	CommStatusSent
	CommStatusFailed
)

// CommStatuses maps vendor wire statuses to the internal enum.
var CommStatuses = map[string]CommStatus{
	"SENT":   CommStatusSent,
	"FAILED": CommStatusFailed,
}

func (s CommStatus) String() string {
	switch s {
	case CommStatusSent:
		return "SENT"
	case CommStatusFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// CommLog is the per-recipient delivery record for one campaign.
type CommLog struct {
	ID            *uint64    `json:"id,omitempty"`
	CampaignID    *uint64    `json:"campaign_id,omitempty"`
	CustomerID    *uint64    `json:"customer_id,omitempty"`
	UserID        *uint64    `json:"user_id,omitempty"`
	Status        CommStatus `json:"status,omitempty"`
	Message       *string    `json:"message,omitempty"`
	MessageID     *string    `json:"message_id,omitempty"`
	SentTime      *uint64    `json:"sent_time,omitempty"`
	DeliveredTime *uint64    `json:"delivered_time,omitempty"`
	CreateTime    *uint64    `json:"create_time,omitempty"`
}

func (e *CommLog) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *CommLog) GetCampaignID() uint64 {
	if e != nil && e.CampaignID != nil {
		return *e.CampaignID
	}
	return 0
}

func (e *CommLog) GetCustomerID() uint64 {
	if e != nil && e.CustomerID != nil {
		return *e.CustomerID
	}
	return 0
}

func (e *CommLog) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *CommLog) GetStatus() CommStatus {
	if e != nil {
		return e.Status
	}
	return CommStatusUnknown
}

func (e *CommLog) GetMessage() string {
	if e != nil && e.Message != nil {
		return *e.Message
	}
	return ""
}

func (e *CommLog) GetMessageID() string {
	if e != nil && e.MessageID != nil {
		return *e.MessageID
	}
	return ""
}

func (e *CommLog) GetSentTime() uint64 {
	if e != nil && e.SentTime != nil {
		return *e.SentTime
	}
	return 0
}

func (e *CommLog) GetDeliveredTime() uint64 {
	if e != nil && e.DeliveredTime != nil {
		return *e.DeliveredTime
	}
	return 0
}
