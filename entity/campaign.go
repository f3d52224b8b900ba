package entity

import (
	"crm/pkg/goutil"
	"strings"
	"time"
)

const (
	namePlaceholder = "{{name}}"
	fallbackName    = "Customer"
)

// Campaign is a named, dispatched batch of personalized messages.
// Filters are stored verbatim for audit and never re-evaluated
// after the send.
type Campaign struct {
	ID           *uint64  `json:"id,omitempty"`
	Name         *string  `json:"name,omitempty"`
	CampaignDesc *string  `json:"campaign_desc,omitempty"`
	UserID       *uint64  `json:"user_id,omitempty"`
	Message      *string  `json:"message,omitempty"`
	Filters      *Rule    `json:"filters,omitempty"`
	CustomerIDs  []uint64 `json:"customer_ids,omitempty"`
	CSVImportID  *string  `json:"csv_import_id,omitempty"`
	SentTime     *uint64  `json:"sent_time,omitempty"`
	CreateTime   *uint64  `json:"create_time,omitempty"`
	UpdateTime   *uint64  `json:"update_time,omitempty"`
}

func NewCampaign(userID uint64, name, campaignDesc string) *Campaign {
	now := uint64(time.Now().Unix())
	return &Campaign{
		Name:         goutil.String(name),
		CampaignDesc: goutil.String(campaignDesc),
		UserID:       goutil.Uint64(userID),
		CreateTime:   goutil.Uint64(now),
		UpdateTime:   goutil.Uint64(now),
	}
}

func (e *Campaign) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Campaign) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Campaign) GetCampaignDesc() string {
	if e != nil && e.CampaignDesc != nil {
		return *e.CampaignDesc
	}
	return ""
}

func (e *Campaign) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *Campaign) GetMessage() string {
	if e != nil && e.Message != nil {
		return *e.Message
	}
	return ""
}

func (e *Campaign) GetFilters() *Rule {
	if e != nil && e.Filters != nil {
		return e.Filters
	}
	return nil
}

func (e *Campaign) GetCustomerIDs() []uint64 {
	if e != nil && e.CustomerIDs != nil {
		return e.CustomerIDs
	}
	return nil
}

func (e *Campaign) GetCSVImportID() string {
	if e != nil && e.CSVImportID != nil {
		return *e.CSVImportID
	}
	return ""
}

func (e *Campaign) GetSentTime() uint64 {
	if e != nil && e.SentTime != nil {
		return *e.SentTime
	}
	return 0
}

func (e *Campaign) GetCreateTime() uint64 {
	if e != nil && e.CreateTime != nil {
		return *e.CreateTime
	}
	return 0
}

func (e *Campaign) IsSent() bool {
	return e.GetSentTime() > 0
}

// PersonalizeMessage fills the name placeholder with the customer's
// display name, or a generic salutation when none is known.
func (e *Campaign) PersonalizeMessage(customer *Customer) string {
	name := customer.GetName()
	if name == "" {
		name = fallbackName
	}
	return strings.ReplaceAll(e.GetMessage(), namePlaceholder, name)
}
