package mq

type Payload uint32

const (
	PayloadUnknown Payload = iota
	PayloadCampaignDispatched
	PayloadDeliveryReceipt
)

var Payloads = map[Payload]string{
	PayloadCampaignDispatched: "campaign_dispatched",
	PayloadDeliveryReceipt:    "delivery_receipt",
}

type CampaignDispatched struct {
	CampaignID   *uint64 `json:"campaign_id"`
	UserID       *uint64 `json:"user_id"`
	AudienceSize *uint64 `json:"audience_size"`
}

func (m *CampaignDispatched) GetCampaignID() uint64 {
	if m != nil && m.CampaignID != nil {
		return *m.CampaignID
	}
	return 0
}

func (m *CampaignDispatched) GetUserID() uint64 {
	if m != nil && m.UserID != nil {
		return *m.UserID
	}
	return 0
}

func (m *CampaignDispatched) GetAudienceSize() uint64 {
	if m != nil && m.AudienceSize != nil {
		return *m.AudienceSize
	}
	return 0
}

type DeliveryReceipt struct {
	MessageID *string `json:"message_id"`
	Status    *string `json:"status"`
	Timestamp *uint64 `json:"timestamp"`
}

func (m *DeliveryReceipt) GetMessageID() string {
	if m != nil && m.MessageID != nil {
		return *m.MessageID
	}
	return ""
}

func (m *DeliveryReceipt) GetStatus() string {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return ""
}

func (m *DeliveryReceipt) GetTimestamp() uint64 {
	if m != nil && m.Timestamp != nil {
		return *m.Timestamp
	}
	return 0
}
