package entity

import (
	"crm/pkg/goutil"
	"testing"
)

func TestPersonalizeMessage(t *testing.T) {
	campaign := &Campaign{
		Message: goutil.String("Hi {{name}}, here's 10% off for you, {{name}}!"),
	}

	customer := &Customer{Name: goutil.String("Jane")}
	if got := campaign.PersonalizeMessage(customer); got != "Hi Jane, here's 10% off for you, Jane!" {
		t.Errorf("unexpected message: %s", got)
	}

	// no display name falls back to a generic salutation
	if got := campaign.PersonalizeMessage(new(Customer)); got != "Hi Customer, here's 10% off for you, Customer!" {
		t.Errorf("unexpected fallback message: %s", got)
	}

	plain := &Campaign{Message: goutil.String("Flash sale today only")}
	if got := plain.PersonalizeMessage(customer); got != "Flash sale today only" {
		t.Errorf("message without placeholder should be unchanged, got: %s", got)
	}
}

func TestCampaignIsSent(t *testing.T) {
	campaign := NewCampaign(1, "summer", "summer launch")
	if campaign.IsSent() {
		t.Errorf("new campaign should not be sent")
	}

	campaign.SentTime = goutil.Uint64(1700000000)
	if !campaign.IsSent() {
		t.Errorf("campaign with sent time should be sent")
	}
}
