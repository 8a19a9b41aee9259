package service

import (
	"encoding/json"
	"time"

	"indico/internal/domain"
	"indico/internal/models"

	"github.com/google/uuid"
)

// referralEvent is the outbox payload of every referral.* event.
type referralEvent struct {
	ReferralID    string                `json:"referral_id"`
	ReferrerID    string                `json:"referrer_id"`
	ReferrerName  string                `json:"referrer_name,omitempty"`
	ProspectName  string                `json:"prospect_name"`
	ProspectEmail string                `json:"prospect_email,omitempty"`
	ProspectPhone string                `json:"prospect_phone,omitempty"`
	Status        domain.ReferralStatus `json:"status,omitempty"`
}

func eventFor(ref *models.Referral) referralEvent {
	return referralEvent{
		ReferralID:    ref.ID,
		ReferrerID:    ref.ReferrerID,
		ReferrerName:  ref.ReferrerName,
		ProspectName:  ref.Name,
		ProspectEmail: ref.Email,
		ProspectPhone: ref.Phone,
		Status:        ref.Status,
	}
}

func newOutboxEvent(eventType string, payload referralEvent) (*models.OutboxEvent, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &models.OutboxEvent{
		ID:          id.String(),
		Type:        eventType,
		AggregateID: payload.ReferralID,
		Payload:     string(b),
		CreatedAt:   time.Now(),
	}, nil
}
