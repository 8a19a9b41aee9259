package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	PolicyStatusActive   = "active"
	PolicyStatusInactive = "inactive"
)

// Notification types carried in the push data payload and the inbox row.
const (
	NotifReferralStatus = "indication_status_update"
	NotifReferralLink   = "indication_contacted"
	NotifPolicyExpiring = "insurance_expiring"
	NotifReferralNew    = "new_indication"
)

// Outbox event types.
const (
	EventReferralCreated       = "referral.created"
	EventReferralStatusChanged = "referral.status_changed"
	EventReferralLinkRequested = "referral.link_requested"
)

const (
	MaxDiscountPercent       = 10
	DiscountPerConversion    = 2
	DefaultExpiryWarningDays = 30
)

const MillisPerDay int64 = 86_400_000

// Scheduled job names.
const (
	JobExpirationScan = "expiration_scan"
	JobOutboxRelay    = "outbox_relay"
)
