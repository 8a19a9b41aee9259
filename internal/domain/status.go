package domain

// ReferralStatus is the lifecycle state of a referral.
type ReferralStatus string

const (
	StatusPending   ReferralStatus = "pending"
	StatusContacted ReferralStatus = "contacted"
	StatusConverted ReferralStatus = "converted"
	StatusRejected  ReferralStatus = "rejected"
)

var AllStatuses = []ReferralStatus{StatusPending, StatusContacted, StatusConverted, StatusRejected}

func (s ReferralStatus) Valid() bool {
	switch s {
	case StatusPending, StatusContacted, StatusConverted, StatusRejected:
		return true
	}
	return false
}

// Label is the human readable status shown to users.
func (s ReferralStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusContacted:
		return "Contacted"
	case StatusConverted:
		return "Converted"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// transitions[from][to] reports whether an administrator may move a referral
// from one status to another. Every pair is currently allowed.
var transitions = map[ReferralStatus]map[ReferralStatus]bool{
	StatusPending:   {StatusPending: true, StatusContacted: true, StatusConverted: true, StatusRejected: true},
	StatusContacted: {StatusPending: true, StatusContacted: true, StatusConverted: true, StatusRejected: true},
	StatusConverted: {StatusPending: true, StatusContacted: true, StatusConverted: true, StatusRejected: true},
	StatusRejected:  {StatusPending: true, StatusContacted: true, StatusConverted: true, StatusRejected: true},
}

func CanTransition(from, to ReferralStatus) bool {
	return transitions[from][to]
}

// NotifiesReferrer reports whether entering the status pushes a progress
// notification to the referrer.
func (s ReferralStatus) NotifiesReferrer() bool {
	return s == StatusContacted || s == StatusConverted
}
