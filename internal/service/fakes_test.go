package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"indico/config"
	"indico/internal/repository"
	"indico/internal/testutil"

	"gorm.io/gorm"
)

type sentNotification struct {
	UserID string
	Title  string
	Body   string
	Data   map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID, title, body string, data map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Body: body, Data: data})
}

func (n *recordingNotifier) to(userID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	err  error
	sent []sentMail
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return m.err
}

func testReferralConfig() *config.ReferralConfig {
	return &config.ReferralConfig{
		InterestFormURL:    "https://example.com/quote",
		DefaultCountryCode: "55",
		OutboxMaxAttempts:  3,
		OutboxBatchSize:    50,
	}
}

type referralFixture struct {
	db        *gorm.DB
	referrals *repository.ReferralRepository
	outbox    *repository.OutboxRepository
	users     *repository.UserRepository
	discount  *DiscountCalculator
	feed      *ReferralFeed
	svc       *ReferralService
}

func newReferralFixture(t *testing.T) *referralFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	f := &referralFixture{
		db:        db,
		referrals: repository.NewReferralRepository(db),
		outbox:    repository.NewOutboxRepository(db),
		users:     repository.NewUserRepository(db),
	}
	f.discount = NewDiscountCalculator(f.referrals)
	f.feed = NewReferralFeed(f.referrals)
	f.svc = NewReferralService(db, f.referrals, f.outbox, f.discount, f.feed, testReferralConfig())
	return f
}

// frozenClock returns a clock stuck at t; advance moves it.
type frozenClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *frozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *frozenClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
