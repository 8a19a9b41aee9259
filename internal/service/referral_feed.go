package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"indico/internal/domain"
	"indico/internal/metrics"
	"indico/internal/models"
	"indico/internal/repository"
)

// ReferralQuery selects what a subscription watches: one referrer's
// referrals, or every referral when All is set.
type ReferralQuery struct {
	ReferrerID string
	All        bool
	Status     domain.ReferralStatus
}

func (q ReferralQuery) filter() repository.ReferralFilter {
	f := repository.ReferralFilter{Status: q.Status}
	if !q.All {
		f.ReferrerID = q.ReferrerID
	}
	return f
}

type referralLister interface {
	ListAll(ctx context.Context, f repository.ReferralFilter) ([]models.Referral, error)
}

// ReferralFeed turns committed referral changes into snapshot streams.
type ReferralFeed struct {
	store      referralLister
	retryDelay time.Duration
	log        *slog.Logger

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

type subscription struct {
	query  ReferralQuery
	signal chan struct{}
}

func (s *subscription) poke() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func NewReferralFeed(store referralLister) *ReferralFeed {
	return &ReferralFeed{
		store:      store,
		retryDelay: time.Second,
		log:        slog.Default().With("component", "referral_feed"),
		subs:       make(map[*subscription]struct{}),
	}
}

// Subscribe emits the current snapshot, then a fresh one after every change
// published for the query. The channel closes when ctx is done.
func (f *ReferralFeed) Subscribe(ctx context.Context, q ReferralQuery) <-chan []models.Referral {
	out := make(chan []models.Referral)
	sub := &subscription{query: q, signal: make(chan struct{}, 1)}
	sub.poke()

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	metrics.FeedSubscribers.Inc()

	go f.run(ctx, sub, out)
	return out
}

func (f *ReferralFeed) run(ctx context.Context, sub *subscription, out chan<- []models.Referral) {
	defer func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
		metrics.FeedSubscribers.Dec()
		close(out)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.signal:
		}
		snap, err := f.store.ListAll(ctx, sub.query.filter())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.log.Warn("referral snapshot failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.retryDelay):
			}
			sub.poke()
			continue
		}
		select {
		case out <- snap:
		case <-ctx.Done():
			return
		}
	}
}

// Publish wakes every subscription that can observe a change to a referral
// of referrerID. Call it after the change is committed.
func (f *ReferralFeed) Publish(referrerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		if sub.query.All || sub.query.ReferrerID == referrerID {
			sub.poke()
		}
	}
}

func (f *ReferralFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
