package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"indico/config"
	"indico/internal/domain"
	"indico/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	condos      []models.Condominium
	policies    map[string][]models.Policy
	failCondo   string
	failListing bool
}

func (p *fakeProvider) CondominiumsOf(_ context.Context, userID string) ([]models.Condominium, error) {
	if p.failListing {
		return nil, domain.Unavailable(errors.New("offline"))
	}
	var out []models.Condominium
	for _, c := range p.condos {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *fakeProvider) AllCondominiums(context.Context) ([]models.Condominium, error) {
	if p.failListing {
		return nil, domain.Unavailable(errors.New("offline"))
	}
	return p.condos, nil
}

func (p *fakeProvider) PoliciesOf(_ context.Context, condominiumID string) ([]models.Policy, error) {
	if condominiumID == p.failCondo {
		return nil, domain.Unavailable(errors.New("timeout"))
	}
	return p.policies[condominiumID], nil
}

type memoryLedger struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (l *memoryLedger) Claim(_ context.Context, policyID string, endDate int64, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimed == nil {
		l.claimed = map[string]bool{}
	}
	key := policyID + "@" + time.UnixMilli(endDate).String()
	if l.claimed[key] {
		return false, nil
	}
	l.claimed[key] = true
	return true, nil
}

var scanNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func policyEnding(id, condo string, in time.Duration, status string) models.Policy {
	return models.Policy{
		ID:            id,
		CondominiumID: condo,
		PolicyNumber:  "APL-" + id,
		StartDate:     scanNow.AddDate(-1, 0, 0).UnixMilli(),
		EndDate:       scanNow.Add(in).UnixMilli(),
		Status:        status,
	}
}

func newTestScanner(p PolicyProvider, l AlertLedger, n Notifier) *ExpirationScanner {
	s := NewExpirationScanner(p, l, n, &config.ScannerConfig{ThresholdDays: 30, Cooldown: 72 * time.Hour})
	s.now = func() time.Time { return scanNow }
	return s
}

func scanFixture() *fakeProvider {
	day := 24 * time.Hour
	return &fakeProvider{
		condos: []models.Condominium{
			{ID: "c1", UserID: "u1", Name: "Residencial Sol"},
			{ID: "c2", UserID: "u1", Name: "Edifício Lua"},
			{ID: "c3", UserID: "u2", Name: "Vila Mar"},
		},
		policies: map[string][]models.Policy{
			"c1": {
				policyEnding("p10", "c1", 10*day, domain.PolicyStatusActive),
				policyEnding("expired", "c1", -day, domain.PolicyStatusActive),
				policyEnding("inactive", "c1", 5*day, domain.PolicyStatusInactive),
				policyEnding("p30", "c1", 30*day, domain.PolicyStatusActive),
			},
			"c2": {
				policyEnding("p29", "c2", 29*day+time.Hour, domain.PolicyStatusActive),
				policyEnding("p90", "c2", 90*day, domain.PolicyStatusActive),
			},
			"c3": {
				policyEnding("p1", "c3", day, domain.PolicyStatusActive),
			},
		},
	}
}

func TestScanUser_NotifiesOwnExpiringPolicies(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestScanner(scanFixture(), &memoryLedger{}, n)

	report, err := s.ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Condominiums: 2, Expiring: 2, Notified: 2}, report)

	sent := n.to("u1")
	require.Len(t, sent, 2)
	byPolicy := map[string]sentNotification{}
	for _, s := range sent {
		byPolicy[s.Data["id"]] = s
	}
	p10 := byPolicy["p10"]
	assert.Equal(t, "Seguro prestes a vencer", p10.Title)
	assert.Equal(t, "O seguro APL-p10 do condomínio Residencial Sol vence em 10 dias (11/06/2025).", p10.Body)
	assert.Equal(t, domain.NotifPolicyExpiring, p10.Data["type"])
	assert.Equal(t, "10", p10.Data["remaining_days"])
	assert.Equal(t, "29", byPolicy["p29"].Data["remaining_days"])
	assert.Empty(t, n.to("u2"))
}

func TestScanAll_CoversEveryOwner(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestScanner(scanFixture(), nil, n)

	report, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Notified)
	assert.Len(t, n.to("u2"), 1)
}

func TestScan_CondominiumFailureIsIsolated(t *testing.T) {
	p := scanFixture()
	p.failCondo = "c1"
	n := &recordingNotifier{}
	s := newTestScanner(p, nil, n)

	report, err := s.ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.FailedCondominiums)
	assert.Equal(t, 1, report.Notified)
	require.Len(t, n.to("u1"), 1)
	assert.Equal(t, "p29", n.to("u1")[0].Data["id"])
}

func TestScan_EnumerationFailureFailsRun(t *testing.T) {
	p := scanFixture()
	p.failListing = true
	n := &recordingNotifier{}
	s := newTestScanner(p, nil, n)

	_, err := s.ScanAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = s.ScanUser(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Empty(t, n.sent)
}

func TestScan_CooldownSuppressesRepeats(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestScanner(scanFixture(), &memoryLedger{}, n)
	ctx := context.Background()

	_, err := s.ScanUser(ctx, "u1")
	require.NoError(t, err)
	report, err := s.ScanUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Suppressed)
	assert.Zero(t, report.Notified)
	assert.Len(t, n.to("u1"), 2)
}

func TestScan_LedgerErrorFailsOpen(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestScanner(scanFixture(), &memoryLedger{err: errors.New("valkey down")}, n)

	report, err := s.ScanUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Notified)
}

func TestScan_StopsWhenCancelled(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestScanner(scanFixture(), nil, n)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScanAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, n.sent)
}

func TestExpiring_PreviewDoesNotNotify(t *testing.T) {
	n := &recordingNotifier{}
	s := newTestScanner(scanFixture(), nil, n)

	list, err := s.Expiring(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Empty(t, n.sent)
	for _, ep := range list {
		assert.Less(t, ep.RemainingDays, 30)
		assert.NotEmpty(t, ep.CondominiumName)
	}
}
