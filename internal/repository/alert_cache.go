package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"indico/config"
	"indico/internal/domain"

	"github.com/valkey-io/valkey-go"
)

// AlertCache keeps the expiry alert ledger in Valkey; keys expire with the cooldown.
type AlertCache struct {
	client valkey.Client
	prefix string
}

func NewValkeyClient(cfg *config.ValkeyConfig) (valkey.Client, error) {
	opt := valkey.ClientOption{
		InitAddress: []string{cfg.Addr},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect valkey %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewAlertCache(client valkey.Client) *AlertCache {
	return &AlertCache{client: client, prefix: "indico:policy_alert:"}
}

func (c *AlertCache) key(policyID string, endDate int64) string {
	return c.prefix + policyID + ":" + strconv.FormatInt(endDate, 10)
}

func (c *AlertCache) Claim(ctx context.Context, policyID string, endDate int64, cooldown time.Duration) (bool, error) {
	if cooldown <= 0 {
		return true, nil
	}
	cmd := c.client.B().Set().
		Key(c.key(policyID, endDate)).
		Value(strconv.FormatInt(time.Now().UnixMilli(), 10)).
		Nx().
		PxMilliseconds(effectiveCooldown(cooldown).Milliseconds()).
		Build()
	err := c.client.Do(ctx, cmd).Error()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, domain.Unavailable(err)
	}
	return true, nil
}
