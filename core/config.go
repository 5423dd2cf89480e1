package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultResolverBudget is the execution budget reserved for the
	// resolver leg of a transfer-call.
	DefaultResolverBudget uint64 = 5_000_000_000_000
	// DefaultTransferCallBudget is the minimum total budget a
	// transfer-call must carry, receiver leg plus resolver reservation.
	DefaultTransferCallBudget uint64 = 30_000_000_000_000

	defaultSettlementClaimTTL = 5 * time.Minute
)

type SettlementConfig struct {
	ResolverBudget     uint64        `koanf:"resolver_budget" mapstructure:"resolver_budget"`
	TransferCallBudget uint64        `koanf:"transfer_call_budget" mapstructure:"transfer_call_budget"`
	ClaimTTL           time.Duration `koanf:"claim_ttl" mapstructure:"claim_ttl"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	Settlement  SettlementConfig `koanf:"settlement" mapstructure:"settlement"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "assets",
		Settlement: SettlementConfig{
			ResolverBudget:     DefaultResolverBudget,
			TransferCallBudget: DefaultTransferCallBudget,
			ClaimTTL:           defaultSettlementClaimTTL,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Settlement.ResolverBudget == 0 {
		return fmt.Errorf("core: settlement resolver_budget must be positive")
	}
	if c.Settlement.TransferCallBudget <= c.Settlement.ResolverBudget {
		return fmt.Errorf(
			"core: settlement transfer_call_budget must exceed resolver_budget (%d <= %d)",
			c.Settlement.TransferCallBudget, c.Settlement.ResolverBudget,
		)
	}
	if c.Settlement.ClaimTTL < 0 {
		return fmt.Errorf("core: settlement claim_ttl must not be negative")
	}
	return nil
}
