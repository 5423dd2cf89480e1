package sqlstore

import (
	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/metadata"
	"github.com/goliatone/go-assets/settlement"
)

var (
	_ core.BalanceLedger   = (*BalanceStore)(nil)
	_ core.OwnershipLedger = (*OwnershipStore)(nil)
	_ core.OutboxStore     = (*OutboxStore)(nil)
	_ settlement.Store     = (*SettlementStore)(nil)
	_ metadata.Store       = (*MetadataStore)(nil)
)
