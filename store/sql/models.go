package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// Quantities are persisted as decimal strings so the full 128-bit
// range survives every SQL backend.
type balanceRecord struct {
	bun.BaseModel `bun:"table:asset_balances,alias:ab"`

	Account   string    `bun:"account,pk"`
	Amount    string    `bun:"amount,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type supplyRecord struct {
	bun.BaseModel `bun:"table:asset_supply,alias:asu"`

	ID        string    `bun:"id,pk"`
	Amount    string    `bun:"amount,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type tokenOwnershipRecord struct {
	bun.BaseModel `bun:"table:asset_tokens,alias:at"`

	TokenID   string    `bun:"token_id,pk"`
	Owner     string    `bun:"owner,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type ledgerOutboxRecord struct {
	bun.BaseModel `bun:"table:asset_ledger_outbox,alias:alo"`

	ID            string         `bun:"id,pk"`
	EventID       string         `bun:"event_id,notnull"`
	Asset         string         `bun:"asset,notnull"`
	Kind          string         `bun:"kind,notnull"`
	Sender        string         `bun:"sender"`
	Receiver      string         `bun:"receiver"`
	Account       string         `bun:"account"`
	TokenID       string         `bun:"token_id"`
	Amount        string         `bun:"amount,notnull"`
	Memo          string         `bun:"memo"`
	Revert        bool           `bun:"revert,notnull"`
	Metadata      map[string]any `bun:"metadata,type:jsonb"`
	Status        string         `bun:"status,notnull"`
	Attempts      int            `bun:"attempts,notnull"`
	NextAttemptAt *time.Time     `bun:"next_attempt_at,nullzero"`
	LastError     string         `bun:"last_error"`
	OccurredAt    time.Time      `bun:"occurred_at,nullzero,notnull"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type settlementRecord struct {
	bun.BaseModel `bun:"table:asset_settlements,alias:ast"`

	ID       string  `bun:"id,pk"`
	Asset    string  `bun:"asset,notnull"`
	Sender   string  `bun:"sender,notnull"`
	Receiver string  `bun:"receiver,notnull"`
	Owner    string  `bun:"owner"`
	TokenID  string  `bun:"token_id"`
	Amount   string  `bun:"amount"`
	Memo     string  `bun:"memo"`
	Msg      *string `bun:"msg"`
	// Budgets are decimal strings for the same reason quantities are:
	// they are uint64 in memory and BIGINT tops out at MaxInt64.
	Budget         string     `bun:"budget,notnull"`
	ReceiverBudget string     `bun:"receiver_budget,notnull"`
	Status         string     `bun:"status,notnull"`
	Attempts       int        `bun:"attempts,notnull"`
	NextAttemptAt  *time.Time `bun:"next_attempt_at,nullzero"`
	LastError      string     `bun:"last_error"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type tokenMetadataRecord struct {
	bun.BaseModel `bun:"table:asset_token_metadata,alias:atm"`

	TokenID     string            `bun:"token_id,pk"`
	Title       string            `bun:"title"`
	Description string            `bun:"description"`
	MediaURI    string            `bun:"media_uri"`
	Copies      int               `bun:"copies"`
	Extra       map[string]string `bun:"extra,type:jsonb"`
	IssuedAt    time.Time         `bun:"issued_at,nullzero,notnull"`
	UpdatedAt   time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type contractMetadataRecord struct {
	bun.BaseModel `bun:"table:asset_contract_metadata,alias:acm"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Symbol    string    `bun:"symbol,notnull"`
	Decimals  int       `bun:"decimals,notnull"`
	Icon      string    `bun:"icon"`
	BaseURI   string    `bun:"base_uri"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
