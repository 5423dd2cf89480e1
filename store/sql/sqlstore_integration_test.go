package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/metadata"
	assetmigrations "github.com/goliatone/go-assets/migrations"
	"github.com/goliatone/go-assets/settlement"
	sqlstore "github.com/goliatone/go-assets/store/sql"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-assets-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{
		"asset_balances",
		"asset_supply",
		"asset_tokens",
		"asset_ledger_outbox",
		"asset_settlements",
		"asset_token_metadata",
		"asset_contract_metadata",
	} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}
}

func TestBalanceStore_RoundTripAndZeroDelete(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewStoreFactoryFromDB(client.DB())
	if err != nil {
		t.Fatalf("new store factory: %v", err)
	}
	store := factory.BalanceStore()

	got, err := store.QuantityOf(ctx, "alice.test")
	if err != nil {
		t.Fatalf("quantity of unknown account: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero balance for unknown account, got %s", got)
	}

	if err := store.SetQuantity(ctx, "alice.test", core.Q64(250)); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	got, err = store.QuantityOf(ctx, "alice.test")
	if err != nil {
		t.Fatalf("quantity of: %v", err)
	}
	if got.Cmp(core.Q64(250)) != 0 {
		t.Fatalf("expected balance 250, got %s", got)
	}

	if err := store.SetTotal(ctx, core.Q64(250)); err != nil {
		t.Fatalf("set total: %v", err)
	}
	total, err := store.Total(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cmp(core.Q64(250)) != 0 {
		t.Fatalf("expected total 250, got %s", total)
	}

	// Zeroing a balance removes the row instead of storing "0".
	if err := store.SetQuantity(ctx, "alice.test", core.Quantity{}); err != nil {
		t.Fatalf("zero quantity: %v", err)
	}
	var count int
	if err := client.DB().NewRaw(
		"SELECT COUNT(*) FROM asset_balances WHERE account = ?", "alice.test",
	).Scan(ctx, &count); err != nil {
		t.Fatalf("count balances: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zeroed balance row to be deleted, found %d rows", count)
	}
}

func TestOwnershipStore_SetQueryAndClear(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewOwnershipStore(client.DB())
	if err != nil {
		t.Fatalf("new ownership store: %v", err)
	}

	if _, exists, err := store.OwnerOf(ctx, "token-1"); err != nil || exists {
		t.Fatalf("expected unknown token, exists=%v err=%v", exists, err)
	}

	if err := store.SetOwner(ctx, "token-1", "alice.test"); err != nil {
		t.Fatalf("set owner: %v", err)
	}
	owner, exists, err := store.OwnerOf(ctx, "token-1")
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if !exists || owner != "alice.test" {
		t.Fatalf("expected alice.test as owner, got %q exists=%v", owner, exists)
	}

	// Upsert moves ownership in place.
	if err := store.SetOwner(ctx, "token-1", "bob.test"); err != nil {
		t.Fatalf("move owner: %v", err)
	}
	owner, _, err = store.OwnerOf(ctx, "token-1")
	if err != nil {
		t.Fatalf("owner of after move: %v", err)
	}
	if owner != "bob.test" {
		t.Fatalf("expected bob.test as owner, got %q", owner)
	}

	if err := store.ClearOwner(ctx, "token-1"); err != nil {
		t.Fatalf("clear owner: %v", err)
	}
	if _, exists, err := store.OwnerOf(ctx, "token-1"); err != nil || exists {
		t.Fatalf("expected token cleared, exists=%v err=%v", exists, err)
	}
}

func TestOutboxStore_EnqueueClaimAckRetry(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewOutboxStore(client.DB())
	if err != nil {
		t.Fatalf("new outbox store: %v", err)
	}

	first := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetFungible,
		Kind:       core.EventKindTransfer,
		Sender:     "alice.test",
		Receiver:   "bob.test",
		Amount:     core.Q64(42),
		Memo:       "first",
		OccurredAt: time.Now().UTC().Add(-2 * time.Second),
	}
	second := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetNonFungible,
		Kind:       core.EventKindMint,
		Account:    "carol.test",
		TokenID:    "token-9",
		OccurredAt: time.Now().UTC().Add(-time.Second),
	}
	if err := store.Enqueue(ctx, first); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	if err := store.Enqueue(ctx, second); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	claimed, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected 2 claimed events, got %d", len(claimed))
	}
	if claimed[0].ID != first.ID {
		t.Fatalf("expected oldest event first, got %s", claimed[0].ID)
	}
	if claimed[0].Amount.Cmp(core.Q64(42)) != 0 {
		t.Fatalf("expected amount 42 to survive storage, got %s", claimed[0].Amount)
	}

	// Claimed events are invisible to a second claim pass.
	again, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no claimable events, got %d", len(again))
	}

	if err := store.Ack(ctx, first.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := store.Retry(ctx, second.ID, errors.New("projector offline"), time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("retry: %v", err)
	}

	var status string
	if err := client.DB().NewRaw(
		"SELECT status FROM asset_ledger_outbox WHERE event_id = ?", first.ID,
	).Scan(ctx, &status); err != nil {
		t.Fatalf("query delivered status: %v", err)
	}
	if status != "delivered" {
		t.Fatalf("expected delivered status, got %q", status)
	}
	if err := client.DB().NewRaw(
		"SELECT status FROM asset_ledger_outbox WHERE event_id = ?", second.ID,
	).Scan(ctx, &status); err != nil {
		t.Fatalf("query retried status: %v", err)
	}
	if status != "pending" {
		t.Fatalf("expected pending status after retry, got %q", status)
	}

	// A zero next attempt marks the event failed for good.
	if err := store.Retry(ctx, second.ID, errors.New("gave up"), time.Time{}); err != nil {
		t.Fatalf("final retry: %v", err)
	}
	if err := client.DB().NewRaw(
		"SELECT status FROM asset_ledger_outbox WHERE event_id = ?", second.ID,
	).Scan(ctx, &status); err != nil {
		t.Fatalf("query failed status: %v", err)
	}
	if status != "failed" {
		t.Fatalf("expected failed status, got %q", status)
	}
}

func TestSettlementStore_CreateClaimTransition(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewSettlementStore(client.DB())
	if err != nil {
		t.Fatalf("new settlement store: %v", err)
	}

	msg := "handle"
	pending := settlement.Pending{
		ID:    uuid.NewString(),
		Asset: core.AssetFungible,
		Balance: &core.BalanceTransfer{
			Sender:   "alice.test",
			Receiver: "escrow.test",
			Amount:   core.Q64(100),
			Msg:      &msg,
		},
		// Above MaxInt64, exercising the decimal-string budget columns.
		Budget:         18_446_744_073_709_551_615,
		ReceiverBudget: 25_000_000_000_000,
	}
	created, err := store.Create(ctx, pending)
	if err != nil {
		t.Fatalf("create settlement: %v", err)
	}
	if created.Status != settlement.StatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}

	claimed, err := store.ClaimDue(ctx, 5)
	if err != nil {
		t.Fatalf("claim due: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("expected 1 due settlement, got %d", len(claimed))
	}
	if claimed[0].Status != settlement.StatusNotified {
		t.Fatalf("expected claim to mark notified, got %s", claimed[0].Status)
	}
	if claimed[0].Attempts != 1 {
		t.Fatalf("expected attempt counter bump, got %d", claimed[0].Attempts)
	}
	if claimed[0].Balance == nil || claimed[0].Balance.Msg == nil || *claimed[0].Balance.Msg != msg {
		t.Fatalf("expected receiver message to survive storage")
	}
	if claimed[0].Balance.Amount.Cmp(core.Q64(100)) != 0 {
		t.Fatalf("expected amount 100, got %s", claimed[0].Balance.Amount)
	}
	if claimed[0].Budget != 18_446_744_073_709_551_615 || claimed[0].ReceiverBudget != 25_000_000_000_000 {
		t.Fatalf("expected budgets to survive storage, got %d / %d", claimed[0].Budget, claimed[0].ReceiverBudget)
	}

	// Claimed settlements do not show up again.
	again, err := store.ClaimDue(ctx, 5)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no due settlements, got %d", len(again))
	}

	// A failed drive releases the claim with a backoff.
	released, err := store.Retry(ctx, pending.ID, fmt.Errorf("resolver offline"), time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("retry settlement: %v", err)
	}
	if released.Status != settlement.StatusPending || released.NextAttemptAt.IsZero() {
		t.Fatalf("expected released pending with backoff, got %s %v", released.Status, released.NextAttemptAt)
	}
	hidden, err := store.ClaimDue(ctx, 5)
	if err != nil {
		t.Fatalf("claim during backoff: %v", err)
	}
	if len(hidden) != 0 {
		t.Fatalf("expected backoff to hide the settlement, got %d", len(hidden))
	}

	// An elapsed backoff makes it claimable again.
	if _, err := store.Retry(ctx, pending.ID, nil, time.Now().UTC().Add(-time.Second)); err != nil {
		t.Fatalf("requeue settlement: %v", err)
	}
	reclaimed, err := store.ClaimDue(ctx, 5)
	if err != nil {
		t.Fatalf("claim after backoff: %v", err)
	}
	if len(reclaimed) != 1 || reclaimed[0].Attempts != 2 {
		t.Fatalf("expected reclaim with attempts=2, got %d rows", len(reclaimed))
	}

	settled, err := store.Transition(ctx, pending.ID, settlement.StatusSettled, nil)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if settled.Status != settlement.StatusSettled || !settled.Resolved() {
		t.Fatalf("expected settled terminal status, got %s", settled.Status)
	}

	// Terminal settlements reject further transitions.
	if _, err := store.Transition(ctx, pending.ID, settlement.StatusReverted, nil); !errors.Is(err, settlement.ErrInvalidStatusTransition) {
		t.Fatalf("expected invalid transition error, got %v", err)
	}

	if _, err := store.Get(ctx, uuid.NewString()); !errors.Is(err, settlement.ErrNotFound) {
		t.Fatalf("expected not found for unknown settlement, got %v", err)
	}

	// A zero next attempt abandons the settlement for good.
	doomed, err := store.Create(ctx, settlement.Pending{
		ID:    uuid.NewString(),
		Asset: core.AssetFungible,
		Balance: &core.BalanceTransfer{
			Sender:   "alice.test",
			Receiver: "escrow.test",
			Amount:   core.Q64(5),
			Msg:      &msg,
		},
	})
	if err != nil {
		t.Fatalf("create doomed settlement: %v", err)
	}
	if _, err := store.ClaimDue(ctx, 5); err != nil {
		t.Fatalf("claim doomed: %v", err)
	}
	abandoned, err := store.Retry(ctx, doomed.ID, fmt.Errorf("gave up"), time.Time{})
	if err != nil {
		t.Fatalf("abandon settlement: %v", err)
	}
	if abandoned.Status != settlement.StatusAbandoned || abandoned.LastError == "" {
		t.Fatalf("expected abandoned with recorded cause, got %s %q", abandoned.Status, abandoned.LastError)
	}
}

func TestMetadataStore_ContractAndTokenRecords(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewMetadataStore(client.DB())
	if err != nil {
		t.Fatalf("new metadata store: %v", err)
	}

	contract, err := store.Contract(ctx)
	if err != nil {
		t.Fatalf("contract before set: %v", err)
	}
	if contract.Name != "" {
		t.Fatalf("expected empty contract metadata, got %q", contract.Name)
	}

	if err := store.SetContract(ctx, metadata.ContractMetadata{
		Name:     "Example Token",
		Symbol:   "EXT",
		Decimals: 18,
	}); err != nil {
		t.Fatalf("set contract: %v", err)
	}
	contract, err = store.Contract(ctx)
	if err != nil {
		t.Fatalf("contract after set: %v", err)
	}
	if contract.Symbol != "EXT" || contract.Decimals != 18 {
		t.Fatalf("expected contract round trip, got %+v", contract)
	}

	stored, err := store.SetToken(ctx, metadata.TokenMetadata{
		TokenID: "token-1",
		Title:   "First",
		Extra:   map[string]string{"tier": "gold"},
	})
	if err != nil {
		t.Fatalf("set token metadata: %v", err)
	}
	if stored.IssuedAt.IsZero() {
		t.Fatalf("expected issued_at to be stamped")
	}

	got, err := store.Token(ctx, "token-1")
	if err != nil {
		t.Fatalf("token metadata: %v", err)
	}
	if got.Title != "First" || got.Extra["tier"] != "gold" {
		t.Fatalf("expected token metadata round trip, got %+v", got)
	}

	if err := store.DeleteToken(ctx, "token-1"); err != nil {
		t.Fatalf("delete token metadata: %v", err)
	}
	if _, err := store.Token(ctx, "token-1"); !errors.Is(err, metadata.ErrTokenMetadataNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:assets-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = assetmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != assetmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, assetmigrations.WithValidationTargets(assetmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
