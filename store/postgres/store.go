package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
	provenancestore "github.com/xraph/provenance/store"
)

// compile-time interface check
var _ provenancestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
//
// Deposit and shelf balances share the provenance_stock table, keyed by
// (holder, product_id), so that a transfer from escrow to a store is one
// UPDATE statement.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("provenance/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("provenance/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Settings Store ====================

func (s *Store) GetSettings(ctx context.Context) (*settings.Settings, error) {
	m := new(settingsModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", singletonID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: settings", provenance.ErrNotFound)
		}
		return nil, err
	}
	return fromSettingsModel(m)
}

func (s *Store) SaveSettings(ctx context.Context, st *settings.Settings) error {
	m := toSettingsModel(st)
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("admin = EXCLUDED.admin").
		Set("registry_account = EXCLUDED.registry_account").
		Set("deposit_account = EXCLUDED.deposit_account").
		Set("enrollment_fee = EXCLUDED.enrollment_fee").
		Set("enrollment_currency = EXCLUDED.enrollment_currency").
		Set("deposit_fee = EXCLUDED.deposit_fee").
		Set("deposit_currency = EXCLUDED.deposit_currency").
		Set("max_stock = EXCLUDED.max_stock").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Producer Store ====================

func (s *Store) CreateProducer(ctx context.Context, p *producer.Producer) error {
	res, err := s.pg.NewInsert(toProducerModel(p)).
		OnConflict("(account) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return provenance.ErrAlreadyEnrolled
	}
	return nil
}

func (s *Store) GetProducer(ctx context.Context, account id.AccountID) (*producer.Producer, error) {
	m := new(producerModel)
	err := s.pg.NewSelect(m).
		Where("account = $1", account.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: producer %s", provenance.ErrNotFound, account)
		}
		return nil, err
	}
	return fromProducerModel(m)
}

func (s *Store) ListProducers(ctx context.Context, opts producer.ListOpts) ([]*producer.Producer, error) {
	var models []producerModel
	q := s.pg.NewSelect(&models)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, account ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*producer.Producer, len(models))
	for i := range models {
		p, err := fromProducerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Product Store ====================

// CreateProduct allocates max(id)+1. Callers serialize product creation;
// the primary key rejects a concurrent duplicate.
func (s *Store) CreateProduct(ctx context.Context, p *product.Product) error {
	var next int64
	err := s.pg.NewRaw(`SELECT COALESCE(MAX(id), 0) + 1 FROM provenance_products`).Scan(ctx, &next)
	if err != nil {
		return err
	}

	m := toProductModel(p)
	m.ID = next
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return err
	}
	p.ID = product.ID(next)
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID product.ID) (*product.Product, error) {
	m := new(productModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(productID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: product %d", provenance.ErrNotFound, productID)
		}
		return nil, err
	}
	return fromProductModel(m)
}

func (s *Store) ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel
	q := s.pg.NewSelect(&models)
	if !opts.Producer.IsNil() {
		q = q.Where("producer = $1", opts.Producer.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*product.Product, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Deposit Store ====================

func (s *Store) GetDeposit(ctx context.Context, productID product.ID) (*deposit.Record, error) {
	m, err := s.stockRow(ctx, escrowHolder, productID)
	if err != nil {
		return nil, err
	}
	return toDepositRecord(m), nil
}

func (s *Store) AddDepositStock(ctx context.Context, productID product.ID, quantity, capacity int64) (*deposit.Record, error) {
	if err := s.ensureStockRow(ctx, escrowHolder, productID); err != nil {
		return nil, err
	}

	res, err := s.pg.NewUpdate((*stockModel)(nil)).
		Set("stock = stock + $1", quantity).
		Set("received = received + $2", quantity).
		Set("updated_at = $3", now()).
		Where("holder = $4", escrowHolder).
		Where("product_id = $5", int64(productID)).
		Where("stock <= $6", capacity-quantity).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: product %d cannot hold %d more of %d", provenance.ErrCapacityExceeded, productID, quantity, capacity)
	}
	return s.GetDeposit(ctx, productID)
}

func (s *Store) RemoveDepositStock(ctx context.Context, productID product.ID, quantity int64) (*deposit.Record, error) {
	res, err := s.pg.NewUpdate((*stockModel)(nil)).
		Set("stock = stock - $1", quantity).
		Set("released = released + $2", quantity).
		Set("updated_at = $3", now()).
		Where("holder = $4", escrowHolder).
		Where("product_id = $5", int64(productID)).
		Where("stock >= $6", quantity).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: product %d holds fewer than %d", provenance.ErrInsufficientStock, productID, quantity)
	}
	return s.GetDeposit(ctx, productID)
}

func (s *Store) SetAuthorizedStore(ctx context.Context, a *deposit.Authorization) error {
	_, err := s.pg.NewInsert(toAuthorizationModel(a)).
		OnConflict("(producer) DO UPDATE").
		Set("store_id = EXCLUDED.store_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetAuthorizedStore(ctx context.Context, producerID id.AccountID) (*deposit.Authorization, error) {
	m := new(authorizationModel)
	err := s.pg.NewSelect(m).
		Where("producer = $1", producerID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: no store authorized by %s", provenance.ErrNotFound, producerID)
		}
		return nil, err
	}
	return fromAuthorizationModel(m)
}

// ==================== Retail Store ====================

func (s *Store) CreateRetailStore(ctx context.Context, rs *retail.Store) error {
	_, err := s.pg.NewInsert(toRetailStoreModel(rs)).Exec(ctx)
	return err
}

func (s *Store) GetRetailStore(ctx context.Context, storeID id.StoreID) (*retail.Store, error) {
	m := new(retailStoreModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", storeID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: store %s", provenance.ErrNotFound, storeID)
		}
		return nil, err
	}
	return fromRetailStoreModel(m)
}

func (s *Store) UpdateRetailStore(ctx context.Context, rs *retail.Store) error {
	res, err := s.pg.NewUpdate(toRetailStoreModel(rs)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: store %s", provenance.ErrNotFound, rs.ID)
	}
	return nil
}

func (s *Store) GetShelf(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error) {
	m, err := s.stockRow(ctx, storeID.String(), productID)
	if err != nil {
		return nil, err
	}
	return toShelf(storeID, m), nil
}

func (s *Store) SellUnit(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error) {
	res, err := s.pg.NewUpdate((*stockModel)(nil)).
		Set("stock = stock - 1").
		Set("released = released + 1").
		Set("updated_at = $1", now()).
		Where("holder = $2", storeID.String()).
		Where("product_id = $3", int64(productID)).
		Where("stock >= 1").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: product %d at store %s", provenance.ErrUnavailable, productID, storeID)
	}
	return s.GetShelf(ctx, storeID, productID)
}

// TransferStock debits escrow and credits the shelf in one UPDATE that
// touches both rows, guarded by the escrow balance.
func (s *Store) TransferStock(ctx context.Context, productID product.ID, storeID id.StoreID, quantity int64) (*retail.Shelf, error) {
	holder := storeID.String()
	pid := int64(productID)

	if err := s.ensureStockRow(ctx, holder, productID); err != nil {
		return nil, err
	}

	res, err := s.pg.NewUpdate((*stockModel)(nil)).
		Set("stock = CASE WHEN holder = $1 THEN stock - $2 ELSE stock + $3 END", escrowHolder, quantity, quantity).
		Set("transferred = CASE WHEN holder = $4 THEN transferred + $5 ELSE transferred END", escrowHolder, quantity).
		Set("received = CASE WHEN holder = $6 THEN received ELSE received + $7 END", escrowHolder, quantity).
		Set("updated_at = $8", now()).
		Where("product_id = $9", pid).
		Where("holder IN ($10, $11)", escrowHolder, holder).
		Where("(SELECT e.stock FROM provenance_stock e WHERE e.holder = $12 AND e.product_id = $13) >= $14",
			escrowHolder, pid, quantity).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	switch rows {
	case 2:
		return s.GetShelf(ctx, storeID, productID)
	case 0:
		return nil, fmt.Errorf("%w: product %d holds fewer than %d", provenance.ErrInsufficientStock, productID, quantity)
	default:
		return nil, fmt.Errorf("provenance/postgres: transfer of product %d updated %d rows", productID, rows)
	}
}

// stockRow returns the stock row for holder, or an empty row.
func (s *Store) stockRow(ctx context.Context, holder string, productID product.ID) (*stockModel, error) {
	m := new(stockModel)
	err := s.pg.NewSelect(m).
		Where("holder = $1", holder).
		Where("product_id = $2", int64(productID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return emptyStockModel(holder, productID), nil
		}
		return nil, err
	}
	return m, nil
}

func (s *Store) ensureStockRow(ctx context.Context, holder string, productID product.ID) error {
	_, err := s.pg.NewInsert(emptyStockModel(holder, productID)).
		OnConflict("(holder, product_id) DO NOTHING").
		Exec(ctx)
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
