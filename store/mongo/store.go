package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
	provenancestore "github.com/xraph/provenance/store"
)

// Collection name constants.
const (
	colSettings       = "provenance_settings"
	colProducers      = "provenance_producers"
	colProducts       = "provenance_products"
	colStock          = "provenance_stock"
	colAuthorizations = "provenance_authorizations"
	colRetailStores   = "provenance_retail_stores"
)

// compile-time interface check
var _ provenancestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// Stock documents are changed with conditional $inc updates so that a
// balance never goes negative. A transfer debits escrow and credits the
// shelf inside one multi-document transaction, so the server must run as
// a replica set.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all provenance collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("provenance/mongo: migrate %s indexes: %w", col, err)
		}
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
	var m settingsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": singletonID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: settings", provenance.ErrNotFound)
		}
		return nil, fmt.Errorf("provenance/mongo: get settings: %w", err)
	}
	return fromSettingsModel(&m)
}

func (s *Store) SaveSettings(ctx context.Context, st *settings.Settings) error {
	m := toSettingsModel(st)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"admin":               m.Admin,
			"registry_account":    m.RegistryAccount,
			"deposit_account":     m.DepositAccount,
			"enrollment_fee":      m.EnrollmentFee,
			"enrollment_currency": m.EnrollmentCurrency,
			"deposit_fee":         m.DepositFee,
			"deposit_currency":    m.DepositCurrency,
			"max_stock":           m.MaxStock,
			"created_at":          m.CreatedAt,
			"updated_at":          m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: save settings: %w", err)
	}
	return nil
}

// ==================== Producer Store ====================

func (s *Store) CreateProducer(ctx context.Context, p *producer.Producer) error {
	_, err := s.mdb.NewInsert(toProducerModel(p)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return provenance.ErrAlreadyEnrolled
		}
		return fmt.Errorf("provenance/mongo: create producer: %w", err)
	}
	return nil
}

func (s *Store) GetProducer(ctx context.Context, account id.AccountID) (*producer.Producer, error) {
	var m producerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": account.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: producer %s", provenance.ErrNotFound, account)
		}
		return nil, fmt.Errorf("provenance/mongo: get producer: %w", err)
	}
	return fromProducerModel(&m)
}

func (s *Store) ListProducers(ctx context.Context, opts producer.ListOpts) ([]*producer.Producer, error) {
	var models []producerModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("provenance/mongo: list producers: %w", err)
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

// CreateProduct allocates the highest _id plus one. Callers serialize
// product creation; the _id index rejects a concurrent duplicate.
func (s *Store) CreateProduct(ctx context.Context, p *product.Product) error {
	var last productModel
	err := s.mdb.NewFind(&last).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil && !isNoDocuments(err) {
		return fmt.Errorf("provenance/mongo: next product id: %w", err)
	}

	m := toProductModel(p)
	m.ID = last.ID + 1
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("provenance/mongo: create product: %w", err)
	}
	p.ID = product.ID(m.ID)
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID product.ID) (*product.Product, error) {
	var m productModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(productID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: product %d", provenance.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("provenance/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel

	filter := bson.M{}
	if !opts.Producer.IsNil() {
		filter["producer"] = opts.Producer.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("provenance/mongo: list products: %w", err)
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
	m, err := s.stockDoc(ctx, escrowHolder, productID)
	if err != nil {
		return nil, err
	}
	return toDepositRecord(m), nil
}

func (s *Store) AddDepositStock(ctx context.Context, productID product.ID, quantity, capacity int64) (*deposit.Record, error) {
	if err := s.ensureStockDoc(ctx, escrowHolder, productID); err != nil {
		return nil, err
	}

	matched, err := s.incStock(ctx,
		bson.M{"_id": stockKey(escrowHolder, productID), "stock": bson.M{"$lte": capacity - quantity}},
		bson.M{"stock": quantity, "received": quantity},
	)
	if err != nil {
		return nil, fmt.Errorf("provenance/mongo: add deposit stock: %w", err)
	}
	if !matched {
		return nil, fmt.Errorf("%w: product %d cannot hold %d more of %d", provenance.ErrCapacityExceeded, productID, quantity, capacity)
	}
	return s.GetDeposit(ctx, productID)
}

func (s *Store) RemoveDepositStock(ctx context.Context, productID product.ID, quantity int64) (*deposit.Record, error) {
	matched, err := s.incStock(ctx,
		bson.M{"_id": stockKey(escrowHolder, productID), "stock": bson.M{"$gte": quantity}},
		bson.M{"stock": -quantity, "released": quantity},
	)
	if err != nil {
		return nil, fmt.Errorf("provenance/mongo: remove deposit stock: %w", err)
	}
	if !matched {
		return nil, fmt.Errorf("%w: product %d holds fewer than %d", provenance.ErrInsufficientStock, productID, quantity)
	}
	return s.GetDeposit(ctx, productID)
}

func (s *Store) SetAuthorizedStore(ctx context.Context, a *deposit.Authorization) error {
	m := toAuthorizationModel(a)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Producer}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"store_id":   m.StoreID,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: set authorized store: %w", err)
	}
	return nil
}

func (s *Store) GetAuthorizedStore(ctx context.Context, producerID id.AccountID) (*deposit.Authorization, error) {
	var m authorizationModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": producerID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: no store authorized by %s", provenance.ErrNotFound, producerID)
		}
		return nil, fmt.Errorf("provenance/mongo: get authorized store: %w", err)
	}
	return fromAuthorizationModel(&m)
}

// ==================== Retail Store ====================

func (s *Store) CreateRetailStore(ctx context.Context, rs *retail.Store) error {
	_, err := s.mdb.NewInsert(toRetailStoreModel(rs)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: store %s", provenance.ErrAlreadyExists, rs.ID)
		}
		return fmt.Errorf("provenance/mongo: create retail store: %w", err)
	}
	return nil
}

func (s *Store) GetRetailStore(ctx context.Context, storeID id.StoreID) (*retail.Store, error) {
	var m retailStoreModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": storeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: store %s", provenance.ErrNotFound, storeID)
		}
		return nil, fmt.Errorf("provenance/mongo: get retail store: %w", err)
	}
	return fromRetailStoreModel(&m)
}

func (s *Store) UpdateRetailStore(ctx context.Context, rs *retail.Store) error {
	m := toRetailStoreModel(rs)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: update retail store: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("%w: store %s", provenance.ErrNotFound, rs.ID)
	}
	return nil
}

func (s *Store) GetShelf(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error) {
	m, err := s.stockDoc(ctx, storeID.String(), productID)
	if err != nil {
		return nil, err
	}
	return toShelf(storeID, m), nil
}

func (s *Store) SellUnit(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error) {
	matched, err := s.incStock(ctx,
		bson.M{"_id": stockKey(storeID.String(), productID), "stock": bson.M{"$gte": 1}},
		bson.M{"stock": -1, "released": 1},
	)
	if err != nil {
		return nil, fmt.Errorf("provenance/mongo: sell unit: %w", err)
	}
	if !matched {
		return nil, fmt.Errorf("%w: product %d at store %s", provenance.ErrUnavailable, productID, storeID)
	}
	return s.GetShelf(ctx, storeID, productID)
}

func (s *Store) TransferStock(ctx context.Context, productID product.ID, storeID id.StoreID, quantity int64) (*retail.Shelf, error) {
	holder := storeID.String()
	if err := s.ensureStockDoc(ctx, holder, productID); err != nil {
		return nil, err
	}
	if err := moveStock(ctx, s.mdb.Collection(colStock), productID, holder, quantity); err != nil {
		return nil, err
	}
	return s.GetShelf(ctx, storeID, productID)
}

// incStock applies $inc to the stock document matching filter and
// reports whether one matched.
func (s *Store) incStock(ctx context.Context, filter, inc bson.M) (bool, error) {
	res, err := s.mdb.NewUpdate((*stockModel)(nil)).
		Filter(filter).
		SetUpdate(bson.M{
			"$inc": inc,
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return res.MatchedCount() > 0, nil
}

// stockDoc returns the stock document for holder, or an empty one.
func (s *Store) stockDoc(ctx context.Context, holder string, productID product.ID) (*stockModel, error) {
	var m stockModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": stockKey(holder, productID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return emptyStockModel(holder, productID), nil
		}
		return nil, fmt.Errorf("provenance/mongo: get stock: %w", err)
	}
	return &m, nil
}

func (s *Store) ensureStockDoc(ctx context.Context, holder string, productID product.ID) error {
	m := emptyStockModel(holder, productID)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$setOnInsert": bson.M{
			"holder":      m.Holder,
			"product_id":  m.ProductID,
			"stock":       int64(0),
			"received":    int64(0),
			"released":    int64(0),
			"transferred": int64(0),
			"updated_at":  m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: ensure stock: %w", err)
	}
	return nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all provenance collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSettings: {},
		colProducers: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "producer", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colStock: {
			{
				Keys:    bson.D{{Key: "holder", Value: 1}, {Key: "product_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colAuthorizations: {
			{Keys: bson.D{{Key: "store_id", Value: 1}}},
		},
		colRetailStores: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
	}
}
