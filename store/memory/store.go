// Package memory provides an in-process store.Store used by tests and
// single-process deployments. Records are copied on the way in and out so
// callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
	"github.com/xraph/provenance/store"
)

var _ store.Store = (*Store)(nil)

type shelfKey struct {
	store   string
	product product.ID
}

type Store struct {
	mu sync.RWMutex

	settings *settings.Settings

	producers     map[string]*producer.Producer
	producerOrder []string

	// Append-only arena: products[i] has id i+1.
	products []*product.Product

	deposits       map[product.ID]*deposit.Record
	authorizations map[string]*deposit.Authorization

	stores  map[string]*retail.Store
	shelves map[shelfKey]*retail.Shelf
}

func New() *Store {
	return &Store{
		producers:      make(map[string]*producer.Producer),
		deposits:       make(map[product.ID]*deposit.Record),
		authorizations: make(map[string]*deposit.Authorization),
		stores:         make(map[string]*retail.Store),
		shelves:        make(map[shelfKey]*retail.Shelf),
	}
}

// Settings Store implementation

func (s *Store) GetSettings(_ context.Context) (*settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, fmt.Errorf("%w: settings", provenance.ErrNotFound)
	}
	cp := *s.settings
	return &cp, nil
}

func (s *Store) SaveSettings(_ context.Context, st *settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.settings = &cp
	return nil
}

// Producer Store implementation

func (s *Store) CreateProducer(_ context.Context, p *producer.Producer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.Account.String()
	if _, exists := s.producers[key]; exists {
		return provenance.ErrAlreadyEnrolled
	}
	cp := *p
	s.producers[key] = &cp
	s.producerOrder = append(s.producerOrder, key)
	return nil
}

func (s *Store) GetProducer(_ context.Context, account id.AccountID) (*producer.Producer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.producers[account.String()]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: producer %s", provenance.ErrNotFound, account)
}

func (s *Store) ListProducers(_ context.Context, opts producer.ListOpts) ([]*producer.Producer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*producer.Producer, 0, len(s.producerOrder))
	for _, key := range s.producerOrder {
		cp := *s.producers[key]
		result = append(result, &cp)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Product Store implementation

func (s *Store) CreateProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = product.ID(len(s.products) + 1)
	cp := *p
	s.products = append(s.products, &cp)
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID product.ID) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if productID == 0 || productID > product.ID(len(s.products)) {
		return nil, fmt.Errorf("%w: product %d", provenance.ErrNotFound, productID)
	}
	cp := *s.products[productID-1]
	return &cp, nil
}

func (s *Store) ListProducts(_ context.Context, opts product.ListOpts) ([]*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*product.Product, 0, len(s.products))
	for _, p := range s.products {
		if !opts.Producer.IsNil() && !p.OwnedBy(opts.Producer) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Deposit Store implementation

func (s *Store) GetDeposit(_ context.Context, productID product.ID) (*deposit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.depositLocked(productID), nil
}

func (s *Store) AddDepositStock(_ context.Context, productID product.ID, quantity, capacity int64) (*deposit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.depositLocked(productID)
	if quantity > capacity-rec.Stock {
		return nil, fmt.Errorf("%w: product %d holds %d of %d", provenance.ErrCapacityExceeded, productID, rec.Stock, capacity)
	}
	rec.Stock += quantity
	rec.Deposited += quantity
	s.deposits[productID] = rec

	cp := *rec
	return &cp, nil
}

func (s *Store) RemoveDepositStock(_ context.Context, productID product.ID, quantity int64) (*deposit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.depositLocked(productID)
	if quantity > rec.Stock {
		return nil, fmt.Errorf("%w: product %d holds %d", provenance.ErrInsufficientStock, productID, rec.Stock)
	}
	rec.Stock -= quantity
	rec.Withdrawn += quantity
	s.deposits[productID] = rec

	cp := *rec
	return &cp, nil
}

func (s *Store) SetAuthorizedStore(_ context.Context, a *deposit.Authorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.authorizations[a.Producer.String()] = &cp
	return nil
}

func (s *Store) GetAuthorizedStore(_ context.Context, producerID id.AccountID) (*deposit.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.authorizations[producerID.String()]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: no store authorized by %s", provenance.ErrNotFound, producerID)
}

// depositLocked returns a copy of the record, or a zero record. Callers hold mu.
func (s *Store) depositLocked(productID product.ID) *deposit.Record {
	if rec, ok := s.deposits[productID]; ok {
		cp := *rec
		return &cp
	}
	return &deposit.Record{ProductID: productID}
}

// Retail Store implementation

func (s *Store) CreateRetailStore(_ context.Context, rs *retail.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[rs.ID.String()]; exists {
		return provenance.ErrAlreadyExists
	}
	cp := *rs
	s.stores[rs.ID.String()] = &cp
	return nil
}

func (s *Store) GetRetailStore(_ context.Context, storeID id.StoreID) (*retail.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rs, ok := s.stores[storeID.String()]; ok {
		cp := *rs
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: store %s", provenance.ErrNotFound, storeID)
}

func (s *Store) UpdateRetailStore(_ context.Context, rs *retail.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[rs.ID.String()]; !exists {
		return fmt.Errorf("%w: store %s", provenance.ErrNotFound, rs.ID)
	}
	cp := *rs
	s.stores[rs.ID.String()] = &cp
	return nil
}

func (s *Store) GetShelf(_ context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.shelfLocked(storeID, productID), nil
}

func (s *Store) SellUnit(_ context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh := s.shelfLocked(storeID, productID)
	if sh.Stock < 1 {
		return nil, fmt.Errorf("%w: product %d at store %s", provenance.ErrUnavailable, productID, storeID)
	}
	sh.Stock--
	sh.Sold++
	s.shelves[shelfKey{storeID.String(), productID}] = sh

	cp := *sh
	return &cp, nil
}

func (s *Store) TransferStock(_ context.Context, productID product.ID, storeID id.StoreID, quantity int64) (*retail.Shelf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.depositLocked(productID)
	if quantity > rec.Stock {
		return nil, fmt.Errorf("%w: product %d holds %d", provenance.ErrInsufficientStock, productID, rec.Stock)
	}
	rec.Stock -= quantity
	rec.Transferred += quantity
	s.deposits[productID] = rec

	sh := s.shelfLocked(storeID, productID)
	sh.Stock += quantity
	sh.Received += quantity
	s.shelves[shelfKey{storeID.String(), productID}] = sh

	cp := *sh
	return &cp, nil
}

// shelfLocked returns a copy of the shelf, or a zero shelf. Callers hold mu.
func (s *Store) shelfLocked(storeID id.StoreID, productID product.ID) *retail.Shelf {
	if sh, ok := s.shelves[shelfKey{storeID.String(), productID}]; ok {
		cp := *sh
		return &cp
	}
	return &retail.Shelf{StoreID: storeID, ProductID: productID}
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
