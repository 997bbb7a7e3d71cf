package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/store/memory"
	"github.com/xraph/provenance/types"
)

func TestProducers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first := &producer.Producer{Entity: types.NewEntity(), Account: id.NewAccountID(), Name: "Acme", Enrolled: true}
	second := &producer.Producer{Entity: types.NewEntity(), Account: id.NewAccountID(), Name: "Globex", Enrolled: true}
	require.NoError(t, s.CreateProducer(ctx, first))
	require.NoError(t, s.CreateProducer(ctx, second))

	err := s.CreateProducer(ctx, first)
	assert.True(t, errors.Is(err, provenance.ErrAlreadyEnrolled))

	got, err := s.GetProducer(ctx, first.Account)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	got.Name = "changed"
	again, err := s.GetProducer(ctx, first.Account)
	require.NoError(t, err)
	assert.Equal(t, "Acme", again.Name)

	_, err = s.GetProducer(ctx, id.NewAccountID())
	assert.True(t, provenance.IsNotFound(err))

	list, err := s.ListProducers(ctx, producer.ListOpts{Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Globex", list[0].Name)
}

func TestProductIDsAreSequential(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	owner, other := id.NewAccountID(), id.NewAccountID()

	for i, by := range []id.AccountID{owner, other, owner} {
		p := &product.Product{Entity: types.NewEntity(), Name: "item", Producer: by, Registered: true}
		require.NoError(t, s.CreateProduct(ctx, p))
		assert.Equal(t, product.ID(i+1), p.ID)
	}

	_, err := s.GetProduct(ctx, 0)
	assert.True(t, provenance.IsNotFound(err))
	_, err = s.GetProduct(ctx, 4)
	assert.True(t, provenance.IsNotFound(err))

	mine, err := s.ListProducts(ctx, product.ListOpts{Producer: owner})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, product.ID(1), mine[0].ID)
	assert.Equal(t, product.ID(3), mine[1].ID)

	page, err := s.ListProducts(ctx, product.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestDepositStock(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	rec, err := s.GetDeposit(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, rec.Stock)

	rec, err = s.AddDepositStock(ctx, 1, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.Stock)
	assert.Equal(t, int64(100), rec.Deposited)

	_, err = s.AddDepositStock(ctx, 1, 1, 100)
	assert.True(t, errors.Is(err, provenance.ErrCapacityExceeded))

	rec, err = s.RemoveDepositStock(ctx, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), rec.Stock)
	assert.Equal(t, int64(30), rec.Withdrawn)

	_, err = s.RemoveDepositStock(ctx, 1, 71)
	assert.True(t, errors.Is(err, provenance.ErrInsufficientStock))

	rec, err = s.GetDeposit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(70), rec.Stock)
}

func TestTransferAndSell(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	shop := &retail.Store{Entity: types.NewEntity(), ID: id.NewStoreID(), Owner: id.NewAccountID()}
	require.NoError(t, s.CreateRetailStore(ctx, shop))

	_, err := s.AddDepositStock(ctx, 1, 10, 10)
	require.NoError(t, err)

	_, err = s.TransferStock(ctx, 1, shop.ID, 11)
	assert.True(t, errors.Is(err, provenance.ErrInsufficientStock))

	shelf, err := s.TransferStock(ctx, 1, shop.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), shelf.Stock)
	assert.Equal(t, int64(4), shelf.Received)

	rec, err := s.GetDeposit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.Stock)
	assert.Equal(t, int64(4), rec.Transferred)

	for range 4 {
		_, err = s.SellUnit(ctx, shop.ID, 1)
		require.NoError(t, err)
	}
	_, err = s.SellUnit(ctx, shop.ID, 1)
	assert.True(t, errors.Is(err, provenance.ErrUnavailable))

	shelf, err = s.GetShelf(ctx, shop.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, shelf.Stock)
	assert.Equal(t, int64(4), shelf.Sold)
	assert.Equal(t, shelf.Received, shelf.Stock+shelf.Sold)
}

func TestRetailStores(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	shop := &retail.Store{Entity: types.NewEntity(), ID: id.NewStoreID(), Owner: id.NewAccountID()}

	err := s.UpdateRetailStore(ctx, shop)
	assert.True(t, provenance.IsNotFound(err))

	require.NoError(t, s.CreateRetailStore(ctx, shop))
	assert.True(t, errors.Is(s.CreateRetailStore(ctx, shop), provenance.ErrAlreadyExists))

	shop.PricePerUnit = types.Native(20)
	require.NoError(t, s.UpdateRetailStore(ctx, shop))

	got, err := s.GetRetailStore(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Native(20), got.PricePerUnit)
}
