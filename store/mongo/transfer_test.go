package mongo

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/product"
)

// stockCollection connects to the replica set named by PROVENANCE_MONGO_URI
// and returns a stock collection in a throwaway database.
func stockCollection(t *testing.T) *mongo.Collection {
	t.Helper()

	uri := os.Getenv("PROVENANCE_MONGO_URI")
	if uri == "" {
		t.Skip("PROVENANCE_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("provenance_" + strings.TrimPrefix(id.NewAccountID().String(), "acct_"))
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db.Collection(colStock)
}

func seedStock(t *testing.T, col *mongo.Collection, holder string, productID product.ID, stock int64) {
	t.Helper()

	_, err := col.InsertOne(context.Background(), bson.M{
		"_id":         stockKey(holder, productID),
		"holder":      holder,
		"product_id":  int64(productID),
		"stock":       stock,
		"received":    stock,
		"released":    int64(0),
		"transferred": int64(0),
		"updated_at":  now(),
	})
	require.NoError(t, err)
}

type stockCounts struct {
	Stock       int64 `bson:"stock"`
	Received    int64 `bson:"received"`
	Transferred int64 `bson:"transferred"`
}

func readStock(t *testing.T, col *mongo.Collection, holder string, productID product.ID) stockCounts {
	t.Helper()

	var m stockCounts
	err := col.FindOne(context.Background(), bson.M{"_id": stockKey(holder, productID)}).Decode(&m)
	require.NoError(t, err)
	return m
}

func TestMoveStock(t *testing.T) {
	col := stockCollection(t)
	ctx := context.Background()
	shop := id.NewStoreID().String()

	seedStock(t, col, escrowHolder, 1, 10)
	seedStock(t, col, shop, 1, 0)

	require.NoError(t, moveStock(ctx, col, 1, shop, 4))

	escrow := readStock(t, col, escrowHolder, 1)
	assert.Equal(t, int64(6), escrow.Stock)
	assert.Equal(t, int64(4), escrow.Transferred)

	shelf := readStock(t, col, shop, 1)
	assert.Equal(t, int64(4), shelf.Stock)
	assert.Equal(t, int64(4), shelf.Received)
}

func TestMoveStockInsufficient(t *testing.T) {
	col := stockCollection(t)
	shop := id.NewStoreID().String()

	seedStock(t, col, escrowHolder, 2, 3)
	seedStock(t, col, shop, 2, 0)

	err := moveStock(context.Background(), col, 2, shop, 4)
	assert.ErrorIs(t, err, provenance.ErrInsufficientStock)
	assert.Equal(t, int64(3), readStock(t, col, escrowHolder, 2).Stock)
	assert.Equal(t, int64(0), readStock(t, col, shop, 2).Stock)
}

func TestMoveStockRollsBackDebitWhenCreditFails(t *testing.T) {
	col := stockCollection(t)

	seedStock(t, col, escrowHolder, 3, 10)

	// The shelf document is missing, so the credit matches nothing after
	// the debit has already been applied inside the transaction.
	err := moveStock(context.Background(), col, 3, id.NewStoreID().String(), 4)
	require.Error(t, err)

	escrow := readStock(t, col, escrowHolder, 3)
	assert.Equal(t, int64(10), escrow.Stock)
	assert.Equal(t, int64(0), escrow.Transferred)
}
