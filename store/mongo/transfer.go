package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/product"
)

// moveStock moves quantity units of a product from escrow to holder's shelf
// in one transaction. Both stock documents must exist; if either update
// does not apply, neither does.
func moveStock(ctx context.Context, col *mongo.Collection, productID product.ID, holder string, quantity int64) error {
	sess, err := col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("provenance/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(tx context.Context) (any, error) {
		return nil, debitAndCredit(tx, col, productID, holder, quantity)
	})
	return err
}

func debitAndCredit(ctx context.Context, col *mongo.Collection, productID product.ID, holder string, quantity int64) error {
	at := now()

	res, err := col.UpdateOne(ctx,
		bson.M{"_id": stockKey(escrowHolder, productID), "stock": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"stock": -quantity, "transferred": quantity},
			"$set": bson.M{"updated_at": at},
		},
	)
	if err != nil {
		return fmt.Errorf("provenance/mongo: debit escrow: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: product %d holds fewer than %d", provenance.ErrInsufficientStock, productID, quantity)
	}

	res, err = col.UpdateOne(ctx,
		bson.M{"_id": stockKey(holder, productID)},
		bson.M{
			"$inc": bson.M{"stock": quantity, "received": quantity},
			"$set": bson.M{"updated_at": at},
		},
	)
	if err != nil {
		return fmt.Errorf("provenance/mongo: credit shelf: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("provenance/mongo: credit shelf: no stock document for %s", stockKey(holder, productID))
	}
	return nil
}
