package producer

import (
	"context"

	"github.com/xraph/provenance/id"
)

type Store interface {
	Create(ctx context.Context, p *Producer) error
	Get(ctx context.Context, account id.AccountID) (*Producer, error)
	List(ctx context.Context, opts ListOpts) ([]*Producer, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
