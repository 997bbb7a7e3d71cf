package settings

import "context"

type Store interface {
	// Get returns a not-found error until the first Save.
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
