package storeutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/store"
	"github.com/recallhq/recall/pkg/store/inmemory"
	"github.com/recallhq/recall/pkg/store/postgres"
	"github.com/recallhq/recall/pkg/store/sqlite"
)

type NewDriverOpts struct {
	ProviderType string

	// Target is the SQLite path or PostgreSQL DSN, depending on provider.
	Target string

	Dimensions uint
	Logger     *zap.Logger
}

func NewDriver(ctx context.Context, o *NewDriverOpts) (store.Driver, error) {
	switch o.ProviderType {
	case "inmemory":
		return inmemory.NewDriver(), nil
	case "sqlite":
		return sqlite.NewDriver(sqlite.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "postgres":
		return postgres.NewDriver(ctx, postgres.Config{
			DSN:        o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
