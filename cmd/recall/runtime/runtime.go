// Package runtime assembles the recall service stack from resolved
// configuration. Commands that need a live store, search engine, arbiter, or
// scheduler bootstrap through here so provider selection stays in one place.
package runtime

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/dedupe"
	"github.com/recallhq/recall/pkg/embeddings"
	embedderutils "github.com/recallhq/recall/pkg/embeddings/utils"
	"github.com/recallhq/recall/pkg/eventstream"
	"github.com/recallhq/recall/pkg/eventstream/streamutils"
	"github.com/recallhq/recall/pkg/keeper"
	"github.com/recallhq/recall/pkg/notify"
	"github.com/recallhq/recall/pkg/notify/notifyutils"
	"github.com/recallhq/recall/pkg/oracle"
	"github.com/recallhq/recall/pkg/oracle/oracleutils"
	"github.com/recallhq/recall/pkg/scheduler"
	"github.com/recallhq/recall/pkg/search"
	"github.com/recallhq/recall/pkg/store"
	"github.com/recallhq/recall/pkg/store/storeutils"
)

// Runtime is the assembled service stack.
type Runtime struct {
	Store     store.Driver
	Embedder  embeddings.Embedder
	Oracle    oracle.Oracle
	Notifier  notify.Notifier
	Publisher eventstream.Publisher
	Engine    *search.Engine
	Arbiter   *dedupe.Arbiter
	Keeper    *keeper.Service
	Scheduler *scheduler.Scheduler

	logger *zap.Logger
}

// Bootstrap builds the full stack from viper-resolved configuration.
func Bootstrap(ctx context.Context, v *viper.Viper, logger *zap.Logger) (*Runtime, error) {
	st, err := storeutils.NewDriver(ctx, &storeutils.NewDriverOpts{
		ProviderType: v.GetString("storage.provider"),
		Target:       v.GetString("storage.target"),
		Dimensions:   v.GetUint("embedding.dimensions"),
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating store driver: %w", err)
	}

	embedder, err := embedderutils.NewEmbedder(&embedderutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
		Dimensions:   v.GetInt("embedding.dimensions"),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	orc, err := oracleutils.NewOracle(&oracleutils.NewOracleOpts{
		ProviderType: v.GetString("oracle.provider"),
		TargetURL:    v.GetString("oracle.target"),
		Model:        v.GetString("oracle.model"),
		APIKey:       v.GetString("oracle.api_key"),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating oracle: %w", err)
	}

	notifier, err := notifyutils.NewNotifier(&notifyutils.NewNotifierOpts{
		ProviderType: v.GetString("notify.provider"),
		TargetURL:    v.GetString("notify.target"),
		Token:        v.GetString("notify.token"),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	publisher, err := streamutils.NewPublisher(&streamutils.NewPublisherOpts{
		ProviderType: v.GetString("eventstream.provider"),
		Brokers:      v.GetString("eventstream.brokers"),
		Topic:        v.GetString("eventstream.topic"),
		Logger:       logger,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	engine := search.NewEngine(search.Config{
		Store:               st,
		Embedder:            embedder,
		ConfidenceThreshold: v.GetFloat64("search.confidence_threshold"),
		Logger:              logger,
	})

	arbiter := dedupe.NewArbiter(dedupe.Config{
		Store:    st,
		Engine:   engine,
		Oracle:   orc,
		Embedder: embedder,
		Logger:   logger,
	})

	keep := keeper.NewService(keeper.Config{
		Store:     st,
		Engine:    engine,
		Arbiter:   arbiter,
		Embedder:  embedder,
		Publisher: publisher,
		Logger:    logger,
	})

	sched := scheduler.NewScheduler(scheduler.Config{
		Store:     st,
		Notifier:  notifier,
		Publisher: publisher,
		Logger:    logger,
	})

	return &Runtime{
		Store:     st,
		Embedder:  embedder,
		Oracle:    orc,
		Notifier:  notifier,
		Publisher: publisher,
		Engine:    engine,
		Arbiter:   arbiter,
		Keeper:    keep,
		Scheduler: sched,
		logger:    logger,
	}, nil
}

// Close releases every held resource, logging rather than failing on errors.
func (r *Runtime) Close() {
	if err := r.Publisher.Close(); err != nil {
		r.logger.Warn("closing event publisher", zap.Error(err))
	}
	if err := r.Notifier.Close(); err != nil {
		r.logger.Warn("closing notifier", zap.Error(err))
	}
	if err := r.Embedder.Close(); err != nil {
		r.logger.Warn("closing embedder", zap.Error(err))
	}
	if err := r.Store.Close(); err != nil {
		r.logger.Warn("closing store", zap.Error(err))
	}
}
