// Package servecmder provides the serve command that runs the reminder
// scheduler loop.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/recallhq/recall/cmd/recall/runtime"
	"github.com/recallhq/recall/pkg/config"
	"github.com/recallhq/recall/pkg/logger"
)

type ServeCommander struct {
	storageProvider string
	storageTarget   string
	notifyProvider  string
	notifyTarget    string
	streamProvider  string
	streamBrokers   string
	pollInterval    uint
	debug           bool

	viper  *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the recall scheduler.

Polls the store for due reminders on a fixed cadence, delivers notifications,
and advances each reminder's lifecycle: one-shots complete, recurring
reminders reschedule to their next occurrence, and series past their end date
end.

Examples:
  recall serve
  recall serve --poll-interval 30
  recall serve --notify-provider webhook --notify-target https://hooks.example.com/recall`

const serveShortDesc string = "Run the reminder scheduler"

var serveFlags = config.FlagSet{
	config.FlagStorageProvider: {
		Name:        "storage-provider",
		ViperKey:    "storage.provider",
		Description: "Store driver (inmemory, sqlite, postgres)",
	},
	config.FlagStorageTarget: {
		Name:        "storage-target",
		Shorthand:   "s",
		ViperKey:    "storage.target",
		Description: "SQLite path or PostgreSQL DSN",
	},
	config.FlagNotifyProvider: {
		Name:        "notify-provider",
		ViperKey:    "notify.provider",
		Description: "Notification gateway (webhook, discord, nop)",
	},
	config.FlagNotifyTarget: {
		Name:        "notify-target",
		ViperKey:    "notify.target",
		Description: "Webhook base URL for the webhook provider",
	},
	config.FlagStreamProvider: {
		Name:        "eventstream-provider",
		ViperKey:    "eventstream.provider",
		Description: "Event publisher (kafka, nop)",
	},
	config.FlagStreamBrokers: {
		Name:        "eventstream-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma-separated Kafka bootstrap addresses",
	},
	config.FlagPollInterval: {
		Name:        "poll-interval",
		Shorthand:   "p",
		ViperKey:    "scheduler.poll_interval_seconds",
		Description: "Poll cadence in seconds",
	},
}

var serveFlagKeys = []string{
	config.FlagStorageProvider,
	config.FlagStorageTarget,
	config.FlagNotifyProvider,
	config.FlagNotifyTarget,
	config.FlagStreamProvider,
	config.FlagStreamBrokers,
	config.FlagPollInterval,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageTarget, &cmder.storageTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagNotifyProvider, &cmder.notifyProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagNotifyTarget, &cmder.notifyTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagStreamProvider, &cmder.streamProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagStreamBrokers, &cmder.streamBrokers)
	config.AddUintFlag(cmd, serveFlags, config.FlagPollInterval, &cmder.pollInterval)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	rt, err := runtime.Bootstrap(ctx, c.viper, c.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	interval := time.Duration(c.viper.GetUint("scheduler.poll_interval_seconds")) * time.Second

	c.logger.Info("starting scheduler",
		zap.String("storage", c.viper.GetString("storage.provider")),
		zap.String("notify", c.viper.GetString("notify.provider")),
		zap.Duration("poll_interval", interval),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- rt.Scheduler.Run(ctx, interval)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("scheduler error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		<-errChan
		return nil
	}
}
