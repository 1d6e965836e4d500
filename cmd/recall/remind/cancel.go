package remindcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/recallhq/recall/cmd/recall/runtime"
	"github.com/recallhq/recall/pkg/cliui"
	"github.com/recallhq/recall/pkg/config"
	"github.com/recallhq/recall/pkg/logger"
)

type cancelCommander struct {
	owner   string
	project string

	configDir string
	debug     bool

	viper  *viper.Viper
	logger *zap.Logger
}

const cancelLongDesc string = `Cancel a reminder.

Cancellation is terminal: the reminder never fires again, including every
future occurrence of a recurring series. Cancelling an already-completed
reminder is a no-op.

Examples:
  recall remind cancel 6b4ee0c2-9d11-4f52-b2fd-5a1e13f8a3c1`

const cancelShortDesc string = "Cancel a reminder"

func newCancelCmd() *cobra.Command {
	cmder := &cancelCommander{}

	cmd := &cobra.Command{
		Use:   "cancel <reminder-id>",
		Short: cancelShortDesc,
		Long:  cancelLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.owner, "owner", "", "Owner id (defaults to the saved profile)")
	cmd.Flags().StringVar(&cmder.project, "project", "", "Project scope")

	return cmd
}

func (c *cancelCommander) run(ctx context.Context, id string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	owner, _, err := runtime.Identity(c.configDir, c.owner, c.project)
	if err != nil {
		return err
	}

	rt, err := runtime.Bootstrap(ctx, c.viper, c.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	r, err := rt.Keeper.CancelReminder(ctx, owner, id)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Cancelled %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render(r.ID))
	return nil
}
