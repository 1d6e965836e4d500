package remindcmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/recallhq/recall/cmd/recall/runtime"
	"github.com/recallhq/recall/pkg/cliui"
	"github.com/recallhq/recall/pkg/config"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/logger"
	"github.com/recallhq/recall/pkg/utils"
)

type listCommander struct {
	owner   string
	project string
	all     bool

	configDir string
	debug     bool

	viper  *viper.Viper
	logger *zap.Logger
}

const listLongDesc string = `List your reminders, newest schedule first.

Completed and cancelled reminders are hidden unless --all is given.

Examples:
  recall remind list
  recall remind list --all`

const listShortDesc string = "List reminders"

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
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

	cmd.Flags().StringVar(&cmder.owner, "owner", "", "Owner id (defaults to the saved profile)")
	cmd.Flags().StringVar(&cmder.project, "project", "", "Project scope")
	cmd.Flags().BoolVar(&cmder.all, "all", false, "Include completed reminders")

	return cmd
}

func (c *listCommander) run(ctx context.Context) error {
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

	reminders, err := rt.Keeper.ListReminders(ctx, owner)
	if err != nil {
		return err
	}

	shown := 0
	for _, r := range reminders {
		if r.IsCompleted && !c.all {
			continue
		}
		printReminder(r)
		shown++
	}

	if shown == 0 {
		fmt.Println("No reminders.")
	}

	return nil
}

func printReminder(r *knowledge.Reminder) {
	status := cliui.ValueStyle.Render(r.ScheduledFor.Local().Format(time.RFC1123))
	if r.IsCompleted {
		status = cliui.DimStyle.Render("completed")
	}

	fmt.Printf("  %s  %s\n", cliui.DimStyle.Render(r.ID), status)
	fmt.Printf("      %s\n", utils.Truncate(r.Content, 70))
	if r.IsRecurring {
		fmt.Printf("      %s\n", cliui.DimStyle.Render(
			fmt.Sprintf("every %d %s", r.Recurrence.Interval, r.Recurrence.Type)))
	}
}
