// Package remindcmder provides the remind command for creating, listing, and
// cancelling reminders.
package remindcmder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/recallhq/recall/cmd/recall/runtime"
	"github.com/recallhq/recall/pkg/cliui"
	"github.com/recallhq/recall/pkg/config"
	"github.com/recallhq/recall/pkg/keeper"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/logger"
)

type remindCommander struct {
	at       string
	in       time.Duration
	every    string
	interval int
	until    string
	summary  string
	tags     []string
	owner    string
	project  string

	configDir string
	debug     bool

	viper  *viper.Viper
	logger *zap.Logger
}

const remindLongDesc string = `Create a reminder that fires at a scheduled time.

The trigger time comes from --at (an absolute time) or --in (a duration from
now). Recurring reminders repeat with --every and an optional --interval
multiplier; --until caps the series.

A one-time reminder scheduled in the past is rejected. A recurring reminder
anchored in the past is advanced to its next future occurrence on creation.

Accepted --at formats: RFC3339 ("2026-09-01T09:00:00Z") or "2006-01-02 15:04"
in local time.

Examples:
  recall remind "call Sam" --in 2h
  recall remind "standup" --at "2026-09-01 09:30" --every daily
  recall remind "pay rent" --at 2026-09-01T08:00:00Z --every monthly --until 2027-09-01T00:00:00Z
  recall remind "retro" --every weekly --interval 2 --at "2026-09-04 16:00"`

const remindShortDesc string = "Create a reminder"

func NewRemindCmd() *cobra.Command {
	cmder := &remindCommander{}

	cmd := &cobra.Command{
		Use:   "remind <content>",
		Short: remindShortDesc,
		Long:  remindLongDesc,
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

	cmd.Flags().StringVar(&cmder.at, "at", "", "Absolute trigger time")
	cmd.Flags().DurationVar(&cmder.in, "in", 0, "Trigger after this duration from now")
	cmd.Flags().StringVar(&cmder.every, "every", "", "Recurrence (daily, weekly, monthly, yearly)")
	cmd.Flags().IntVar(&cmder.interval, "interval", 1, "Recurrence interval multiplier")
	cmd.Flags().StringVar(&cmder.until, "until", "", "End date for a recurring series")
	cmd.Flags().StringVar(&cmder.summary, "summary", "", "Short summary shown in notifications")
	cmd.Flags().StringSliceVar(&cmder.tags, "tags", nil, "Tags for retrieval")
	cmd.Flags().StringVar(&cmder.owner, "owner", "", "Owner id (defaults to the saved profile)")
	cmd.Flags().StringVar(&cmder.project, "project", "", "Project scope")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newCancelCmd())

	return cmd
}

func (c *remindCommander) run(ctx context.Context, content string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	owner, project, err := runtime.Identity(c.configDir, c.owner, c.project)
	if err != nil {
		return err
	}

	scheduledFor, err := c.resolveTrigger()
	if err != nil {
		return err
	}

	rec, err := c.resolveRecurrence()
	if err != nil {
		return err
	}

	rt, err := runtime.Bootstrap(ctx, c.viper, c.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	reminder, err := rt.Keeper.CreateReminder(ctx, keeper.ReminderInput{
		OwnerID:      owner,
		ProjectID:    project,
		Content:      content,
		Summary:      c.summary,
		Tags:         c.tags,
		ScheduledFor: scheduledFor,
		Recurrence:   rec,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Reminder %s\n", cliui.SuccessMark, cliui.DimStyle.Render(reminder.ID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("fires:"), cliui.ValueStyle.Render(reminder.ScheduledFor.Local().Format(time.RFC1123)))
	if reminder.IsRecurring {
		fmt.Printf("  %s every %d %s\n",
			cliui.KeyStyle.Render("repeats:"),
			reminder.Recurrence.Interval,
			cliui.ValueStyle.Render(string(reminder.Recurrence.Type)),
		)
	}
	fmt.Println()

	return nil
}

func (c *remindCommander) resolveTrigger() (time.Time, error) {
	switch {
	case c.at != "" && c.in != 0:
		return time.Time{}, fmt.Errorf("--at and --in are mutually exclusive")
	case c.in != 0:
		return time.Now().Add(c.in), nil
	case c.at != "":
		return parseTime(c.at)
	default:
		return time.Time{}, fmt.Errorf("a trigger time is required: pass --at or --in")
	}
}

func (c *remindCommander) resolveRecurrence() (knowledge.Recurrence, error) {
	rec := knowledge.Recurrence{Type: knowledge.RecurrenceNone}
	if c.every == "" {
		return rec, nil
	}

	rec.Type = knowledge.RecurrenceType(strings.ToLower(c.every))
	rec.Interval = c.interval

	if c.until != "" {
		end, err := parseTime(c.until)
		if err != nil {
			return rec, fmt.Errorf("parsing --until: %w", err)
		}
		rec.EndDate = &end
	}

	return rec, nil
}

// parseTime accepts RFC3339 or a local "2006-01-02 15:04" timestamp.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC3339 or \"2006-01-02 15:04\")", s)
}
