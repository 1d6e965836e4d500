// Package recallcmder
package recallcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/recallhq/recall/cmd/recall/config"
	initcmder "github.com/recallhq/recall/cmd/recall/init"
	remembercmder "github.com/recallhq/recall/cmd/recall/remember"
	remindcmder "github.com/recallhq/recall/cmd/recall/remind"
	searchcmder "github.com/recallhq/recall/cmd/recall/search"
	servecmder "github.com/recallhq/recall/cmd/recall/serve"
	showcmder "github.com/recallhq/recall/cmd/recall/show"
	versioncmder "github.com/recallhq/recall/cmd/version"
)

const recallLongDesc string = `Recall is a temporal knowledge store for your agents.

Store reminders that fire on schedules, capture memories with automatic
deduplication, and retrieve both through hybrid semantic, text, and tag search.

Common commands:
  recall serve                 Run the reminder scheduler
  recall remind "call Sam" --in 2h
  recall remember "prefers dark mode" --tags preferences
  recall search "dark mode"`

const recallShortDesc string = "Recall - Temporal Knowledge Store"

func NewRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: recallShortDesc,
		Long:  recallLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .recall/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(remindcmder.NewRemindCmd())
	cmd.AddCommand(remembercmder.NewRememberCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(showcmder.NewShowCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
