// Package remembercmder provides the remember command for capturing memories
// through the deduplication arbiter.
package remembercmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/recallhq/recall/cmd/recall/runtime"
	"github.com/recallhq/recall/pkg/cliui"
	"github.com/recallhq/recall/pkg/config"
	"github.com/recallhq/recall/pkg/dedupe"
	"github.com/recallhq/recall/pkg/keeper"
	"github.com/recallhq/recall/pkg/logger"
)

type rememberCommander struct {
	summary string
	tags    []string
	file    string
	owner   string
	project string

	configDir string
	debug     bool

	viper  *viper.Viper
	logger *zap.Logger
}

const rememberLongDesc string = `Capture a memory.

Before storing, similar existing memories are retrieved and an oracle decides
whether to create a new memory, merge into an existing one, or skip a
duplicate. When the oracle is unreachable the memory is created anyway.

Examples:
  recall remember "the staging DB password rotates on Fridays"
  recall remember "prefers tabs over spaces" --tags preferences,style
  recall remember "auth flow diagram" --file docs/auth.md`

const rememberShortDesc string = "Capture a memory"

func NewRememberCmd() *cobra.Command {
	cmder := &rememberCommander{}

	cmd := &cobra.Command{
		Use:   "remember <content>",
		Short: rememberShortDesc,
		Long:  rememberLongDesc,
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

	cmd.Flags().StringVar(&cmder.summary, "summary", "", "Short summary")
	cmd.Flags().StringSliceVar(&cmder.tags, "tags", nil, "Tags for retrieval")
	cmd.Flags().StringVar(&cmder.file, "file", "", "Associated file reference")
	cmd.Flags().StringVar(&cmder.owner, "owner", "", "Owner id (defaults to the saved profile)")
	cmd.Flags().StringVar(&cmder.project, "project", "", "Project scope")

	return cmd
}

func (c *rememberCommander) run(ctx context.Context, content string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	owner, project, err := runtime.Identity(c.configDir, c.owner, c.project)
	if err != nil {
		return err
	}

	rt, err := runtime.Bootstrap(ctx, c.viper, c.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	outcome, err := rt.Keeper.CreateMemory(ctx, keeper.MemoryInput{
		OwnerID:       owner,
		ProjectID:     project,
		Content:       content,
		Summary:       c.summary,
		Tags:          c.tags,
		FileReference: c.file,
	})
	if err != nil {
		return err
	}

	verb := map[dedupe.Action]string{
		dedupe.ActionCreated: "Created",
		dedupe.ActionUpdated: "Merged into",
		dedupe.ActionSkipped: "Skipped, duplicate of",
	}[outcome.Action]

	fmt.Printf("\n  %s %s %s\n", cliui.SuccessMark, verb, cliui.DimStyle.Render(outcome.ItemID))
	if outcome.Reason != "" {
		fmt.Printf("  %s\n", cliui.DimStyle.Render(outcome.Reason))
	}
	fmt.Println()

	return nil
}
