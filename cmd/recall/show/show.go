// Package showcmder provides the show command that renders a single memory.
package showcmder

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
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/logger"
)

type showCommander struct {
	owner   string
	project string
	raw     bool

	configDir string
	debug     bool

	viper  *viper.Viper
	logger *zap.Logger
}

const showLongDesc string = `Show a memory.

Renders the memory's content as markdown in the terminal. Use --raw to print
the content unformatted.

Examples:
  recall show 6b4ee0c2-9d11-4f52-b2fd-5a1e13f8a3c1
  recall show 6b4ee0c2-9d11-4f52-b2fd-5a1e13f8a3c1 --raw`

const showShortDesc string = "Show a memory"

func NewShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <memory-id>",
		Short: showShortDesc,
		Long:  showLongDesc,
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
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print content without markdown rendering")

	return cmd
}

func (c *showCommander) run(ctx context.Context, id string) error {
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

	m, err := rt.Keeper.GetMemory(ctx, owner, id)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("id:"), cliui.DimStyle.Render(m.ID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("created:"), cliui.ValueStyle.Render(m.CreatedAt.Local().Format(time.RFC1123)))
	if m.Summary != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("summary:"), cliui.ValueStyle.Render(m.Summary))
	}
	if len(m.Tags) > 0 {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("tags:"), cliui.ValueStyle.Render(strings.Join(m.Tags, ", ")))
	}
	if m.FileReference != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("file:"), cliui.ValueStyle.Render(m.FileReference))
	}
	if m.Metadata[knowledge.MetadataPreviousContent] != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("merged:"), cliui.DimStyle.Render("content was merged from an earlier version"))
	}

	if c.raw {
		fmt.Printf("\n%s\n", m.Content)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(m.Content)
	if err != nil {
		fmt.Printf("\n%s\n", m.Content)
		return nil
	}

	fmt.Println(rendered)
	return nil
}
