// Package initcmder provides the init command that bootstraps a .recall/
// directory with a config file and a saved identity profile.
package initcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/pkg/cliui"
	"github.com/recallhq/recall/pkg/config"
	"github.com/recallhq/recall/pkg/dotdir"
)

type initCommander struct {
	owner   string
	project string
	preset  string

	configDir string
}

const initLongDesc string = `Initialize recall.

Creates the .recall/ directory (locally if one exists in the current tree,
otherwise in your home directory), writes a config.toml from the chosen
preset, and saves your identity profile so other commands don't need --owner.

Presets:
  local      fully offline: hashed char-gram embeddings, no external services
  ollama     local Ollama for embeddings and the dedup oracle
  postgres   PostgreSQL with pgvector for storage

Examples:
  recall init --owner alice
  recall init --owner alice --project website --preset ollama`

const initShortDesc string = "Initialize recall config and identity"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.owner, "owner", "", "Owner id saved to the profile (required)")
	cmd.Flags().StringVar(&cmder.project, "project", "", "Default project scope")
	cmd.Flags().StringVar(&cmder.preset, "preset", "local", "Config preset")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func (c *initCommander) run() error {
	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return fmt.Errorf("unknown preset %q (valid: %s)",
			c.preset, strings.Join(config.ValidPresetNames(), ", "))
	}

	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	mgr := dotdir.NewManager()
	err = mgr.SaveProfile(c.configDir, &dotdir.Profile{
		OwnerID:   c.owner,
		ProjectID: c.project,
	})
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	dir, err := mgr.Target(c.configDir)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Initialized %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("owner:"), cliui.ValueStyle.Render(c.owner))
	if c.project != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("project:"), cliui.ValueStyle.Render(c.project))
	}
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("preset:"), cliui.ValueStyle.Render(c.preset))

	return nil
}
