// Package searchcmder provides the search command for hybrid retrieval over
// stored reminders and memories.
package searchcmder

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
	"github.com/recallhq/recall/pkg/search"
	"github.com/recallhq/recall/pkg/utils"
)

type searchCommander struct {
	limit   int
	methods []string
	owner   string
	project string
	verbose bool

	configDir string
	debug     bool

	viper  *viper.Viper
	logger *zap.Logger
}

const searchLongDesc string = `Search your reminders and memories.

Three retrieval methods run in parallel: semantic (embedding similarity),
text (case-insensitive containment), and tags (query tokens against item
tags). Results are merged, deduplicated, and ordered newest first. When the
embedding gateway is unreachable the semantic method degrades to text
matching instead of failing the search.

Examples:
  recall search "database migration"
  recall search "standup notes" --limit 5
  recall search deploy --methods text,tags`

const searchShortDesc string = "Search reminders and memories"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
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

	cmd.Flags().IntVar(&cmder.limit, "limit", search.DefaultLimit, "Maximum results per bucket")
	cmd.Flags().StringSliceVar(&cmder.methods, "methods", nil, "Restrict retrieval methods (semantic, text, tags)")
	cmd.Flags().StringVar(&cmder.owner, "owner", "", "Owner id (defaults to the saved profile)")
	cmd.Flags().StringVar(&cmder.project, "project", "", "Project scope")
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Show per-method buckets")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, query string) error {
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

	opts := search.Options{Limit: c.limit}
	for _, m := range c.methods {
		opts.Methods = append(opts.Methods, search.Method(m))
	}

	results, err := rt.Keeper.Search(ctx, query, owner, opts)
	if err != nil {
		return err
	}

	if len(results.Combined) == 0 {
		fmt.Println("No results.")
		return nil
	}

	if c.verbose {
		printBucket("semantic", results.Semantic)
		printBucket("text", results.Text)
		printBucket("tags", results.Tags)
	}

	fmt.Println()
	for _, res := range results.Combined {
		printResult(res)
	}
	fmt.Println()

	return nil
}

func printBucket(name string, bucket []search.Result) {
	fmt.Printf("\n%s (%d)\n", cliui.StepStyle.Render(name), len(bucket))
	for _, res := range bucket {
		printResult(res)
	}
}

func printResult(res search.Result) {
	stamp := res.Item.Stamp().Local().Format(time.DateTime)

	label := "memory"
	if _, ok := res.Item.(*knowledge.Reminder); ok {
		label = "reminder"
	}

	score := ""
	if res.Similarity > 0 {
		score = fmt.Sprintf(" %.2f", res.Similarity)
	}

	fmt.Printf("  %s %s %s%s\n",
		cliui.DimStyle.Render(res.Item.ItemID()),
		cliui.KeyStyle.Render(label),
		cliui.DimStyle.Render(stamp),
		cliui.ValueStyle.Render(score),
	)
	fmt.Printf("      %s\n", utils.Truncate(res.Item.Body(), 70))
}
