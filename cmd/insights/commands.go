package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"comment-insights-go/internal/digest"
	"comment-insights-go/internal/pipeline"
	"comment-insights-go/internal/processor"
	"comment-insights-go/internal/report"
	"comment-insights-go/internal/source"
	"comment-insights-go/internal/types"
)

var (
	articleLimit int
	runsLimit    int
)

type flowFunc func(ctx context.Context, p *processor.Processor, sink pipeline.Sink) (*processor.Run, error)

func fileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file [path]",
		Short: "Analyze a saved comment dump (.json or .xlsx)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, func(ctx context.Context, p *processor.Processor, sink pipeline.Sink) (*processor.Run, error) {
				return p.ProcessFile(ctx, args[0], sink)
			})
		},
	}
}

func articleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "article [url]",
		Short: "Analyze the comments of one Guardian article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, func(ctx context.Context, p *processor.Processor, sink pipeline.Sink) (*processor.Run, error) {
				return p.ProcessArticle(ctx, args[0], sink)
			})
		},
	}
}

func keywordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyword [keyword]",
		Short: "Analyze the comments of the newest articles matching a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := source.ClampLimit(articleLimit)
			return runFlow(cmd, func(ctx context.Context, p *processor.Processor, sink pipeline.Sink) (*processor.Run, error) {
				return p.ProcessKeyword(ctx, args[0], limit, sink)
			})
		},
	}
	cmd.Flags().IntVarP(&articleLimit, "limit", "n", 10, "number of articles to analyze (1-20)")
	return cmd
}

func sectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section [url]",
		Short: "Analyze the comments of articles linked from a Guardian section page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := source.ClampLimit(articleLimit)
			return runFlow(cmd, func(ctx context.Context, p *processor.Processor, sink pipeline.Sink) (*processor.Run, error) {
				return p.ProcessSection(ctx, args[0], limit, sink)
			})
		},
	}
	cmd.Flags().IntVarP(&articleLimit, "limit", "n", 10, "number of articles to analyze (1-20)")
	return cmd
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List stored runs, or print one as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRuns,
	}
	cmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")
	return cmd
}

// runFlow executes one analysis flow, printing progress to stderr and the
// digest to stdout.
func runFlow(cmd *cobra.Command, flow flowFunc) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	progress := pipeline.SinkFunc(func(e types.Event) {
		switch e.Type {
		case types.EventProgress:
			if e.Total > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s %d/%d] %s\n", e.Stage, e.Current, e.Total, e.Message)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", e.Stage, e.Message)
			}
		case types.EventComplete:
			fmt.Fprintln(cmd.ErrOrStderr(), e.Message)
		}
	})

	run, err := flow(cmd.Context(), a.proc, progress)
	if err != nil {
		return errors.New(processor.FailureMessage(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), digest.Render(run))
	if outPath != "" {
		if err := report.Save(outPath, run); err != nil {
			return err
		}
		a.log.WithField("path", outPath).Info("report written")
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	if a.store == nil {
		return errors.New("run history is disabled: set STORE_PATH")
	}

	if len(args) == 1 {
		run, err := a.store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outPath != "" {
			return report.Save(outPath, run)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	list, err := a.store.List(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSUBJECT\tCOMMENTS\tBRANDS\tCREATED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", s.ID, s.Kind, s.Subject, s.TotalComments, s.Brands, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
