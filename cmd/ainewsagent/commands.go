package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"AINewsAgent/internal/app"
	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/config"
	"AINewsAgent/internal/curation"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/infrastructure/telegram"
	"AINewsAgent/internal/logging"
	"AINewsAgent/internal/usecase"
)

// agent is the part of app.Application the commands drive.
type agent interface {
	Run(ctx context.Context) (domain.Run, error)
	Resume(ctx context.Context, runID string, approved bool) (domain.Run, error)
	Pending(ctx context.Context) ([]domain.Run, error)
	Curate(ctx context.Context) (usecase.CurationResult, error)
	CurateRecords(ctx context.Context, articles []domain.ArticleRecord) (usecase.CurationResult, error)
	Digest(ctx context.Context) (usecase.DigestResult, error)
	Serve(ctx context.Context) error
	Close() error
}

type cli struct {
	load    func() config.Config
	open    func(ctx context.Context, cfg config.Config, logger *slog.Logger) (agent, error)
	migrate func(ctx context.Context, cfg config.Config, logger *slog.Logger) error

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	return newCLI(&cli{
		load: config.Load,
		open: func(ctx context.Context, cfg config.Config, logger *slog.Logger) (agent, error) {
			return app.New(ctx, cfg, logger)
		},
		migrate: app.Migrate,
	})
}

func newCLI(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "ainewsagent",
		Short:        "Curate AI news, draft posts and publish them after human approval",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			c.cfg = c.load()
			if c.logger == nil {
				c.logger = logging.New(c.cfg.Logging.Level, c.cfg.Logging.Format)
			}
		},
	}

	root.AddCommand(
		c.runCmd(),
		c.resumeCmd(),
		c.pendingCmd(),
		c.curateCmd(),
		c.digestCmd(),
		c.serveCmd(),
		c.migrateCmd(),
	)
	return root
}

func (c *cli) withAgent(cmd *cobra.Command, fn func(agent) error) error {
	a, err := c.open(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, curate and draft, then wait for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withAgent(cmd, func(a agent) error {
				run, err := a.Run(cmd.Context())
				if errors.Is(err, apperr.ErrNoCandidate) {
					fmt.Fprintf(cmd.OutOrStdout(), "run %s: no candidate (fetched %d, relevant %d)\n", run.ID, run.Fetched, run.Candidates)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), telegram.FormatPreview(run.ID, run.Approval.Payload))
				return nil
			})
		},
	}
}

func (c *cli) resumeCmd() *cobra.Command {
	var runID string
	var approve, reject bool

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Approve or reject a run waiting for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withAgent(cmd, func(a agent) error {
				run, err := a.Resume(cmd.Context(), runID, approve && !reject)
				if run.ID != "" {
					printRun(cmd, run)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id")
	cmd.Flags().BoolVar(&approve, "approve", false, "publish the drafts")
	cmd.Flags().BoolVar(&reject, "reject", false, "discard the drafts")
	_ = cmd.MarkFlagRequired("run")
	cmd.MarkFlagsMutuallyExclusive("approve", "reject")
	cmd.MarkFlagsOneRequired("approve", "reject")
	return cmd
}

func (c *cli) pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List runs waiting for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withAgent(cmd, func(a agent) error {
				runs, err := a.Pending(cmd.Context())
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no runs awaiting approval")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RUN\tSINCE\tTITLE\tURL")
				for _, run := range runs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", run.ID, run.UpdatedAt.Format("2006-01-02 15:04"), run.Approval.Payload.Title, run.Approval.Payload.URL)
				}
				return w.Flush()
			})
		},
	}
}

type curateOutput struct {
	Status     string                 `json:"status"`
	Fetched    int                    `json:"fetched"`
	Candidates int                    `json:"candidates"`
	Posted     int                    `json:"already_posted"`
	Unknown    int                    `json:"unknown_status"`
	Ranked     []domain.ScoredArticle `json:"ranked_articles"`
	Top        *domain.ScoredArticle  `json:"top_article"`
}

func newCurateOutput(result usecase.CurationResult) curateOutput {
	ranking := result.Ranking
	if ranking.Articles == nil {
		ranking = curation.Ranking{Articles: []domain.ScoredArticle{}}
	}
	return curateOutput{
		Status:     "success",
		Fetched:    result.Fetched,
		Candidates: result.Candidates,
		Posted:     ranking.Posted,
		Unknown:    ranking.Unknown,
		Ranked:     ranking.Articles,
		Top:        ranking.Top,
	}
}

func (c *cli) curateCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Fetch, filter and rank articles and print the ranking as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var batch []domain.ArticleRecord
			if input != "" {
				raw, err := readInput(cmd, input)
				if err != nil {
					return err
				}
				if batch, err = curation.DecodeBatch(raw); err != nil {
					return err
				}
			}

			return c.withAgent(cmd, func(a agent) error {
				var result usecase.CurationResult
				var err error
				if input != "" {
					result, err = a.CurateRecords(cmd.Context(), batch)
				} else {
					result, err = a.Curate(cmd.Context())
				}
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newCurateOutput(result))
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "JSON batch of articles to rank instead of fetching (- for stdin)")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return raw, nil
}

func (c *cli) digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Draft the daily brief from the top articles and archive it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withAgent(cmd, func(a agent) error {
				result, err := a.Digest(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Content)
				for _, location := range result.Locations {
					fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", location)
				}
				return nil
			})
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daily schedule and the approval API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withAgent(cmd, func(a agent) error {
				return a.Serve(cmd.Context())
			})
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.migrate(cmd.Context(), c.cfg, c.logger)
		},
	}
}

func printRun(cmd *cobra.Command, run domain.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s", run.ID, run.State)
	if run.Outcome != domain.OutcomeNone {
		fmt.Fprintf(out, " (%s)", run.Outcome)
	}
	fmt.Fprintln(out)
	if run.Publication.LinkedInURL != "" {
		fmt.Fprintf(out, "linkedin: %s\n", run.Publication.LinkedInURL)
	}
	if run.Publication.TwitterURL != "" {
		fmt.Fprintf(out, "twitter: %s\n", run.Publication.TwitterURL)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "error: %s\n", run.Error)
	}
}
