package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/replychain/internal/chain"
	"github.com/roach88/replychain/internal/compiler"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output string // applyWrites JSON output path
	DryRun bool   // build and print without writing to the database
	Batch  string // fixed batch id instead of a fresh UUIDv7
}

// BuiltRecord summarizes one record of a built chain.
type BuiltRecord struct {
	RKey string `json:"rkey"`
	URI  string `json:"uri"`
	CID  string `json:"cid"`
}

// BuildResult is the JSON payload of the build command.
type BuildResult struct {
	Batch      string          `json:"batch"`
	Collection string          `json:"collection"`
	Stored     bool            `json:"stored"`
	Records    []BuiltRecord   `json:"records"`
	Writes     json.RawMessage `json:"writes"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <thread-file>",
		Short: "Build a reply chain from a thread document",
		Long: `Build a reply chain from a YAML or CUE thread document and store it.

Every post becomes one record. Each record after the first replies to the
first record (root) and to the record before it (parent). The chain is written
to the database in one transaction.

Examples:
  replychain build thread.yaml
  replychain build thread.cue --dry-run --format json
  replychain build thread.yaml -o writes.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write applyWrites operations as JSON to this file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "build without storing")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "batch id (default: a new UUIDv7)")

	return cmd
}

func runBuild(ctx context.Context, opts *BuildOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	cfg := opts.settings()

	thread, err := compiler.LoadThread(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "loading thread", err)
	}
	formatter.VerboseLog("Loaded %d post(s) for %s from %s", len(thread.Posts), thread.Repo, path)

	collection := thread.Collection
	if collection == "" {
		collection = cfg.Collection
	}

	builder := &chain.Builder{
		Collection:   collection,
		BaseLocator:  thread.BaseLocator(),
		Clock:        opts.clock(),
		ClockID:      cfg.ClockID,
		Logger:       opts.logger(),
		IdentifyLast: true,
	}
	if opts.Batch != "" {
		builder.BatchIDs = chain.NewFixedGenerator(opts.Batch)
	}

	c, err := builder.Build(ctx, thread.Posts)
	if err != nil {
		return formatter.Fail(ExitCommandError, codeFor(err, ErrCodeBuildFailed), "building chain", err)
	}

	if !opts.DryRun {
		if err := storeChain(ctx, opts.RootOptions, c); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "storing chain", err)
		}
		formatter.VerboseLog("Stored batch %s in %s", c.Batch, cfg.Database)
	}

	writes, err := rawJSON(c.Writes())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "rendering writes", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(writes, '\n'), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
	}

	result := BuildResult{
		Batch:      c.Batch,
		Collection: c.Collection,
		Stored:     !opts.DryRun,
		Records:    make([]BuiltRecord, len(c.Entries)),
		Writes:     writes,
	}
	for i, e := range c.Entries {
		result.Records[i] = BuiltRecord{
			RKey: e.Key.String(),
			URI:  chain.Locator(thread.BaseLocator(), c.Collection, e.Key),
			CID:  e.CID.String(),
		}
	}

	return outputBuildSuccess(formatter, result, opts.Output)
}

func storeChain(ctx context.Context, opts *RootOptions, c *chain.Chain) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteChain(ctx, c)
}

func outputBuildSuccess(formatter *OutputFormatter, result BuildResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	verb := "Built"
	if result.Stored {
		verb = "Stored"
	}
	fmt.Fprintf(formatter.Writer, "✓ %s %d record(s) in batch %s\n\n", verb, len(result.Records), result.Batch)
	for _, r := range result.Records {
		fmt.Fprintf(formatter.Writer, "  %s  %s\n", r.CID, r.URI)
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrites saved to: %s\n", outputFile)
	}
	return nil
}
