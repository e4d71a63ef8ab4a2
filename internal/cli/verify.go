package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/replychain/internal/store"
)

// VerifyResult is the JSON payload of the verify command.
type VerifyResult struct {
	Records  int             `json:"records"`
	Blobs    int             `json:"blobs"`
	Problems []store.Problem `json:"problems"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-hash every stored record and blob",
		Long: `Re-hash every stored record and blob and compare against the stored
identifiers. Records must also decode as canonical DAG-CBOR.

Exit codes:
  0 - Everything verified
  1 - One or more items failed verification
  2 - Command error (database could not be opened or read)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runVerify(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "opening database", err)
	}
	defer st.Close()

	report, err := st.Verify(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "verifying", err)
	}

	result := VerifyResult{Records: report.Records, Blobs: report.Blobs, Problems: report.Problems}
	if result.Problems == nil {
		result.Problems = []store.Problem{}
	}

	if !report.OK() {
		_ = formatter.Error(ErrCodeVerifyFailed,
			fmt.Sprintf("%d problem(s) in %d record(s) and %d blob(s)", len(report.Problems), report.Records, report.Blobs),
			result)
		if !formatter.JSON() {
			for _, p := range report.Problems {
				fmt.Fprintf(formatter.Writer, "  ✗ %s %s: %s\n", p.Kind, p.Key, p.Reason)
			}
		}
		return NewExitError(ExitFailure, "verification failed")
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Verified %d record(s), %d blob(s)\n", report.Records, report.Blobs)
	return nil
}
