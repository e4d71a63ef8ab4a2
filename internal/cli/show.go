package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/replychain/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Batch string
}

// ShownRecord is one record in show output.
type ShownRecord struct {
	Collection string          `json:"collection"`
	RKey       string          `json:"rkey"`
	CID        string          `json:"cid"`
	Batch      string          `json:"batch,omitempty"`
	Value      json.RawMessage `json:"value"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [collection [rkey]]",
		Short: "Print stored records",
		Long: `Print stored records in atproto JSON form.

With a collection, lists every record in it; with a collection and rkey, prints
that record; with --batch, lists the records one build stored, in chain order.
Every record is re-hashed as it is read.

Examples:
  replychain show app.bsky.feed.post
  replychain show app.bsky.feed.post 3khxr26vou222
  replychain show --batch 0190c8a2-...`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Batch, "batch", "", "list the records of one batch")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	if (opts.Batch == "") == (len(args) == 0) {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgument, "give either a collection or --batch", nil)
	}

	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "opening database", err)
	}
	defer st.Close()

	var records []store.Record
	switch {
	case opts.Batch != "":
		records, err = st.ListBatch(ctx, opts.Batch)
	case len(args) == 2:
		var rec store.Record
		rec, err = st.GetRecord(ctx, args[0], args[1])
		records = []store.Record{rec}
	default:
		records, err = st.ListRecords(ctx, args[0])
	}
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "record not found", nil)
	}
	if errors.Is(err, store.ErrCorrupt) {
		return formatter.Fail(ExitFailure, ErrCodeVerifyFailed, "reading records", err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "reading records", err)
	}

	shown := make([]ShownRecord, len(records))
	for i, rec := range records {
		value, err := rawJSON(rec.Value)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "rendering record", err)
		}
		shown[i] = ShownRecord{
			Collection: rec.Collection,
			RKey:       rec.RKey,
			CID:        rec.CID.String(),
			Batch:      rec.Batch,
			Value:      value,
		}
	}

	if formatter.JSON() {
		return formatter.Success(shown)
	}
	for _, rec := range shown {
		fmt.Fprintf(formatter.Writer, "%s/%s  %s\n  %s\n", rec.Collection, rec.RKey, rec.CID, rec.Value)
	}
	if len(shown) == 0 {
		fmt.Fprintln(formatter.Writer, "No records.")
	}
	return nil
}
