package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/replychain/internal/tid"
)

// TIDOptions holds flags for the tid command.
type TIDOptions struct {
	*RootOptions
	Count int
}

// TIDInfo describes one record key.
type TIDInfo struct {
	TID     string `json:"tid"`
	Time    string `json:"time"`
	ClockID uint16 `json:"clock_id"`
}

// NewTIDCommand creates the tid command.
func NewTIDCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TIDOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tid [key...]",
		Short: "Generate or decode record keys",
		Long: `Without arguments, generate record keys from the current time and the
configured clock id. With arguments, decode each key into its timestamp and
clock id.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTID(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of keys to generate")

	return cmd
}

func runTID(opts *TIDOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var keys []tid.TID
	if len(args) > 0 {
		for _, arg := range args {
			key, err := tid.Parse(arg)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeBadArgument, "decoding key", err)
			}
			keys = append(keys, key)
		}
	} else {
		if opts.Count < 1 {
			return formatter.Fail(ExitCommandError, ErrCodeBadArgument, fmt.Sprintf("--count must be positive, got %d", opts.Count), nil)
		}
		cursor := tid.NewCursor(opts.clock(), opts.settings().ClockID)
		for i := 0; i < opts.Count; i++ {
			key, err := cursor.Next()
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, "generating key", err)
			}
			keys = append(keys, key)
		}
	}

	infos := make([]TIDInfo, len(keys))
	for i, key := range keys {
		infos[i] = TIDInfo{
			TID:     key.String(),
			Time:    key.Time().UTC().Format(time.RFC3339Nano),
			ClockID: key.ClockID(),
		}
	}

	if formatter.JSON() {
		return formatter.Success(infos)
	}
	for _, info := range infos {
		if len(args) > 0 {
			fmt.Fprintf(formatter.Writer, "%s  %s  clock %d\n", info.TID, info.Time, info.ClockID)
		} else {
			fmt.Fprintln(formatter.Writer, info.TID)
		}
	}
	return nil
}
