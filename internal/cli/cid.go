package cli

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/replychain/internal/ir"
)

// CIDOptions holds flags for the cid command.
type CIDOptions struct {
	*RootOptions
	Raw  bool // identify the file bytes as a blob
	Show bool // also print the canonical encoding in hex
}

// CIDResult is the JSON payload of the cid command.
type CIDResult struct {
	CID      string `json:"cid"`
	Codec    string `json:"codec"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding,omitempty"`
}

// NewCIDCommand creates the cid command.
func NewCIDCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CIDOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cid <file>",
		Short: "Compute the content identifier of a record or blob",
		Long: `Compute the content identifier of a record file (YAML or JSON), or with
--raw of any file's bytes.

Records are canonicalized first: absent fields are dropped and blob
placeholders become links. The identifier is taken over the DAG-CBOR encoding.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCID(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "identify the file bytes as a raw blob")
	cmd.Flags().BoolVar(&opts.Show, "show-encoding", false, "print the canonical encoding in hex")

	return cmd
}

func runCID(opts *CIDOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "reading file", err)
	}

	var result CIDResult
	if opts.Raw {
		id, err := ir.Identify(data, ir.CodecRaw)
		if err != nil {
			return formatter.Fail(ExitCommandError, codeFor(err, ErrCodeGeneric), "identifying blob", err)
		}
		result = CIDResult{CID: id.String(), Codec: "raw", Size: len(data)}
	} else {
		v, err := ir.UnmarshalYAML(data)
		if err != nil {
			return formatter.Fail(ExitCommandError, codeFor(err, ErrCodeLoadFailed), "parsing record", err)
		}
		id, encoded, err := ir.RecordID(v)
		if err != nil {
			return formatter.Fail(ExitCommandError, codeFor(err, ErrCodeGeneric), "identifying record", err)
		}
		result = CIDResult{CID: id.String(), Codec: "dag-cbor", Size: len(encoded)}
		if opts.Show {
			result.Encoding = hex.EncodeToString(encoded)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.CID)
	if result.Encoding != "" {
		fmt.Fprintln(formatter.Writer, result.Encoding)
	}
	formatter.VerboseLog("%s, %d byte(s)", result.Codec, result.Size)
	return nil
}
