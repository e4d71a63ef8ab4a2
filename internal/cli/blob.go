package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// BlobOptions holds flags for the blob command.
type BlobOptions struct {
	*RootOptions
	MimeType string
}

// NewBlobCommand creates the blob command.
func NewBlobCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BlobOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "blob <file>",
		Short: "Upload a file as a blob",
		Long: `Upload a file into the database as a content-addressed blob and print the
blob reference to embed in a post, e.g. as an image of app.bsky.embed.images.

The media type is guessed from the file extension unless --mime-type is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlob(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MimeType, "mime-type", "", "media type of the file")

	return cmd
}

func runBlob(ctx context.Context, opts *BlobOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "reading file", err)
	}

	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	if mimeType == "" {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgument, "unknown media type, pass --mime-type", nil)
	}

	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "opening database", err)
	}
	defer st.Close()

	ref, err := st.UploadBlob(ctx, data, mimeType)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "uploading blob", err)
	}

	out, err := rawJSON(ref.IPLD())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "rendering blob", err)
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}
	fmt.Fprintln(formatter.Writer, string(out))
	return nil
}
