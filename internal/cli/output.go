package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/replychain/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The command ran but found a problem (verification failed)
	ExitCommandError = 2 // The command could not run (bad input, unreadable database)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeConfig       = "E002" // Configuration could not be loaded
	ErrCodeLoadFailed   = "E003" // Thread or record file could not be read or parsed
	ErrCodeBuildFailed  = "E004" // Chain could not be built
	ErrCodeNotFound     = "E005" // Record or blob not found
	ErrCodeStore        = "E006" // Database error
	ErrCodeWriteFailed  = "E007" // Output file write error
	ErrCodeVerifyFailed = "E008" // Stored data failed verification
	ErrCodeBadArgument  = "E009" // Malformed command-line argument

	// Value errors, one per ir error code.
	ErrCodeMalformedValue     = "E101"
	ErrCodeNonCanonicalInput  = "E102"
	ErrCodeUnsupportedNumeric = "E103"
	ErrCodeDigestUnavailable  = "E104"
	ErrCodeReservedField      = "E105"
)

var valueErrorCodes = map[ir.ErrorCode]string{
	ir.ErrCodeMalformedValue:        ErrCodeMalformedValue,
	ir.ErrCodeNonCanonicalInput:     ErrCodeNonCanonicalInput,
	ir.ErrCodeUnsupportedNumeric:    ErrCodeUnsupportedNumeric,
	ir.ErrCodeDigestUnavailable:     ErrCodeDigestUnavailable,
	ir.ErrCodeReservedFieldConflict: ErrCodeReservedField,
}

// codeFor picks the most specific output code for err, falling back to
// fallback when err carries no value error code.
func codeFor(err error, fallback string) string {
	if code, ok := valueErrorCodes[ir.CodeOf(err)]; ok {
		return code
	}
	return fallback
}

// ExitError carries the process exit code out of a command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose output; keeps JSON on Writer clean
	Verbose   bool
}

// CLIResponse is the JSON envelope every command writes in json format.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON reports whether output is the JSON envelope.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data. Text output prints data with fmt; commands with a
// richer text form print it themselves and only call Success for JSON.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes an error report.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err under code and returns the ExitError the command should
// return.
func (f *OutputFormatter) Fail(exit int, code, message string, err error) error {
	text := message
	if err != nil {
		text = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, text, nil)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// rawJSON renders a value in atproto JSON form for embedding in a response.
func rawJSON(v ir.Value) (json.RawMessage, error) {
	data, err := ir.MarshalJSON(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
