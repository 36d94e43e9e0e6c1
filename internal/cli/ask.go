package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"askdb/internal/render"
)

func newAskCommand() *cobra.Command {
	var (
		format    string
		inputFile string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the result",
		Long: `Send a single question to the backend and print the generated SQL, the
result rows and the explanation.

The question comes from the arguments, from --input, or from stdin.`,
		Example: `  askdb ask "how many customers signed up last month?"
  echo "top 5 products by revenue" | askdb ask -f csv
  askdb ask -i question.txt -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if !slices.Contains(render.Formats, format) && format != "markdown" {
				return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(render.Formats, ", "))
			}

			question, err := readQuestion(cmd, args, inputFile)
			if err != nil {
				return err
			}

			e, err := commandEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			view := &streamView{w: cmd.ErrOrStderr(), progress: isTerminal(cmd.ErrOrStderr())}
			resp, err := e.controller(view).Submit(cmd.Context(), question)
			if err != nil {
				return reportedError{err: err}
			}
			return render.Write(cmd.OutOrStdout(), resp, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", render.FormatTable, "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read the question from a file")
	return cmd
}

// readQuestion takes the question from args, the input file or piped stdin,
// in that order
func readQuestion(cmd *cobra.Command, args []string, inputFile string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if inputFile != "" {
		b, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("read question: %w", err)
		}
		return string(b), nil
	}
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", errors.New("no question given: pass it as an argument, with --input, or on stdin")
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

// streamView reports controller events as lines on w
type streamView struct {
	w        io.Writer
	progress bool
}

func (v *streamView) SetBusy(busy bool) {
	if busy && v.progress {
		fmt.Fprintln(v.w, "Processing...")
	}
}

func (v *streamView) ShowError(message string) {
	fmt.Fprintf(v.w, "Error: %s\n", message)
}

func (v *streamView) HideError()                  {}
func (v *streamView) HideResults()                {}
func (v *streamView) ShowResults(_ render.Result) {}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
