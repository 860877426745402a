package cli

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"
)

// maxLineBytes bounds the scanner buffer; structured log lines with embedded
// email bodies can run long.
const maxLineBytes = 1 << 20

// newLogscanCmd creates the logscan command, which scans a log file for a
// regexp and prints matching lines with optional surrounding context.
func newLogscanCmd() *cobra.Command {
	var (
		file        string
		pattern     string
		contextSize int
	)
	cmd := &cobra.Command{
		Use:   "logscan",
		Short: "Scan a log file for a pattern",
		Example: `  # Find failed sync attempts
  impmailctl logscan --file server.log --pattern 'msg="sync failed"'

  # Show two lines of context around classifier errors
  impmailctl logscan --file server.log --pattern 'classifier' --context 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogscan(cmd, file, pattern, contextSize)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "log file to scan")
	cmd.Flags().StringVar(&pattern, "pattern", "", "regexp to match against each line")
	cmd.Flags().IntVar(&contextSize, "context", 0, "lines of context to print around each match")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func runLogscan(cmd *cobra.Command, file, pattern string, contextSize int) error {
	if contextSize < 0 {
		return fmt.Errorf("context must be >= 0, got %d", contextSize)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	matches, err := scanLog(cmd, f, re, contextSize)
	if err != nil {
		return err
	}

	cmd.Printf("%d matching line(s) in %s\n", matches, file)
	return nil
}

// scanLog streams the reader line by line, printing matches (and context)
// as "lineno: text". Returns the number of matching lines.
func scanLog(cmd *cobra.Command, f *os.File, re *regexp.Regexp, contextSize int) (int, error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	// before holds the trailing window of already-read lines for context.
	type numbered struct {
		n    int
		text string
	}
	var before []numbered
	matches := 0
	lineNo := 0
	pendingAfter := 0
	lastPrinted := 0

	printLine := func(l numbered) {
		if l.n <= lastPrinted {
			return
		}
		cmd.Printf("%d: %s\n", l.n, l.text)
		lastPrinted = l.n
	}

	for scanner.Scan() {
		lineNo++
		line := numbered{n: lineNo, text: scanner.Text()}

		if re.MatchString(line.text) {
			for _, b := range before {
				printLine(b)
			}
			printLine(line)
			matches++
			pendingAfter = contextSize
		} else if pendingAfter > 0 {
			printLine(line)
			pendingAfter--
		}

		if contextSize > 0 {
			before = append(before, line)
			if len(before) > contextSize {
				before = before[1:]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return matches, fmt.Errorf("failed to read log file: %w", err)
	}
	return matches, nil
}
