package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/blackwell-systems/regprune/internal/config"
	"github.com/blackwell-systems/regprune/internal/output"
	"github.com/blackwell-systems/regprune/internal/scanner"
	"github.com/blackwell-systems/regprune/internal/store"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

const confirmQuestion = "Delete the registry uninstall entries of every matching program?"

// Confirm asks once whether removal may proceed. Only "y" in either case
// proceeds. Any other answer, including an empty line or end of input,
// prints a farewell and returns false. When in is an interactive terminal it
// then waits for a single keypress before returning.
func Confirm(in io.Reader, out io.Writer) bool {
	reader := bufio.NewReader(in)
	if askYesNo(reader, out, confirmQuestion) {
		return true
	}

	fmt.Fprintln(out, "Nothing was removed. Goodbye.")
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(out, "Press any key to exit...")
		waitForKey(int(f.Fd()), reader)
		fmt.Fprintln(out)
	}
	return false
}

// waitForKey reads one byte with the terminal in raw mode. If fd cannot be
// put in raw mode it falls back to reading a whole line.
func waitForKey(fd int, reader *bufio.Reader) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		reader.ReadString('\n')
		return
	}
	defer term.Restore(fd, state)
	reader.ReadByte()
}

// askYesNo prints question with a [y/N] hint and reads one line. Only the
// line terminator is stripped before comparing.
func askYesNo(reader *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	response, _ := reader.ReadString('\n')
	return strings.ToLower(strings.TrimRight(response, "\r\n")) == "y"
}

// scanEntries scans every configured source and returns the merged, sorted
// entries, with a spinner on out while the registry is read.
func scanEntries(reg winreg.Registry, cfg *config.Config, logger *zap.Logger, out io.Writer) []*scanner.Entry {
	sc := scanner.New(reg, scanner.NewMatcher(cfg.MatchFragment), cfg.Sources(), logger)

	spinner := output.NewSpinner(out, "Scanning uninstall entries")
	spinner.Start()
	entries := scanner.Merge(sc.ScanAll()...)
	spinner.Stop()

	return entries
}

// openStore opens the snapshot database, creating its directory and schema
// as needed.
func openStore(cfg *config.Config) (*store.Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return st, nil
}
