package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/snapshot"
)

// CoverageDiff saves a snapshot of the current records (record mode) or
// compares them with the last saved one (compare mode).
type CoverageDiff struct {
	opts Options
}

// NewCoverageDiff creates a snapshot saver or comparer, per opts.DiffMode.
func NewCoverageDiff(opts Options) *CoverageDiff {
	return &CoverageDiff{opts: opts}
}

func (f *CoverageDiff) Name() string {
	if f.opts.DiffMode == DiffRecord {
		return "diff-save"
	}
	return "diff-compare"
}

func (f *CoverageDiff) Execute(ctx context.Context, records []*coverage.FileRecord) error {
	start := time.Now()
	r := newRun(f.opts, records)

	store, err := snapshot.Open(f.opts.DiffFile)
	if err != nil {
		return err
	}
	defer store.Close()

	if f.opts.DiffMode == DiffRecord {
		snap, err := store.Save(ctx, r.files)
		if err != nil {
			return fmt.Errorf("save coverage snapshot: %w", err)
		}
		f.opts.Logger.Success("Saved coverage snapshot %s (%d file(s)) to %s", snap.RunID, snap.Summary.Files, f.opts.DiffFile)
		r.observe(f.Name(), start)
		return nil
	}

	prev, err := store.Latest(ctx)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return fmt.Errorf("compare with %s: %w (save one first)", f.opts.DiffFile, err)
	}
	if err != nil {
		return err
	}

	delta := snapshot.Compare(prev, r.files)
	out := f.opts.writer().Stdout()
	for _, fd := range delta.Changed() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.writeFileDelta(ctx, out, fd); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Code coverage: %.1f%% -> %.1f%% (%+.1f%%)\n",
		delta.Before.CodeCoverage()*100, delta.After.CodeCoverage()*100, delta.CodeCoverageDelta()*100)
	fmt.Fprintf(out, "Unchanged files: %.1f%%\n", delta.MatchRatio()*100)

	r.observe(f.Name(), start)
	return nil
}

func (f *CoverageDiff) writeFileDelta(ctx context.Context, out io.Writer, fd snapshot.FileDelta) error {
	fmt.Fprintf(out, "%s %s\n", strings.ToUpper(string(fd.Status)), fd.Name)
	if fd.After != nil {
		for _, n := range fd.NewlyUncovered {
			fmt.Fprintf(out, "!! %s:%d: %s\n", fd.Name, n, strings.TrimRight(fd.After.Lines[n-1], "\r\n"))
		}
	}
	if f.opts.DiffCmd == "" {
		return nil
	}
	diff, err := runDiff(ctx, f.opts.DiffCmd, fd)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, diff)
	return err
}

// runDiff feeds the uncovered code listings of both sides of fd to
// "<cmd> -u" and returns its output. Exit status 1 only means the inputs
// differ.
func runDiff(ctx context.Context, cmdName string, fd snapshot.FileDelta) (string, error) {
	dir, err := os.MkdirTemp("", "covreport-diff-")
	if err != nil {
		return "", fmt.Errorf("create diff directory: %w", err)
	}
	defer os.RemoveAll(dir)

	name := coverage.MangleName(fd.Name, ".txt")
	before := filepath.Join(dir, "saved-"+name)
	after := filepath.Join(dir, "current-"+name)
	if err := os.WriteFile(before, listing(snapshot.Uncovered(fd.Before)), 0644); err != nil {
		return "", fmt.Errorf("write diff input: %w", err)
	}
	if err := os.WriteFile(after, listing(snapshot.Uncovered(fd.After)), 0644); err != nil {
		return "", fmt.Errorf("write diff input: %w", err)
	}

	cmd := exec.CommandContext(ctx, cmdName, "-u", before, after)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return "", fmt.Errorf("%s failed for %s: %w", cmdName, fd.Name, err)
		}
	}
	return string(output), nil
}

func listing(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
