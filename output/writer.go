// Package output writes generated files and runs the configured formatter.
package output

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
	"github.com/teranos/notion-schema/typegen"
	"github.com/teranos/notion-schema/typegen/typescript"
)

// IndexFile is the barrel module written next to the generated units.
const IndexFile = "index.ts"

// Report lists the files a write touched.
type Report struct {
	Written   []string
	Unchanged []string
}

func (r *Report) add(path string, changed bool) {
	if changed {
		r.Written = append(r.Written, path)
	} else {
		r.Unchanged = append(r.Unchanged, path)
	}
}

// Writer writes compilation units into a directory.
type Writer struct {
	dir       string
	formatter []string
	log       *zap.SugaredLogger
}

// NewWriter creates a Writer for dir. formatCommand, if non-empty, is split
// with shell quoting rules and run with the written paths appended.
func NewWriter(dir, formatCommand string, log *zap.SugaredLogger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	w := &Writer{dir: dir, log: log}

	if strings.TrimSpace(formatCommand) != "" {
		args, err := shellquote.Split(formatCommand)
		if err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "invalid format command %q", formatCommand),
				"check the quoting of format.command",
			)
		}
		w.formatter = args
	}
	return w, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteUnits writes one file per unit plus the barrel index. Files whose
// content is already current are left alone and not formatted.
func (w *Writer) WriteUnits(ctx context.Context, units []*typegen.Unit) (*Report, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", w.dir)
	}

	report := &Report{}
	exports := make([]typescript.ModuleExport, 0, len(units))
	for _, unit := range units {
		path := filepath.Join(w.dir, unit.FileName())
		changed, err := writeIfChanged(path, []byte(unit.Text))
		if err != nil {
			return nil, err
		}
		report.add(path, changed)
		exports = append(exports, unit.Export())
	}

	index := filepath.Join(w.dir, IndexFile)
	changed, err := writeIfChanged(index, []byte(typescript.GenerateIndex(exports)))
	if err != nil {
		return nil, err
	}
	report.add(index, changed)

	if err := w.Format(ctx, report.Written); err != nil {
		return report, err
	}

	w.log.Infow("Wrote generated types",
		logger.FieldPath, w.dir,
		logger.FieldCount, len(units),
		"written", len(report.Written))
	return report, nil
}

// WriteFile writes content to path (not relative to the output directory)
// and formats it when it changed.
func (w *Writer) WriteFile(ctx context.Context, path string, content []byte) (bool, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	changed, err := writeIfChanged(path, content)
	if err != nil || !changed {
		return changed, err
	}
	return true, w.Format(ctx, []string{path})
}

// Format runs the formatter over paths. Without a formatter it does nothing.
func (w *Writer) Format(ctx context.Context, paths []string) error {
	if len(w.formatter) == 0 || len(paths) == 0 {
		return nil
	}

	args := append(append([]string{}, w.formatter[1:]...), paths...)
	cmd := exec.CommandContext(ctx, w.formatter[0], args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	w.log.Debugw("Running formatter",
		"command", w.formatter[0],
		logger.FieldCount, len(paths))

	if err := cmd.Run(); err != nil {
		return errors.WithDetail(
			errors.Wrapf(err, "formatter %s failed", w.formatter[0]),
			strings.TrimSpace(out.String()),
		)
	}
	return nil
}

func writeIfChanged(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	return true, nil
}
