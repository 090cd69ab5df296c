package typegen

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/notion-schema/errors"
)

// CheckResult holds the result of comparing freshly generated output with the
// committed output directory.
type CheckResult struct {
	UpToDate bool
	// Differences lists files whose content changed or that are missing from the committed output
	Differences []string
	// Stale lists committed .ts files that generation no longer produces
	Stale []string
}

// CompareDirectories compares the files generated into generatedDir with
// existingDir. Header comment lines that carry no type information are ignored.
func CompareDirectories(generatedDir, existingDir string) (*CheckResult, error) {
	result := &CheckResult{}

	produced := make(map[string]bool)
	err := filepath.Walk(generatedDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := filepath.Rel(generatedDir, path)
		if err != nil {
			return err
		}
		produced[rel] = true

		different, err := filesAreDifferent(path, filepath.Join(existingDir, rel))
		if err != nil {
			result.Differences = append(result.Differences, rel+" (error: "+err.Error()+")")
		} else if different {
			result.Differences = append(result.Differences, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", generatedDir)
	}

	entries, err := os.ReadDir(existingDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to read %s", existingDir)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".ts" {
			continue
		}
		if !produced[e.Name()] {
			result.Stale = append(result.Stale, e.Name())
		}
	}

	sort.Strings(result.Differences)
	sort.Strings(result.Stale)
	result.UpToDate = len(result.Differences) == 0 && len(result.Stale) == 0
	return result, nil
}

// filesAreDifferent compares two files, ignoring metadata lines.
// A missing existing file counts as different.
func filesAreDifferent(generated, existing string) (bool, error) {
	content1, err := os.ReadFile(generated)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", generated)
	}

	content2, err := os.ReadFile(existing)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", existing)
	}

	return filterMetadataLines(content1) != filterMetadataLines(content2), nil
}

// filterMetadataLines drops the "// Database ID:" header line, which changes
// when a database is re-pointed without any change to its properties.
// Returns empty string if the scanner fails.
func filterMetadataLines(content []byte) string {
	var result strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "// Database ID:") {
			continue
		}
		result.WriteString(line)
		result.WriteString("\n")
	}

	if err := scanner.Err(); err != nil {
		return ""
	}
	return result.String()
}
