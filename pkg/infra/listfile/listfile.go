// Package listfile reads source repositories from a list file. Plain text
// files hold one owner/repo per line; .csv and .tsv files use the first column,
// or the column named "repo", "repository" or "source" when a header is present.
// Blank lines and lines starting with # are skipped.
package listfile

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
)

var headerNames = map[string]bool{
	"repo":       true,
	"repository": true,
	"source":     true,
}

// Load reads sources from path, choosing the format by file extension
func Load(path string) ([]model.SourceRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open list file", goerr.V("path", path), goerr.T(types.ErrTagConfig))
	}
	defer f.Close()

	var sources []model.SourceRef
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		sources, err = ParseDelimited(f, ',')
	case ".tsv":
		sources, err = ParseDelimited(f, '\t')
	default:
		sources, err = ParsePlain(f)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse list file", goerr.V("path", path))
	}

	return sources, nil
}

// ParsePlain parses one owner/repo per line
func ParsePlain(r io.Reader) ([]model.SourceRef, error) {
	var sources []model.SourceRef
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		src, err := model.ParseSourceRef(line)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid line", goerr.V("line", lineNo))
		}
		sources = append(sources, src)
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read list")
	}
	return sources, nil
}

// ParseDelimited parses CSV-like input separated by comma
func ParseDelimited(r io.Reader, comma rune) ([]model.SourceRef, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	var sources []model.SourceRef
	column := 0
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read record")
		}

		if first {
			first = false
			if idx, ok := headerColumn(record); ok {
				column = idx
				continue
			}
		}

		if column >= len(record) || strings.TrimSpace(record[column]) == "" {
			continue
		}

		line, _ := reader.FieldPos(column)
		src, err := model.ParseSourceRef(record[column])
		if err != nil {
			return nil, goerr.Wrap(err, "invalid record", goerr.V("line", line))
		}
		sources = append(sources, src)
	}

	return sources, nil
}

func headerColumn(record []string) (int, bool) {
	for i, name := range record {
		if headerNames[strings.ToLower(strings.TrimSpace(name))] {
			return i, true
		}
	}
	return 0, false
}
