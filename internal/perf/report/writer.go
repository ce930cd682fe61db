package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
)

// Writer rewrites the full results document and the summary table from
// scratch on every call.
type Writer struct {
	jsonPath string
	csvPath  string
}

func NewWriter(jsonPath, csvPath string) *Writer {
	return &Writer{jsonPath: jsonPath, csvPath: csvPath}
}

func (w *Writer) JSONPath() string { return w.jsonPath }
func (w *Writer) CSVPath() string  { return w.csvPath }

// Create makes empty output files so they are visible before the first
// result lands.
func (w *Writer) Create() error {
	for _, p := range []string{w.jsonPath, w.csvPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.Create(p)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close output file: %w", err)
		}
	}
	return nil
}

func (w *Writer) Write(results []*result.Result) error {
	data, err := MarshalResults(results)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(w.jsonPath, data); err != nil {
		return err
	}

	summary, err := MarshalSummary(result.Summarize(results))
	if err != nil {
		return err
	}
	return writeFileAtomic(w.csvPath, summary)
}

func MarshalResults(results []*result.Result) ([]byte, error) {
	if results == nil {
		results = []*result.Result{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return buf.Bytes(), nil
}

var summaryHeader = []string{
	"Language", "LanguageVersion", "Service", "Test", "Arguments", "Source", "LastVersion", "Last",
}

func MarshalSummary(summaries []result.Summary) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(summaryHeader); err != nil {
		return nil, fmt.Errorf("write summary header: %w", err)
	}
	for _, s := range summaries {
		row := []string{
			s.Language.String(),
			s.LanguageVersion,
			s.Service,
			s.Test,
			s.Arguments,
			formatOps(s.Source),
			s.LastVersion,
			formatOps(s.Last),
		}
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("flush summary: %w", err)
	}
	return buf.Bytes(), nil
}

// failedCell replaces the failure sentinel wherever throughput is shown to
// people.
const failedCell = "failed"

func formatOps(v *float64) string {
	if v == nil {
		return ""
	}
	if *v < 0 {
		return failedCell
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func ReadResults(path string) ([]*result.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var results []*result.Result
	if len(bytes.TrimSpace(data)) == 0 {
		return results, nil
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse results file: %w", err)
	}
	return results, nil
}

// writeFileAtomic replaces path with data through a rename, so readers never
// observe a half-written document.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// FileReader serves the current contents of a results document. The file is
// re-read on every call so a run in progress is visible.
type FileReader struct {
	path string
}

func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

func (r *FileReader) ReadResults(_ context.Context) ([]*result.Result, error) {
	return ReadResults(r.path)
}
