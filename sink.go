package promptpoll

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultIndexColumn = "Response Number"
	DefaultValueColumn = "Response"
	OutcomeColumn      = "Outcome"
)

type sinkOptions struct {
	indexColumn string
	valueColumn string
	withOutcome bool
}

// SinkOption configures how a ResultSet is written.
type SinkOption func(*sinkOptions)

// WithColumns overrides the header names of the index and value columns.
func WithColumns(index, value string) SinkOption {
	return func(o *sinkOptions) {
		o.indexColumn = index
		o.valueColumn = value
	}
}

// WithOutcomeColumn appends an "Outcome" column holding "ok" or "error", so failures can be told apart from answers that begin with "Error:".
func WithOutcomeColumn() SinkOption {
	return func(o *sinkOptions) {
		o.withOutcome = true
	}
}

// Persist: Writes results as CSV to path, creating its directory if needed. Filesystem errors are returned.
func Persist(results ResultSet, path string, opts ...SinkOption) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()

	return WriteCSV(f, results, opts...)
}

// WriteCSV: Writes a header row and one row per result, in the order given.
func WriteCSV(w io.Writer, results ResultSet, opts ...SinkOption) error {
	o := sinkOptions{indexColumn: DefaultIndexColumn, valueColumn: DefaultValueColumn}
	for _, opt := range opts {
		opt(&o)
	}

	writer := csv.NewWriter(w)
	header := []string{o.indexColumn, o.valueColumn}
	if o.withOutcome {
		header = append(header, OutcomeColumn)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range results {
		row := []string{strconv.Itoa(r.Index), r.Text()}
		if o.withOutcome {
			row = append(row, outcomeLabel(r))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Index, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func outcomeLabel(r CallResult) string {
	if r.OK() {
		return "ok"
	}
	return "error"
}
