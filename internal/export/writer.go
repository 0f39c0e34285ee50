package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/plan"
)

// WriteProgress writes progress records to w as Parquet.
func WriteProgress(w io.Writer, records []model.ProgressRecord) (int, error) {
	rows := make([]ProgressRow, len(records))
	for i, r := range records {
		rows[i] = NewProgressRow(r)
	}
	return writeRows(w, rows)
}

// WriteCostLines writes the cost breakdown of one version to w as Parquet.
func WriteCostLines(w io.Writer, v model.PlanVersion, res plan.CostResult) (int, error) {
	return writeRows(w, NewCostRows(v, res))
}

func writeRows[T any](w io.Writer, rows []T) (int, error) {
	pw := parquet.NewGenericWriter[T](w)
	n, err := pw.Write(rows)
	if err != nil {
		pw.Close()
		return n, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return n, fmt.Errorf("close parquet writer: %w", err)
	}
	return n, nil
}

// WriteFile creates path and fills it with write. The file is removed when
// write fails.
func WriteFile(path string, write func(io.Writer) (int, error)) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	n, err := write(f)
	if err != nil {
		f.Close()
		os.Remove(path)
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}
	return n, nil
}
