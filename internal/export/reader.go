package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/odontoplan/internal/model"
)

const readBatchSize = 256

// Reader wraps a parquet GenericReader for streaming export rows.
type Reader[T any] struct {
	file   *os.File
	pf     *parquet.File
	reader *parquet.GenericReader[T]
}

// Open opens a Parquet file and returns a streaming Reader.
func Open[T any](path string) (*Reader[T], error) {
	f, pf, err := openFile(path)
	if err != nil {
		return nil, err
	}
	r := parquet.NewGenericReader[T](pf)
	return &Reader[T]{file: f, pf: pf, reader: r}, nil
}

func openFile(path string) (*os.File, *parquet.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open parquet: %w", err)
	}
	return f, pf, nil
}

// NumRows returns the total number of rows in the Parquet file.
func (r *Reader[T]) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) records into the provided slice.
// Returns the number of rows read and io.EOF when done.
func (r *Reader[T]) Read(rows []T) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read parquet rows: %w", err)
	}
	return n, err
}

// Schema returns the schema stored in the file, not the schema of T.
func (r *Reader[T]) Schema() *parquet.Schema {
	return r.pf.Schema()
}

// Close releases all resources.
func (r *Reader[T]) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// ReadAll validates the file's columns and reads every row in batches.
func ReadAll[T any](path string, required []string) ([]T, error) {
	r, err := Open[T](path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := ValidateSchema(r.Schema(), required); err != nil {
		return nil, err
	}

	out := make([]T, 0, r.NumRows())
	buf := make([]T, readBatchSize)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadProgress reads a progress export back into records.
func ReadProgress(path string) ([]model.ProgressRecord, error) {
	rows, err := ReadAll[ProgressRow](path, ProgressColumns())
	if err != nil {
		return nil, err
	}
	out := make([]model.ProgressRecord, len(rows))
	for i, row := range rows {
		out[i] = row.Record()
	}
	return out, nil
}

// ReadCostLines reads a cost export.
func ReadCostLines(path string) ([]CostRow, error) {
	return ReadAll[CostRow](path, CostColumns())
}
