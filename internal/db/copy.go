package db

import (
	"github.com/jackc/pgx/v5"
)

// CopyRow is a value that can be written by COPY in a fixed column order.
type CopyRow interface {
	CopyValues() []any
}

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel.
// This provides natural backpressure between the producer and the COPY writer.
type ChannelSource[T CopyRow] struct {
	ch      <-chan T
	current T
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource[T CopyRow](ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource[T]) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource[T]) Err() error {
	return s.err
}

// Feed returns a closed, fully buffered channel holding rows.
func Feed[T CopyRow](rows []T) <-chan T {
	ch := make(chan T, len(rows))
	for _, r := range rows {
		ch <- r
	}
	close(ch)
	return ch
}

var _ pgx.CopyFromSource = (*ChannelSource[CopyRow])(nil)
