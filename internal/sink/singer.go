package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"awin_tap/internal/catalog"
	"awin_tap/internal/domain"
)

// Singer writes newline-delimited Singer messages, typically to stdout.
type Singer struct {
	w   *bufio.Writer
	now func() time.Time
}

func NewSinger(w io.Writer) *Singer {
	return &Singer{w: bufio.NewWriter(w), now: time.Now}
}

func (s *Singer) WriteSchema(_ context.Context, stream string, schema catalog.Schema, keys []string) error {
	return s.write(schemaMessage(stream, schema, keys))
}

func (s *Singer) WriteRecord(_ context.Context, stream string, rec domain.Record) error {
	return s.write(recordMessage(stream, rec, s.now().UTC()))
}

// WriteState writes the state message and flushes, so a consumer that sees
// the state has also seen every record before it.
func (s *Singer) WriteState(_ context.Context, state *domain.State) error {
	if err := s.write(stateMessage(state)); err != nil {
		return err
	}
	return s.Flush()
}

func (s *Singer) Flush() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush messages: %w", err)
	}
	return nil
}

func (s *Singer) Close() error {
	return s.Flush()
}

func (s *Singer) write(msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Type, err)
	}
	b = append(b, '\n')
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("write %s message: %w", msg.Type, err)
	}
	return nil
}
