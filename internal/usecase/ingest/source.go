package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
)

// maxLineSize bounds one JSONL record; image blocks carry inline base64.
const maxLineSize = 64 << 20

// JSONLSource reads one JSON object per line. Blank lines are skipped;
// malformed lines are reported as invalid records.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLSource creates a source over r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &JSONLSource{scanner: sc}
}

// Next returns the next record, io.EOF at the end of input.
func (s *JSONLSource) Next(ctx context.Context) (map[string]any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("read jsonl: %w", err)
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read jsonl line %d: %w", s.line+1, err)
			}
			return nil, io.EOF
		}
		s.line++

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil || m == nil {
			if err == nil {
				err = errors.New("not an object")
			}
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidRecord, s.line, err)
		}
		return m, nil
	}
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []map[string]any
	pos     int
}

// NewSliceSource creates a source over records.
func NewSliceSource(records []map[string]any) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record, io.EOF at the end.
func (s *SliceSource) Next(_ context.Context) (map[string]any, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}
