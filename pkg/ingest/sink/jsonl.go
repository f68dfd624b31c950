package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

// envelope is one output line: the category tag beside the record body so
// consumers can route lines without sniffing field sets.
type envelope struct {
	Category string       `json:"category"`
	Record   types.Record `json:"record"`
}

// JSONL writes one envelope per line. The writer is buffered; records are
// durable only after Close.
type JSONL struct {
	w     *bufio.Writer
	close func() error
}

// NewJSONL wraps an open destination. The closer may be nil for
// destinations the caller owns.
func NewJSONL(w io.Writer, closer func() error) *JSONL {
	return &JSONL{w: bufio.NewWriter(w), close: closer}
}

// OpenJSONL creates or truncates the file at path.
func OpenJSONL(path string) (*JSONL, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return NewJSONL(f, f.Close), nil
}

func (j *JSONL) Emit(ctx context.Context, rec types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(envelope{Category: rec.Category(), Record: rec})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := j.w.Write(data); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

func (j *JSONL) Close() error {
	if err := j.w.Flush(); err != nil {
		if j.close != nil {
			j.close()
		}
		return err
	}
	if j.close != nil {
		return j.close()
	}
	return nil
}
