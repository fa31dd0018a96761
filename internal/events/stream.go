package events

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// maxEventSize bounds a single JSON-lines event.
const maxEventSize = 1 << 20

// Summary counts the outcomes of a stream of events.
type Summary struct {
	Processed int
	Ignored   int
	Failed    int
}

func (s *Summary) add(r Result) {
	switch r.Status {
	case StatusProcessed:
		s.Processed++
	case StatusIgnored:
		s.Ignored++
	default:
		s.Failed++
	}
}

// ProcessStream handles one JSON event per line from r, in order. Blank lines
// are skipped. onResult, if set, sees every result with its 1-based line
// number. It stops early only when ctx is done or r fails.
func (p *Processor) ProcessStream(ctx context.Context, r io.Reader, onResult func(line int, res Result)) (Summary, error) {
	var sum Summary

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		res := p.ProcessJSON(ctx, bytes.Clone(raw))
		sum.add(res)
		if onResult != nil {
			onResult(line, res)
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("read events: line %d: %w", line+1, err)
	}

	return sum, nil
}
