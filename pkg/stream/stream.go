// Package stream simulates incremental delivery of an already-complete text.
// The transport never streams partial bodies, so finished text is chopped
// into small batches and delivered through a callback with a short pause
// between deliveries. Purely cosmetic: concatenating the delivered chunks
// reconstructs the input exactly.
package stream

import (
	"context"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultBatchSize = 3
	DefaultDelay     = 15 * time.Millisecond
)

type Simulator struct {
	BatchSize int
	Delay     time.Duration
}

func New() *Simulator {
	return &Simulator{
		BatchSize: DefaultBatchSize,
		Delay:     DefaultDelay,
	}
}

// Split chops text into segments, keeping runs of whitespace as their own
// segments so that rejoining is lossless.
func Split(text string) []string {
	var segments []string
	var current strings.Builder
	var inSpace bool

	for _, r := range text {
		isSpace := unicode.IsSpace(r)

		if current.Len() > 0 && isSpace != inSpace {
			segments = append(segments, current.String())
			current.Reset()
		}

		inSpace = isSpace
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	return segments
}

// Stream delivers text to fn in batches of BatchSize segments, pausing Delay
// between batches. A canceled ctx stops delivery early.
func (s *Simulator) Stream(ctx context.Context, text string, fn func(string)) error {
	if text == "" || fn == nil {
		return nil
	}

	size := s.BatchSize

	if size <= 0 {
		size = DefaultBatchSize
	}

	segments := Split(text)

	for i := 0; i < len(segments); i += size {
		if i > 0 && s.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.Delay):
			}
		}

		end := min(i+size, len(segments))
		fn(strings.Join(segments[i:end], ""))
	}

	return nil
}
