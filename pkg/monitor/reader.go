package monitor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"time"
)

// readRecords scans lines from r and sends parsed records to out until r is
// exhausted or ctx is cancelled. It closes out on return, so the channel is
// only ever closed by its single writer.
func readRecords(ctx context.Context, r io.Reader, out chan<- Record) {
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readRecords: %v", r)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		rec, err := ParseLine(line)
		if errors.Is(err, ErrComment) {
			if line != "" {
				log.Printf("Node: %s", line)
			}
			continue
		}
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}
		rec.Received = time.Now()

		// Send record to channel (non-blocking)
		select {
		case out <- rec:
		case <-ctx.Done():
			return
		default:
			log.Printf("Records channel full, dropping record")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, io.ErrClosedPipe) {
		log.Printf("Error reading node output: %v", err)
	}
}
