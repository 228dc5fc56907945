// Package extract bridges the external pattern extractor into the ingestion
// pipeline. It feeds a batch's file list to a child process and exposes the
// child's output as a single-pass stream of records over a fixed-capacity
// channel: a slow consumer blocks the producer, which blocks the child's
// writes through the pipe. That is the system's only backpressure mechanism.
package extract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/stelin41/super-fast-dumpster-diver/pkg/types"
)

const (
	// DefaultQueueSize bounds in-flight records between the reader goroutine
	// and the ingestion sink.
	DefaultQueueSize = 1024

	maxLineBytes = 4 << 20
)

// Bridge describes how to invoke the extractor for one pattern. The default
// pipeline hands NUL-separated paths to xargs, which runs grep in byte-offset
// mode; grep's --null output delimiter cannot collide with path or match
// content.
type Bridge struct {
	Argv      []string
	QueueSize int
}

// New builds a bridge around the stock grep pipeline for a PCRE pattern.
// The pattern is passed as a single argv element, so no shell quoting is
// involved.
func New(pattern string) *Bridge {
	return &Bridge{
		Argv:      []string{"xargs", "-0", "grep", "-H", "-r", "-b", "-o", "-a", "-P", "--null", "-e", pattern},
		QueueSize: DefaultQueueSize,
	}
}

// Stream is the lazy, non-restartable record sequence produced by one
// extractor invocation. Records are consumed exactly once.
type Stream struct {
	records chan types.Record
	dropped atomic.Int64
	err     error
	done    chan struct{}
}

// Records returns the record channel. It is closed once the extractor's
// output is exhausted or the run is aborted.
func (s *Stream) Records() <-chan types.Record { return s.records }

// Err reports how the extractor finished. It blocks until the child process
// has been reaped, so callers can rely on no zombie being left behind.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// Dropped counts output lines that did not parse into a (path, offset,
// match) triple and were discarded.
func (s *Stream) Dropped() int64 { return s.dropped.Load() }

// Run starts the extractor for a batch of file paths. The returned stream's
// channel must be drained (or the context cancelled) before Err returns.
func (b *Bridge) Run(ctx context.Context, paths []string) (*Stream, error) {
	if len(b.Argv) == 0 {
		return nil, errors.New("extract: empty argv")
	}
	cmd := exec.CommandContext(ctx, b.Argv[0], b.Argv[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("extractor stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("extractor stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start extractor: %w", err)
	}

	qsize := b.QueueSize
	if qsize <= 0 {
		qsize = DefaultQueueSize
	}
	s := &Stream{
		records: make(chan types.Record, qsize),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)

		g, gctx := errgroup.WithContext(ctx)

		// Feed the NUL-separated path list. The writer runs concurrently
		// with the reader: with large batches the child produces output
		// before it has consumed all of its input.
		g.Go(func() error {
			defer func() { _ = stdin.Close() }()
			w := bufio.NewWriterSize(stdin, 1<<20)
			for _, p := range paths {
				if _, err := w.WriteString(p); err != nil {
					return fmt.Errorf("write path list: %w", err)
				}
				if err := w.WriteByte(0); err != nil {
					return fmt.Errorf("write path list: %w", err)
				}
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("write path list: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			sc := bufio.NewScanner(stdout)
			sc.Buffer(make([]byte, 64*1024), maxLineBytes)
			for sc.Scan() {
				rec, ok := parseLine(sc.Bytes())
				if !ok {
					s.dropped.Add(1)
					continue
				}
				select {
				case s.records <- rec:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("read extractor output: %w", err)
			}
			return nil
		})

		err := g.Wait()
		if err != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		waitErr := cmd.Wait()
		if err == nil {
			err = ignorableExit(waitErr)
		}
		s.err = err
		close(s.records)
	}()

	return s, nil
}

// parseLine splits one extractor line, `path NUL offset ':' match`, into a
// record. Anything else is dropped rather than raised: the extractor scans
// arbitrary binary content and occasionally emits garbage.
func parseLine(line []byte) (types.Record, bool) {
	nul := bytes.IndexByte(line, 0)
	if nul < 0 {
		return types.Record{}, false
	}
	rest := line[nul+1:]
	colon := bytes.IndexByte(rest, ':')
	if colon < 0 {
		return types.Record{}, false
	}
	offset, err := strconv.ParseUint(string(rest[:colon]), 10, 64)
	if err != nil {
		return types.Record{}, false
	}
	return types.Record{
		Path:   string(line[:nul]),
		Offset: offset,
		Value:  string(rest[colon+1:]),
	}, true
}

// ignorableExit filters out the exit codes a matchless run produces: grep
// exits 1 when nothing matched, and xargs folds any non-zero grep exit into
// 123.
func ignorableExit(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		switch ee.ExitCode() {
		case 1, 123:
			return nil
		}
	}
	return fmt.Errorf("extractor exited: %w", err)
}
