package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// FileSource implements EventSource for reading from combat log files.
// Files are read sequentially, one line at a time.
type FileSource struct {
	files     []string
	onFailure FailureFunc

	stats []LineStats

	currentFile    *os.File
	currentScanner *bufio.Scanner
	currentSource  string
	currentLine    int
	fileIndex      int
}

// NewFileSource creates an EventSource that reads from the given files.
// onFailure may be nil.
func NewFileSource(files []string, onFailure FailureFunc) *FileSource {
	return &FileSource{
		files:     files,
		onFailure: onFailure,
		fileIndex: -1,
	}
}

// Next returns the next parsed event.
// Skips blank lines and lines that fail to parse.
// A file that cannot be opened is reported as a failure and skipped.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*CombatEvent, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentScanner == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
			if s.currentScanner == nil {
				continue
			}
		}

		if s.currentScanner.Scan() {
			s.currentLine++
			raw := s.currentScanner.Text()
			if strings.TrimSpace(raw) == "" {
				continue
			}

			ev, err := ParseEvent(s.currentSource, raw, s.currentLine)
			if err != nil {
				s.recordFailure(err)
				continue
			}

			s.stats[s.fileIndex].Succeeded++
			return ev, nil
		}

		if err := s.currentScanner.Err(); err != nil {
			s.recordFailure(&ParseError{File: s.currentSource, Line: s.currentLine + 1, Field: "file", Err: err})
		}

		if err := s.closeCurrentFile(); err != nil {
			return nil, fmt.Errorf("closing %s: %w", s.currentSource, err)
		}
	}
}

// Stats returns per-file parse counts for the files opened so far.
func (s *FileSource) Stats() []LineStats {
	out := make([]LineStats, len(s.stats))
	copy(out, s.stats)
	return out
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) recordFailure(err error) {
	var perr *ParseError
	if !errors.As(err, &perr) {
		perr = &ParseError{File: s.currentSource, Line: s.currentLine, Field: "line", Err: err}
	}

	if perr.Field == "file" {
		s.stats[s.fileIndex].OpenError = perr.Err.Error()
	} else {
		s.stats[s.fileIndex].Failed++
	}

	log.Debug().
		Str("file", perr.File).
		Int("line", perr.Line).
		Str("field", perr.Field).
		Err(perr.Err).
		Msg("skipping unparsable line")

	if s.onFailure != nil {
		s.onFailure(perr)
	}
}

// openNextFile advances to the next file. A file that fails to open leaves
// currentScanner nil so the caller moves on.
func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	s.stats = append(s.stats, LineStats{File: path})
	s.currentSource = path
	s.currentLine = 0

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		s.recordFailure(&ParseError{File: path, Field: "file", Err: fmt.Errorf("opening log file: %w", err)})
		return nil
	}

	log.Debug().Str("file", path).Msg("reading combat log")

	s.currentFile = f
	s.currentScanner = bufio.NewScanner(f)
	s.currentScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line size

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	s.currentScanner = nil
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		return err
	}
	return nil
}
