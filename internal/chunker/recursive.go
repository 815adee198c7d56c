// Package chunker splits extracted document text into overlapping chunks.
package chunker

import (
	"strconv"
	"strings"

	"docsum/internal/domain"
)

// DefaultChunkSize is the target number of characters per chunk.
const DefaultChunkSize = 500

// DefaultOverlap is the number of characters carried between consecutive chunks.
const DefaultOverlap = 100

// RecursiveSplitter splits text on the largest structural boundary available:
// paragraphs first, then lines, then sentence ends, then words, falling back
// to a hard cut. Fragments are merged back into chunks of at most the target
// size with character overlap between consecutive chunks.
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewRecursiveSplitter(chunkSize, overlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &RecursiveSplitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: []string{"\n\n", "\n", ". ", " ", ""},
	}
}

// Chunk splits text into chunks in document order. Chunk IDs are sequential
// ("Vec1", "Vec2", ...). Text shorter than the chunk size yields one chunk;
// empty text yields none.
func (s *RecursiveSplitter) Chunk(text string) []domain.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	pieces := s.split(text, s.separators)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:   "Vec" + strconv.Itoa(len(chunks)+1),
			Text: p,
		})
	}
	return chunks
}

func (s *RecursiveSplitter) split(text string, seps []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	sep := ""
	var finer []string
	for i, cand := range seps {
		if cand == "" {
			break
		}
		if strings.Contains(text, cand) {
			sep = cand
			finer = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardCut(text)
	}
	var fragments []string
	for _, part := range splitAfter(text, sep) {
		if len(part) > s.chunkSize {
			fragments = append(fragments, s.split(part, finer)...)
		} else {
			fragments = append(fragments, part)
		}
	}
	return s.merge(fragments)
}

// hardCut slices text into fixed windows, each starting overlap characters
// before the previous window's end.
func (s *RecursiveSplitter) hardCut(text string) []string {
	step := s.chunkSize - s.overlap
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
		if end == len(text) {
			break
		}
	}
	return out
}

// merge greedily packs fragments into chunks up to the target size, seeding
// each new chunk with the overlap tail of the previous one.
func (s *RecursiveSplitter) merge(fragments []string) []string {
	var out []string
	var buf strings.Builder
	carried := 0
	for _, f := range fragments {
		if buf.Len() > carried && buf.Len()+len(f) > s.chunkSize {
			chunk := buf.String()
			out = append(out, chunk)
			tail := chunk
			if len(tail) > s.overlap {
				tail = tail[len(tail)-s.overlap:]
			}
			buf.Reset()
			buf.WriteString(tail)
			carried = len(tail)
		}
		buf.WriteString(f)
	}
	if buf.Len() > carried {
		out = append(out, buf.String())
	}
	return out
}

// splitAfter is strings.SplitAfter without a trailing empty element when the
// text ends with the separator.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}
