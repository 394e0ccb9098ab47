package service

import (
	"strings"
	"unicode/utf8"

	"github.com/aurelia-labs/docq/internal/domain"
)

// DefaultSeparators is the ordered separator hierarchy tried during
// splitting: paragraph breaks first, then line breaks, then word breaks,
// and finally individual characters as the last resort.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ChunkConfig controls how documents are split for embedding.
type ChunkConfig struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:  1000,
		Overlap:    200,
		Separators: DefaultSeparators,
	}
}

// ChunkPiece is one chunk of a split document. Overlap is the number of
// leading runes copied from the tail of the previous chunk; stripping it
// from every piece and concatenating reconstructs the input text.
type ChunkPiece struct {
	Content string
	Overlap int
}

// Chunker splits normalized text into overlapping chunks. Separators are
// tried in order; a fragment that exceeds the budget at one level is split
// again with the next separator. Sizes are measured in runes.
type Chunker struct {
	cfg ChunkConfig
}

// NewChunker validates the configuration and returns a Chunker.
func NewChunker(cfg ChunkConfig) (*Chunker, error) {
	if cfg.ChunkSize <= 0 {
		return nil, domain.ErrInvalidChunkSize
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return nil, domain.ErrInvalidChunkOverlap
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = DefaultSeparators
	}
	return &Chunker{cfg: cfg}, nil
}

// Split breaks text into pieces of at most ChunkSize runes each. The only
// exception is an atomic fragment that no configured separator can break;
// it is emitted whole rather than truncated. Whitespace-only input yields
// no pieces.
func (c *Chunker) Split(text string) []ChunkPiece {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Fragments are split to the post-overlap budget so that prepending
	// Overlap runes never pushes a chunk past ChunkSize.
	limit := c.cfg.ChunkSize - c.cfg.Overlap
	frags := splitRecursive(text, c.cfg.Separators, limit)
	bases := mergeFragments(frags, c.cfg.ChunkSize, limit)

	pieces := make([]ChunkPiece, 0, len(bases))
	prev := ""
	for i, base := range bases {
		if i == 0 || c.cfg.Overlap == 0 {
			pieces = append(pieces, ChunkPiece{Content: base})
			prev = base
			continue
		}
		tail := lastRunes(prev, c.cfg.Overlap)
		content := tail + base
		pieces = append(pieces, ChunkPiece{
			Content: content,
			Overlap: utf8.RuneCountInString(tail),
		})
		prev = content
	}
	return pieces
}

// splitRecursive splits text into fragments of at most limit runes using the
// separator hierarchy. Separators stay attached to the fragment they end, so
// concatenating the fragments reproduces the input exactly.
func splitRecursive(text string, seps []string, limit int) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	if len(seps) == 0 {
		// Atomic fragment, emitted oversized.
		return []string{text}
	}

	sep, rest := seps[0], seps[1:]
	if sep == "" {
		runes := []rune(text)
		out := make([]string, 0, (len(runes)+limit-1)/limit)
		for i := 0; i < len(runes); i += limit {
			end := i + limit
			if end > len(runes) {
				end = len(runes)
			}
			out = append(out, string(runes[i:end]))
		}
		return out
	}

	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		return splitRecursive(text, rest, limit)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, splitRecursive(p, rest, limit)...)
	}
	return out
}

// mergeFragments greedily packs consecutive fragments into base chunks. The
// first chunk may use the full chunk size; later chunks leave room for the
// overlap prefix added afterwards.
func mergeFragments(frags []string, firstBudget, budget int) []string {
	var bases []string
	var cur strings.Builder
	curLen := 0
	allowed := firstBudget

	for _, f := range frags {
		fl := utf8.RuneCountInString(f)
		if curLen > 0 && curLen+fl > allowed {
			bases = append(bases, cur.String())
			cur.Reset()
			curLen = 0
			allowed = budget
		}
		cur.WriteString(f)
		curLen += fl
	}
	if curLen > 0 {
		bases = append(bases, cur.String())
	}
	return bases
}

func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
