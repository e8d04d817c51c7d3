package chunker

import (
	"strconv"
	"strings"

	"ragchat/internal/domain"
)

// CharacterChunker splits text into fixed-size character windows with a
// character overlap between consecutive windows. It prefers to break on
// paragraph boundaries, then line breaks, then spaces, and only hard-cuts
// when a single run of text has no separator at all.
type CharacterChunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewCharacterChunker(chunkSize, chunkOverlap int) *CharacterChunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &CharacterChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", " "},
	}
}

func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.Content) == "" {
		return nil, nil
	}
	parts := c.split(document.Content, 0)
	windows := c.merge(parts)
	var chunks []domain.Chunk
	idx := 0
	for _, w := range windows {
		text := strings.TrimSpace(w)
		if text == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Text:       text,
			Index:      idx,
		})
		idx++
	}
	return chunks, nil
}

// split recursively breaks text into pieces no longer than chunkSize, trying
// coarser separators first.
func (c *CharacterChunker) split(text string, level int) []string {
	if len(text) <= c.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	if level >= len(c.separators) {
		// no separator left, hard cut
		var out []string
		for len(text) > c.chunkSize {
			out = append(out, text[:c.chunkSize])
			text = text[c.chunkSize:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}
	var out []string
	for _, piece := range strings.Split(text, c.separators[level]) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		if len(piece) <= c.chunkSize {
			out = append(out, piece)
		} else {
			out = append(out, c.split(piece, level+1)...)
		}
	}
	return out
}

// merge greedily packs pieces into windows of at most chunkSize characters,
// carrying up to chunkOverlap trailing characters into the next window.
func (c *CharacterChunker) merge(parts []string) []string {
	var out []string
	var cur []string
	curLen := 0
	for _, p := range parts {
		// len(cur) accounts for the joining spaces once p is added
		if len(cur) > 0 && curLen+len(p)+len(cur) > c.chunkSize {
			out = append(out, strings.Join(cur, " "))
			for len(cur) > 0 && (curLen > c.chunkOverlap || curLen+len(p)+len(cur) > c.chunkSize) {
				curLen -= len(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		curLen += len(p)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}
