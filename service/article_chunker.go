package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/legalpt/legal-rag-be/types"
)

// Heading patterns seen in scraped diariodarepublica.pt content. The
// scraper wraps article headings as "=== ARTIGO 1.º ===", plain texts use
// "Artigo 1.º" or "Art. 1.º", optionally with the title on the same line
// after a dash.
var (
	articleHeadingRe = regexp.MustCompile(`(?im)^(?:===\s*)?((?:ARTIGO|Art\.)\s+(?:\d+\.?º?|[IVXLCDM]+))(?:\s*===)?\s*(?:[-–—]\s*(.*\S))?\s*$`)
	chapterHeadingRe = regexp.MustCompile(`(?im)^(?:CAPÍTULO|TÍTULO|SECÇÃO)\s+[IVXLCDM]+\s*$`)
)

type article struct {
	number string
	title  string
	text   string // heading + title + content
}

// ArticleChunker splits Portuguese legal documents on article boundaries,
// packing small adjacent articles into one chunk. Documents without a
// recognizable article structure fall back to character windows.
type ArticleChunker struct {
	maxChunkSize int
	minChunkSize int
	fallback     *Chunker
}

func NewArticleChunker(maxChunkSize, overlap int) (*ArticleChunker, error) {
	fallback, err := NewChunker(maxChunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return &ArticleChunker{
		maxChunkSize: maxChunkSize,
		minChunkSize: 200,
		fallback:     fallback,
	}, nil
}

// Split chunks a legal document by its articles. Offsets are assigned
// cumulatively over the emitted chunk texts, so they stay monotonically
// increasing even though article chunks are re-joined fragments.
func (c *ArticleChunker) Split(text string) []types.TextChunk {
	preamble, articles := c.extractArticles(text)

	if len(articles) == 0 {
		return c.fallback.Split(text)
	}

	var parts []packedChunk
	if p := strings.TrimSpace(preamble); len(p) > c.minChunkSize {
		if len(p) > c.maxChunkSize {
			for _, fc := range c.fallback.Split(p) {
				parts = append(parts, packedChunk{text: fc.Text, chunkType: "preamble"})
			}
		} else {
			parts = append(parts, packedChunk{text: p, chunkType: "preamble"})
		}
	}
	parts = append(parts, c.packArticles(articles)...)

	chunks := make([]types.TextChunk, 0, len(parts))
	offset := 0
	for i, part := range parts {
		end := offset + len(part.text)
		chunks = append(chunks, types.TextChunk{
			Text:      part.text,
			Start:     offset,
			End:       end,
			Index:     i,
			ChunkType: part.chunkType,
			Articles:  part.articles,
		})
		offset = end + 2 // paragraph break between emitted chunks
	}
	return chunks
}

type packedChunk struct {
	text      string
	chunkType string
	articles  []string
}

type headingMatch struct {
	start, end int
	number     string
	title      string
	isArticle  bool
}

// extractArticles returns the text before the first structural heading and
// the list of articles with their content.
func (c *ArticleChunker) extractArticles(text string) (string, []article) {
	var matches []headingMatch
	for _, m := range articleHeadingRe.FindAllStringSubmatchIndex(text, -1) {
		h := headingMatch{start: m[0], end: m[1], isArticle: true}
		h.number = strings.TrimSpace(text[m[2]:m[3]])
		if m[4] >= 0 {
			h.title = strings.TrimSpace(text[m[4]:m[5]])
		}
		matches = append(matches, h)
	}
	for _, m := range chapterHeadingRe.FindAllStringIndex(text, -1) {
		matches = append(matches, headingMatch{start: m[0], end: m[1]})
	}
	if len(matches) == 0 {
		return text, nil
	}
	sortHeadings(matches)

	preamble := text[:matches[0].start]

	var articles []article
	for i, m := range matches {
		if !m.isArticle {
			continue
		}
		contentEnd := len(text)
		if i+1 < len(matches) {
			contentEnd = matches[i+1].start
		}
		content := strings.TrimSpace(text[m.end:contentEnd])

		title := m.title
		if title == "" {
			// Title is conventionally the first line after the heading.
			if idx := strings.IndexByte(content, '\n'); idx > 0 && idx < 120 {
				title = strings.TrimSpace(content[:idx])
				content = strings.TrimSpace(content[idx+1:])
			}
		}
		if content == "" && title == "" {
			continue
		}

		full := m.number
		if title != "" {
			full += "\n" + title
		}
		if content != "" {
			full += "\n" + content
		}
		articles = append(articles, article{number: m.number, title: title, text: full})
	}
	return preamble, articles
}

// packArticles greedily combines consecutive articles until the next one
// would push the chunk over maxChunkSize. An oversized article always gets
// its own chunk.
func (c *ArticleChunker) packArticles(articles []article) []packedChunk {
	var chunks []packedChunk
	var current []article
	currentSize := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		numbers := make([]string, len(current))
		for i, a := range current {
			texts[i] = a.text
			numbers[i] = a.number
		}
		chunks = append(chunks, packedChunk{
			text:      strings.Join(texts, "\n\n"),
			chunkType: "articles",
			articles:  numbers,
		})
		current = nil
		currentSize = 0
	}

	for _, a := range articles {
		switch {
		case len(a.text) > c.maxChunkSize:
			flush()
			current = []article{a}
			currentSize = len(a.text)
			flush()
		case currentSize+len(a.text) > c.maxChunkSize:
			flush()
			current = []article{a}
			currentSize = len(a.text)
		default:
			current = append(current, a)
			currentSize += len(a.text)
		}
	}
	flush()
	return chunks
}

func sortHeadings(hs []headingMatch) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].start < hs[j].start })
}
