package text

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type HeaderType string

const (
	HeaderH1   HeaderType = "h1"
	HeaderH2   HeaderType = "h2"
	HeaderH3   HeaderType = "h3"
	HeaderNone HeaderType = "none"
)

// FallbackHeader names the single chunk emitted for pages without any
// h1/h2/h3 heading.
const FallbackHeader = "Main Content"

// Chunk is a heading-bounded unit of extracted page text, the atomic unit
// of embedding and retrieval.
type Chunk struct {
	SourceURL  string
	Header     string
	HeaderType HeaderType
	Content    string
}

// ChunkHTML splits article HTML into ordered chunks, one per h1/h2/h3
// heading. A chunk's content is the heading text followed by all visible
// text up to the next h1/h2/h3 in document order; h4+ and deeper structure
// fold into the enclosing chunk. A page without any boundary heading yields
// exactly one chunk covering the whole page text.
//
// Text nodes are joined with single spaces and whitespace is collapsed, so
// the same input always produces byte-identical output.
func ChunkHTML(articleHTML, sourceURL string) []Chunk {
	doc, err := html.Parse(strings.NewReader(articleHTML))
	if err != nil {
		// html.Parse tolerates almost anything; if it still fails, degrade
		// to the whole input as one unstructured chunk.
		content := normalize(articleHTML)
		if content == "" {
			return nil
		}
		return []Chunk{{SourceURL: sourceURL, Header: FallbackHeader, HeaderType: HeaderNone, Content: content}}
	}

	var sections []*section
	cur := &section{header: FallbackHeader, htype: HeaderNone}
	collectSections(doc, &cur, &sections)
	sections = append(sections, cur)

	// Text before the first heading belongs to no section; drop the
	// preamble unless the page has no headings at all.
	if len(sections) > 1 {
		sections = sections[1:]
	}

	var chunks []Chunk
	for _, s := range sections {
		content := normalize(s.header + " " + strings.Join(s.parts, " "))
		if content == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			SourceURL:  sourceURL,
			Header:     s.header,
			HeaderType: s.htype,
			Content:    content,
		})
	}
	return chunks
}

type section struct {
	header string
	htype  HeaderType
	parts  []string
}

func collectSections(n *html.Node, cur **section, done *[]*section) {
	if n.Type == html.ElementNode {
		if ht, ok := headingType(n); ok {
			*done = append(*done, *cur)
			*cur = &section{header: ExtractText(n), htype: ht}
			return
		}
		if skippable(n) {
			return
		}
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			(*cur).parts = append((*cur).parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectSections(c, cur, done)
	}
}

// ExtractText returns the visible text of a subtree, whitespace-normalized.
func ExtractText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skippable(node) {
			return
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalize(sb.String())
}

func headingType(n *html.Node) (HeaderType, bool) {
	switch n.DataAtom {
	case atom.H1:
		return HeaderH1, true
	case atom.H2:
		return HeaderH2, true
	case atom.H3:
		return HeaderH3, true
	}
	return "", false
}

func skippable(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
