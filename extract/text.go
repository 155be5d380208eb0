package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipTags never contribute visible text.
var skipTags = map[atom.Atom]struct{}{
	atom.Script:   {},
	atom.Style:    {},
	atom.Noscript: {},
	atom.Template: {},
	atom.Head:     {},
	atom.Svg:      {},
}

// inlineTags flow with the surrounding text; everything else breaks a line.
var inlineTags = map[atom.Atom]struct{}{
	atom.A:      {},
	atom.Abbr:   {},
	atom.B:      {},
	atom.Bdi:    {},
	atom.Bdo:    {},
	atom.Cite:   {},
	atom.Code:   {},
	atom.Data:   {},
	atom.Em:     {},
	atom.Font:   {},
	atom.I:      {},
	atom.Img:    {},
	atom.Kbd:    {},
	atom.Label:  {},
	atom.Mark:   {},
	atom.Q:      {},
	atom.S:      {},
	atom.Small:  {},
	atom.Span:   {},
	atom.Strong: {},
	atom.Sub:    {},
	atom.Sup:    {},
	atom.Time:   {},
	atom.U:      {},
}

var spaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// VisibleText approximates innerText for a parsed node: script/style content
// and elements marked hidden are dropped, block elements start new lines,
// runs of whitespace collapse and blank lines are removed.
func VisibleText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(spaceRun.ReplaceAllString(n.Data, " "))
			return
		case html.ElementNode:
			if isSkipped(n) {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteByte('\n')
				return
			}
			_, inline := inlineTags[n.DataAtom]
			if !inline {
				b.WriteByte('\n')
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if !inline {
				b.WriteByte('\n')
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(splitLines(b.String()), "\n")
}

// ownText returns the element's direct text children, ignoring descendants.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(b.String(), " "))
}

func isSkipped(n *html.Node) bool {
	if _, skip := skipTags[n.DataAtom]; skip {
		return true
	}
	for _, a := range n.Attr {
		if a.Key == "hidden" || (a.Key == "aria-hidden" && a.Val == "true") {
			return true
		}
	}
	return false
}

// isHidden reports whether n or any of its ancestors is skipped.
func isHidden(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && isSkipped(n) {
			return true
		}
	}
	return false
}

// splitLines trims every line and drops empty ones.
func splitLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// singleLine joins the non-empty lines of s with sep.
func singleLine(s, sep string) string {
	return strings.Join(splitLines(s), sep)
}
