// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discordbot

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// maxMessageLen is Discord's content limit for a single message.
const maxMessageLen = 2000

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t\r\n]+`)
)

// HTMLToMarkdown converts the chatbot's HTML replies to Discord markdown.
//
// # Description
//
// <strong>/<b> become **bold**, <em>/<i> become *italic*, list items
// become bullet lines and paragraphs are separated by a blank line.
// Other tags are dropped and entities are decoded. Plain text passes
// through with its whitespace collapsed per line.
//
// # Limitations
//
//   - Links keep their text only.
//   - Nested lists are flattened.
func HTMLToMarkdown(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var sb strings.Builder
	writeNode(&sb, doc, 0)
	return cleanMarkdown(sb.String())
}

func writeNode(sb *strings.Builder, n *html.Node, depth int) {
	if depth > 50 {
		return
	}
	switch n.Type {
	case html.TextNode:
		sb.WriteString(multiSpace.ReplaceAllString(n.Data, " "))
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "p", "div", "ul", "ol":
			sb.WriteString("\n\n")
		case "br":
			sb.WriteString("\n")
			return
		case "li":
			sb.WriteString("\n• ")
		case "strong", "b":
			sb.WriteString("**")
		case "em", "i":
			sb.WriteString("*")
		case "code":
			sb.WriteString("`")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(sb, c, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "ul", "ol":
			sb.WriteString("\n\n")
		case "strong", "b":
			sb.WriteString("**")
		case "em", "i":
			sb.WriteString("*")
		case "code":
			sb.WriteString("`")
		}
	}
}

func cleanMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// truncate shortens s to at most max runes, marking the cut with an
// ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
