// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assistant

import (
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// MarkdownToHTML converts **bold** to <strong> and *italic* to <em>.
// Neither form spans lines. Italic markers must be lone asterisks.
func MarkdownToHTML(text string) string {
	text = boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
	return convertItalic(text)
}

func convertItalic(text string) string {
	var lone []int
	for i := 0; i < len(text); i++ {
		if text[i] != '*' {
			continue
		}
		if (i > 0 && text[i-1] == '*') || (i+1 < len(text) && text[i+1] == '*') {
			continue
		}
		lone = append(lone, i)
	}
	if len(lone) < 2 {
		return text
	}

	var b strings.Builder
	last := 0
	for k := 0; k+1 < len(lone); {
		open, closing := lone[k], lone[k+1]
		if strings.Contains(text[open+1:closing], "\n") {
			k++
			continue
		}
		b.WriteString(text[last:open])
		b.WriteString("<em>")
		b.WriteString(text[open+1 : closing])
		b.WriteString("</em>")
		last = closing + 1
		k += 2
	}
	b.WriteString(text[last:])
	return b.String()
}
