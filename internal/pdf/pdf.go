// Package pdf extracts plain text from PDF files, keeping paragraph breaks
// as blank lines.
package pdf

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"rsc.io/pdf"
)

const (
	// lines further apart than this many font sizes start a new paragraph
	paragraphGap = 1.8
	// a horizontal gap wider than this many font sizes separates words
	wordGap = 0.2
)

// ExtractText reads the whole file; pdf.Open would keep it open.
func ExtractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	return ExtractBytes(data)
}

func ExtractBytes(data []byte) (text string, err error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	return extract(r)
}

func extract(r *pdf.Reader) (text string, err error) {
	// rsc.io/pdf panics on malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, pageText(p.Content().Text))
	}
	return Normalize(strings.Join(pages, "\n\n")), nil
}

// pageText rebuilds lines from glyph positions. The library drops space
// glyphs and exposes kerning only as position, so word breaks come from
// horizontal gaps on the same line.
func pageText(texts []pdf.Text) string {
	var sb strings.Builder
	lastY, lastEnd := math.NaN(), math.NaN()
	for _, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = 10
		}
		switch {
		case math.IsNaN(lastY):
		case t.Y != lastY:
			if math.Abs(lastY-t.Y) > size*paragraphGap {
				sb.WriteString("\n\n")
			} else {
				sb.WriteString("\n")
			}
		case t.X-lastEnd > size*wordGap:
			sb.WriteString(" ")
		}
		sb.WriteString(t.S)
		lastY, lastEnd = t.Y, t.X+t.W
	}
	return sb.String()
}

var (
	inlineSpace = regexp.MustCompile(`[ \t\f\v]+`)
	manyBreaks  = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans extracted text: NUL bytes are dropped, line endings
// become '\n', runs of spaces collapse and at most one blank line
// separates paragraphs.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = inlineSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = manyBreaks.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
