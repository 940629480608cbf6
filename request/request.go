package request

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxErrorBody bounds how much of a failed response we keep around.
const maxErrorBody = 64 << 10

// StatusError is returned for any response outside the 2xx range.
type StatusError struct {
	Code int
	Body []byte
}

func (err *StatusError) Error() string {
	if len(err.Body) == 0 {
		return fmt.Sprintf("http status code %d", err.Code)
	}
	return fmt.Sprintf("http status code %d: %s", err.Code, strings.TrimSpace(string(err.Body)))
}

// Error checks the given http response for an error code, and, if one is
// present, reads the body and returns a *StatusError. The caller still owns
// resp.Body.
func Error(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bs, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("http status code %d; error reading body: %w", resp.StatusCode, err)
	}
	return &StatusError{Code: resp.StatusCode, Body: bs}
}

// Status returns the status code carried by err, or 0 if err didn't come from
// Error.
func Status(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// lineBreak marks the breaks we keep while every other run of whitespace in
// the document is collapsed. It is a private-use rune, so it can't collide
// with real text or be eaten by strings.Fields.
const lineBreak = "\uE000"

// Text flattens an HTML fragment into plain text, collapsing whitespace. Text
// without markup is returned trimmed but otherwise unchanged.
func Text(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("br").ReplaceWithHtml(lineBreak)
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		p.AppendHtml(lineBreak)
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), lineBreak) {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
