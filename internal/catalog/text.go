package catalog

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// upgradeHTTPS rewrites plain-http image links; catalogs still hand out a
// few of them and the tracking store only accepts https covers.
func upgradeHTTPS(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(strings.ToLower(u), "http://") {
		return "https://" + u[len("http://"):]
	}
	return u
}

// yearOf returns the leading 4-digit year of a date string, or "".
func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return date[:4]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// plainText flattens catalog descriptions, some of which (Google Books,
// iTunes) are HTML fragments, into a single line of text.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsRune(s, '<') {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			doc.Find("br").ReplaceWithHtml(" ")
			doc.Find("p, li, div").AppendHtml(" ")
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
