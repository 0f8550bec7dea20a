package browser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var phonePattern = regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// ExtractPhone pulls a phone number out of rendered page HTML. tel: links
// win; otherwise the first phone-shaped run of text is used. Returns the
// raw value, not a canonical one.
func ExtractPhone(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var phone string
	doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		raw := strings.TrimPrefix(href, "tel:")
		if unescaped, err := url.QueryUnescape(raw); err == nil {
			raw = unescaped
		}
		raw = strings.TrimSpace(raw)
		if raw != "" {
			phone = raw
			return false
		}
		return true
	})
	if phone != "" {
		return phone
	}

	return strings.TrimSpace(phonePattern.FindString(doc.Text()))
}
