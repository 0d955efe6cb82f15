package guides

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RenderContent rewrites root-relative image references inside an HTML
// fragment to absolute URLs under baseURL. Without a base URL, or when the
// fragment cannot be parsed, the input comes back unchanged. Already
// absolute references are left alone, which makes a second pass a no-op.
func RenderContent(raw, baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || strings.TrimSpace(raw) == "" {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	changed := false
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		// "//host/..." is protocol-relative, not root-relative; skip it.
		if !ok || !strings.HasPrefix(src, "/") || strings.HasPrefix(src, "//") {
			return
		}
		sel.SetAttr("src", baseURL+src)
		changed = true
	})
	if !changed {
		return raw
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return raw
	}
	return out
}
