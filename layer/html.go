package layer

import (
	"fmt"
	"html"
	"strings"
)

// HTMLMetadata 图层信息摘要
func (l *VectorTileLayer) HTMLMetadata() string {
	f := metadataFormatter{m: l.metadata}
	var b strings.Builder
	b.WriteString("<html>\n<body>\n")

	b.WriteString("<h1>Information from provider</h1>\n<hr>\n<table class=\"list-view\">\n")
	row(&b, "Name", html.EscapeString(l.name))
	row(&b, "URI", html.EscapeString(l.source))
	row(&b, "Source type", html.EscapeString(l.sourceType))
	path := html.EscapeString(l.sourcePath)
	row(&b, "Source path", fmt.Sprintf("<a href=\"%s\">%s</a>", path, path))
	row(&b, "Zoom levels", fmt.Sprintf("%d - %d", l.SourceMinZoom(), l.SourceMaxZoom()))
	if !l.valid {
		row(&b, "Error", html.EscapeString(l.errMsg))
	}
	b.WriteString("</table>\n<br>\n")

	sections := []struct {
		title string
		body  string
	}{
		{"Identification", f.identificationSectionHTML()},
		{"Extent", f.extentSectionHTML()},
		{"Access", f.accessSectionHTML()},
		{"Contacts", f.contactsSectionHTML()},
		{"References", f.linksSectionHTML()},
		{"History", f.historySectionHTML()},
	}
	for _, s := range sections {
		fmt.Fprintf(&b, "<h1>%s</h1>\n<hr>\n%s<br>\n", s.title, s.body)
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}
