package layer

import (
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb"
)

// Link 元数据链接
type Link struct {
	Name string
	Type string
	URL  string
}

// Contact 联系人
type Contact struct {
	Name         string
	Organization string
	Email        string
	Role         string
}

// Metadata 图层元数据
type Metadata struct {
	Identifier       string
	ParentIdentifier string
	Type             string
	Title            string
	Abstract         string
	Rights           []string
	Licenses         []string
	Fees             string
	Contacts         []Contact
	Links            []Link
	History          []string
	Extent           orb.Bound
	CRS              string
}

// AddLink 追加链接
func (m *Metadata) AddLink(link Link) {
	m.Links = append(m.Links, link)
}

type metadataFormatter struct {
	m Metadata
}

func row(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "<tr><td class=\"highlight\">%s</td><td>%s</td></tr>\n", key, value)
}

func (f metadataFormatter) identificationSectionHTML() string {
	var b strings.Builder
	b.WriteString("<table class=\"list-view\">\n")
	row(&b, "Identifier", html.EscapeString(f.m.Identifier))
	row(&b, "Parent Identifier", html.EscapeString(f.m.ParentIdentifier))
	row(&b, "Title", html.EscapeString(f.m.Title))
	row(&b, "Type", html.EscapeString(f.m.Type))
	row(&b, "Abstract", html.EscapeString(f.m.Abstract))
	b.WriteString("</table>\n")
	return b.String()
}

func (f metadataFormatter) extentSectionHTML() string {
	var b strings.Builder
	b.WriteString("<table class=\"list-view\">\n")
	row(&b, "CRS", html.EscapeString(f.m.CRS))
	e := f.m.Extent
	row(&b, "Spatial Extent", fmt.Sprintf("X Minimum: %f - Y Minimum: %f - X Maximum: %f - Y Maximum: %f",
		e.Min.X(), e.Min.Y(), e.Max.X(), e.Max.Y()))
	b.WriteString("</table>\n")
	return b.String()
}

func (f metadataFormatter) accessSectionHTML() string {
	var b strings.Builder
	b.WriteString("<table class=\"list-view\">\n")
	row(&b, "Fees", html.EscapeString(f.m.Fees))
	row(&b, "Licenses", escapeJoin(f.m.Licenses))
	row(&b, "Rights", escapeJoin(f.m.Rights))
	b.WriteString("</table>\n")
	return b.String()
}

func (f metadataFormatter) contactsSectionHTML() string {
	if len(f.m.Contacts) == 0 {
		return "<p>No contact yet.</p>\n"
	}
	var b strings.Builder
	for i, c := range f.m.Contacts {
		fmt.Fprintf(&b, "<p><strong>%d. %s</strong></p>\n", i+1, html.EscapeString(c.Name))
		b.WriteString("<table class=\"list-view\">\n")
		row(&b, "Organization", html.EscapeString(c.Organization))
		row(&b, "Email", html.EscapeString(c.Email))
		row(&b, "Role", html.EscapeString(c.Role))
		b.WriteString("</table>\n")
	}
	return b.String()
}

func (f metadataFormatter) linksSectionHTML() string {
	if len(f.m.Links) == 0 {
		return "<p>No links yet.</p>\n"
	}
	var b strings.Builder
	b.WriteString("<table width=\"100%\" class=\"tabular-view\">\n")
	b.WriteString("<tr><th>ID</th><th>Name</th><th>Type</th><th>URL</th></tr>\n")
	for i, l := range f.m.Links {
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td><td>%s</td><td><a href=\"%s\">%s</a></td></tr>\n",
			i+1, html.EscapeString(l.Name), html.EscapeString(l.Type), html.EscapeString(l.URL), html.EscapeString(l.URL))
	}
	b.WriteString("</table>\n")
	return b.String()
}

func (f metadataFormatter) historySectionHTML() string {
	if len(f.m.History) == 0 {
		return "<p>No history yet.</p>\n"
	}
	var b strings.Builder
	b.WriteString("<table width=\"100%\" class=\"tabular-view\">\n<tr><th>ID</th><th>Action</th></tr>\n")
	for i, h := range f.m.History {
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td></tr>\n", i+1, html.EscapeString(h))
	}
	b.WriteString("</table>\n")
	return b.String()
}

func escapeJoin(items []string) string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = html.EscapeString(s)
	}
	return strings.Join(out, "<br>")
}
