// Package report writes the classified dashboard as a standalone HTML
// snapshot. All user-supplied strings pass through the escape package before
// interpolation.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"shelfwatch/internal/api"
	"shelfwatch/internal/escape"
	"shelfwatch/internal/risk"
)

// WriteHTML renders the current buckets to w. The layout mirrors the
// dashboard: hero line, attention table (expired first), stable table, and
// the category list with the active filter marked.
func WriteHTML(w io.Writer, b risk.Buckets, categories []api.Category, active string, generatedAt time.Time) error {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString("<title>Shelfwatch report</title>\n")
	sb.WriteString("<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 10px}.expired{color:#b00}.urgent{color:#c60}.safe{color:#080}.hero-attention{background:#fee;padding:1em}.hero-stable{background:#efe;padding:1em}</style>\n")
	sb.WriteString("<script>function mark(name){document.title='Shelfwatch: '+name;}</script>\n")
	sb.WriteString("</head>\n<body>\n")

	sb.WriteString("<h1>Shelfwatch</h1>\n")
	fmt.Fprintf(&sb, "<p>Generated %s · filter: %s</p>\n",
		generatedAt.Format("Jan 2, 2006 15:04"), escape.HTML(active))

	if b.Attention() {
		fmt.Fprintf(&sb, "<p class=\"hero-attention\">⚠ %d item(s) need attention</p>\n",
			len(b.Urgent)+len(b.Expired))
	} else {
		sb.WriteString("<p class=\"hero-stable\">✓ Everything is stable</p>\n")
	}

	fmt.Fprintf(&sb, "<p>%d safe · %d urgent · %d expired</p>\n",
		len(b.Safe), len(b.Urgent), len(b.Expired))

	sb.WriteString("<h2>Needs attention</h2>\n")
	writeTable(&sb, append(append([]risk.ViewModel{}, b.Expired...), b.Urgent...))

	sb.WriteString("<h2>Stable</h2>\n")
	writeTable(&sb, b.Safe)

	sb.WriteString("<h2>Categories</h2>\n<ul>\n")
	fmt.Fprintf(&sb, "<li>%s</li>\n", categoryEntry(risk.CategoryAll, active))
	for _, c := range categories {
		fmt.Fprintf(&sb, "<li>%s</li>\n", categoryEntry(c.Name, active))
	}
	sb.WriteString("</ul>\n</body>\n</html>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func categoryEntry(name, active string) string {
	if name == active {
		return "<strong>" + escape.HTML(name) + "</strong>"
	}
	return escape.HTML(name)
}

func writeTable(sb *strings.Builder, items []risk.ViewModel) {
	if len(items) == 0 {
		sb.WriteString("<p>(none)</p>\n")
		return
	}
	sb.WriteString("<table>\n<tr><th>Item</th><th>Category</th><th>Expiry</th><th>Status</th></tr>\n")
	for _, vm := range items {
		label := escape.HTML(vm.Label)
		if vm.Status == risk.StatusExpired {
			label += " — DO NOT USE"
		}
		// The handler's JS string literal is single-quoted on purpose:
		// Attr neutralizes single quotes, so a decoded &#34; cannot
		// terminate the literal.
		fmt.Fprintf(sb, "<tr class=\"%s\" onclick=\"mark('%s')\"><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			vm.Status, escape.Attr(vm.Name), vm.SafeName, vm.SafeCat,
			escape.HTML(vm.FormattedDate), label)
	}
	sb.WriteString("</table>\n")
}
