// Package report renders the field collection as a Markdown document with
// one table per page.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// Markdown renders fields grouped by page. Every page in dims is listed,
// plus any page that carries fields without known dimensions.
func Markdown(title string, fields []field.Field, dims map[int]geom.Size) string {
	byPage := make(map[int][]field.Field)
	for _, f := range fields {
		byPage[f.Page] = append(byPage[f.Page], f)
	}
	pages := make([]int, 0, len(dims)+len(byPage))
	for p := range dims {
		pages = append(pages, p)
	}
	for p := range byPage {
		if _, ok := dims[p]; !ok {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)

	var b strings.Builder
	if title == "" {
		title = "Fields"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	fmt.Fprintf(&b, "%d fields on %d pages.\n", len(fields), len(pages))

	for _, p := range pages {
		fmt.Fprintf(&b, "\n## Page %d", p)
		size, known := dims[p]
		if known {
			fmt.Fprintf(&b, " (%s x %s)", num(size.Width), num(size.Height))
		}
		b.WriteString("\n\n")

		list := byPage[p]
		if len(list) == 0 {
			b.WriteString("_No fields._\n")
			continue
		}
		b.WriteString("| Name | ID | X % | Y % | Width % | Height % | X | Y | Width | Height |\n")
		b.WriteString("|---|---|--:|--:|--:|--:|--:|--:|--:|--:|\n")
		for _, f := range list {
			pct := geom.ToPercentage(f.Rect)
			abs := []string{"-", "-", "-", "-"}
			if known && !size.IsZero() {
				a := geom.ToAbsolute(f.Rect, size).Round2()
				abs = []string{num(a.X), num(a.Y), num(a.Width), num(a.Height)}
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				escape(f.VariableName), code(f.ID),
				num(pct.X), num(pct.Y), num(pct.Width), num(pct.Height),
				strings.Join(abs, " | "))
		}
	}
	return b.String()
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

var escaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")

func escape(s string) string {
	return escaper.Replace(s)
}

// code wraps s in a code span, widening the fence when s holds a backtick.
func code(s string) string {
	s = escape(s)
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}
