package webui

import (
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"checkpost/internal/tableprint"
)

// selectData feeds the "select" template.
type selectData struct {
	Label, Name string
	Values      []string
	Current     string
}

var funcs = template.FuncMap{
	"cell": func(v any) string {
		s, _ := tableprint.Format(v)
		return s
	},
	"title": func(s string) string { return cases.Title(language.English).String(s) },
	"opt": func(label, name string, values []string, current string) selectData {
		return selectData{Label: label, Name: name, Values: values, Current: current}
	},
	"ms": func(d time.Duration) string {
		return d.Round(time.Millisecond).String()
	},
	"avg": func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%.1f", *p)
	},
	"width": func(w float64) string { return fmt.Sprintf("%.1f", w) },
	"share": func(n, total int64) string {
		if total == 0 {
			return "0"
		}
		return fmt.Sprintf("%.1f", 100*float64(n)/float64(total))
	},
}
