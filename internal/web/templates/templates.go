// Package templates renders the server's HTML pages: the operator status page
// and the error page shown to browsers.
//
// Pages are plain templ components, so they stream into the response and
// escape every interpolated value.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/inventory/internal/core"
)

// ResourceLink is one API resource listed on the status page.
type ResourceLink struct {
	Key   string
	Label string
	Path  string
}

// StatusData feeds StatusPage.
type StatusData struct {
	Resources []ResourceLink
	Stats     *core.Stats
	Imports   core.ImportLimiterStatus
	Error     string
	Generated time.Time
}

// ErrorData feeds ErrorPage.
type ErrorData struct {
	Status    int
	Message   string
	Action    string
	Code      string
	RequestID string
}

const styles = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:48rem;color:#1f2937}` +
	`table{border-collapse:collapse;width:100%}td,th{border-bottom:1px solid #e5e7eb;padding:.4rem;text-align:left}` +
	`.muted{color:#6b7280}.error{color:#b91c1c}code{background:#f3f4f6;padding:0 .25rem}`

// layout wraps body in the shared page shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), styles); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// StatusPage lists the API resources with their record counts.
func StatusPage(d StatusData) templ.Component {
	return layout("Inventory Tracker", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf("<h1>Inventory Tracker</h1>")
		if d.Error != "" {
			p.printf("<p class=\"error\">Statistics unavailable: %s</p>", templ.EscapeString(d.Error))
		}

		p.printf("<table><thead><tr><th>Resource</th><th>Active</th><th>Deleted</th></tr></thead><tbody>")
		for _, res := range d.Resources {
			active, deleted := "-", "-"
			if d.Stats != nil {
				if c, ok := d.Stats.Resources[res.Key]; ok {
					active, deleted = fmt.Sprint(c.Active), fmt.Sprint(c.Deleted)
				}
			}
			p.printf("<tr><td><a href=\"%s\">%s</a></td><td>%s</td><td>%s</td></tr>",
				templ.EscapeString(res.Path), templ.EscapeString(res.Label), active, deleted)
		}
		p.printf("</tbody></table>")

		p.printf("<p>Imports running: %d of %d</p>", d.Imports.Active, d.Imports.MaxConcurrent)
		if d.Stats != nil {
			p.printf("<p>Audit entries: %d</p>", d.Stats.AuditEntries)
		}
		p.printf("<p class=\"muted\">Generated %s. Health: <a href=\"/health\">/health</a></p>",
			templ.EscapeString(d.Generated.Format(time.RFC1123)))
		return p.err
	}))
}

// ErrorPage shows a mapped error to a browser.
func ErrorPage(d ErrorData) templ.Component {
	title := fmt.Sprintf("%d %s", d.Status, http.StatusText(d.Status))
	return layout(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf("<h1>%s</h1>", templ.EscapeString(title))
		p.printf("<p class=\"error\">%s</p>", templ.EscapeString(d.Message))
		if d.Action != "" {
			p.printf("<p>%s</p>", templ.EscapeString(d.Action))
		}
		p.printf("<p class=\"muted\">Code <code>%s</code>", templ.EscapeString(d.Code))
		if d.RequestID != "" {
			p.printf(", request <code>%s</code>", templ.EscapeString(d.RequestID))
		}
		p.printf("</p>")
		return p.err
	}))
}

// printer keeps the first write error so pages read top to bottom.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
