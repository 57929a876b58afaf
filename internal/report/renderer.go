// Package report renders the detailed archetype report for a code.
package report

import (
	"bytes"
	"html/template"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mind-engage/mindengage-bigfive/internal/archetype"
	"github.com/mind-engage/mindengage-bigfive/internal/metrics"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
)

const Quote = "“Depth rewards patience.”"

const defaultCacheSize = 256

var reportTmpl = template.Must(template.New("report").Parse(`<article class="report">
  <header>
    <h1 class="archetype">{{.Name}}</h1>
    <p class="traits">{{.Code}}</p>
    {{- if .Sub}}
    <p class="subtype">Subtype: <strong>{{.Sub}}</strong></p>
    {{- end}}
  </header>
  <table class="levels">
    {{- range .Levels}}
    <tr><th>{{.Trait}}</th><td>{{.Level}}</td></tr>
    {{- end}}
  </table>
  <section class="detail">
    <h2>Detailed Report</h2>
    {{- range .Paragraphs}}
    <p>{{.}}</p>
    {{- end}}
  </section>
  <blockquote class="quote">{{.Quote}}</blockquote>
</article>
`))

type traitLevel struct {
	Trait string
	Level quiz.Level
}

type view struct {
	Name       string
	Code       quiz.Code
	Sub        string
	Levels     []traitLevel
	Paragraphs []string
	Quote      string
}

// Renderer produces report markup. Output is a pure function of the
// archetype catalog, the code and the subtype, so it is cached.
type Renderer struct {
	catalog *archetype.Catalog
	cache   *lru.Cache[string, string]
	metrics *metrics.Metrics
}

func NewRenderer(c *archetype.Catalog, cacheSize int, m *metrics.Metrics) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Renderer{catalog: c, cache: cache, metrics: m}, nil
}

func (r *Renderer) Render(code quiz.Code, sub string) (string, error) {
	key := string(code) + "|" + sub
	if html, ok := r.cache.Get(key); ok {
		r.metrics.ReportCache(true)
		return html, nil
	}
	r.metrics.ReportCache(false)

	e := r.catalog.Lookup(code)
	v := view{Name: e.Name, Code: code, Sub: sub, Paragraphs: paragraphs(e.Detail), Quote: Quote}
	if lv, err := code.Levels(); err == nil {
		for _, t := range quiz.Traits {
			v.Levels = append(v.Levels, traitLevel{Trait: titleCase(string(t)), Level: lv[t]})
		}
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	html := buf.String()
	r.cache.Add(key, html)
	return html, nil
}

// Text returns a plain-text rendition and a download file name.
func (r *Renderer) Text(code quiz.Code) (filename, body string) {
	e := r.catalog.Lookup(code)
	var b strings.Builder
	b.WriteString(e.Name + "\n")
	b.WriteString(string(code) + "\n\n")
	b.WriteString(e.Detail + "\n")
	return fileSafe(e.Name) + "_Detailed_Report.txt", b.String()
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r == '-' || r == '_',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, name)
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
