package renderer

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	htmltpl "html/template"
	"strings"
	texttpl "text/template"
	"time"

	"github.com/janiskrasemann/albumfeed/internal/feed"
	"github.com/janiskrasemann/albumfeed/internal/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/digest.html
var defaultHTML string

//go:embed templates/digest.txt
var defaultText string

type DigestData struct {
	Date    string
	Edition int
	Intro   string
	Title   string
	Country string
	Albums  []model.AlbumsResult
	// Total is the chart length before truncation to MaxItems.
	Total int
	Error error
}

type RenderedEmail struct {
	HTML string
	Text string
}

type Renderer struct {
	htmlTpl *htmltpl.Template
	textTpl *texttpl.Template
	now     func() time.Time
}

// NewDigest turns a fetch outcome into template data, keeping at most
// maxItems albums (all of them when maxItems <= 0).
func NewDigest(res feed.Result[feed.Feed], edition int, intro string, maxItems int) DigestData {
	d := DigestData{Edition: edition, Intro: intro, Error: res.Err}
	if res.Err != nil {
		return d
	}
	albums := res.Value.Results
	d.Total = len(albums)
	if maxItems > 0 && len(albums) > maxItems {
		albums = albums[:maxItems]
	}
	d.Title = res.Value.Title
	d.Country = strings.ToUpper(res.Value.Country)
	d.Albums = albums
	return d
}

func New(htmlTemplate, textTemplate string) (*Renderer, error) {
	funcMap := htmltpl.FuncMap{
		"markdown":  renderMarkdown,
		"excerpt":   excerpt,
		"genres":    genres,
		"artwork":   artwork,
		"rank":      rank,
		"errorKind": errorKind,
	}
	textFuncMap := texttpl.FuncMap{
		"markdown":  func(s string) string { return s },
		"excerpt":   excerpt,
		"genres":    genres,
		"artwork":   artwork,
		"rank":      rank,
		"errorKind": errorKind,
	}

	ht, err := htmltpl.New("digest.html").Funcs(funcMap).Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML template: %w", err)
	}

	tt, err := texttpl.New("digest.txt").Funcs(textFuncMap).Parse(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing text template: %w", err)
	}

	return &Renderer{htmlTpl: ht, textTpl: tt, now: time.Now}, nil
}

// NewDefault uses the templates bundled with the binary.
func NewDefault() (*Renderer, error) {
	return New(defaultHTML, defaultText)
}

func (r *Renderer) Render(data DigestData) (*RenderedEmail, error) {
	if data.Date == "" {
		data.Date = r.now().Format("Monday, January 2, 2006")
	}

	var htmlBuf bytes.Buffer
	if err := r.htmlTpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}

	var textBuf bytes.Buffer
	if err := r.textTpl.Execute(&textBuf, data); err != nil {
		return nil, fmt.Errorf("rendering text: %w", err)
	}

	return &RenderedEmail{
		HTML: htmlBuf.String(),
		Text: textBuf.String(),
	}, nil
}

var md = goldmark.New(
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

func renderMarkdown(s string) htmltpl.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return htmltpl.HTML(htmltpl.HTMLEscapeString(s))
	}
	return htmltpl.HTML(buf.String())
}

func excerpt(s string, maxSentences int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var sentences []string
	remaining := s
	for i := 0; i < maxSentences && remaining != ""; i++ {
		idx := -1
		for _, sep := range []string{". ", "! ", "? "} {
			if j := strings.Index(remaining, sep); j != -1 && (idx == -1 || j < idx) {
				idx = j + 1
			}
		}
		if idx == -1 {
			sentences = append(sentences, remaining)
			break
		}
		sentences = append(sentences, remaining[:idx])
		remaining = strings.TrimSpace(remaining[idx:])
	}
	result := strings.Join(sentences, " ")
	if r := []rune(result); len(r) > 280 {
		result = string(r[:277]) + "..."
	}
	return result
}

func genres(a model.AlbumsResult) string {
	return strings.Join(a.GenreNames(), ", ")
}

func artwork(size int, a model.AlbumsResult) string {
	return a.Artwork(size)
}

func rank(i int) int { return i + 1 }

// errorKind names the failure for the reader, e.g. "server error (status 503)".
func errorKind(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *feed.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	if apiErr.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", apiErr.Kind, apiErr.StatusCode)
	}
	return apiErr.Kind.String()
}
