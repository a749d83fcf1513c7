package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/alecthomas/chroma/quick"
	"github.com/fatih/color"
	"github.com/vitalvas/vserver/mux"
)

// printer renders dispatch results for the terminal.
type printer struct {
	out   io.Writer
	color bool
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:   out,
		color: !color.NoColor,
	}
}

// Result writes the status line, the headers sorted by name and the body.
func (p *printer) Result(res *mux.Result) {
	p.status(res.Status)

	keys := make([]string, 0, len(res.Headers))
	for k := range res.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(p.out, "%s: %s\n", p.paint(color.FgCyan, k), res.Headers[k])
	}

	if res.Data == nil {
		return
	}

	fmt.Fprintln(p.out)
	if s, ok := res.Data.(string); ok {
		fmt.Fprintln(p.out, s)
		return
	}
	p.JSON(res.Data)
}

// JSON writes v indented, highlighted when color is enabled.
func (p *printer) JSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(p.out, "%v\n", v)
		return
	}
	p.highlight(string(data)+"\n", "json")
}

// Text writes a document in the given lexer language.
func (p *printer) Text(text, language string) {
	p.highlight(text, language)
}

func (p *printer) highlight(text, language string) {
	if p.color {
		if err := quick.Highlight(p.out, text, language, "terminal16m", "monokai"); err == nil {
			return
		}
	}
	fmt.Fprint(p.out, text)
}

func (p *printer) status(code int) {
	line := fmt.Sprintf("%d %s", code, http.StatusText(code))

	switch {
	case code >= 500:
		line = p.paint(color.FgRed, line)
	case code >= 400:
		line = p.paint(color.FgYellow, line)
	case code >= 200 && code < 300:
		line = p.paint(color.FgGreen, line)
	}

	fmt.Fprintln(p.out, line)
}

func (p *printer) paint(attr color.Attribute, s string) string {
	if !p.color {
		return s
	}
	c := color.New(attr, color.Bold)
	c.EnableColor()
	return c.Sprint(s)
}
