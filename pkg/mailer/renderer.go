package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	texttmpl "text/template"
)

//go:embed templates/*
var templateFS embed.FS

const (
	extText = ".txt"
	extHTML = ".gohtml"
)

// ContextData is passed to every template.
type ContextData struct {
	ShopName    string
	FrontendURL string
	Data        map[string]string
}

type templatePair struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

// Renderer turns a template name plus data into text and HTML bodies.
// Templates live in templates/<name>.txt and templates/<name>.gohtml and
// are wrapped by the matching _base layout.
type Renderer struct {
	shopName    string
	frontendURL string
	templates   map[string]templatePair
}

// NewRenderer parses the embedded templates once.
func NewRenderer(shopName, frontendURL string) (*Renderer, error) {
	r := &Renderer{
		shopName:    shopName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		templates:   make(map[string]templatePair),
	}
	if err := r.parse(templateFS); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) parse(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, "templates")
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}
	for _, entry := range entries {
		fname := entry.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || (ext != extText && ext != extHTML) {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		pair := r.templates[name]

		switch ext {
		case extText:
			tmpl, err := texttmpl.ParseFS(fsys, "templates/_base.txt", "templates/"+fname)
			if err != nil {
				return fmt.Errorf("parse %s: %w", fname, err)
			}
			pair.text = tmpl.Option("missingkey=zero")
		case extHTML:
			tmpl, err := htmltmpl.ParseFS(fsys, "templates/_base.gohtml", "templates/"+fname)
			if err != nil {
				return fmt.Errorf("parse %s: %w", fname, err)
			}
			pair.html = tmpl.Option("missingkey=zero")
		}
		r.templates[name] = pair
	}
	return nil
}

// Has reports whether a template exists for the name.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render builds a Message for the recipient. Missing HTML or text variants are
// left empty; a name with neither is an error.
func (r *Renderer) Render(name string, to mail.Address, subject string, data map[string]string) (Message, error) {
	pair, ok := r.templates[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", name)
	}
	if data == nil {
		data = map[string]string{}
	}
	ctxData := ContextData{ShopName: r.shopName, FrontendURL: r.frontendURL, Data: data}

	msg := Message{To: to, Subject: subject}
	if pair.text != nil {
		var buf bytes.Buffer
		if err := pair.text.Execute(&buf, ctxData); err != nil {
			return Message{}, fmt.Errorf("render %s text: %w", name, err)
		}
		msg.TextContent = buf.String()
	}
	if pair.html != nil {
		var buf bytes.Buffer
		if err := pair.html.Execute(&buf, ctxData); err != nil {
			return Message{}, fmt.Errorf("render %s html: %w", name, err)
		}
		msg.HTMLContent = buf.String()
	}
	return msg, nil
}
