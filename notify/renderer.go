package notify

import (
	"bytes"
	"sync"

	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
)

// Renderer turns a template id and its context into an HTML body.
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(name string, data map[string]any) (string, error)

// Render implements Renderer.
func (f RendererFunc) Render(name string, data map[string]any) (string, error) {
	return f(name, data)
}

// DjangoRenderer renders email templates from a directory of ".html" files
// using Django syntax. Templates are loaded on first use; a failed load is
// retried on the next render.
type DjangoRenderer struct {
	engine *django.Engine
	mu     sync.Mutex
	loaded bool
}

var _ Renderer = (*DjangoRenderer)(nil)

// NewDjangoRenderer creates a renderer rooted at dir.
func NewDjangoRenderer(dir string) *DjangoRenderer {
	return &DjangoRenderer{
		engine: django.New(dir, ".html"),
	}
}

// Render implements Renderer.
func (r *DjangoRenderer) Render(name string, data map[string]any) (string, error) {
	if err := r.load(); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to load email templates")
	}

	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to render email template").
			WithMetadata(map[string]any{"template": name})
	}
	return buf.String(), nil
}

func (r *DjangoRenderer) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}
	if err := r.engine.Load(); err != nil {
		return err
	}
	r.loaded = true
	return nil
}
