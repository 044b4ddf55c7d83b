package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"
)

// Built-in template names. Types without a matching template render through
// the fallback.
const (
	TemplateModuleAssignment = "module_assignment"
	TemplateAchievement      = "achievement"
	TemplateReminder         = "reminder"
	TemplatePasswordReset    = "password_reset"
	TemplateWelcome          = "welcome"
)

// TemplateData is the rendering context for an email body.
type TemplateData struct {
	Title         string
	Message       string
	RecipientName string
	ActionURL     string
	ActionLabel   string
	Fields        map[string]any
}

// TemplateRenderer renders an email body from a data context.
type TemplateRenderer interface {
	RenderBody(ctx context.Context, data TemplateData) (string, error)
}

// ComponentBuilder produces the templ component for an email body.
type ComponentBuilder func(data TemplateData) templ.Component

// Render renders a templ component to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FallbackTemplate renders a minimal body straight from title and message.
// It exists so a missing template asset can never block delivery: the
// registry hands it out deliberately for unregistered names.
type FallbackTemplate struct{}

func (FallbackTemplate) RenderBody(ctx context.Context, data TemplateData) (string, error) {
	body, err := Render(ctx, fallbackBody(data))
	if err != nil {
		return "", fmt.Errorf("failed to render fallback template: %w", err)
	}
	return body, nil
}

type componentTemplate struct {
	name  string
	build ComponentBuilder
}

func (t componentTemplate) RenderBody(ctx context.Context, data TemplateData) (string, error) {
	body, err := Render(ctx, t.build(data))
	if err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", t.name, err)
	}
	return body, nil
}

// Registry maps template names onto renderers. Lookup never fails: an
// unregistered name yields the fallback renderer.
type Registry struct {
	templates map[string]TemplateRenderer
	fallback  TemplateRenderer
}

// NewRegistry creates a registry preloaded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{
		templates: make(map[string]TemplateRenderer),
		fallback:  FallbackTemplate{},
	}
	for name, build := range builtinBodies {
		if err := r.Register(name, build); err != nil {
			panic(err)
		}
	}
	return r
}

// Register stores a component builder under name, replacing any previous
// registration.
func (r *Registry) Register(name string, build ComponentBuilder) error {
	if name == "" {
		return fmt.Errorf("%w: template name is required", ErrInvalidTemplate)
	}
	if build == nil {
		return fmt.Errorf("%w: component builder is required", ErrInvalidTemplate)
	}
	r.templates[name] = componentTemplate{name: name, build: build}
	return nil
}

// Get returns the renderer registered under name, or the fallback renderer
// when the name is unknown.
func (r *Registry) Get(name string) TemplateRenderer {
	if t, ok := r.templates[name]; ok {
		return t
	}
	return r.fallback
}

// Has reports whether name maps to a registered template rather than the
// fallback.
func (r *Registry) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}
