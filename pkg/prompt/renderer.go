package prompt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"

	"mercator-hq/callisto/pkg/proxy/types"
)

// TemplateError is returned when a chat template fails to compile or render.
// Message carries the template engine's own text.
type TemplateError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	return "Template rendering error: " + e.Message
}

// Unwrap returns the engine error.
func (e *TemplateError) Unwrap() error {
	return e.Cause
}

func newTemplateError(err error) *TemplateError {
	return &TemplateError{Message: err.Error(), Cause: err}
}

// Renderer applies a compiled chat template to message sequences.
// It is safe for concurrent use; Reload swaps the template atomically with
// respect to in-flight renders.
type Renderer struct {
	mu       sync.RWMutex
	template *exec.Template
	source   string
}

// New compiles source into a Renderer.
func New(source string) (*Renderer, error) {
	tpl, err := compile(source)
	if err != nil {
		return nil, err
	}
	return &Renderer{template: tpl, source: source}, nil
}

// Render produces the prompt for messages.
func (r *Renderer) Render(messages []types.Message) (string, error) {
	r.mu.RLock()
	tpl := r.template
	r.mu.RUnlock()

	ctx := exec.NewContext(map[string]interface{}{
		"messages": toTemplateMessages(messages),
	})

	var sb strings.Builder
	if err := tpl.Execute(&sb, ctx); err != nil {
		return "", newTemplateError(err)
	}
	return sb.String(), nil
}

// Reload compiles source and, on success, replaces the current template.
// On failure the current template is left untouched.
func (r *Renderer) Reload(source string) error {
	tpl, err := compile(source)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.template = tpl
	r.source = source
	r.mu.Unlock()
	return nil
}

// Source returns the text of the template currently in service.
func (r *Renderer) Source() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.source
}

func compile(source string) (*exec.Template, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &TemplateError{Message: "template is empty"}
	}
	tpl, err := gonja.FromString(source)
	if err != nil {
		return nil, newTemplateError(fmt.Errorf("compile: %w", err))
	}
	return tpl, nil
}

func toTemplateMessages(messages []types.Message) []map[string]interface{} {
	out := make([]map[string]interface{}, len(messages))
	for i, m := range messages {
		msg := map[string]interface{}{
			"role":    m.Role,
			"content": m.Content,
		}
		if m.Name != "" {
			msg["name"] = m.Name
		}
		out[i] = msg
	}
	return out
}
