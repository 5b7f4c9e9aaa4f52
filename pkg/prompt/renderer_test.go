package prompt

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"mercator-hq/callisto/pkg/proxy/types"
)

const roleContentTemplate = "{% for m in messages %}{{m.role}}: {{m.content}}\n{% endfor %}"

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name     string
		template string
		messages []types.Message
		want     string
	}{
		{
			name:     "single user message",
			template: roleContentTemplate,
			messages: []types.Message{{Role: "user", Content: "Hi"}},
			want:     "user: Hi\n",
		},
		{
			name:     "conversation",
			template: roleContentTemplate,
			messages: []types.Message{
				{Role: "system", Content: "Be brief"},
				{Role: "user", Content: "Hi"},
				{Role: "assistant", Content: "Hello"},
			},
			want: "system: Be brief\nuser: Hi\nassistant: Hello\n",
		},
		{
			name:     "name field",
			template: "{% for m in messages %}{% if m.name %}{{m.name}}{% else %}{{m.role}}{% endif %}> {{m.content}}\n{% endfor %}",
			messages: []types.Message{
				{Role: "user", Content: "Hi", Name: "alice"},
				{Role: "user", Content: "Yo"},
			},
			want: "alice> Hi\nuser> Yo\n",
		},
		{
			name:     "generation prompt suffix",
			template: roleContentTemplate + "assistant:",
			messages: []types.Message{{Role: "user", Content: "Hi"}},
			want:     "user: Hi\nassistant:",
		},
		{
			name:     "no messages",
			template: roleContentTemplate,
			messages: nil,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.template)
			if err != nil {
				t.Fatalf("unexpected compile error: %v", err)
			}
			got, err := r.Render(tt.messages)
			if err != nil {
				t.Fatalf("unexpected render error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"empty", ""},
		{"whitespace only", "  \n"},
		{"unclosed for", "{% for m in messages %}{{m.role}}"},
		{"unclosed expression", "{{ messages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.template)
			var te *TemplateError
			if !errors.As(err, &te) {
				t.Fatalf("expected TemplateError, got %v", err)
			}
			if !strings.HasPrefix(te.Error(), "Template rendering error: ") {
				t.Errorf("unexpected message %q", te.Error())
			}
			if te.Message == "" {
				t.Error("expected engine message to be carried")
			}
		})
	}
}

func TestRenderer_Reload(t *testing.T) {
	r, err := New(roleContentTemplate)
	if err != nil {
		t.Fatal(err)
	}
	msgs := []types.Message{{Role: "user", Content: "Hi"}}

	if err := r.Reload("{% for m in messages %}[{{m.role}}]{{m.content}}{% endfor %}"); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}
	got, _ := r.Render(msgs)
	if got != "[user]Hi" {
		t.Errorf("expected reloaded template output, got %q", got)
	}

	if err := r.Reload("{% for m in messages %}"); err == nil {
		t.Fatal("expected reload of broken template to fail")
	}
	got, _ = r.Render(msgs)
	if got != "[user]Hi" {
		t.Errorf("expected previous template to stay in service, got %q", got)
	}
	if !strings.HasPrefix(r.Source(), "{% for m in messages %}[") {
		t.Errorf("unexpected source %q", r.Source())
	}
}

func TestRenderer_ConcurrentRenderAndReload(t *testing.T) {
	r, err := New(roleContentTemplate)
	if err != nil {
		t.Fatal(err)
	}
	msgs := []types.Message{{Role: "user", Content: "Hi"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := r.Render(msgs); err != nil {
					t.Errorf("unexpected render error: %v", err)
					return
				}
			}
		}()
	}
	for j := 0; j < 20; j++ {
		_ = r.Reload(roleContentTemplate)
	}
	wg.Wait()
}
