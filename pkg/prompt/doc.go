// Package prompt renders chat message sequences into a single llama.cpp
// prompt string using a Jinja chat template.
//
// The template sees one variable, messages, a list of maps with the keys
// role, content and name:
//
//	{% for m in messages %}{{ m.role }}: {{ m.content }}
//	{% endfor %}assistant:
//
// Templates are compiled once when the Renderer is created. A Watcher can
// recompile the template when its file changes on disk; a template that
// fails to compile is logged and the previous one stays in service.
package prompt
