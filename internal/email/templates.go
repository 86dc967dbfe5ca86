package email

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

const (
	TemplateVerification          = "verification"
	TemplatePasswordReset         = "password_reset"
	TemplateSubscriptionActivated = "subscription_activated"
	TemplateSubscriptionExpiring  = "subscription_expiring"
	TemplateNotification          = "notification"
)

// TemplateManager renders the html email templates. Each template is
// executed inside the shared "layout" template.
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

func NewTemplateManager() *TemplateManager {
	return &TemplateManager{templates: make(map[string]*template.Template)}
}

// DefaultTemplates loads the embedded templates.
func DefaultTemplates() (*TemplateManager, error) {
	tm := NewTemplateManager()
	if err := tm.LoadTemplates(builtinTemplates, "templates"); err != nil {
		return nil, err
	}
	return tm, nil
}

func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[name]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf strings.Builder
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// LoadTemplates parses every .html file of dir in fsys, pairing each with layout.html.
func (tm *TemplateManager) LoadTemplates(fsys fs.FS, dir string) error {
	layout, err := fs.ReadFile(fsys, path.Join(dir, "layout.html"))
	if err != nil {
		return fmt.Errorf("failed to read layout template: %w", err)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".html") || name == "layout.html" {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", name, err)
		}

		tplName := strings.TrimSuffix(name, ".html")
		tpl, err := template.New(tplName).Parse(string(layout))
		if err == nil {
			_, err = tpl.Parse(string(content))
		}
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", tplName, err)
		}

		tm.mutex.Lock()
		tm.templates[tplName] = tpl
		tm.mutex.Unlock()
	}
	return nil
}

func (tm *TemplateManager) TemplateNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.templates))
	for name := range tm.templates {
		names = append(names, name)
	}
	return names
}
