package announce

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/osteele/liquid"
)

// TemplateService renders announcement subjects and bodies with Liquid,
// so couples can personalize per guest:
//
//	Hi {{ first_name | default: "there" }}, save the date: {{ wedding_date | prettydate }}.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // template source -> *liquid.Template
}

// NewTemplateService creates a template service with wedding filters
// registered.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerFilters()
	return ts
}

func (ts *TemplateService) registerFilters() {
	// {{ first_name | default: "there" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ first_name | capitalize }}
	ts.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	// {{ wedding_date | prettydate }}
	ts.engine.RegisterFilter("prettydate", func(value interface{}) string {
		switch v := value.(type) {
		case time.Time:
			return v.Format("Monday, January 2, 2006")
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t.Format("Monday, January 2, 2006")
			}
			return v
		default:
			return fmt.Sprintf("%v", value)
		}
	})
}

// Render renders a template against per-guest bindings. Missing
// variables render empty rather than failing a send.
func (ts *TemplateService) Render(source string, bindings map[string]interface{}) (string, error) {
	tmpl, err := ts.parse(source)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	out, err := tmpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return out, nil
}

// GuestBindings builds the variable set available to announcement
// templates for one recipient.
func GuestBindings(r *Recipient, weddingVars map[string]interface{}) map[string]interface{} {
	bindings := map[string]interface{}{
		"first_name": r.GuestFirstName,
		"last_name":  r.GuestLastName,
		"full_name":  strings.TrimSpace(r.GuestFirstName + " " + r.GuestLastName),
	}
	for k, v := range weddingVars {
		bindings[k] = v
	}
	return bindings
}

func (ts *TemplateService) parse(source string) (*liquid.Template, error) {
	if cached, ok := ts.cache.Load(source); ok {
		return cached.(*liquid.Template), nil
	}
	tmpl, err := ts.engine.ParseString(source)
	if err != nil {
		return nil, err
	}
	ts.cache.Store(source, tmpl)
	return tmpl, nil
}
