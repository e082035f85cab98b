package announce

import (
	"testing"
	"time"
)

func TestRenderPerGuest(t *testing.T) {
	ts := NewTemplateService()

	tests := []struct {
		name     string
		source   string
		bindings map[string]interface{}
		want     string
	}{
		{
			name:     "first name",
			source:   "Hi {{ first_name }}, see you soon!",
			bindings: map[string]interface{}{"first_name": "Jane"},
			want:     "Hi Jane, see you soon!",
		},
		{
			name:     "default filter for missing value",
			source:   `Hi {{ first_name | default: "there" }}!`,
			bindings: map[string]interface{}{},
			want:     "Hi there!",
		},
		{
			name:     "default filter for empty value",
			source:   `Hi {{ first_name | default: "there" }}!`,
			bindings: map[string]interface{}{"first_name": ""},
			want:     "Hi there!",
		},
		{
			name:     "capitalize",
			source:   "{{ first_name | capitalize }}",
			bindings: map[string]interface{}{"first_name": "jANE"},
			want:     "Jane",
		},
		{
			name:     "prettydate on time value",
			source:   "{{ wedding_date | prettydate }}",
			bindings: map[string]interface{}{"wedding_date": time.Date(2027, 6, 12, 0, 0, 0, 0, time.UTC)},
			want:     "Saturday, June 12, 2027",
		},
		{
			name:     "prettydate on RFC3339 string",
			source:   "{{ wedding_date | prettydate }}",
			bindings: map[string]interface{}{"wedding_date": "2027-06-12T00:00:00Z"},
			want:     "Saturday, June 12, 2027",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ts.Render(tt.source, tt.bindings)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderBadTemplate(t *testing.T) {
	ts := NewTemplateService()
	if _, err := ts.Render("{{ unclosed", nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGuestBindings(t *testing.T) {
	r := &Recipient{GuestFirstName: "Jane", GuestLastName: "Doe"}
	b := GuestBindings(r, map[string]interface{}{"venue": "The Barn"})

	if b["first_name"] != "Jane" || b["last_name"] != "Doe" {
		t.Errorf("name bindings wrong: %v", b)
	}
	if b["full_name"] != "Jane Doe" {
		t.Errorf("full_name = %v", b["full_name"])
	}
	if b["venue"] != "The Barn" {
		t.Errorf("wedding vars not merged: %v", b)
	}
}

func TestGuestBindingsTrimsMissingLastName(t *testing.T) {
	r := &Recipient{GuestFirstName: "Jane"}
	b := GuestBindings(r, nil)
	if b["full_name"] != "Jane" {
		t.Errorf("full_name = %v, want Jane", b["full_name"])
	}
}
