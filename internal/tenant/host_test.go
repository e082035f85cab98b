package tenant

import "testing"

func TestStripPort(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"acme.vowsuite.com", "acme.vowsuite.com"},
		{"acme.vowsuite.com:8080", "acme.vowsuite.com"},
		{"localhost:3000", "localhost"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripPort(tt.host); got != tt.want {
			t.Errorf("StripPort(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"www.janeandsam.com", "janeandsam.com"},
		{"janeandsam.com", "janeandsam.com"},
		{"WWW.JaneAndSam.COM", "janeandsam.com"},
		{"www.janeandsam.com:443", "janeandsam.com"},
		{"janeandsam.com.", "janeandsam.com"},
	}
	for _, tt := range tests {
		got := NormalizeHost(tt.host)
		if got != tt.want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", tt.host, got, tt.want)
		}
		// Normalizing an already-normalized host is a no-op.
		if again := NormalizeHost(got); again != got {
			t.Errorf("NormalizeHost(%q) not idempotent: %q", got, again)
		}
	}
}

func TestExtractSubdomain(t *testing.T) {
	tests := []struct {
		name string
		host string
		dev  bool
		want string
	}{
		{"platform subdomain", "acme.vowsuite.com", false, "acme"},
		{"platform subdomain with port", "acme.vowsuite.com:8080", false, "acme"},
		{"uppercase host", "ACME.VowSuite.com", false, "acme"},
		{"www before subdomain", "www.acme.vowsuite.com", false, "acme"},
		{"bare apex", "vowsuite.com", false, ""},
		{"www apex", "www.example.com", false, ""},
		{"bare localhost", "localhost", false, ""},
		{"bare localhost with port", "localhost:3000", false, ""},
		{"ipv4", "127.0.0.1", false, ""},
		{"ipv4 with port", "192.168.1.10:8080", false, ""},
		{"empty", "", false, ""},
		{"dev localhost subdomain", "acme.localhost:3000", true, "acme"},
		{"dev lvh.me subdomain", "acme.lvh.me", true, "acme"},
		{"dev localhost subdomain disabled", "acme.localhost:3000", false, ""},
		{"dev nested localhost", "a.b.localhost", true, ""},
		{"deep subdomain takes first label", "photos.acme.vowsuite.com", false, "photos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSubdomain(tt.host, tt.dev); got != tt.want {
				t.Errorf("ExtractSubdomain(%q, dev=%v) = %q, want %q", tt.host, tt.dev, got, tt.want)
			}
		})
	}
}

func TestSlugFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/w/jane-and-sam", "jane-and-sam"},
		{"/w/jane-and-sam/rsvp", "jane-and-sam"},
		{"/w/", ""},
		{"/weddings/jane", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := slugFromPath(tt.path); got != tt.want {
			t.Errorf("slugFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
