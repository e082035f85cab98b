// Package domains manages custom domains for wedding sites: registration,
// DNS verification, and HTTPS provisioning. Only verified domains ever
// participate in tenant resolution.
package domains

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SSL provisioning states.
const (
	SSLPending      = "pending"
	SSLProvisioning = "provisioning"
	SSLValidating   = "validating"
	SSLActive       = "active"
	SSLFailed       = "failed"
)

// CustomDomain represents one custom domain attached to a wedding.
type CustomDomain struct {
	ID               string      `json:"id"`
	WeddingID        string      `json:"wedding_id"`
	Domain           string      `json:"domain"`
	Verified         bool        `json:"verified"`
	SSLStatus        string      `json:"ssl_status"`
	CloudFrontID     string      `json:"cloudfront_id,omitempty"`
	CloudFrontDomain string      `json:"cloudfront_domain,omitempty"`
	ACMCertARN       string      `json:"acm_cert_arn,omitempty"`
	DNSRecords       []DNSRecord `json:"dns_records"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// DNSRecord is one record the couple must create at their registrar.
type DNSRecord struct {
	Type   string `json:"type"`   // CNAME, TXT
	Name   string `json:"name"`   // Full record name
	Value  string `json:"value"`  // Expected value
	Status string `json:"status"` // pending, verified
}

// DNSRecordsJSON is a helper type for JSON marshaling/unmarshaling
type DNSRecordsJSON []DNSRecord

// Scan implements the sql.Scanner interface for DNSRecordsJSON
func (d *DNSRecordsJSON) Scan(value interface{}) error {
	if value == nil {
		*d = []DNSRecord{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan type %T into DNSRecordsJSON", value)
	}
	return json.Unmarshal(b, d)
}

// ValidateDomainFormat validates the format of a domain name.
func ValidateDomainFormat(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}

	if len(domain) > 253 {
		return fmt.Errorf("domain name too long (max 253 characters)")
	}

	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return fmt.Errorf("invalid domain format: must contain at least one dot")
	}

	for _, part := range parts {
		if len(part) == 0 {
			return fmt.Errorf("invalid domain format: empty label")
		}
		if len(part) > 63 {
			return fmt.Errorf("invalid domain format: label too long (max 63 characters)")
		}
		if part[0] == '-' || part[len(part)-1] == '-' {
			return fmt.Errorf("invalid domain format: labels cannot start or end with hyphen")
		}
		for _, c := range part {
			if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-') {
				return fmt.Errorf("invalid domain format: invalid character '%c'", c)
			}
		}
	}

	return nil
}
