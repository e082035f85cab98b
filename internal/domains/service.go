package domains

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

// DNSResolver is the lookup surface used during verification. The
// default implementation queries the real DNS; tests substitute a fake.
type DNSResolver interface {
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

type netResolver struct{}

func (netResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	return net.DefaultResolver.LookupCNAME(ctx, host)
}

func (netResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return net.DefaultResolver.LookupTXT(ctx, name)
}

// Service manages custom domains for wedding sites.
type Service struct {
	db             *sql.DB
	platformDomain string // CNAME target, e.g. "sites.vowsuite.com"
	resolver       DNSResolver
	provisioner    *Provisioner // nil disables HTTPS provisioning
}

// NewService creates a domain service. provisioner may be nil when AWS
// provisioning is disabled.
func NewService(db *sql.DB, platformDomain string, provisioner *Provisioner) *Service {
	return &Service{
		db:             db,
		platformDomain: platformDomain,
		resolver:       netResolver{},
		provisioner:    provisioner,
	}
}

// SetResolver replaces the DNS resolver. Used by tests.
func (s *Service) SetResolver(r DNSResolver) {
	s.resolver = r
}

// Register attaches a custom domain to a wedding in unverified state and
// returns the DNS records the couple must create.
func (s *Service) Register(ctx context.Context, weddingID, domain string) (*CustomDomain, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if err := ValidateDomainFormat(domain); err != nil {
		return nil, err
	}
	if domain == s.platformDomain || strings.HasSuffix(domain, "."+s.platformDomain) {
		return nil, fmt.Errorf("domain %s is reserved by the platform", domain)
	}

	var existingID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM wedding_domains WHERE domain = $1
	`, domain).Scan(&existingID)
	if err == nil {
		return nil, fmt.Errorf("domain %s is already registered", domain)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing domain: %w", err)
	}

	verifyToken, err := generateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	dnsRecords := []DNSRecord{
		{
			Type:   "CNAME",
			Name:   domain,
			Value:  s.platformDomain,
			Status: "pending",
		},
		{
			Type:   "TXT",
			Name:   fmt.Sprintf("_vowsuite-verify.%s", domain),
			Value:  fmt.Sprintf("vowsuite-verify=%s", verifyToken),
			Status: "pending",
		},
	}

	dnsRecordsJSON, err := json.Marshal(dnsRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal DNS records: %w", err)
	}

	id := uuid.New().String()
	now := time.Now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wedding_domains (id, wedding_id, domain, is_verified, ssl_status, dns_records, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, weddingID, domain, false, SSLPending, dnsRecordsJSON, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom domain: %w", err)
	}

	return &CustomDomain{
		ID:         id,
		WeddingID:  weddingID,
		Domain:     domain,
		Verified:   false,
		SSLStatus:  SSLPending,
		DNSRecords: dnsRecords,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Verify checks the domain's DNS records. The domain flips to verified
// only when every record resolves; verification then kicks off HTTPS
// provisioning when a provisioner is configured.
func (s *Service) Verify(ctx context.Context, domainID string) (*CustomDomain, error) {
	cd, err := s.getByID(ctx, domainID)
	if err != nil {
		return nil, err
	}

	allVerified := true
	for i := range cd.DNSRecords {
		record := &cd.DNSRecords[i]
		verified := false

		switch record.Type {
		case "CNAME":
			verified = s.verifyCNAME(ctx, record.Name, record.Value)
		case "TXT":
			verified = s.verifyTXT(ctx, record.Name, record.Value)
		}

		if verified {
			record.Status = "verified"
		} else {
			record.Status = "pending"
			allVerified = false
		}
	}

	dnsRecordsJSON, err := json.Marshal(cd.DNSRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal DNS records: %w", err)
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		UPDATE wedding_domains
		SET is_verified = $1, dns_records = $2, updated_at = $3
		WHERE id = $4
	`, allVerified, dnsRecordsJSON, now, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to update custom domain: %w", err)
	}

	cd.Verified = allVerified
	cd.UpdatedAt = now

	if allVerified && cd.SSLStatus == SSLPending && s.provisioner != nil {
		go func() {
			provCtx := context.Background()
			if err := s.provisioner.Provision(provCtx, cd.ID, cd.Domain); err != nil {
				logger.Error("https provisioning failed", "domain", cd.Domain, "error", err)
				s.db.ExecContext(provCtx, `
					UPDATE wedding_domains SET ssl_status = $1 WHERE id = $2
				`, SSLFailed, cd.ID)
			}
		}()
		cd.SSLStatus = SSLProvisioning
	}

	return cd, nil
}

// ListForWedding returns all custom domains attached to a wedding.
func (s *Service) ListForWedding(ctx context.Context, weddingID string) ([]CustomDomain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_id, domain, is_verified,
		       COALESCE(ssl_status, 'pending'), cloudfront_id, cloudfront_domain, acm_cert_arn,
		       dns_records, created_at, updated_at
		FROM wedding_domains
		WHERE wedding_id = $1
		ORDER BY created_at DESC
	`, weddingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom domains: %w", err)
	}
	defer rows.Close()

	var out []CustomDomain
	for rows.Next() {
		cd, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cd)
	}
	return out, rows.Err()
}

// Get returns a custom domain by ID.
func (s *Service) Get(ctx context.Context, domainID string) (*CustomDomain, error) {
	return s.getByID(ctx, domainID)
}

// Delete detaches a custom domain from its wedding.
func (s *Service) Delete(ctx context.Context, domainID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM wedding_domains WHERE id = $1
	`, domainID)
	if err != nil {
		return fmt.Errorf("failed to delete custom domain: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("custom domain not found")
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDomain(row scanner) (*CustomDomain, error) {
	var cd CustomDomain
	var dnsRecordsJSON DNSRecordsJSON
	var sslStatus, cloudfrontID, cloudfrontDomain, acmCertARN sql.NullString

	err := row.Scan(
		&cd.ID,
		&cd.WeddingID,
		&cd.Domain,
		&cd.Verified,
		&sslStatus,
		&cloudfrontID,
		&cloudfrontDomain,
		&acmCertARN,
		&dnsRecordsJSON,
		&cd.CreatedAt,
		&cd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cd.DNSRecords = dnsRecordsJSON
	cd.SSLStatus = sslStatus.String
	cd.CloudFrontID = cloudfrontID.String
	cd.CloudFrontDomain = cloudfrontDomain.String
	cd.ACMCertARN = acmCertARN.String
	return &cd, nil
}

func (s *Service) getByID(ctx context.Context, domainID string) (*CustomDomain, error) {
	cd, err := scanDomain(s.db.QueryRowContext(ctx, `
		SELECT id, wedding_id, domain, is_verified,
		       COALESCE(ssl_status, 'pending'), cloudfront_id, cloudfront_domain, acm_cert_arn,
		       dns_records, created_at, updated_at
		FROM wedding_domains
		WHERE id = $1
	`, domainID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("custom domain not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query custom domain: %w", err)
	}
	return cd, nil
}

// verifyCNAME checks if a CNAME record exists and points to the expected value
func (s *Service) verifyCNAME(ctx context.Context, name, expectedValue string) bool {
	cname, err := s.resolver.LookupCNAME(ctx, name)
	if err != nil {
		return false
	}

	cname = strings.TrimSuffix(cname, ".")
	expectedValue = strings.TrimSuffix(expectedValue, ".")

	return strings.EqualFold(cname, expectedValue)
}

// verifyTXT checks if a TXT record exists with the expected value
func (s *Service) verifyTXT(ctx context.Context, name, expectedValue string) bool {
	records, err := s.resolver.LookupTXT(ctx, name)
	if err != nil {
		return false
	}

	for _, record := range records {
		if strings.Contains(record, expectedValue) || record == expectedValue {
			return true
		}
	}

	return false
}

// generateVerificationToken generates a random verification token
func generateVerificationToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
