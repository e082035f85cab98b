package domains

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/google/uuid"

	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

// Provisioner sets up HTTPS for verified custom domains: an ACM
// certificate validated over DNS, and a CloudFront distribution fronting
// the platform origin.
type Provisioner struct {
	db           *sql.DB
	acmClient    *acm.Client
	cfClient     *cloudfront.Client
	r53Client    *route53.Client
	hostedZoneID string
	originServer string
}

// NewProvisioner creates a provisioner from the domains configuration.
func NewProvisioner(ctx context.Context, db *sql.DB, cfg config.DomainsConfig) (*Provisioner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	// ACM certificates for CloudFront must live in us-east-1.
	usEast1Cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("us-east-1"))
	if err != nil {
		return nil, fmt.Errorf("loading us-east-1 AWS config: %w", err)
	}

	return &Provisioner{
		db:           db,
		acmClient:    acm.NewFromConfig(usEast1Cfg),
		cfClient:     cloudfront.NewFromConfig(usEast1Cfg),
		r53Client:    route53.NewFromConfig(awsCfg),
		hostedZoneID: cfg.HostedZoneID,
		originServer: cfg.OriginServer,
	}, nil
}

// Provision runs the full HTTPS setup for a verified domain and records
// progress on the wedding_domains row.
func (p *Provisioner) Provision(ctx context.Context, domainID, domain string) error {
	certARN, err := p.requestCertificate(ctx, domain)
	if err != nil {
		return fmt.Errorf("requesting certificate: %w", err)
	}

	p.updateStatus(ctx, domainID, SSLValidating, map[string]string{"acm_cert_arn": certARN})

	if err := p.createValidationRecords(ctx, certARN); err != nil {
		return fmt.Errorf("creating validation records: %w", err)
	}

	if err := p.waitForCertificate(ctx, certARN); err != nil {
		return fmt.Errorf("waiting for certificate: %w", err)
	}

	distID, distDomain, err := p.createDistribution(ctx, domain, certARN)
	if err != nil {
		return fmt.Errorf("creating distribution: %w", err)
	}

	p.updateStatus(ctx, domainID, SSLActive, map[string]string{
		"cloudfront_id":     distID,
		"cloudfront_domain": distDomain,
	})

	logger.Info("custom domain provisioned", "domain", domain, "cloudfront_id", distID)
	return nil
}

// requestCertificate requests a DNS-validated ACM certificate covering
// the domain and its www variant.
func (p *Provisioner) requestCertificate(ctx context.Context, domain string) (string, error) {
	output, err := p.acmClient.RequestCertificate(ctx, &acm.RequestCertificateInput{
		DomainName:              aws.String(domain),
		SubjectAlternativeNames: []string{"www." + domain},
		ValidationMethod:        acmtypes.ValidationMethodDns,
		Tags: []acmtypes.Tag{
			{Key: aws.String("ManagedBy"), Value: aws.String("vowsuite")},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(output.CertificateArn), nil
}

// createValidationRecords upserts the ACM validation CNAMEs into Route53.
func (p *Provisioner) createValidationRecords(ctx context.Context, certARN string) error {
	// ACM populates validation options asynchronously after the request.
	var descOutput *acm.DescribeCertificateOutput
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		descOutput, err = p.acmClient.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
			CertificateArn: aws.String(certARN),
		})
		if err != nil {
			return err
		}
		if len(descOutput.Certificate.DomainValidationOptions) > 0 &&
			descOutput.Certificate.DomainValidationOptions[0].ResourceRecord != nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}

	var changes []r53types.Change
	seen := map[string]bool{}
	for _, opt := range descOutput.Certificate.DomainValidationOptions {
		if opt.ResourceRecord == nil || seen[aws.ToString(opt.ResourceRecord.Name)] {
			continue
		}
		seen[aws.ToString(opt.ResourceRecord.Name)] = true
		changes = append(changes, r53types.Change{
			Action: r53types.ChangeActionUpsert,
			ResourceRecordSet: &r53types.ResourceRecordSet{
				Name: opt.ResourceRecord.Name,
				Type: r53types.RRType(opt.ResourceRecord.Type),
				TTL:  aws.Int64(300),
				ResourceRecords: []r53types.ResourceRecord{
					{Value: opt.ResourceRecord.Value},
				},
			},
		})
	}
	if len(changes) == 0 {
		return fmt.Errorf("certificate has no validation records")
	}

	_, err = p.r53Client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(p.hostedZoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Changes: changes,
		},
	})
	return err
}

// waitForCertificate polls ACM until the certificate is issued.
func (p *Provisioner) waitForCertificate(ctx context.Context, certARN string) error {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	deadline := time.Now().Add(30 * time.Minute)
	for {
		status, err := p.CheckCertificateStatus(ctx, certARN)
		if err != nil {
			return err
		}
		switch status {
		case "ISSUED":
			return nil
		case "FAILED", "VALIDATION_TIMED_OUT":
			return fmt.Errorf("certificate validation failed: %s", status)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("certificate not issued within 30 minutes")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// createDistribution creates a CloudFront distribution serving the custom
// domain from the platform origin.
func (p *Provisioner) createDistribution(ctx context.Context, domain, certARN string) (string, string, error) {
	output, err := p.cfClient.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: &cftypes.DistributionConfig{
			CallerReference: aws.String(uuid.New().String()),
			Comment:         aws.String("vowsuite custom domain " + domain),
			Enabled:         aws.Bool(true),
			Aliases: &cftypes.Aliases{
				Quantity: aws.Int32(2),
				Items:    []string{domain, "www." + domain},
			},
			Origins: &cftypes.Origins{
				Quantity: aws.Int32(1),
				Items: []cftypes.Origin{
					{
						Id:         aws.String("vowsuite-origin"),
						DomainName: aws.String(p.originServer),
						CustomOriginConfig: &cftypes.CustomOriginConfig{
							HTTPPort:             aws.Int32(80),
							HTTPSPort:            aws.Int32(443),
							OriginProtocolPolicy: cftypes.OriginProtocolPolicyHttpsOnly,
						},
					},
				},
			},
			DefaultCacheBehavior: &cftypes.DefaultCacheBehavior{
				TargetOriginId:       aws.String("vowsuite-origin"),
				ViewerProtocolPolicy: cftypes.ViewerProtocolPolicyRedirectToHttps,
				AllowedMethods: &cftypes.AllowedMethods{
					Quantity: aws.Int32(7),
					Items: []cftypes.Method{
						cftypes.MethodGet, cftypes.MethodHead, cftypes.MethodOptions,
						cftypes.MethodPut, cftypes.MethodPost, cftypes.MethodPatch, cftypes.MethodDelete,
					},
				},
				// Forward everything: wedding sites are dynamic and the
				// resolver keys on the Host header.
				ForwardedValues: &cftypes.ForwardedValues{
					QueryString: aws.Bool(true),
					Cookies: &cftypes.CookiePreference{
						Forward: cftypes.ItemSelectionAll,
					},
					Headers: &cftypes.Headers{
						Quantity: aws.Int32(1),
						Items:    []string{"Host"},
					},
				},
				MinTTL: aws.Int64(0),
			},
			ViewerCertificate: &cftypes.ViewerCertificate{
				ACMCertificateArn:      aws.String(certARN),
				SSLSupportMethod:       cftypes.SSLSupportMethodSniOnly,
				MinimumProtocolVersion: cftypes.MinimumProtocolVersionTLSv122021,
			},
		},
	})
	if err != nil {
		return "", "", err
	}
	return aws.ToString(output.Distribution.Id), aws.ToString(output.Distribution.DomainName), nil
}

// CheckCertificateStatus returns the ACM status string for a certificate.
func (p *Provisioner) CheckCertificateStatus(ctx context.Context, certARN string) (string, error) {
	output, err := p.acmClient.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
		CertificateArn: aws.String(certARN),
	})
	if err != nil {
		return "", err
	}
	return string(output.Certificate.Status), nil
}

// GetDistributionStatus returns the CloudFront deployment status.
func (p *Provisioner) GetDistributionStatus(ctx context.Context, distID string) (string, error) {
	output, err := p.cfClient.GetDistribution(ctx, &cloudfront.GetDistributionInput{
		Id: aws.String(distID),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(output.Distribution.Status), nil
}

// updateStatus writes provisioning progress onto the domain row. Extra
// columns are optional; absent keys keep their current value.
func (p *Provisioner) updateStatus(ctx context.Context, domainID, sslStatus string, extra map[string]string) {
	_, err := p.db.ExecContext(ctx, `
		UPDATE wedding_domains
		SET ssl_status = $1,
		    acm_cert_arn = COALESCE(NULLIF($2, ''), acm_cert_arn),
		    cloudfront_id = COALESCE(NULLIF($3, ''), cloudfront_id),
		    cloudfront_domain = COALESCE(NULLIF($4, ''), cloudfront_domain),
		    updated_at = NOW()
		WHERE id = $5
	`, sslStatus, extra["acm_cert_arn"], extra["cloudfront_id"], extra["cloudfront_domain"], domainID)
	if err != nil {
		logger.Error("failed to record provisioning status", "domain_id", domainID, "error", err)
	}
}
