package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/pkg/httpretry"
	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

// Message is one rendered delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Channel delivers rendered announcements over one medium. Send returns
// the provider message ID.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg *Message) (string, error)
}

// EmailChannel sends via AWS SESv2.
type EmailChannel struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
}

// NewEmailChannel creates an SES-backed email channel.
func NewEmailChannel(ctx context.Context, cfg config.EmailConfig) (*EmailChannel, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &EmailChannel{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}, nil
}

func (c *EmailChannel) Name() string { return "email" }

// Send delivers a single email through SES.
func (c *EmailChannel) Send(ctx context.Context, msg *Message) (string, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)),
		Destination:      &sestypes.Destination{ToAddresses: []string{msg.To}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := c.client.SendEmail(ctx, input)
	if err != nil {
		return "", err
	}

	messageID := aws.ToString(result.MessageId)
	logger.Debug("email sent", "to", msg.To, "message_id", messageID)
	return messageID, nil
}

// SMSChannel sends via a Twilio-compatible messaging API, with retries on
// transient gateway errors.
type SMSChannel struct {
	client     *httpretry.RetryClient
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

// NewSMSChannel creates the SMS channel.
func NewSMSChannel(cfg config.SMSConfig) *SMSChannel {
	return &SMSChannel{
		client:     httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
	}
}

func (c *SMSChannel) Name() string { return "sms" }

// Send posts one message to the gateway. SMS has no subject; the body
// stands alone.
func (c *SMSChannel) Send(ctx context.Context, msg *Message) (string, error) {
	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", c.from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse sms response: %w", err)
	}
	return parsed.SID, nil
}

// WhatsAppChannel sends via the WhatsApp Business API.
type WhatsAppChannel struct {
	client        *httpretry.RetryClient
	baseURL       string
	phoneNumberID string
	accessToken   string
}

// NewWhatsAppChannel creates the WhatsApp channel.
func NewWhatsAppChannel(cfg config.WhatsAppConfig) *WhatsAppChannel {
	return &WhatsAppChannel{
		client:        httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3),
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
	}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

// Send posts one text message to the Business API.
func (c *WhatsAppChannel) Send(ctx context.Context, msg *Message) (string, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                msg.To,
		"type":              "text",
		"text":              map[string]string{"body": msg.Body},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp api: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse whatsapp response: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return "", fmt.Errorf("whatsapp api returned no message ID")
	}
	return parsed.Messages[0].ID, nil
}
