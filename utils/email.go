package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"go.uber.org/zap"

	config "github.com/phillip/riseandserve-go/config"
	models "github.com/phillip/riseandserve-go/models"
	services "github.com/phillip/riseandserve-go/services"
)

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type toRecipient struct {
	Email emailAddress `json:"email_address"`
}

// Mailer sends HTML email through the ZeptoMail HTTP API.
type Mailer struct {
	apiURL string
	apiKey string
	from   string
	http   *http.Client
	log    *zap.Logger
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		apiURL: cfg.ZeptoAPIURL,
		apiKey: cfg.ZeptoAPIKey,
		from:   cfg.EmailFrom,
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    cfg.Logger,
	}
}

func (m *Mailer) SendEmail(ctx context.Context, to, toName, subject, body string) error {
	if m.apiURL == "" || m.apiKey == "" || m.from == "" {
		return fmt.Errorf("missing required email config")
	}

	payload := emailRequest{
		From:     emailAddress{Address: m.from, Name: "Rise & Serve"},
		To:       []toRecipient{{Email: emailAddress{Address: to, Name: toName}}},
		Subject:  subject,
		HtmlBody: body,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", m.apiKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	if m.log != nil {
		m.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	}
	return nil
}

// JoinConfirmed mails the participant a confirmation with the calendar link.
func (m *Mailer) JoinConfirmed(ctx context.Context, event models.Event, p models.Snapshot) error {
	name := p.Name
	if name == "" {
		name = p.Email
	}
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>You're registered for <strong>%s</strong> on %s at %s.</p>
<p><a href="%s">Add it to your calendar</a></p>`,
		html.EscapeString(name),
		html.EscapeString(event.Title),
		event.EventDate.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
		html.EscapeString(event.Location),
		html.EscapeString(services.GoogleCalendarURL(event)),
	)
	return m.SendEmail(ctx, p.Email, name, "You're in: "+event.Title, body)
}
