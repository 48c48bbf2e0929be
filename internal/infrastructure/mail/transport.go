package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

// DefaultEndpoint is the Resend-compatible send endpoint.
const DefaultEndpoint = "https://api.resend.com/emails"

// Transport sends email through an HTTP API that accepts the Resend payload shape.
type Transport struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

var _ ports.Mailer = (*Transport)(nil)

// Options configures a Transport.
type Options struct {
	Endpoint      string
	APIKey        string
	RatePerSecond float64
	Timeout       time.Duration
	Client        *http.Client
}

// NewTransport registers the API key and endpoint. A non-positive rate disables throttling.
func NewTransport(opts Options) *Transport {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	return &Transport{
		endpoint: endpoint,
		apiKey:   opts.APIKey,
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type attachmentPayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type sendPayload struct {
	From        string              `json:"from"`
	To          []string            `json:"to"`
	Bcc         []string            `json:"bcc,omitempty"`
	Subject     string              `json:"subject"`
	HTML        string              `json:"html"`
	Text        string              `json:"text,omitempty"`
	Attachments []attachmentPayload `json:"attachments,omitempty"`
}

// Send posts one email and returns the provider message id.
func (t *Transport) Send(ctx context.Context, email domain.Email) (domain.SendResult, error) {
	if t == nil || t.apiKey == "" || t.client == nil {
		return domain.SendResult{}, fmt.Errorf("mail transport misconfigured")
	}
	if len(email.To) == 0 {
		return domain.SendResult{}, fmt.Errorf("mail has no recipients")
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return domain.SendResult{}, fmt.Errorf("wait for send slot: %w", err)
	}

	text, err := PlainText(email.HTML)
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("render text part: %w", err)
	}

	payload := sendPayload{
		From:    email.From,
		To:      email.To,
		Bcc:     email.Bcc,
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    text,
	}
	for _, a := range email.Attachments {
		payload.Attachments = append(payload.Attachments, attachmentPayload{Filename: a.Filename, Content: a.Base64Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if email.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", email.IdempotencyKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.SendResult{}, fmt.Errorf("mail provider error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.SendResult{}, fmt.Errorf("decode response: %w", err)
	}

	return domain.SendResult{ID: out.ID}, nil
}

// PlainText derives the text/plain alternative from an HTML body.
func PlainText(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, head").Remove()
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(textNode("\n"))
	})
	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(textNode(" "))
	})
	doc.Find("p, div, h1, h2, h3, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(textNode("\n"))
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func textNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}
