package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ChairReports/internal/delivery"
	"ChairReports/internal/domain"
	"ChairReports/internal/layout"
	"ChairReports/internal/ports"
	"ChairReports/internal/roster"
	"ChairReports/internal/spreadsheet"
)

var (
	// ErrTransportNotConfigured means no mailer was wired.
	ErrTransportNotConfigured = errors.New("mail transport not configured")
	// ErrNoRecipients means the item has no chair addresses.
	ErrNoRecipients = errors.New("item has no chair recipients")
)

// ReportRequest scopes one chair report.
type ReportRequest struct {
	Item     domain.ItemConfig
	Window   *domain.Window
	PeriodID string
	Kind     string
	Snapshot *OrderSnapshot
}

// ReportOutcome describes a delivered (or attempted) report.
type ReportOutcome struct {
	Rows       int
	Recipients int
	Attempt    int
	MessageID  string
}

// ReportSender runs the roster → spreadsheet → delivery pipeline for one item.
type ReportSender interface {
	Send(ctx context.Context, req ReportRequest) (ReportOutcome, error)
}

// ReporterDeps wires all driven adapters into the report pipeline.
type ReporterDeps struct {
	Layouts  *layout.Registry
	Mailer   ports.Mailer
	Retrier  *delivery.Retrier
	Recorder ports.MailRecorder
	From     string
	Bcc      []string
	SiteName string
	Logger   *slog.Logger
}

// Reporter implements ReportSender.
type Reporter struct {
	layouts  *layout.Registry
	mailer   ports.Mailer
	retrier  *delivery.Retrier
	recorder ports.MailRecorder
	from     string
	bcc      []string
	siteName string
	logger   *slog.Logger
	now      func() time.Time
}

var _ ReportSender = (*Reporter)(nil)

// NewReporter constructs the pipeline component.
func NewReporter(deps ReporterDeps) *Reporter {
	layouts := deps.Layouts
	if layouts == nil {
		layouts = layout.Default()
	}
	retrier := deps.Retrier
	if retrier == nil {
		retrier = delivery.NewRetrier(deps.Logger)
	}
	return &Reporter{
		layouts:  layouts,
		mailer:   deps.Mailer,
		retrier:  retrier,
		recorder: deps.Recorder,
		from:     deps.From,
		bcc:      deps.Bcc,
		siteName: deps.SiteName,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Build renders the roster workbook for req without sending it.
func (r *Reporter) Build(req ReportRequest) ([]domain.RosterRow, []byte, error) {
	l, err := r.layouts.ForItem(req.Item)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve layout for %s: %w", req.Item.ID, err)
	}

	var orders []domain.Order
	if req.Snapshot != nil {
		orders = req.Snapshot.Orders
	}
	rows := roster.Build(orders, roster.Query{
		ItemID:         req.Item.ID,
		ItemName:       req.Item.Name,
		Category:       l.Category,
		Window:         req.Window,
		IncludeAddress: l.IncludeAddress,
	})

	values := make([]map[string]any, len(rows))
	for i, row := range rows {
		values[i] = row.Values()
	}
	data, err := spreadsheet.Encode(l.Columns, values, l.Headers)
	if err != nil {
		return nil, nil, fmt.Errorf("encode roster for %s: %w", req.Item.ID, err)
	}
	return rows, data, nil
}

// Send builds the roster for req and emails it to the item's chairs.
func (r *Reporter) Send(ctx context.Context, req ReportRequest) (ReportOutcome, error) {
	recipients := req.Item.Recipients()
	outcome := ReportOutcome{Recipients: len(recipients)}

	if r.mailer == nil {
		return outcome, ErrTransportNotConfigured
	}
	if len(recipients) == 0 {
		return outcome, ErrNoRecipients
	}

	rows, data, err := r.Build(req)
	if err != nil {
		return outcome, err
	}
	outcome.Rows = len(rows)

	now := r.now().UTC()
	body, err := renderBody(bodyData{
		Site:    r.siteName,
		Item:    req.Item.Name,
		Scope:   scopeLabel(req),
		Summary: roster.Summarize(rows),
		Sent:    now.Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return outcome, fmt.Errorf("render body for %s: %w", req.Item.ID, err)
	}

	email := domain.Email{
		From:           r.from,
		To:             recipients,
		Bcc:            r.bcc,
		Subject:        r.subject(req),
		HTML:           body,
		IdempotencyKey: uuid.NewString(),
		Attachments: []domain.Attachment{{
			Filename:      Filename(req.Item.ID, now),
			Base64Content: base64.StdEncoding.EncodeToString(data),
		}},
	}

	result := r.retrier.Deliver(ctx, req.Item.ID, func(ctx context.Context) (domain.SendResult, error) {
		return r.mailer.Send(ctx, email)
	})
	outcome.Attempt = result.Attempt
	outcome.MessageID = result.Result.ID

	audit := domain.MailAudit{
		Timestamp: now,
		From:      email.From,
		To:        email.To,
		Subject:   email.Subject,
		Kind:      req.Kind,
		Status:    "sent",
		ResultID:  result.Result.ID,
	}
	if !result.OK {
		audit.Status = "failed"
		audit.Error = result.Err.Error()
	}
	if r.recorder != nil {
		r.recorder.Record(ctx, audit)
	}

	if !result.OK {
		return outcome, result.Err
	}
	r.debug("report delivered", "item", req.Item.ID, "kind", req.Kind, "rows", outcome.Rows, "attempt", outcome.Attempt, "id", outcome.MessageID)
	return outcome, nil
}

func (r *Reporter) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Reporter) subject(req ReportRequest) string {
	subject := fmt.Sprintf("%s report: %s", req.Item.Name, scopeLabel(req))
	if r.siteName != "" {
		subject = fmt.Sprintf("[%s] %s", r.siteName, subject)
	}
	return subject
}

func scopeLabel(req ReportRequest) string {
	if req.PeriodID != "" {
		return req.PeriodID
	}
	return "to date"
}

// Filename returns "<item-slug>_<YYYY-MM-DD>.xlsx".
func Filename(itemID string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", slug(itemID), at.UTC().Format("2006-01-02"))
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "report"
	}
	return out
}

type bodyData struct {
	Site    string
	Item    string
	Scope   string
	Summary roster.Summary
	Sent    string
}

var bodyTemplate = template.Must(template.New("report").Parse(`<html><body>
<h2>{{.Item}}</h2>
<p>{{if .Site}}{{.Site}} chair report{{else}}Chair report{{end}} for {{.Scope}}.</p>
<table>
<tr><th>Rows</th><th>Attendees</th><th>Quantity</th><th>Total</th></tr>
<tr><td>{{.Summary.Rows}}</td><td>{{.Summary.Attendees}}</td><td>{{.Summary.Quantity}}</td><td>{{.Summary.Total}}</td></tr>
</table>
<p>The full roster is attached.<br>Generated {{.Sent}}.</p>
</body></html>`))

func renderBody(data bodyData) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
