package domain

import "time"

// Email is an outbound message handed to the mail transport.
type Email struct {
	From           string
	To             []string
	Bcc            []string
	Subject        string
	HTML           string
	Attachments    []Attachment
	IdempotencyKey string
}

// Attachment is a file carried by an Email. Content is base64 encoded.
type Attachment struct {
	Filename      string
	Base64Content string
}

// SendResult is what the transport returns for an accepted message.
type SendResult struct {
	ID string
}

// Mail kinds recorded by the audit trail.
const (
	MailKindScheduled = "scheduled"
	MailKindRealtime  = "realtime"
)

// MailAudit is the short-lived "last mail" observability record.
type MailAudit struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	ResultID  string    `json:"resultId,omitempty"`
	Error     string    `json:"error,omitempty"`
}
