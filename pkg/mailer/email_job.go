package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending a
// transactional email. Template names the embedded template set
// (subject/text/html) the worker renders with Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "mailverification", "passwordreset"
	Data     map[string]any `json:"data,omitempty"`
}
