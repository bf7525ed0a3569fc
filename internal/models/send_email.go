package models

// SendEmailPayload describes one outgoing notification email.
type SendEmailPayload struct {
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	TemplateName string            `json:"template_name"`
	Data         map[string]string `json:"data,omitempty"`
}
