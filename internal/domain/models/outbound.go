package models

// BroadcastRequest asks the service to run one broadcast. Recipients are taken
// inline, or read from SheetRange when it is set.
type BroadcastRequest struct {
	Template     *Template   `json:"template"`
	TemplateName string      `json:"templateName"`
	Recipients   []Recipient `json:"recipients"`
	SheetRange   string      `json:"sheetRange"`
}

// SingleSendRequest sends one template message to one recipient.
type SingleSendRequest struct {
	Template     *Template `json:"template"`
	TemplateName string    `json:"templateName"`
	Recipient    Recipient `json:"recipient"`
	CustRef      string    `json:"custRef"`
}
