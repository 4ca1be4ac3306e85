package models

// Content type tags understood by the provider.
const (
	ContentTypeTemplate         = "TEMPLATE"
	ContentTypeMediaTemplate    = "MEDIA_TEMPLATE"
	ContentTypeCarouselTemplate = "CAROUSEL_TEMPLATE"

	ChannelWABA             = "WABA"
	RecipientTypeIndividual = "individual"
)

// PlaceholderValues maps placeholder keys to resolved strings. Body placeholders
// use their decimal index as key; button overrides use "button_{i}" and
// carousel card values use "card_{c}_{p}".
type PlaceholderValues map[string]string

// AssembledMessage is one provider-ready message for one recipient.
type AssembledMessage struct {
	Content   *Content         `json:"content"`
	Recipient MessageRecipient `json:"recipient"`
}

// MessageRecipient addresses an assembled message.
type MessageRecipient struct {
	To            string    `json:"to"`
	RecipientType string    `json:"recipient_type"`
	Reference     Reference `json:"reference"`
}

// Reference carries caller correlation ids.
type Reference struct {
	CustRef string `json:"cust_ref"`
}

// Content is the polymorphic provider content object. Exactly one of Template,
// MediaTemplate or CarouselTemplate is set, matching Type.
type Content struct {
	Type             string            `json:"type"`
	PreviewURL       bool              `json:"preview_url,omitempty"`
	ShortenURL       bool              `json:"shorten_url,omitempty"`
	Template         *TextTemplate     `json:"template,omitempty"`
	MediaTemplate    *MediaTemplate    `json:"mediaTemplate,omitempty"`
	CarouselTemplate *CarouselTemplate `json:"carouselTemplate,omitempty"`
}

// TextTemplate is the plain body template payload.
type TextTemplate struct {
	TemplateID      string            `json:"templateId"`
	ParameterValues map[string]string `json:"parameterValues"`
	Language        string            `json:"language"`
}

// MediaTemplate is the payload for templates with a header.
type MediaTemplate struct {
	TemplateID          string            `json:"templateId"`
	BodyParameterValues map[string]string `json:"bodyParameterValues"`
	Language            string            `json:"language"`
	Media               *Media            `json:"media,omitempty"`
	Buttons             *Buttons          `json:"buttons,omitempty"`
}

// CarouselTemplate is the payload for carousel templates.
type CarouselTemplate struct {
	TemplateID          string            `json:"templateId"`
	BodyParameterValues map[string]string `json:"bodyParameterValues"`
	Language            string            `json:"language"`
	Cards               []CarouselCard    `json:"cards"`
}

// CarouselCard is one rendered carousel card.
type CarouselCard struct {
	CardIndex           int               `json:"card_index"`
	BodyParameterValues map[string]string `json:"bodyParameterValues"`
	Media               *Media            `json:"media,omitempty"`
	Buttons             *Buttons          `json:"buttons,omitempty"`
}

// Media describes header media. Title is used instead of a URL for text headers.
type Media struct {
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
	MediaID  string `json:"mediaId,omitempty"`
	FileName string `json:"fileName,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Buttons is the encoded button block.
type Buttons struct {
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
	Actions      []Action     `json:"actions,omitempty"`
}

// QuickReply is an encoded quick-reply button.
type QuickReply struct {
	Index   string `json:"index"`
	Payload string `json:"payload"`
}

// Action is an encoded url, phone_number or copy_code button.
type Action struct {
	Type    string `json:"type"`
	Index   string `json:"index"`
	Payload string `json:"payload"`
}

// BulkRequest is the envelope posted for a bulk send.
type BulkRequest struct {
	Channel     string             `json:"channel"`
	Sender      Sender             `json:"sender"`
	MetaData    MetaData           `json:"metaData"`
	Preferences Preferences        `json:"preferences"`
	Messages    []AssembledMessage `json:"messages"`
}

// SingleRequest is the envelope posted for a single send.
type SingleRequest struct {
	Message  SingleMessage `json:"message"`
	MetaData MetaData      `json:"metaData"`
}

// SingleMessage is the message body of a single send.
type SingleMessage struct {
	Channel     string           `json:"channel"`
	Content     *Content         `json:"content"`
	Recipient   MessageRecipient `json:"recipient"`
	Sender      Sender           `json:"sender"`
	Preferences Preferences      `json:"preferences"`
}

// Sender identifies the business number.
type Sender struct {
	From string `json:"from"`
}

// MetaData carries the provider API version.
type MetaData struct {
	Version string `json:"version"`
}

// Preferences carries the delivery-notification webhook id.
type Preferences struct {
	WebHookDNId string `json:"webHookDNId"`
}
