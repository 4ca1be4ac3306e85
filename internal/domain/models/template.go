package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TemplateKind is the dispatch path used to build provider content for a template.
type TemplateKind string

const (
	KindText        TemplateKind = "text"
	KindMedia       TemplateKind = "media"
	KindCarousel    TemplateKind = "carousel"
	KindUnsupported TemplateKind = "unsupported"
)

// Header types accepted on template headers.
const (
	HeaderText     = "text"
	HeaderImage    = "image"
	HeaderVideo    = "video"
	HeaderDocument = "document"
)

// Button types accepted on templates and carousel cards.
const (
	ButtonQuickReply  = "quick_reply"
	ButtonURL         = "url"
	ButtonPhoneNumber = "phone_number"
	ButtonCopyCode    = "copy_code"
)

// Template is a provider-approved message skeleton resolved by the campaign layer.
type Template struct {
	ElementName        string            `json:"elementName" bson:"element_name"`
	ProviderTemplateID string            `json:"providerTemplateId" bson:"provider_template_id"`
	LanguageCode       string            `json:"languageCode,omitempty" bson:"language_code,omitempty"`
	Placeholders       PlaceholderList   `json:"placeholders,omitempty" bson:"placeholders,omitempty"`
	TemplateVariables  map[string]string `json:"templateVariables,omitempty" bson:"template_variables,omitempty"`
	Content            TemplateContent   `json:"content" bson:"content"`
	Metadata           TemplateMetadata  `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// TemplateMetadata carries provider-side template attributes.
type TemplateMetadata struct {
	Languages []string `json:"languages,omitempty" bson:"languages,omitempty"`
}

// TemplateContent groups the structural parts of a template.
type TemplateContent struct {
	Body     *Body     `json:"body,omitempty" bson:"body,omitempty"`
	Header   *Header   `json:"header,omitempty" bson:"header,omitempty"`
	Buttons  []Button  `json:"buttons,omitempty" bson:"buttons,omitempty"`
	Carousel *Carousel `json:"carousel,omitempty" bson:"carousel,omitempty"`
}

// Body is the main template text with {{n}} slots.
type Body struct {
	Text string `json:"text" bson:"text"`
}

// Header is the optional template header (text or media).
type Header struct {
	Type     string `json:"type" bson:"type"`
	Text     string `json:"text,omitempty" bson:"text,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty" bson:"media_url,omitempty"`
	Filename string `json:"filename,omitempty" bson:"filename,omitempty"`
}

// Button is a template call-to-action or quick reply.
type Button struct {
	Type    string `json:"type" bson:"type"`
	Text    string `json:"text" bson:"text"`
	Payload string `json:"payload,omitempty" bson:"payload,omitempty"`
	URL     string `json:"url,omitempty" bson:"url,omitempty"`
}

// Carousel holds the cards of a carousel template.
type Carousel struct {
	Cards []Card `json:"cards" bson:"cards"`
}

// Card is a single carousel card.
type Card struct {
	Header       *CardHeader     `json:"header,omitempty" bson:"header,omitempty"`
	Placeholders PlaceholderList `json:"placeholders,omitempty" bson:"placeholders,omitempty"`
	Buttons      []Button        `json:"buttons,omitempty" bson:"buttons,omitempty"`
}

// CardHeader points at the media shown on a carousel card.
type CardHeader struct {
	Type    string `json:"type" bson:"type"`
	URL     string `json:"url,omitempty" bson:"url,omitempty"`
	MediaID string `json:"mediaId,omitempty" bson:"media_id,omitempty"`
}

// Placeholder is a named, indexed slot substituted per recipient.
type Placeholder struct {
	Name  string `json:"name" bson:"name"`
	Index int    `json:"index" bson:"index"`
}

// PlaceholderList decodes either bare names or {name, index} objects. Entries
// without an explicit index take their position in the list.
type PlaceholderList []Placeholder

// UnmarshalJSON implements json.Unmarshaler.
func (l *PlaceholderList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode placeholders: %w", err)
	}

	out := make(PlaceholderList, 0, len(raw))
	for pos, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			out = append(out, Placeholder{Name: name, Index: pos})
			continue
		}

		var obj struct {
			Name  string `json:"name"`
			Index *int   `json:"index"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("decode placeholder %d: %w", pos, err)
		}
		p := Placeholder{Name: obj.Name, Index: pos}
		if obj.Index != nil {
			p.Index = *obj.Index
		}
		out = append(out, p)
	}

	*l = out
	return nil
}

// Kind classifies the template once so content building dispatches on a closed set.
// Non-empty carousel cards always win over header and body.
func (t *Template) Kind() TemplateKind {
	if t == nil {
		return KindUnsupported
	}

	c := t.Content
	if c.Carousel != nil && len(c.Carousel.Cards) > 0 {
		return KindCarousel
	}

	if c.Header != nil {
		switch strings.ToLower(c.Header.Type) {
		case HeaderText, HeaderImage, HeaderVideo, HeaderDocument:
			return KindMedia
		}
	}

	if c.Body != nil && c.Body.Text != "" {
		return KindText
	}

	return KindUnsupported
}
