package broadcast

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

const defaultLanguage = "en"

// BuildContent renders the provider content object for one recipient's values.
func BuildContent(tpl *models.Template, kind models.TemplateKind, values models.PlaceholderValues) (*models.Content, error) {
	switch kind {
	case models.KindCarousel:
		return buildCarousel(tpl, values), nil
	case models.KindMedia:
		return buildMedia(tpl, values), nil
	case models.KindText:
		return buildText(tpl, values), nil
	default:
		return nil, &UnsupportedTemplateError{Name: tpl.ElementName}
	}
}

// ResolveLanguage picks the template language: explicit code, then the first
// declared language, then "en".
func ResolveLanguage(tpl *models.Template) string {
	if tpl.LanguageCode != "" {
		return tpl.LanguageCode
	}
	if len(tpl.Metadata.Languages) > 0 && tpl.Metadata.Languages[0] != "" {
		return tpl.Metadata.Languages[0]
	}
	return defaultLanguage
}

func buildText(tpl *models.Template, values models.PlaceholderValues) *models.Content {
	return &models.Content{
		Type: models.ContentTypeTemplate,
		Template: &models.TextTemplate{
			TemplateID:      tpl.ProviderTemplateID,
			ParameterValues: bodyValues(tpl.Placeholders, values),
			Language:        ResolveLanguage(tpl),
		},
	}
}

func buildMedia(tpl *models.Template, values models.PlaceholderValues) *models.Content {
	mt := &models.MediaTemplate{
		TemplateID:          tpl.ProviderTemplateID,
		BodyParameterValues: bodyValues(tpl.Placeholders, values),
		Language:            ResolveLanguage(tpl),
		Media:               headerMedia(tpl.Content.Header),
		Buttons:             EncodeButtons(tpl.Content.Buttons, values),
	}

	return &models.Content{
		Type:          models.ContentTypeMediaTemplate,
		PreviewURL:    true,
		ShortenURL:    true,
		MediaTemplate: mt,
	}
}

func headerMedia(h *models.Header) *models.Media {
	if h == nil {
		return nil
	}

	typ := strings.ToLower(h.Type)
	if typ == models.HeaderText {
		// text headers travel as a title, not as a media object
		return &models.Media{Title: h.Text}
	}

	m := &models.Media{Type: typ, URL: h.MediaURL}
	if typ == models.HeaderDocument {
		m.FileName = h.Filename
	}
	return m
}

func buildCarousel(tpl *models.Template, values models.PlaceholderValues) *models.Content {
	cards := tpl.Content.Carousel.Cards
	out := make([]models.CarouselCard, 0, len(cards))

	for c, card := range cards {
		params := make(map[string]string, len(card.Placeholders))
		for _, p := range card.Placeholders {
			if v, ok := values[CardKey(c, p.Index)]; ok {
				params[indexKey(p.Index)] = v
			}
		}

		rendered := models.CarouselCard{
			CardIndex:           c,
			BodyParameterValues: params,
			Buttons:             EncodeButtons(card.Buttons, values),
		}
		if card.Header != nil {
			media := &models.Media{Type: strings.ToLower(card.Header.Type)}
			if card.Header.URL != "" {
				media.URL = card.Header.URL
			} else {
				media.MediaID = card.Header.MediaID
			}
			rendered.Media = media
		}
		out = append(out, rendered)
	}

	return &models.Content{
		Type:       models.ContentTypeCarouselTemplate,
		PreviewURL: true,
		ShortenURL: true,
		CarouselTemplate: &models.CarouselTemplate{
			TemplateID:          tpl.ProviderTemplateID,
			BodyParameterValues: bodyValues(tpl.Placeholders, values),
			Language:            ResolveLanguage(tpl),
			Cards:               out,
		},
	}
}

// bodyValues projects the body placeholders out of the full value set,
// defaulting to empty strings.
func bodyValues(placeholders models.PlaceholderList, values models.PlaceholderValues) map[string]string {
	out := make(map[string]string, len(placeholders))
	for _, p := range placeholders {
		key := indexKey(p.Index)
		out[key] = values[key]
	}
	return out
}

// EncodeButtons splits template buttons into quick replies and actions. It
// returns nil when no button survives.
func EncodeButtons(buttons []models.Button, values models.PlaceholderValues) *models.Buttons {
	if len(buttons) == 0 {
		return nil
	}

	var out models.Buttons
	for i, b := range buttons {
		typ := strings.ToLower(b.Type)
		idx := strconv.Itoa(i)

		switch typ {
		case models.ButtonQuickReply:
			out.QuickReplies = append(out.QuickReplies, models.QuickReply{
				Index:   idx,
				Payload: buttonPayload(i, b, values, true),
			})
		case models.ButtonURL, models.ButtonPhoneNumber, models.ButtonCopyCode:
			out.Actions = append(out.Actions, models.Action{
				Type:    typ,
				Index:   idx,
				Payload: buttonPayload(i, b, values, false),
			})
		}
	}

	if len(out.QuickReplies) == 0 && len(out.Actions) == 0 {
		return nil
	}
	return &out
}

func buttonPayload(i int, b models.Button, values models.PlaceholderValues, quickReply bool) string {
	if v := values[ButtonKey(i)]; v != "" {
		return v
	}
	if b.Payload != "" {
		return b.Payload
	}
	if !quickReply {
		return ""
	}

	data, err := json.Marshal(struct {
		Index string `json:"index"`
		Label string `json:"label"`
	}{Index: strconv.Itoa(i), Label: b.Text})
	if err != nil {
		return ""
	}
	return string(data)
}
