package broadcast

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

func TestBuildContentCarouselWins(t *testing.T) {
	tpl := &models.Template{
		ElementName:        "spring_cards",
		ProviderTemplateID: "tpl-carousel",
		Content: models.TemplateContent{
			Body:   &models.Body{Text: "Hello {{1}}"},
			Header: &models.Header{Type: "IMAGE", MediaURL: "https://cdn.example.com/a.png"},
			Carousel: &models.Carousel{Cards: []models.Card{
				{
					Header:       &models.CardHeader{Type: "IMAGE", URL: "https://cdn.example.com/1.png", MediaID: "ignored"},
					Placeholders: models.PlaceholderList{{Name: "price", Index: 1}},
					Buttons:      []models.Button{{Type: "url", Text: "Shop"}},
				},
				{
					Header: &models.CardHeader{Type: "video", MediaID: "media-2"},
				},
			}},
		},
	}

	kind := tpl.Kind()
	if kind != models.KindCarousel {
		t.Fatalf("kind = %s", kind)
	}

	values := models.PlaceholderValues{CardKey(0, 1): "9.99"}
	content, err := BuildContent(tpl, kind, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Type != models.ContentTypeCarouselTemplate || content.CarouselTemplate == nil || content.MediaTemplate != nil {
		t.Fatalf("expected carousel content, got %+v", content)
	}

	cards := content.CarouselTemplate.Cards
	if len(cards) != 2 {
		t.Fatalf("cards = %d", len(cards))
	}
	if cards[0].CardIndex != 0 || cards[0].BodyParameterValues["1"] != "9.99" {
		t.Fatalf("card 0 = %+v", cards[0])
	}
	if cards[0].Media.URL != "https://cdn.example.com/1.png" || cards[0].Media.MediaID != "" || cards[0].Media.Type != "image" {
		t.Fatalf("card 0 media = %+v", cards[0].Media)
	}
	if cards[0].Buttons == nil || len(cards[0].Buttons.Actions) != 1 || cards[0].Buttons.Actions[0].Payload != "" {
		t.Fatalf("card 0 buttons = %+v", cards[0].Buttons)
	}
	if cards[1].Media.MediaID != "media-2" || cards[1].Media.URL != "" {
		t.Fatalf("card 1 media = %+v", cards[1].Media)
	}
	if len(cards[1].BodyParameterValues) != 0 || cards[1].Buttons != nil {
		t.Fatalf("card 1 = %+v", cards[1])
	}
}

func TestBuildContentMediaDocument(t *testing.T) {
	tpl := &models.Template{
		ProviderTemplateID: "tpl-doc",
		Placeholders:       models.PlaceholderList{{Name: "name", Index: 1}},
		Metadata:           models.TemplateMetadata{Languages: []string{"fr"}},
		Content: models.TemplateContent{
			Body:   &models.Body{Text: "Invoice for {{1}}"},
			Header: &models.Header{Type: "DOCUMENT", MediaURL: "https://cdn.example.com/inv.pdf", Filename: "invoice.pdf"},
		},
	}

	content, err := BuildContent(tpl, tpl.Kind(), models.PlaceholderValues{"1": "Ava"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Type != models.ContentTypeMediaTemplate || !content.PreviewURL || !content.ShortenURL {
		t.Fatalf("unexpected envelope: %+v", content)
	}
	mt := content.MediaTemplate
	if mt.TemplateID != "tpl-doc" || mt.Language != "fr" || mt.BodyParameterValues["1"] != "Ava" {
		t.Fatalf("media template = %+v", mt)
	}
	if mt.Media.Type != "document" || mt.Media.URL != "https://cdn.example.com/inv.pdf" || mt.Media.FileName != "invoice.pdf" {
		t.Fatalf("media = %+v", mt.Media)
	}
	if mt.Buttons != nil {
		t.Fatalf("expected no buttons, got %+v", mt.Buttons)
	}
}

func TestBuildContentTextHeaderUsesTitle(t *testing.T) {
	tpl := &models.Template{
		Content: models.TemplateContent{
			Header: &models.Header{Type: "text", Text: "Big news"},
		},
	}

	content, err := BuildContent(tpl, tpl.Kind(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	media := content.MediaTemplate.Media
	if media.Title != "Big news" || media.URL != "" || media.Type != "" {
		t.Fatalf("media = %+v", media)
	}
	if content.MediaTemplate.Language != "en" {
		t.Fatalf("language = %q", content.MediaTemplate.Language)
	}
}

func TestBuildContentPlainText(t *testing.T) {
	tpl := &models.Template{
		ProviderTemplateID: "tpl-text",
		LanguageCode:       "es",
		Placeholders:       models.PlaceholderList{{Name: "name", Index: 0}},
		Content:            models.TemplateContent{Body: &models.Body{Text: "Hola {{1}}"}},
	}

	content, err := BuildContent(tpl, tpl.Kind(), models.PlaceholderValues{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Type != models.ContentTypeTemplate || content.Template == nil {
		t.Fatalf("content = %+v", content)
	}
	v, ok := content.Template.ParameterValues["0"]
	if !ok || v != "" {
		t.Fatalf("parameter 0 = %q present=%v", v, ok)
	}
	if content.Template.Language != "es" {
		t.Fatalf("language = %q", content.Template.Language)
	}
}

func TestBuildContentUnsupported(t *testing.T) {
	tpl := &models.Template{ElementName: "broken"}

	_, err := BuildContent(tpl, tpl.Kind(), nil)
	if !errors.Is(err, ErrUnsupportedTemplateType) {
		t.Fatalf("expected ErrUnsupportedTemplateType, got %v", err)
	}
	var uerr *UnsupportedTemplateError
	if !errors.As(err, &uerr) || uerr.Name != "broken" {
		t.Fatalf("expected template name in error, got %v", err)
	}
}

func TestEncodeButtonsQuickReplyFallback(t *testing.T) {
	buttons := []models.Button{
		{Type: "QUICK_REPLY", Text: "Yes please"},
		{Type: "quick_reply", Text: "No", Payload: "STATIC_NO"},
		{Type: "quick_reply", Text: "Later", Payload: "STATIC_LATER"},
		{Type: "phone_number", Text: "Call", Payload: "+15550000"},
		{Type: "copy_code", Text: "Copy"},
		{Type: "flow", Text: "ignored"},
	}
	values := models.PlaceholderValues{ButtonKey(2): "OVERRIDE"}

	got := EncodeButtons(buttons, values)
	if got == nil || len(got.QuickReplies) != 3 || len(got.Actions) != 2 {
		t.Fatalf("buttons = %+v", got)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(got.QuickReplies[0].Payload), &payload); err != nil {
		t.Fatalf("fallback payload is not JSON: %v", err)
	}
	if payload["index"] != "0" || payload["label"] != "Yes please" {
		t.Fatalf("fallback payload = %v", payload)
	}
	if got.QuickReplies[1].Payload != "STATIC_NO" || got.QuickReplies[1].Index != "1" {
		t.Fatalf("static payload = %+v", got.QuickReplies[1])
	}
	if got.QuickReplies[2].Payload != "OVERRIDE" {
		t.Fatalf("override payload = %+v", got.QuickReplies[2])
	}
	if got.Actions[0].Type != "phone_number" || got.Actions[0].Index != "3" || got.Actions[0].Payload != "+15550000" {
		t.Fatalf("phone action = %+v", got.Actions[0])
	}
	if got.Actions[1].Type != "copy_code" || got.Actions[1].Payload != "" {
		t.Fatalf("copy action = %+v", got.Actions[1])
	}
}

func TestEncodeButtonsOmitsEmpty(t *testing.T) {
	if got := EncodeButtons(nil, nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := EncodeButtons([]models.Button{{Type: "unknown"}}, nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}

	got := EncodeButtons([]models.Button{{Type: "url", Text: "Open", Payload: "/promo"}}, nil)
	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(data, &decoded)
	if _, ok := decoded["quickReplies"]; ok {
		t.Fatalf("empty quickReplies must be omitted: %s", data)
	}
}

func TestResolveLanguage(t *testing.T) {
	cases := []struct {
		tpl  models.Template
		want string
	}{
		{models.Template{LanguageCode: "pt_BR", Metadata: models.TemplateMetadata{Languages: []string{"fr"}}}, "pt_BR"},
		{models.Template{Metadata: models.TemplateMetadata{Languages: []string{"fr", "de"}}}, "fr"},
		{models.Template{}, "en"},
	}
	for _, tc := range cases {
		if got := ResolveLanguage(&tc.tpl); got != tc.want {
			t.Fatalf("ResolveLanguage = %q, want %q", got, tc.want)
		}
	}
}
