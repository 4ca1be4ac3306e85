package broadcast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

const buttonKeyPrefix = "button_"

// ResolvePlaceholders builds the per-recipient value set for a template. Every
// body placeholder gets a value, empty when no strategy matches. Button overrides
// and carousel card values are copied from the recipient's runtime values when present.
func ResolvePlaceholders(tpl *models.Template, r models.Recipient) models.PlaceholderValues {
	values := make(models.PlaceholderValues, len(tpl.Placeholders))

	for _, p := range tpl.Placeholders {
		values[indexKey(p.Index)] = resolveOne(tpl.TemplateVariables, p, r)
	}

	for key := range r.PlaceholderValues {
		if !strings.HasPrefix(key, buttonKeyPrefix) {
			continue
		}
		if v, ok := r.PlaceholderValue(key); ok {
			values[key] = v
		}
	}

	if tpl.Content.Carousel != nil {
		for c, card := range tpl.Content.Carousel.Cards {
			for _, p := range card.Placeholders {
				key := CardKey(c, p.Index)
				if v, ok := r.PlaceholderValue(key); ok {
					values[key] = v
				}
			}
		}
	}

	return values
}

// resolveOne applies the lookup chain for a single placeholder; first match wins.
func resolveOne(mapping map[string]string, p models.Placeholder, r models.Recipient) string {
	idx := indexKey(p.Index)

	if mapping != nil {
		if field, ok := mapping[p.Name]; ok {
			if v, ok := r.Field(field); ok {
				return v
			}
		}
	}
	if v, ok := r.Field(p.Name); ok {
		return v
	}
	if v, ok := r.Field(idx); ok {
		return v
	}
	if v, ok := r.PlaceholderValue(idx); ok {
		return v
	}
	if v, ok := r.PlaceholderValue(p.Name); ok {
		return v
	}
	return ""
}

// CardKey is the synthetic lookup key of a carousel card placeholder.
func CardKey(card, placeholder int) string {
	return fmt.Sprintf("card_%d_%d", card, placeholder)
}

// ButtonKey is the runtime override key of a button payload.
func ButtonKey(index int) string {
	return buttonKeyPrefix + strconv.Itoa(index)
}

func indexKey(i int) string {
	return strconv.Itoa(i)
}
