package sheets

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

const placeholderColumnPrefix = "placeholder:"

// ParseRecipients maps sheet rows to recipients using the first row as header.
// Known columns fill the contact fields, "placeholder:<key>" columns fill the
// runtime values and every other column lands in metadata. Rows without any
// cell are skipped; rows without a phone are kept so they are counted as
// failures downstream.
func ParseRecipients(rows [][]interface{}) []models.Recipient {
	if len(rows) < 2 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cellString(cell))
	}

	recipients := make([]models.Recipient, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		var r models.Recipient
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			value := strings.TrimSpace(cellString(cell))
			if value == "" {
				continue
			}
			assign(&r, header[i], value)
		}
		recipients = append(recipients, r)
	}

	return recipients
}

func assign(r *models.Recipient, column, value string) {
	if key, ok := strings.CutPrefix(column, placeholderColumnPrefix); ok && key != "" {
		if r.PlaceholderValues == nil {
			r.PlaceholderValues = map[string]any{}
		}
		r.PlaceholderValues[key] = value
		return
	}

	switch strings.ToLower(strings.NewReplacer("_", "", " ", "").Replace(column)) {
	case "phone", "phonenumber", "msisdn":
		r.Phone = value
	case "countrycode":
		r.CountryCode = value
	case "firstname":
		r.FirstName = value
	case "lastname":
		r.LastName = value
	case "email":
		r.Email = value
	default:
		if r.Metadata == nil {
			r.Metadata = map[string]any{}
		}
		r.Metadata[column] = value
	}
}

func isBlank(row []interface{}) bool {
	for _, cell := range row {
		if strings.TrimSpace(cellString(cell)) != "" {
			return false
		}
	}
	return true
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
