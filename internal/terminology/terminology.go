// Package terminology maps a tenant's business type to the vocabulary
// its portal uses, so a tutoring business books "sessions" for
// "students" while a salon books "appointments" for "clients".
package terminology

import "github.com/craftday/craftday-api/internal/models"

type Vocabulary struct {
	AppointmentNoun string `json:"appointment_noun"`
	CustomerNoun    string `json:"customer_noun"`
	ServiceNoun     string `json:"service_noun"`
	BookVerb        string `json:"book_verb"`
}

var vocabularies = map[models.BusinessType]Vocabulary{
	models.BusinessTypeSalon: {
		AppointmentNoun: "appointment",
		CustomerNoun:    "client",
		ServiceNoun:     "service",
		BookVerb:        "book",
	},
	models.BusinessTypeTutoring: {
		AppointmentNoun: "session",
		CustomerNoun:    "student",
		ServiceNoun:     "subject",
		BookVerb:        "schedule",
	},
	models.BusinessTypeCleaning: {
		AppointmentNoun: "visit",
		CustomerNoun:    "customer",
		ServiceNoun:     "service",
		BookVerb:        "schedule",
	},
	models.BusinessTypeTrades: {
		AppointmentNoun: "job",
		CustomerNoun:    "customer",
		ServiceNoun:     "service",
		BookVerb:        "request",
	},
}

var defaultVocabulary = Vocabulary{
	AppointmentNoun: "appointment",
	CustomerNoun:    "customer",
	ServiceNoun:     "service",
	BookVerb:        "book",
}

// ForBusinessType resolves the vocabulary for a business type, falling
// back to the general wording for unknown types.
func ForBusinessType(bt models.BusinessType) Vocabulary {
	if v, ok := vocabularies[bt]; ok {
		return v
	}
	return defaultVocabulary
}
