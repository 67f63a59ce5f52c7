package dto

import (
	contactdomain "rolodex-backend/internal/contact/domain"
)

type PersonsResponse struct {
	Persons []*contactdomain.Person `json:"persons"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
	Total   int64                   `json:"total"`
}

type PersonDetailResponse struct {
	Person       *contactdomain.Person        `json:"person"`
	Interactions []*contactdomain.Interaction `json:"interactions"`
}
