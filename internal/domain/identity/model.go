package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Only active patients are offered in
// appointment forms and filters.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FirstName   *string    `db:"first_name" json:"first_name,omitempty"`
	LastName    *string    `db:"last_name" json:"last_name,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Pronoun     *string    `db:"pronoun" json:"pronoun,omitempty"`
	BirthDate   *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CareLevel   *int16     `db:"care_level" json:"care_level,omitempty"`
	Active      bool       `db:"active" json:"active"`
	ActiveSince *time.Time `db:"active_since" json:"active_since,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// FullName joins first and last name, skipping missing parts.
func (p *Patient) FullName() string {
	parts := make([]string, 0, 2)
	if p.FirstName != nil && *p.FirstName != "" {
		parts = append(parts, *p.FirstName)
	}
	if p.LastName != nil && *p.LastName != "" {
		parts = append(parts, *p.LastName)
	}
	return strings.Join(parts, " ")
}
