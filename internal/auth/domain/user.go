package domain

import "time"

// Account is owned by the account service; this subsystem only reads it by
// channel identity and creates minimal rows on auto-registration.
type Account struct {
	ID        string
	Email     string
	Phone     string
	Username  string
	Role      string
	Status    string
	Orgs      []OrgMembership
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrgMembership struct {
	OrgID   string
	OrgType string
	OrgRole string
}

// Identity returns the channel identity the account was resolved by,
// preferring email when both are present.
func (a *Account) Identity() string {
	if a.Email != "" {
		return a.Email
	}

	return a.Phone
}
