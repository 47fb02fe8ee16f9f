package models

import (
	"time"
)

// Role is a user's role within an agency.
type Role string

const (
	RoleAgencyOwner     Role = "AGENCY_OWNER"
	RoleAgencyAdmin     Role = "AGENCY_ADMIN"
	RoleSubAccountUser  Role = "SUBACCOUNT_USER"
	RoleSubAccountGuest Role = "SUBACCOUNT_GUEST"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAgencyOwner, RoleAgencyAdmin, RoleSubAccountUser, RoleSubAccountGuest:
		return true
	}
	return false
}

// IsAgencyRole reports whether r manages the agency itself.
func (r Role) IsAgencyRole() bool {
	return r == RoleAgencyOwner || r == RoleAgencyAdmin
}

// IsSubAccountRole reports whether r is scoped to sub-accounts.
func (r Role) IsSubAccountRole() bool {
	return r == RoleSubAccountUser || r == RoleSubAccountGuest
}

// OrDefault returns r, or SUBACCOUNT_USER when r is empty.
func (r Role) OrDefault() Role {
	if r == "" {
		return RoleSubAccountUser
	}
	return r
}

// User is the local record of an identity-provider user. ID is the provider's user id.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Role      Role      `json:"role"`
	AgencyID  *string   `json:"agency_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AgencyIDValue returns the agency id or "" when the user has none.
func (u *User) AgencyIDValue() string {
	if u == nil || u.AgencyID == nil {
		return ""
	}
	return *u.AgencyID
}

// Permission grants an email access to a sub-account.
type Permission struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	SubAccountID string      `json:"subaccount_id"`
	Access       bool        `json:"access"`
	SubAccount   *SubAccount `json:"subaccount,omitempty"`
}

// UserDetails is a user with its agency tree and permissions (GET /api/me).
type UserDetails struct {
	User
	Agency      *AgencyDetails `json:"agency,omitempty"`
	Permissions []Permission   `json:"permissions"`
}
