package models

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRevoked  InvitationStatus = "REVOKED"
)

// Invitation offers an email a role in an agency. At most one PENDING per email.
type Invitation struct {
	ID       string           `json:"id"`
	Email    string           `json:"email"`
	AgencyID string           `json:"agency_id"`
	Role     Role             `json:"role"`
	Status   InvitationStatus `json:"status"`
}
