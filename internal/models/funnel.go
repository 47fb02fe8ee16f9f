package models

import (
	"time"
)

// Funnel is a published site for a sub-account, addressable by sub-domain.
type Funnel struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Published     bool      `json:"published"`
	SubDomainName *string   `json:"subdomain_name,omitempty"`
	Favicon       string    `json:"favicon"`
	SubAccountID  string    `json:"subaccount_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FunnelPage is a page of a funnel.
type FunnelPage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PathName   string `json:"path_name"`
	Order      int    `json:"order"`
	Content    string `json:"content,omitempty"`
	FunnelID   string `json:"funnel_id"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// FunnelWithPages is a funnel with its pages.
type FunnelWithPages struct {
	Funnel
	Pages []FunnelPage `json:"pages"`
}

// Media is an uploaded file owned by a sub-account.
type Media struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Name         string    `json:"name"`
	Link         string    `json:"link"`
	ObjectKey    string    `json:"-"`
	SubAccountID string    `json:"subaccount_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubAccountMedia is a sub-account with its media files.
type SubAccountMedia struct {
	SubAccount
	Media []Media `json:"media"`
}
