package models

import (
	"time"
)

// Agency is the tenant root.
type Agency struct {
	ID               string    `json:"id"`
	ConnectAccountID string    `json:"connect_account_id"`
	CustomerID       string    `json:"customer_id"`
	Name             string    `json:"name"`
	AgencyLogo       string    `json:"agency_logo"`
	CompanyEmail     string    `json:"company_email"`
	CompanyPhone     string    `json:"company_phone"`
	WhiteLabel       bool      `json:"white_label"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	ZipCode          string    `json:"zip_code"`
	State            string    `json:"state"`
	Country          string    `json:"country"`
	Goal             int       `json:"goal"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SubAccount is a child tenant scope under an Agency.
type SubAccount struct {
	ID               string    `json:"id"`
	AgencyID         string    `json:"agency_id"`
	ConnectAccountID string    `json:"connect_account_id"`
	Name             string    `json:"name"`
	SubAccountLogo   string    `json:"subaccount_logo"`
	CompanyEmail     string    `json:"company_email"`
	CompanyPhone     string    `json:"company_phone"`
	Goal             int       `json:"goal"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	ZipCode          string    `json:"zip_code"`
	State            string    `json:"state"`
	Country          string    `json:"country"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SidebarOption is a navigation entry owned by an agency or a sub-account.
type SidebarOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	Link string `json:"link"`
}

// SubAccountDetails is a sub-account with its sidebar options.
type SubAccountDetails struct {
	SubAccount
	SidebarOptions []SidebarOption `json:"sidebar_options"`
}

// AgencyDetails is an agency with its sidebar options and sub-accounts.
type AgencyDetails struct {
	Agency
	SidebarOptions []SidebarOption      `json:"sidebar_options"`
	SubAccounts    []SubAccountDetails `json:"subaccounts"`
}
