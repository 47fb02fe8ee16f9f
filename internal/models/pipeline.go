package models

import (
	"time"
)

// Pipeline groups lanes of tickets for a sub-account.
type Pipeline struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SubAccountID string    `json:"subaccount_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Lane is an ordered column of a pipeline.
type Lane struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PipelineID string `json:"pipeline_id"`
	Order      int    `json:"order"`
}

// Tag labels tickets within a sub-account.
type Tag struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	SubAccountID string `json:"subaccount_id"`
}

// Contact is a sub-account customer.
type Contact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	SubAccountID string `json:"subaccount_id"`
}

// Ticket is a card in a lane.
type Ticket struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	LaneID         string    `json:"lane_id"`
	Order          int       `json:"order"`
	Value          *float64  `json:"value,omitempty"`
	Description    string    `json:"description"`
	CustomerID     *string   `json:"customer_id,omitempty"`
	AssignedUserID *string   `json:"assigned_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TicketDetails is a ticket with its tags, assignee, customer and (optionally) lane.
type TicketDetails struct {
	Ticket
	Tags     []Tag    `json:"tags"`
	Assigned *User    `json:"assigned,omitempty"`
	Customer *Contact `json:"customer,omitempty"`
	Lane     *Lane    `json:"lane,omitempty"`
}
