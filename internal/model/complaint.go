// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// complaintDetailBase is the public URL prefix for individual complaint records.
const complaintDetailBase = "https://www.consumerfinance.gov/data-research/consumer-complaints/search/detail/"

// Complaint represents a single consumer complaint record from any source.
type Complaint struct {
	DateReceived      time.Time `json:"date_received"`
	DateSentToCompany time.Time `json:"date_sent_to_company,omitempty"`
	ID                string    `json:"complaint_id"`
	Product           string    `json:"product"`
	Issue             string    `json:"issue,omitempty"`
	Company           string    `json:"company"`
	State             string    `json:"state,omitempty"`
	Narrative         string    `json:"narrative,omitempty"` // Free-text consumer narrative; may be empty
	CompanyResponse   string    `json:"company_response,omitempty"`
	TimelyResponse    string    `json:"timely_response,omitempty"`
}

// HasNarrative reports whether the complaint carries a non-empty narrative
// after trimming whitespace.
func (c *Complaint) HasNarrative() bool {
	return strings.TrimSpace(c.Narrative) != ""
}

// DetailURL returns the public detail page for this complaint.
func (c *Complaint) DetailURL() string {
	return complaintDetailBase + c.ID
}
