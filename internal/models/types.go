// Package models defines the data models used in the application.
package models

import "time"

// ClaimStatus represents the review status of an insurance claim.
type ClaimStatus string

// Possible values for ClaimStatus
const (
	StatusPending   ClaimStatus = "Pending"
	StatusApproved  ClaimStatus = "Approved"
	StatusRejected  ClaimStatus = "Rejected"
	StatusCompleted ClaimStatus = "Completed"
)

// Statuses lists every accepted ClaimStatus in declaration order.
var Statuses = []ClaimStatus{StatusPending, StatusApproved, StatusRejected, StatusCompleted}

// Valid reports whether s is one of the declared statuses.
func (s ClaimStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Claim represents a vehicle damage claim raised against a policy.
type Claim struct {
	ID                 string      `json:"id" dynamodbav:"id"`
	CompanyReference   string      `json:"companyReference" dynamodbav:"company_reference"`
	PolicyNumber       string      `json:"policyNumber" dynamodbav:"policy_number"`
	IncidentDate       time.Time   `json:"incidentDate" dynamodbav:"incident_date"`
	DamageToVehicle    string      `json:"damageToVehicle" dynamodbav:"damage_to_vehicle"`
	RegistrationNumber string      `json:"registrationNumber" dynamodbav:"registration_number"`
	Status             ClaimStatus `json:"status" dynamodbav:"status"`
	CreatedAt          time.Time   `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt          time.Time   `json:"updatedAt" dynamodbav:"updated_at"`

	// Version is the optimistic lock counter; it starts at 1 and is bumped on every update.
	Version int64 `json:"-" dynamodbav:"version"`
}
