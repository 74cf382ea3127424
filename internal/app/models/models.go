package models

// RoleType defines the portal role of a staff member
type RoleType string

const (
	RoleEmployee RoleType = "EMPLOYEE"
	RoleHubLead  RoleType = "HUB_LEAD"
	RoleAdmin    RoleType = "ADMIN"
)
