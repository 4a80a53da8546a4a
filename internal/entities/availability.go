package entities

import "time"

type VehicleAvailability struct {
	VehicleID          string    `json:"vehicleId"`
	RequestedStartDate time.Time `json:"requestedStartDate"`
	RequestedEndDate   time.Time `json:"requestedEndDate"`
	Available          bool      `json:"available"`
	TotalDays          int       `json:"totalDays"`
	EstimatedAmount    int64     `json:"estimatedAmount"`
	Currency           string    `json:"currency"`
}
