package handlers

import "time"

type courierRequest struct {
	CourierID string `json:"courier_id"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type locationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type orderDTO struct {
	ID               string       `json:"id"`
	GroupID          *string      `json:"group_id,omitempty"`
	Origin           *locationDTO `json:"origin,omitempty"`
	Status           string       `json:"status"`
	AssignmentStatus string       `json:"assignment_status"`
	OfferedTo        *string      `json:"offered_to,omitempty"`
	AssignedCourier  *string      `json:"assigned_courier,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

type roundResponse struct {
	GroupID    string   `json:"group_id"`
	OrderIDs   []string `json:"order_ids"`
	Outcome    string   `json:"outcome"`
	Recipients []string `json:"recipients"`
}

type acceptResponse struct {
	CourierID      string     `json:"courier_id"`
	AssignedOrders []orderDTO `json:"assigned_orders"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type closeResponse struct {
	Status          string   `json:"status"`
	OrderIDs        []string `json:"order_ids"`
	ReleasedCourier *string  `json:"released_courier,omitempty"`
}

type sweepResponse struct {
	Status        string `json:"status"`
	Expired       int    `json:"expired"`
	Groups        int    `json:"groups"`
	Opened        int    `json:"opened"`
	Pinned        int    `json:"pinned"`
	Unfulfillable int    `json:"unfulfillable"`
	Skipped       int    `json:"skipped"`
	Failed        int    `json:"failed"`
}

type onlineDurationResponse struct {
	CourierID string `json:"courier_id"`
	Day       string `json:"day"`
	Seconds   int64  `json:"seconds"`
}
