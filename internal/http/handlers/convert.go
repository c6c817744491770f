package handlers

import (
	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/offer"
)

func orderToResponse(o domain.Order) orderDTO {
	dto := orderDTO{
		ID:               o.ID,
		GroupID:          o.GroupID,
		Status:           string(o.Status),
		AssignmentStatus: string(o.AssignmentStatus),
		OfferedTo:        courierIDPtr(o.OfferedTo),
		AssignedCourier:  courierIDPtr(o.AssignedCourier),
		CreatedAt:        o.CreatedAt,
	}
	if o.Origin != nil {
		dto.Origin = &locationDTO{Latitude: o.Origin.Latitude, Longitude: o.Origin.Longitude}
	}
	return dto
}

func ordersToResponse(list []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, orderToResponse(o))
	}
	return out
}

func roundToResponse(r dispatch.Round) roundResponse {
	recipients := make([]string, 0, len(r.Recipients))
	for _, id := range r.Recipients {
		recipients = append(recipients, string(id))
	}
	ids := r.OrderIDs
	if ids == nil {
		ids = []string{}
	}
	return roundResponse{
		GroupID:    r.GroupKey,
		OrderIDs:   ids,
		Outcome:    string(r.Outcome),
		Recipients: recipients,
	}
}

func acceptToResponse(res dispatch.AcceptResult) acceptResponse {
	return acceptResponse{
		CourierID:      string(res.CourierID),
		AssignedOrders: ordersToResponse(res.Orders),
	}
}

func releaseToResponse(status string, rel offer.Release) closeResponse {
	ids := make([]string, 0, len(rel.Orders))
	for _, o := range rel.Orders {
		ids = append(ids, o.ID)
	}
	return closeResponse{
		Status:          status,
		OrderIDs:        ids,
		ReleasedCourier: courierIDPtr(rel.Courier),
	}
}

func sweepToResponse(s dispatch.SweepStats) sweepResponse {
	return sweepResponse{
		Status:        "online",
		Expired:       s.Expired,
		Groups:        s.Groups,
		Opened:        s.Opened,
		Pinned:        s.Pinned,
		Unfulfillable: s.Unfulfillable,
		Skipped:       s.Skipped,
		Failed:        s.Failed,
	}
}

func courierIDPtr(id *domain.CourierID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
