package dispatch

import (
	"fmt"
	"strings"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/notify"
)

func offerMessage(c domain.Courier, g domain.Group, pinned bool) notify.Message {
	ids := g.IDs()
	body := fmt.Sprintf("Order %s is waiting for pickup", ids[0])
	if len(ids) > 1 {
		body = fmt.Sprintf("%d orders from one checkout are waiting for pickup", len(ids))
	}
	mode := "broadcast"
	if pinned {
		mode = "pin"
	}
	return notify.NewMessage(c, "New delivery request", body, map[string]string{
		"type":     notify.TypeOrderOffer,
		"mode":     mode,
		"orderId":  ids[0],
		"orderIds": strings.Join(ids, ","),
		"groupId":  g.Key,
	})
}

func assignedMessage(c domain.Courier, res AcceptResult, key string) notify.Message {
	ids := make([]string, 0, len(res.Orders))
	for _, o := range res.Orders {
		ids = append(ids, o.ID)
	}
	return notify.NewMessage(c, "Order assigned", "You have accepted the delivery", map[string]string{
		"type":     notify.TypeOrderAssigned,
		"orderIds": strings.Join(ids, ","),
		"groupId":  key,
	})
}

func expiredMessage(c domain.Courier, g domain.Group) notify.Message {
	return notify.NewMessage(c, "Offer expired", "The delivery request was passed to another courier", map[string]string{
		"type":    notify.TypeOfferExpired,
		"groupId": g.Key,
	})
}
