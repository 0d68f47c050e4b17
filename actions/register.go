package actions

import (
	"github.com/goliatone/go-messaging-core/core"
)

const (
	CategoryCalls       = "calls"
	CategorySettlements = "settlements"
	CategoryMessages    = "messages"
	CategoryQueries     = "queries"
)

// RegisterActions installs the reference action set. Call it once at startup;
// the registry rejects duplicate names, so a second call fails loudly.
func RegisterActions(registry core.Registry) error {
	descriptors := []core.ActionDescriptor{
		{
			Name:        "initiate_call",
			Category:    CategoryCalls,
			Description: "Create a call entity in its initiated state",
			Handler:     initiateCall,
		},
		{
			Name:        "update_call_status",
			Category:    CategoryCalls,
			Description: "Advance a call through its lifecycle",
			Handler:     updateCallStatus,
		},
		{
			Name:        "create_payment",
			Category:    CategorySettlements,
			Description: "Create a payment entity in its pending state",
			Handler:     createPayment,
		},
		{
			Name:        "update_payment_status",
			Category:    CategorySettlements,
			Description: "Advance a payment and emit its completion notice",
			Handler:     updatePaymentStatus,
		},
		{
			Name:        "create_refund",
			Category:    CategorySettlements,
			Description: "Create a refund entity in its pending state",
			Handler:     createRefund,
		},
		{
			Name:        "update_refund_status",
			Category:    CategorySettlements,
			Description: "Advance a refund and emit its completion notice",
			Handler:     updateRefundStatus,
		},
		{
			Name:        "send_message",
			Category:    CategoryMessages,
			Description: "Send an outbound message and track its delivery",
			Handler:     sendMessage,
		},
		{
			Name:        "get_entity_status",
			Category:    CategoryQueries,
			Description: "Read an entity with its full status history",
			Handler:     getEntityStatus,
		},
		{
			Name:        "get_delivery_stats",
			Category:    CategoryQueries,
			Description: "Aggregate delivery rates and channel quality",
			Handler:     getDeliveryStats,
		},
	}

	for _, descriptor := range descriptors {
		if err := registry.Register(descriptor); err != nil {
			return err
		}
	}
	return nil
}
