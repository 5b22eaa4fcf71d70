package lifecycle

// Order lifecycle states.
const (
	StatusPendingPayment = "pending_payment"
	StatusPaid           = "paid"
	StatusProcessing     = "processing"
	StatusDelivered      = "delivered"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
)

// transitions lists the forward edges of the lifecycle graph. failed -> paid
// is the operator-only retry reset and must not be reachable from webhook
// reconciliation; callers gate it with the operator flag of CanTransition.
var transitions = map[string][]string{
	StatusPendingPayment: {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:           {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing:     {StatusDelivered, StatusFailed, StatusCancelled},
	StatusFailed:         {StatusPaid},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

func Valid(status string) bool {
	_, ok := transitions[status]
	return ok
}

// Terminal reports whether no event may ever move the order again.
// failed is deliberately excluded: it is terminal for webhooks but an
// operator may reset it to paid.
func Terminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// CanTransition reports whether from -> to is a legal move. The operator
// flag unlocks the failed -> paid reset; without it a failed order only
// stays failed.
func CanTransition(from, to string, operator bool) bool {
	if from == to {
		return false
	}
	if !operator && from == StatusFailed {
		return false
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
