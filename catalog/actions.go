package catalog

// Variant is the visual weight the UI should give an action button.
type Variant string

const (
	VariantPrimary   Variant = "primary"
	VariantSecondary Variant = "secondary"
	VariantDanger    Variant = "danger"
)

// Action names, stable across locales. The UI label comes from the
// presentation table in labels.go.
const (
	ActionReject    = "reject"
	ActionAccept    = "accept"
	ActionPrint     = "print"
	ActionBeginPrep = "begin_preparation"
	ActionMarkReady = "mark_ready"
	ActionDispatch  = "dispatch"
	ActionCollected = "customer_collected"
	ActionReceived  = "customer_received"
	ActionFinalize  = "finalize"
)

// Action is one workflow step the UI may offer for an order. Target is empty
// for actions that change nothing (print). Permission is an opaque key the
// caller checks against its own role provider; empty means unrestricted.
type Action struct {
	Name       string      `json:"name"`
	Label      string      `json:"label"`
	Target     OrderStatus `json:"target_status,omitempty"`
	Variant    Variant     `json:"variant"`
	Permission string      `json:"permission,omitempty"`
}

const (
	PermReject = "orders.reject"
	PermAccept = "orders.accept"
)

func action(name string, target OrderStatus, variant Variant, perm string) Action {
	return Action{
		Name:       name,
		Label:      actionLabels[name],
		Target:     target,
		Variant:    variant,
		Permission: perm,
	}
}

func reject() Action {
	return action(ActionReject, StatusCancelled, VariantDanger, PermReject)
}

func printTicket() Action {
	return action(ActionPrint, "", VariantSecondary, "")
}

// LegalActions returns the ordered action list for a (status, orderType)
// pair. Unknown statuses yield an empty list, never a panic: the caller
// renders nothing.
func LegalActions(status OrderStatus, orderType OrderType) []Action {
	switch status {
	case StatusNew:
		return []Action{
			reject(),
			action(ActionAccept, StatusAccepted, VariantPrimary, PermAccept),
		}
	case StatusAccepted:
		return []Action{
			reject(),
			printTicket(),
			action(ActionBeginPrep, StatusPreparing, VariantPrimary, ""),
		}
	case StatusPreparing:
		return []Action{
			reject(),
			printTicket(),
			action(ActionMarkReady, StatusReady, VariantPrimary, ""),
		}
	case StatusReady:
		// Delivery orders go out the door; pickup and table orders wait for
		// the customer. The branch is on the canonical type, never a label.
		if orderType == TypeDelivery {
			return []Action{
				printTicket(),
				action(ActionDispatch, StatusOutForDelivery, VariantPrimary, ""),
			}
		}
		return []Action{
			printTicket(),
			action(ActionCollected, StatusCollected, VariantPrimary, ""),
		}
	case StatusOutForDelivery:
		return []Action{
			printTicket(),
			action(ActionReceived, StatusCollected, VariantPrimary, ""),
		}
	case StatusCollected:
		return []Action{
			printTicket(),
			action(ActionFinalize, StatusDone, VariantPrimary, ""),
		}
	case StatusDone:
		return []Action{
			action(ActionPrint, "", VariantPrimary, ""),
		}
	default:
		// CANCELLED and anything unrecognized: nothing to offer.
		return nil
	}
}

// BadgeText returns the display badge for a status. ok is false for unknown
// statuses so callers can render nothing instead of a raw enum value.
func BadgeText(status OrderStatus) (string, bool) {
	label, ok := statusLabels[status]
	return label, ok
}
