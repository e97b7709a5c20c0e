package catalog

// Presentation strings for the back-office UI (French). Kept out of all
// branching logic: the machine enums in types.go are the only discriminants.

var statusLabels = map[OrderStatus]string{
	StatusNew:            "Nouvelle",
	StatusAccepted:       "Acceptée",
	StatusPreparing:      "En préparation",
	StatusReady:          "Prête",
	StatusOutForDelivery: "En livraison",
	StatusCollected:      "Récupérée",
	StatusDone:           "Terminée",
	StatusCancelled:      "Annulée",
}

var typeLabels = map[OrderType]string{
	TypeDelivery: "À livrer",
	TypePickup:   "À emporter",
	TypeTable:    "Sur place",
}

var actionLabels = map[string]string{
	ActionReject:    "Rejeter",
	ActionAccept:    "Accepter",
	ActionPrint:     "Imprimer",
	ActionBeginPrep: "Lancer la préparation",
	ActionMarkReady: "Marquer prête",
	ActionDispatch:  "Envoyer en livraison",
	ActionCollected: "Client servi",
	ActionReceived:  "Client livré",
	ActionFinalize:  "Finaliser",
}

// TypeLabel returns the display label for an order type, or the raw value
// when the type is not recognized.
func TypeLabel(t OrderType) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}
