package dto

// Transition targets accepted by the generic endpoint.
const (
	TransitionEntityRepair     = "repair"
	TransitionEntityEnrollment = "enrollment"
	TransitionEntityPayment    = "payment"

	TransitionFieldStatus        = "status"
	TransitionFieldPaymentStatus = "payment_status"
)

// StatusTransitionRequest moves one record to a new status. Field selects the
// enrollment payment status when set to payment_status.
type StatusTransitionRequest struct {
	Entity string `json:"entity" validate:"required,oneof=repair enrollment payment"`
	ID     string `json:"id" validate:"required"`
	Field  string `json:"field" validate:"omitempty,oneof=status payment_status"`
	Status string `json:"status"`
}
