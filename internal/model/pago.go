package model

import "time"

const (
	PagoCurso = "curso"
	PagoCuota = "cuota"

	PagoPending   = "pending"
	PagoApproved  = "approved"
	PagoRejected  = "rejected"
	PagoCancelled = "cancelled"
)

type Pago struct {
	ID                int       `json:"id"`
	UserID            int       `json:"user_id"`
	Tipo              string    `json:"tipo"`
	ReferenciaID      int       `json:"referencia_id"`
	Monto             float64   `json:"monto"`
	Estado            string    `json:"estado"`
	PreferenceID      *string   `json:"preference_id,omitempty"`
	InitPoint         *string   `json:"init_point,omitempty"`
	ProviderPaymentID *string   `json:"provider_payment_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
