package dto

// swagger:model dto.CheckoutResponse
type CheckoutResponse struct {
	PagoID       int    `json:"pago_id" example:"31"`
	PreferenceID string `json:"preference_id" example:"123456-abcd"`
	InitPoint    string `json:"init_point" example:"https://www.mercadopago.cl/checkout/v1/redirect?pref_id=..."`
}

// WebhookNotification 金流通知內容
// swagger:model dto.WebhookNotification
type WebhookNotification struct {
	Type   string `json:"type" example:"payment"`
	Action string `json:"action" example:"payment.updated"`
	Data   struct {
		ID string `json:"id" example:"1234567890"`
	} `json:"data"`
}
