package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nutriadmin/internal/model"
)

const (
	DefaultBaseURL = "https://api.mercadopago.com"
	currencyID     = "ARS"
	requestTimeout = 15 * time.Second
)

// ErrDisabled 未設定金流存取權杖
var ErrDisabled = errors.New("payment gateway not configured")

type Item struct {
	Title     string
	Quantity  int
	UnitPrice float64
}

type PreferenceRequest struct {
	ExternalReference string
	Items             []Item
	PayerEmail        string
	BackURL           string
	NotificationURL   string
}

type Preference struct {
	ID        string
	InitPoint string
}

type Payment struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            float64
}

// Gateway 結帳偏好設定與付款查詢
type Gateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

// APIError 金流 API 非 2xx 回應
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment api error (%d): %s", e.Status, e.Body)
}

// MercadoPago Checkout Pro REST 客戶端
type MercadoPago struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewMercadoPago(accessToken, baseURL string) *MercadoPago {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &MercadoPago{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: requestTimeout},
	}
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferenceBody struct {
	Items             []preferenceItem  `json:"items"`
	ExternalReference string            `json:"external_reference"`
	Payer             map[string]string `json:"payer,omitempty"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
}

func (m *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	body := preferenceBody{
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
	}
	for _, it := range req.Items {
		body.Items = append(body.Items, preferenceItem{
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: currencyID,
		})
	}
	if req.PayerEmail != "" {
		body.Payer = map[string]string{"email": req.PayerEmail}
	}
	if req.BackURL != "" {
		body.BackURLs = map[string]string{
			"success": req.BackURL + "?estado=approved",
			"pending": req.BackURL + "?estado=pending",
			"failure": req.BackURL + "?estado=rejected",
		}
		body.AutoReturn = "approved"
	}

	var out struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := m.do(ctx, http.MethodPost, "/checkout/preferences", body, &out); err != nil {
		return nil, fmt.Errorf("CreatePreference: %w", err)
	}
	return &Preference{ID: out.ID, InitPoint: out.InitPoint}, nil
}

func (m *MercadoPago) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var out struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		ExternalReference string      `json:"external_reference"`
		TransactionAmount float64     `json:"transaction_amount"`
	}
	if err := m.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}
	return &Payment{
		ID:                out.ID.String(),
		Status:            out.Status,
		ExternalReference: out.ExternalReference,
		Amount:            out.TransactionAmount,
	}, nil
}

func (m *MercadoPago) do(ctx context.Context, method, path string, in, out any) error {
	if m.accessToken == "" {
		return ErrDisabled
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return json.Unmarshal(respBody, out)
}

// Disabled 未設定金流時使用，所有操作回傳 ErrDisabled
type Disabled struct{}

func (Disabled) CreatePreference(context.Context, PreferenceRequest) (*Preference, error) {
	return nil, ErrDisabled
}

func (Disabled) GetPayment(context.Context, string) (*Payment, error) {
	return nil, ErrDisabled
}

// MapStatus 將金流狀態轉為 pagos.estado
func MapStatus(providerStatus string) string {
	switch providerStatus {
	case "approved":
		return model.PagoApproved
	case "rejected":
		return model.PagoRejected
	case "cancelled", "refunded", "charged_back":
		return model.PagoCancelled
	}
	return model.PagoPending
}
