package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutriadmin/internal/model"

	"github.com/stretchr/testify/require"
)

func TestCreatePreference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "15", body["external_reference"])
		require.Equal(t, "https://api.example.com/api/payments/webhook", body["notification_url"])
		items := body["items"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		require.Equal(t, "Curso de antropometría", item["title"])
		require.Equal(t, 1500.5, item["unit_price"])
		require.Equal(t, "ARS", item["currency_id"])
		require.Equal(t, "approved", body["auto_return"])

		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.test/checkout/pref-1"}`))
	}))
	defer srv.Close()

	gw := NewMercadoPago("tok", srv.URL+"/")
	pref, err := gw.CreatePreference(context.Background(), PreferenceRequest{
		ExternalReference: "15",
		Items:             []Item{{Title: "Curso de antropometría", Quantity: 1, UnitPrice: 1500.5}},
		PayerEmail:        "ana@test.com",
		BackURL:           "http://localhost:5173/pagos",
		NotificationURL:   "https://api.example.com/api/payments/webhook",
	})
	require.NoError(t, err)
	require.Equal(t, &Preference{ID: "pref-1", InitPoint: "https://mp.test/checkout/pref-1"}, pref)
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/123456" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":123456,"status":"approved","external_reference":"15","transaction_amount":1500.5}`))
	}))
	defer srv.Close()

	gw := NewMercadoPago("tok", srv.URL)
	p, err := gw.GetPayment(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, &Payment{ID: "123456", Status: "approved", ExternalReference: "15", Amount: 1500.5}, p)

	_, err = gw.GetPayment(context.Background(), "999")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestGatewayDisabled(t *testing.T) {
	_, err := NewMercadoPago("", "").GetPayment(context.Background(), "1")
	require.ErrorIs(t, err, ErrDisabled)

	var gw Gateway = Disabled{}
	_, err = gw.CreatePreference(context.Background(), PreferenceRequest{})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestMapStatus(t *testing.T) {
	require.Equal(t, model.PagoApproved, MapStatus("approved"))
	require.Equal(t, model.PagoRejected, MapStatus("rejected"))
	require.Equal(t, model.PagoCancelled, MapStatus("refunded"))
	require.Equal(t, model.PagoPending, MapStatus("in_process"))
}

func TestVerifySignature(t *testing.T) {
	header := Sign("s3cret", "req-1", "123456", "1700000000")
	require.True(t, VerifySignature("s3cret", header, "req-1", "123456"))
	require.False(t, VerifySignature("other", header, "req-1", "123456"))
	require.False(t, VerifySignature("s3cret", header, "req-2", "123456"))
	require.False(t, VerifySignature("s3cret", "ts=1700000000", "req-1", "123456"))
	require.False(t, VerifySignature("s3cret", "ts=1,v1=zz", "req-1", "123456"))
}
