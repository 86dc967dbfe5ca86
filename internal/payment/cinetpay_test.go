package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CinetPayClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewCinetPayClient(CinetPayConfig{
		BaseURL:   srv.URL,
		APIKey:    "api-key",
		SiteID:    "445566",
		NotifyURL: "https://api.test/api/subscriptions/webhook",
		ReturnURL: "https://app.test/subscription/return",
		Currency:  "XOF",
		Channels:  "ALL",
	}, srv.Client())
	c.backoff = time.Millisecond
	return c
}

func TestInitPayment_Success(t *testing.T) {
	var got initPaymentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"code":"201","message":"CREATED","data":{"payment_token":"tok","payment_url":"https://checkout.cinetpay.com/payment/tok"}}`))
	})

	res, err := c.InitPayment(context.Background(), InitRequest{TransactionID: "tx-1", Amount: 5000, Description: "Annonceur"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.cinetpay.com/payment/tok", res.PaymentURL)

	assert.Equal(t, "api-key", got.APIKey)
	assert.Equal(t, "445566", got.SiteID)
	assert.Equal(t, int64(5000), got.Amount)
	assert.Equal(t, "XOF", got.Currency)
	assert.Equal(t, "https://api.test/api/subscriptions/webhook", got.NotifyURL)
}

func TestInitPayment_RejectsAmount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway must not be called")
	})
	_, err := c.InitPayment(context.Background(), InitRequest{TransactionID: "tx", Amount: 1001})
	assert.Error(t, err)
}

func TestInitPayment_RetriesServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"code":"201","data":{"payment_url":"https://pay"}}`))
	})

	res, err := c.InitPayment(context.Background(), InitRequest{TransactionID: "tx", Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, "https://pay", res.PaymentURL)
	assert.Equal(t, 3, calls)
}

func TestInitPayment_BusinessErrorNotRetried(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"608","message":"MINIMUM_REQUIRED_FIELDS","description":"site_id missing"}`))
	})

	_, err := c.InitPayment(context.Background(), InitRequest{TransactionID: "tx", Amount: 1000})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "608", gwErr.Code)
	assert.Equal(t, 1, calls)
	assert.False(t, IsRetryableError(err))
}

func TestCheckPayment_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status Status
		amount int64
	}{
		{"accepted", `{"code":"00","message":"SUCCES","data":{"amount":"5000","currency":"XOF","status":"ACCEPTED","payment_method":"OM"}}`, StatusSucceeded, 5000},
		{"numeric amount", `{"code":"00","data":{"amount":9000,"status":"ACCEPTED"}}`, StatusSucceeded, 9000},
		{"refused", `{"code":"600","message":"PAYMENT_FAILED","data":{"amount":"5000","status":"REFUSED"}}`, StatusFailed, 5000},
		{"waiting", `{"code":"662","message":"WAITING_CUSTOMER_PAYMENT","data":{"status":"WAITING_FOR_CUSTOMER"}}`, StatusPending, 0},
		{"no data", `{"code":"627","message":"TRANSACTION_NOT_FOUND","data":null}`, StatusPending, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/payment/check", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			res, err := c.CheckPayment(context.Background(), "tx-1")
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.amount, res.Amount)
		})
	}
}

func TestParseCinetPayNotification(t *testing.T) {
	form := url.Values{
		"cpm_site_id":    {"445566"},
		"cpm_trans_id":   {"tx-1"},
		"cpm_trans_date": {"2024-05-01 10:00:00"},
		"cpm_amount":     {"5000"},
		"cpm_currency":   {"XOF"},
		"payment_method": {"OM"},
	}
	token := ComputeToken("secret", form)

	n, err := ParseCinetPayNotification("secret", "445566", token, form)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", n.TransactionID)
	assert.Equal(t, "OM", n.PaymentMethod)

	_, err = ParseCinetPayNotification("secret", "445566", "deadbeef", form)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = ParseCinetPayNotification("", "999", "", form)
	assert.ErrorIs(t, err, ErrInvalidSignature, "site id mismatch")

	_, err = ParseCinetPayNotification("", "", "", url.Values{})
	assert.ErrorIs(t, err, ErrMissingField)
}
