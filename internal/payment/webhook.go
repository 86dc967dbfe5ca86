package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// tokenFields is the order CinetPay concatenates notification fields in before signing.
var tokenFields = []string{
	"cpm_site_id",
	"cpm_trans_id",
	"cpm_trans_date",
	"cpm_amount",
	"cpm_currency",
	"signature",
	"payment_method",
	"cel_phone_num",
	"cpm_phone_prefixe",
	"cpm_language",
	"cpm_version",
	"cpm_payment_config",
	"cpm_page_action",
	"cpm_custom",
	"cpm_designation",
	"cpm_error_message",
}

// ComputeToken returns the expected x-token for a notification form.
func ComputeToken(secret string, form url.Values) string {
	var b strings.Builder
	for _, f := range tokenFields {
		b.WriteString(form.Get(f))
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseCinetPayNotification verifies the x-token header (when a secret is set)
// and extracts the notification fields.
func ParseCinetPayNotification(secret, siteID, token string, form url.Values) (*Notification, error) {
	if secret != "" {
		expected := ComputeToken(secret, form)
		if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(token)))) {
			return nil, ErrInvalidSignature
		}
	}

	n := &Notification{
		Provider:      "cinetpay",
		TransactionID: strings.TrimSpace(form.Get("cpm_trans_id")),
		SiteID:        form.Get("cpm_site_id"),
		Amount:        form.Get("cpm_amount"),
		Currency:      form.Get("cpm_currency"),
		PaymentMethod: form.Get("payment_method"),
		ErrorMessage:  form.Get("cpm_error_message"),
	}
	if n.TransactionID == "" {
		return nil, ErrMissingField
	}
	if siteID != "" && n.SiteID != "" && n.SiteID != siteID {
		return nil, ErrInvalidSignature
	}
	return n, nil
}
