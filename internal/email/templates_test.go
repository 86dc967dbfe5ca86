package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates_Render(t *testing.T) {
	tm, err := DefaultTemplates()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		TemplateVerification,
		TemplatePasswordReset,
		TemplateSubscriptionActivated,
		TemplateSubscriptionExpiring,
		TemplateNotification,
	}, tm.TemplateNames())

	html, err := tm.Render(TemplatePasswordReset, TemplateData{
		"Name":      "Awa",
		"Link":      "https://businessconnect.sn/reset?token=abc",
		"ExpiresIn": "1 heure",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Bonjour Awa")
	assert.Contains(t, html, "https://businessconnect.sn/reset?token=abc")
	assert.Contains(t, html, "BusinessConnect Sénégal")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := NewTemplateManager().Render("missing", nil)
	assert.Error(t, err)
}

func TestNewProvider_LogsWithoutHost(t *testing.T) {
	p := NewProvider(SMTPConfig{})
	require.IsType(t, &LogProvider{}, p)
	assert.NoError(t, p.Send(context.Background(), &Email{To: []string{"a@b.sn"}, Subject: "hi"}))
}
