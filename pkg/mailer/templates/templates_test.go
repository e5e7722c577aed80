package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharecycle/accounts/config"
)

func sampleData(t *testing.T, opts ...Option) EmailData {
	t.Helper()
	cfg := config.Load()
	cfg.AppName = "ShareCycle"
	cfg.CompanyName = "ShareCycle e.V."
	cfg.SupportURL = "https://sharecycle.example/support"
	return NewBaseEmailData(cfg, "Ada", "ada@example.com", "ada@example.com", "en", opts...)
}

func TestRenderAllTemplates(t *testing.T) {
	names := []string{
		MailVerification,
		ChangeMailNotice,
		AccountDeleteRequest,
		AccountDeleteSuccess,
		PasswordReset,
		PasswordChange,
	}
	data := sampleData(t,
		WithActionURL("https://sharecycle.example/#/verify?code=abc"),
		WithNewEmail("new@example.com"),
		WithIP("203.0.113.7"),
	)

	for _, name := range names {
		subject, text, html, err := Render(name, data)
		require.NoError(t, err, name)
		assert.NotEmpty(t, subject, name)
		assert.NotEmpty(t, text, name)
		assert.NotEmpty(t, html, name)
	}
}

func TestRenderMailVerificationContainsLink(t *testing.T) {
	data := sampleData(t, WithActionURL("https://sharecycle.example/#/verify?code=xyz"))
	_, text, html, err := Render(MailVerification, data)
	require.NoError(t, err)
	assert.Contains(t, text, "https://sharecycle.example/#/verify?code=xyz")
	assert.Contains(t, html, "https://sharecycle.example/#/verify?code=xyz")
}

func TestRenderChangeMailNoticeNamesNewAddress(t *testing.T) {
	data := sampleData(t, WithNewEmail("fresh@example.com"))
	_, text, _, err := Render(ChangeMailNotice, data)
	require.NoError(t, err)
	assert.Contains(t, text, "fresh@example.com")
}

func TestRenderUnknownTemplateFails(t *testing.T) {
	_, _, _, err := Render("no_such_template", sampleData(t))
	assert.Error(t, err)
}

func TestFormatGeo(t *testing.T) {
	assert.Equal(t, "Berlin, Berlin, Germany", FormatGeo(Geo{City: "Berlin", Region: "Berlin", Country: "Germany"}))
	assert.Equal(t, "Germany", FormatGeo(Geo{Country: "Germany"}))
	assert.Equal(t, "", FormatGeo(Geo{}))
}
