package engine

import (
	"testing"

	"botique/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveShortcut(t *testing.T) {
	cases := []struct {
		bt    models.BusinessType
		digit string
		want  string
		ok    bool
	}{
		{models.BUSINESS_TYPE_RESTAURANT, "1", "CATALOG", true},
		{models.BUSINESS_TYPE_RESTAURANT, "2", "ORDER", true},
		{models.BUSINESS_TYPE_RESTAURANT, "5", "AGENT", true},
		{models.BUSINESS_TYPE_HOTEL, "2", "BOOK", true},
		{models.BUSINESS_TYPE_GENERIC, "6", "", false}, // past the menu
		{models.BUSINESS_TYPE_GENERIC, "0", "", false},
		{models.BUSINESS_TYPE_GENERIC, "12", "", false}, // not a single digit
		{models.BUSINESS_TYPE_GENERIC, "A", "", false},
		{models.BusinessType("unknown"), "1", "CATALOG", true}, // generic fallback
	}

	for _, tc := range cases {
		got, ok := resolveShortcut(tc.bt, tc.digit)
		assert.Equal(t, tc.ok, ok, "%s %q", tc.bt, tc.digit)
		assert.Equal(t, tc.want, got, "%s %q", tc.bt, tc.digit)
	}
}

func TestApplyMenuShortcutRewritesOnce(t *testing.T) {
	tenant := &models.Tenant{BusinessType: models.BUSINESS_TYPE_RESTAURANT}

	m := applyMenuShortcut(tenant, Normalized{Text: "2", Upper: "2"})
	assert.Equal(t, "ORDER", m.Text)
	assert.Equal(t, "ORDER", m.Upper)

	// Non-digit passes through unchanged.
	m = applyMenuShortcut(tenant, Normalized{Text: "hello", Upper: "HELLO"})
	assert.Equal(t, "hello", m.Text)
}

func TestMainMenuTextListsEveryOption(t *testing.T) {
	tenant := &models.Tenant{Name: "Acme", BusinessType: models.BUSINESS_TYPE_RESTAURANT}
	text := mainMenuText(tenant)

	assert.Contains(t, text, "Welcome to Acme")
	assert.Contains(t, text, "1. View menu")
	assert.Contains(t, text, "2. Order food")
	assert.Contains(t, text, "5. Talk to us")
}

func TestEveryBusinessTypeHasAMenu(t *testing.T) {
	for _, bt := range models.AllBusinessTypes {
		assert.NotEmpty(t, menuFor(bt), string(bt))
	}
}
