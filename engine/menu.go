package engine

import (
	"fmt"
	"strings"

	"botique/models"
)

// menuOption is one numbered entry of a tenant's main menu. Command is the
// token the digit shortcut rewrites to before flow routing, so "2" and
// "ORDER" are behaviorally identical for a restaurant.
type menuOption struct {
	Label   string
	Command string
}

// businessMenus drives both the rendered main menu and the digit-shortcut
// substitution. Index+1 is the digit. Every business type has an entry;
// generic is the fallback for anything unmapped.
var businessMenus = map[models.BusinessType][]menuOption{
	models.BUSINESS_TYPE_HOTEL: {
		{"Rooms & availability", "ROOMS"},
		{"Book a stay", "BOOK"},
		{"Offers", "OFFERS"},
		{"Location", "LOCATION"},
		{"Talk to reception", "AGENT"},
	},
	models.BUSINESS_TYPE_RESTAURANT: {
		{"View menu", "CATALOG"},
		{"Order food", "ORDER"},
		{"Offers", "OFFERS"},
		{"Opening hours", "HOURS"},
		{"Talk to us", "AGENT"},
	},
	models.BUSINESS_TYPE_GROCERY: {
		{"Browse products", "CATALOG"},
		{"My cart", "CART"},
		{"Deals", "OFFERS"},
		{"Delivery info", "DELIVERY"},
		{"Talk to us", "AGENT"},
	},
	models.BUSINESS_TYPE_REAL_ESTATE: {
		{"Listings", "LISTINGS"},
		{"Schedule a visit", "VISIT"},
		{"Offers", "OFFERS"},
		{"Contact", "CONTACT"},
		{"Talk to an agent", "AGENT"},
	},
	models.BUSINESS_TYPE_CLINIC: {
		{"Our services", "SERVICES"},
		{"Book appointment", "APPOINTMENT"},
		{"Opening hours", "HOURS"},
		{"Location", "LOCATION"},
		{"Talk to us", "AGENT"},
	},
	models.BUSINESS_TYPE_SALON: {
		{"Services & prices", "SERVICES"},
		{"Book appointment", "APPOINTMENT"},
		{"Offers", "OFFERS"},
		{"Opening hours", "HOURS"},
		{"Talk to us", "AGENT"},
	},
	models.BUSINESS_TYPE_TRAVEL: {
		{"Packages", "PACKAGES"},
		{"Book a trip", "BOOK"},
		{"Deals", "OFFERS"},
		{"Contact", "CONTACT"},
		{"Talk to an agent", "AGENT"},
	},
	models.BUSINESS_TYPE_RECRUITMENT: {
		{"Open positions", "JOBS"},
		{"Apply", "APPLY"},
		{"Contact", "CONTACT"},
		{"Office location", "LOCATION"},
		{"Talk to us", "AGENT"},
	},
	models.BUSINESS_TYPE_GENERIC: {
		{"Catalog", "CATALOG"},
		{"My cart", "CART"},
		{"Offers", "OFFERS"},
		{"Contact", "CONTACT"},
		{"Talk to us", "AGENT"},
	},
}

func menuFor(bt models.BusinessType) []menuOption {
	if m, ok := businessMenus[bt]; ok {
		return m
	}
	return businessMenus[models.BUSINESS_TYPE_GENERIC]
}

// resolveShortcut maps a single digit "1".."5" to the command token of the
// tenant's menu. ok=false when the digit has no mapping.
func resolveShortcut(bt models.BusinessType, digit string) (string, bool) {
	menu := menuFor(bt)
	if len(digit) != 1 || digit[0] < '1' || digit[0] > '9' {
		return "", false
	}
	idx := int(digit[0] - '1')
	if idx >= len(menu) {
		return "", false
	}
	return menu[idx].Command, true
}

// applyMenuShortcut rewrites a bare digit to its command token, once,
// before flow routing. Non-digit messages pass through unchanged.
func applyMenuShortcut(tenant *models.Tenant, m Normalized) Normalized {
	cmd, ok := resolveShortcut(tenant.BusinessType, m.Upper)
	if !ok {
		return m
	}
	m.Text = cmd
	m.Upper = strings.ToUpper(cmd)
	return m
}

// mainMenuText renders the tenant's numbered main menu.
func mainMenuText(tenant *models.Tenant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to %s! How can we help?\n\n", tenant.Name)
	for i, opt := range menuFor(tenant.BusinessType) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt.Label)
	}
	b.WriteString("\nReply with a number or type an option.")
	return b.String()
}
