package models

import "strings"

type Role string

const (
	RoleUser           Role = "user"
	RoleAdmin          Role = "admin"
	RoleSalesManager   Role = "sales-manager"
	RoleProductManager Role = "product-manager"
	RoleGeneralManager Role = "general-manager"
	RoleDelivery       Role = "delivery"
)

type Capability int

const (
	CapUpdateOrderStatus Capability = iota + 1
	CapReviewRefunds
	CapManagePricing
	CapViewReports
	CapViewInvoices
	CapManageProducts
	CapSendNotifications
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapUpdateOrderStatus, CapReviewRefunds, CapManagePricing, CapViewReports,
		CapViewInvoices, CapManageProducts, CapSendNotifications,
	},
	RoleSalesManager:   {CapReviewRefunds, CapManagePricing, CapViewReports, CapViewInvoices},
	RoleProductManager: {CapManageProducts, CapUpdateOrderStatus, CapViewInvoices},
	RoleGeneralManager: {CapManageProducts, CapUpdateOrderStatus, CapViewInvoices},
	RoleDelivery:       {CapUpdateOrderStatus},
}

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin, RoleSalesManager, RoleProductManager, RoleGeneralManager, RoleDelivery:
		return r, true
	}
	return "", false
}

func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// RoleForEmail assigns staff roles by e-mail domain; everybody else is a
// customer.
func RoleForEmail(email string) Role {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return RoleUser
	}
	switch strings.ToLower(email[at+1:]) {
	case "admin.com":
		return RoleAdmin
	case "delivery.com":
		return RoleDelivery
	case "sales.com":
		return RoleSalesManager
	case "products.com":
		return RoleProductManager
	}
	return RoleUser
}
