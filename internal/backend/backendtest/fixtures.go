package backendtest

import (
	"testing"

	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
)

// DefaultSweets returns a small catalogue used across tests
func DefaultSweets() []domain.Item {
	return []domain.Item{
		{ID: 1, Name: "Gulab Jamun", Category: "Traditional", UnitPrice: 25, QuantityOnHand: 100, Description: "Fried milk dumplings in syrup"},
		{ID: 2, Name: "Rasgulla", Category: "Bengali", UnitPrice: 20, QuantityOnHand: 40},
		{ID: 3, Name: "Mysore Pak", Category: "South Indian", UnitPrice: 35.5, QuantityOnHand: 0},
		{ID: 4, Name: "Kaju Katli", Category: "Dry Fruits", UnitPrice: 60, QuantityOnHand: 12},
	}
}

// Default accounts known to a seeded fake backend
var (
	AdminUser = FakeUser{Name: "Admin", Email: "admin@sweetshop.test", Password: "admin123", Role: "ADMIN"}
	ShopUser  = FakeUser{Name: "Customer", Email: "user@sweetshop.test", Password: "user1234", Role: "USER"}
)

// NewSeededBackend starts a fake backend holding DefaultSweets, AdminUser and ShopUser
func NewSeededBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := NewFakeBackend(t)
	fb.AddUser(AdminUser)
	fb.AddUser(ShopUser)
	for _, item := range DefaultSweets() {
		fb.AddItem(item)
	}
	return fb
}
