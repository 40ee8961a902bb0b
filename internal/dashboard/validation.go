package dashboard

import (
	"math"
	"strconv"
	"strings"

	"github.com/sweetshop/sweetshop-client/internal/inventory/domain"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
)

// ValidateDraft checks a create/edit draft in a fixed order and stops at
// the first failure. On success it returns the parsed input.
func ValidateDraft(d domain.ItemDraft) (domain.ItemInput, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return domain.ItemInput{}, errors.ValidationMessage(MsgNameRequired)
	}

	category := strings.TrimSpace(d.Category)
	if category == "" {
		return domain.ItemInput{}, errors.ValidationMessage(MsgCategoryMissing)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return domain.ItemInput{}, errors.ValidationMessage(MsgInvalidPrice)
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(d.Quantity))
	if err != nil || quantity < 0 {
		return domain.ItemInput{}, errors.ValidationMessage(MsgInvalidQuantity)
	}

	return domain.ItemInput{
		Name:        name,
		Category:    category,
		Price:       price,
		Quantity:    quantity,
		Description: strings.TrimSpace(d.Description),
	}, nil
}

// validatePurchase checks quantity against the stock last seen for item
func validatePurchase(item domain.Item, quantity int) error {
	if quantity < 1 {
		return errors.ValidationMessage(MsgQuantityTooLow)
	}
	if quantity > item.QuantityOnHand {
		return errors.ValidationMessage(MsgInsufficientStock)
	}
	return nil
}

// validateRestock only bounds quantity from below
func validateRestock(quantity int) error {
	if quantity < 1 {
		return errors.ValidationMessage(MsgQuantityTooLow)
	}
	return nil
}
