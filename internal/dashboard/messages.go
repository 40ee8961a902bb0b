package dashboard

// Messages shown on the dashboard
const (
	MsgLoadFailed   = "Failed to load sweets. Please try again."
	MsgSearchFailed = "Search failed. Please try again."

	MsgCreated         = "Sweet added successfully!"
	MsgCreateFailed    = "Failed to add sweet."
	MsgUpdated         = "Sweet updated successfully!"
	MsgUpdateFailed    = "Failed to update sweet."
	MsgDeleted         = "Sweet deleted successfully!"
	MsgDeleteFailed    = "Failed to delete sweet. Admin access required."
	MsgPurchased       = "Purchase successful!"
	MsgPurchaseFailed  = "Purchase failed."
	MsgRestocked       = "Restock successful!"
	MsgRestockFailed   = "Restock failed. Admin access required."
	MsgNameRequired    = "Name is required"
	MsgCategoryMissing = "Category is required"
	MsgInvalidPrice    = "Valid price is required"
	MsgInvalidQuantity = "Valid quantity is required"

	MsgQuantityTooLow    = "Quantity must be at least 1."
	MsgInsufficientStock = "Insufficient stock available."
)
