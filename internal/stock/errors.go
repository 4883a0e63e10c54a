package stock

import "errors"

var (
	// ErrProductNotFound is returned when the product ID is unknown
	ErrProductNotFound = errors.New("product not found")

	// ErrAlertNotFound is returned when no unread alert exists for the product
	ErrAlertNotFound = errors.New("no unread alert for product")

	// ErrInsufficientHistory is returned when the forecast window has no entries
	ErrInsufficientHistory = errors.New("insufficient history for forecast")
)
