package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every engine failure matches exactly one of these with
// errors.Is; the handler layer maps kinds to status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNothingToClose    = errors.New("table already has an open bill and no new items to add")
	ErrNoItemsToClose    = errors.New("table has no items to close")
	ErrNothingToSend     = errors.New("no unsent items for the kitchen")
	ErrInvalidShift      = errors.New("invalid shift")
)

// Specific errors, each wrapping one kind.
var (
	ErrItemNotFound   = fmt.Errorf("item %w", ErrNotFound)
	ErrLineNotFound   = fmt.Errorf("order line %w", ErrNotFound)
	ErrTicketNotFound = fmt.Errorf("kitchen ticket %w", ErrNotFound)
	ErrBillNotFound   = fmt.Errorf("bill %w", ErrNotFound)

	ErrCustomerRequired    = fmt.Errorf("%w: customer_id is required for credit", ErrInvalidInput)
	ErrWaiterRequired      = fmt.Errorf("%w: waiter_id is required", ErrInvalidInput)
	ErrUserRequired        = fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	ErrTableRequired       = fmt.Errorf("%w: table_id is required", ErrInvalidInput)
	ErrItemNameRequired    = fmt.Errorf("%w: item_name is required", ErrInvalidInput)
	ErrQuantityRequired    = fmt.Errorf("%w: quantity must be non-zero", ErrInvalidInput)
	ErrNegativeRate        = fmt.Errorf("%w: rate must be >= 0", ErrInvalidInput)
	ErrQuantityPrecision   = fmt.Errorf("%w: quantity allows at most 3 decimals", ErrInvalidInput)
	ErrRatePrecision       = fmt.Errorf("%w: rate allows at most 2 decimals", ErrInvalidInput)
	ErrMoneyPrecision      = fmt.Errorf("%w: amounts allow at most 2 decimals", ErrInvalidInput)
	ErrOverReduction       = fmt.Errorf("%w: reduction exceeds ordered quantity", ErrInvalidInput)
	ErrNegativeAmount      = fmt.Errorf("%w: cash, return and discount must be >= 0", ErrInvalidInput)
	ErrInvalidPaymode      = fmt.Errorf("%w: paymode must be CASH or BANK", ErrInvalidInput)
	ErrBankRequired        = fmt.Errorf("%w: bank_id is required for BANK payments", ErrInvalidInput)
	ErrInvalidStatusFilter = fmt.Errorf("%w: status must be PAID or CREDIT", ErrInvalidInput)
	ErrInvalidDate         = fmt.Errorf("%w: date must be dd-MM-yyyy", ErrInvalidInput)
	ErrInvalidCriteria     = fmt.Errorf("%w: search needs exactly one of bill_no, date, customer_id", ErrInvalidInput)
	ErrEmptyCorrection     = fmt.Errorf("%w: correction needs at least one line", ErrInvalidInput)

	ErrBillNotOpen = fmt.Errorf("%w: bill is already settled", ErrInvalidTransition)

	ErrSameTable         = fmt.Errorf("%w: source and target table are the same", ErrInvalidShift)
	ErrTargetHasOpenBill = fmt.Errorf("%w: target table already has an open bill", ErrInvalidShift)
)

// ItemNotFoundError carries catalog suggestions for a name that did not resolve.
type ItemNotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %q not found", e.Name)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }
