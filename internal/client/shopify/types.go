package shopify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ID accepts Shopify identifiers sent either as JSON numbers or strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	s, err := scalarText(b)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Number keeps the literal text of a numeric field. Shopify sends money as
// strings and counts as numbers; both land here and are parsed on demand so
// one bad value fails its record, not the page.
type Number struct {
	raw string
}

func NewNumber(raw string) Number {
	return Number{raw: strings.TrimSpace(raw)}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = Number{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	*n = NewNumber(s)
	return nil
}

func (n Number) IsZero() bool {
	return n.raw == ""
}

func (n Number) String() string {
	return n.raw
}

// Decimal returns zero for an absent value and an error for text that is
// present but not a number.
func (n Number) Decimal() (decimal.Decimal, error) {
	if n.raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", n.raw)
	}
	return d, nil
}

func (n Number) Int64() (int64, error) {
	if n.raw == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(n.raw, 10, 64); err == nil {
		return v, nil
	}
	d, err := n.Decimal()
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

type Customer struct {
	ID          ID         `json:"id"`
	Email       *string    `json:"email"`
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	Phone       *string    `json:"phone"`
	TotalSpent  Number     `json:"total_spent"`
	OrdersCount Number     `json:"orders_count"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type Variant struct {
	ID                ID     `json:"id"`
	Price             Number `json:"price"`
	InventoryQuantity Number `json:"inventory_quantity"`
}

type Product struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Status      *string    `json:"status"`
	Vendor      *string    `json:"vendor"`
	ProductType *string    `json:"product_type"`
	Variants    []Variant  `json:"variants"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type OrderCustomer struct {
	ID ID `json:"id"`
}

type Order struct {
	ID                ID             `json:"id"`
	OrderNumber       Number         `json:"order_number"`
	Customer          *OrderCustomer `json:"customer"`
	TotalPrice        Number         `json:"total_price"`
	SubtotalPrice     Number         `json:"subtotal_price"`
	TotalTax          Number         `json:"total_tax"`
	CancelledAt       *string        `json:"cancelled_at"`
	ClosedAt          *string        `json:"closed_at"`
	FulfillmentStatus *string        `json:"fulfillment_status"`
	FinancialStatus   *string        `json:"financial_status"`
	CreatedAt         *time.Time     `json:"created_at"`
	UpdatedAt         *time.Time     `json:"updated_at"`
}

func scalarText(b []byte) (string, error) {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		return "", nil
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return "", err
		}
		return strings.TrimSpace(str), nil
	case strings.HasPrefix(s, "{"), strings.HasPrefix(s, "["), s == "true", s == "false":
		return "", fmt.Errorf("unexpected value %s", s)
	default:
		return s, nil
	}
}
