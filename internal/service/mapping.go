package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/models"
)

var errMissingID = errors.New("record has no id")

// MappingError marks a single remote record that could not be converted.
type MappingError struct {
	Kind  shopify.Kind
	ID    string
	Field string
	Err   error
}

func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("map ")
	b.WriteString(string(e.Kind))
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// recordID pulls just the id so failures can be logged against it even when
// the rest of the payload does not decode.
func recordID(raw []byte) string {
	var head struct {
		ID shopify.ID `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.ID.String()
}

func MapCustomer(tenantID string, raw []byte, now time.Time) (*models.Customer, error) {
	var in shopify.Customer
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &MappingError{Kind: shopify.KindCustomers, ID: recordID(raw), Err: err}
	}
	id := in.ID.String()
	if id == "" {
		return nil, &MappingError{Kind: shopify.KindCustomers, Err: errMissingID}
	}
	spent, err := in.TotalSpent.Decimal()
	if err != nil {
		return nil, &MappingError{Kind: shopify.KindCustomers, ID: id, Field: "total_spent", Err: err}
	}
	count, err := in.OrdersCount.Int64()
	if err != nil {
		return nil, &MappingError{Kind: shopify.KindCustomers, ID: id, Field: "orders_count", Err: err}
	}
	createdAt, updatedAt := recordTimes(in.CreatedAt, in.UpdatedAt, now)
	return &models.Customer{
		TenantID:    tenantID,
		ID:          id,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		TotalSpent:  spent,
		OrdersCount: int(count),
		RawJSON:     datatypes.JSON(raw),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// MapProduct keeps price and inventory of the first variant; a product with
// no variants maps to zero for both.
func MapProduct(tenantID string, raw []byte, now time.Time) (*models.Product, error) {
	var in shopify.Product
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &MappingError{Kind: shopify.KindProducts, ID: recordID(raw), Err: err}
	}
	id := in.ID.String()
	if id == "" {
		return nil, &MappingError{Kind: shopify.KindProducts, Err: errMissingID}
	}
	out := &models.Product{
		TenantID:    tenantID,
		ID:          id,
		Title:       in.Title,
		Status:      in.Status,
		Vendor:      in.Vendor,
		ProductType: in.ProductType,
		RawJSON:     datatypes.JSON(raw),
	}
	if len(in.Variants) > 0 {
		first := in.Variants[0]
		price, err := first.Price.Decimal()
		if err != nil {
			return nil, &MappingError{Kind: shopify.KindProducts, ID: id, Field: "variants[0].price", Err: err}
		}
		qty, err := first.InventoryQuantity.Int64()
		if err != nil {
			return nil, &MappingError{Kind: shopify.KindProducts, ID: id, Field: "variants[0].inventory_quantity", Err: err}
		}
		out.Price = price
		out.Inventory = int(qty)
	}
	out.CreatedAt, out.UpdatedAt = recordTimes(in.CreatedAt, in.UpdatedAt, now)
	return out, nil
}

func MapOrder(tenantID string, raw []byte, now time.Time) (*models.Order, error) {
	var in shopify.Order
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &MappingError{Kind: shopify.KindOrders, ID: recordID(raw), Err: err}
	}
	id := in.ID.String()
	if id == "" {
		return nil, &MappingError{Kind: shopify.KindOrders, Err: errMissingID}
	}
	fail := func(field string, err error) error {
		return &MappingError{Kind: shopify.KindOrders, ID: id, Field: field, Err: err}
	}
	number, err := in.OrderNumber.Int64()
	if err != nil {
		return nil, fail("order_number", err)
	}
	total, err := in.TotalPrice.Decimal()
	if err != nil {
		return nil, fail("total_price", err)
	}
	subtotal, err := in.SubtotalPrice.Decimal()
	if err != nil {
		return nil, fail("subtotal_price", err)
	}
	tax, err := in.TotalTax.Decimal()
	if err != nil {
		return nil, fail("total_tax", err)
	}

	var customerID *string
	if in.Customer != nil {
		if cid := in.Customer.ID.String(); cid != "" {
			customerID = &cid
		}
	}
	createdAt, updatedAt := recordTimes(in.CreatedAt, in.UpdatedAt, now)
	return &models.Order{
		TenantID:          tenantID,
		ID:                id,
		CustomerID:        customerID,
		OrderNumber:       number,
		TotalPrice:        total,
		SubtotalPrice:     subtotal,
		TaxPrice:          tax,
		OrderDate:         createdAt,
		Status:            deriveOrderStatus(in.CancelledAt, in.ClosedAt),
		FulfillmentStatus: orDefault(in.FulfillmentStatus, "unfulfilled"),
		FinancialStatus:   orDefault(in.FinancialStatus, "pending"),
		RawJSON:           datatypes.JSON(raw),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}

// deriveOrderStatus: cancelled wins over closed, anything else is open.
func deriveOrderStatus(cancelledAt, closedAt *string) string {
	if present(cancelledAt) {
		return models.OrderStatusCancelled
	}
	if present(closedAt) {
		return models.OrderStatusClosed
	}
	return models.OrderStatusOpen
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func orDefault(s *string, fallback string) string {
	if !present(s) {
		return fallback
	}
	return strings.TrimSpace(*s)
}

func recordTimes(created, updated *time.Time, now time.Time) (time.Time, time.Time) {
	c, u := now.UTC(), now.UTC()
	if created != nil && !created.IsZero() {
		c = created.UTC()
	}
	if updated != nil && !updated.IsZero() {
		u = updated.UTC()
	}
	return c, u
}

// mapRecord dispatches on kind and returns the model ready for upsert.
func mapRecord(kind shopify.Kind, tenantID string, raw []byte, now time.Time) (any, string, error) {
	switch kind {
	case shopify.KindCustomers:
		m, err := MapCustomer(tenantID, raw, now)
		if err != nil {
			return nil, "", err
		}
		return m, m.ID, nil
	case shopify.KindProducts:
		m, err := MapProduct(tenantID, raw, now)
		if err != nil {
			return nil, "", err
		}
		return m, m.ID, nil
	case shopify.KindOrders:
		m, err := MapOrder(tenantID, raw, now)
		if err != nil {
			return nil, "", err
		}
		return m, m.ID, nil
	default:
		return nil, "", fmt.Errorf("unsupported kind %q", kind)
	}
}
