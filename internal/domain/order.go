package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OrderPayload is the subset of an orders/create webhook body this service reads.
// Identifiers are kept as text: Shopify sends numeric ids, GraphQL-style
// gid:// strings show up in newer payloads.
type OrderPayload struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Email     string          `json:"email,omitempty"`
	LineItems []OrderLineItem `json:"line_items"`
	Customer  *OrderCustomer  `json:"customer"`

	// Skipped lists fields that were present but could not be read
	Skipped []string `json:"-"`
}

// OrderLineItem is one line of an order
type OrderLineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id,omitempty"`
	VariantID string `json:"variant_id,omitempty"`
	Title     string `json:"title"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price,omitempty"`
}

// OrderCustomer is the customer attached to an order
type OrderCustomer struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ParseOrderPayload decodes an order webhook body.
// Only malformed JSON is an error (ErrPayloadParse). Fields with an
// unexpected shape are left empty and named in Skipped.
func ParseOrderPayload(body []byte) (*OrderPayload, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadParse, err)
	}

	order := &OrderPayload{}
	top, ok := objectFields(raw)
	if !ok {
		order.Skipped = append(order.Skipped, "$")
		return order, nil
	}

	order.ID = top.text("id", &order.Skipped)
	top.decode("name", &order.Name, &order.Skipped)
	top.decode("email", &order.Email, &order.Skipped)

	var items []json.RawMessage
	top.decode("line_items", &items, &order.Skipped)
	for i, itemRaw := range items {
		prefix := "line_items[" + strconv.Itoa(i) + "]."
		item, ok := objectFields(itemRaw)
		if !ok {
			order.Skipped = append(order.Skipped, prefix[:len(prefix)-1])
			continue
		}
		skipped := len(order.Skipped)
		line := OrderLineItem{
			ID:        item.text("id", &order.Skipped),
			ProductID: item.text("product_id", &order.Skipped),
			VariantID: item.text("variant_id", &order.Skipped),
		}
		item.decode("title", &line.Title, &order.Skipped)
		item.decode("sku", &line.SKU, &order.Skipped)
		item.decode("quantity", &line.Quantity, &order.Skipped)
		line.Price = item.text("price", &order.Skipped)
		for j := skipped; j < len(order.Skipped); j++ {
			order.Skipped[j] = prefix + order.Skipped[j]
		}
		order.LineItems = append(order.LineItems, line)
	}

	if customerRaw, ok := top["customer"]; ok && !isNull(customerRaw) {
		customer, ok := objectFields(customerRaw)
		if !ok {
			order.Skipped = append(order.Skipped, "customer")
		} else {
			skipped := len(order.Skipped)
			order.Customer = &OrderCustomer{ID: customer.text("id", &order.Skipped)}
			customer.decode("email", &order.Customer.Email, &order.Skipped)
			customer.decode("first_name", &order.Customer.FirstName, &order.Skipped)
			customer.decode("last_name", &order.Customer.LastName, &order.Skipped)
			for j := skipped; j < len(order.Skipped); j++ {
				order.Skipped[j] = "customer." + order.Skipped[j]
			}
		}
	}

	return order, nil
}

type jsonFields map[string]json.RawMessage

func objectFields(raw json.RawMessage) (jsonFields, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, false
	}
	var fields jsonFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decode reads key into dst, recording key in skipped on a type mismatch
func (f jsonFields) decode(key string, dst any, skipped *[]string) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		*skipped = append(*skipped, key)
	}
}

// text reads a string or a number as text, so ids keep full precision
func (f jsonFields) text(key string, skipped *[]string) string {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	*skipped = append(*skipped, key)
	return ""
}
