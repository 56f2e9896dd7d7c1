package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Identifier is an id the processor may send as a JSON string or number
type Identifier string

// UnmarshalJSON accepts strings, numbers and null
func (i *Identifier) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = Identifier(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*i = Identifier(n.String())
	return nil
}

func (i Identifier) String() string { return string(i) }

// Event is the subset of a payment processor notification the reconciler reads
type Event struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			TenantID Identifier `json:"tenant_id"`
			Token    string     `json:"token"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         Identifier `json:"id"`
		Attributes struct {
			VariantID      Identifier `json:"variant_id"`
			UserEmail      string     `json:"user_email"`
			Status         string     `json:"status"`
			FirstOrderItem *struct {
				VariantID Identifier `json:"variant_id"`
			} `json:"first_order_item"`
		} `json:"attributes"`
	} `json:"data"`
}

// PaidOrder holds the fields needed to redeem a checkout
type PaidOrder struct {
	OrderID    string
	WorkshopID uint
	Token      string
	VariantID  string
	Email      string
}

// ParseEvent decodes a raw notification body
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &ev, nil
}

// PaidOrder extracts the redemption fields, failing with ErrMalformedEvent
// when any is missing.
func (e *Event) PaidOrder() (PaidOrder, error) {
	order := PaidOrder{
		OrderID: e.Data.ID.String(),
		Token:   strings.TrimSpace(e.Meta.CustomData.Token),
		Email:   e.Data.Attributes.UserEmail,
	}

	order.VariantID = e.Data.Attributes.VariantID.String()
	if order.VariantID == "" && e.Data.Attributes.FirstOrderItem != nil {
		order.VariantID = e.Data.Attributes.FirstOrderItem.VariantID.String()
	}

	var missing []string
	if order.OrderID == "" {
		missing = append(missing, "data.id")
	}
	if order.Token == "" {
		missing = append(missing, "meta.custom_data.token")
	}
	if order.VariantID == "" {
		missing = append(missing, "data.attributes.variant_id")
	}

	tenant := e.Meta.CustomData.TenantID.String()
	if tenant == "" {
		missing = append(missing, "meta.custom_data.tenant_id")
	}
	if len(missing) > 0 {
		return PaidOrder{}, fmt.Errorf("%w: missing %s", ErrMalformedEvent, strings.Join(missing, ", "))
	}

	id, err := strconv.ParseUint(tenant, 10, 64)
	if err != nil || id == 0 {
		return PaidOrder{}, fmt.Errorf("%w: tenant_id %q is not a workshop id", ErrMalformedEvent, tenant)
	}
	order.WorkshopID = uint(id)
	return order, nil
}
