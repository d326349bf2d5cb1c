package adyen

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// DetailsKind identifies which variant of PaymentMethodDetails is populated.
type DetailsKind string

const (
	KindDefault DetailsKind = "default"
	KindACH     DetailsKind = "ach"
	KindDotpay  DetailsKind = "dotpay"
	KindGiropay DetailsKind = "giropay"
	KindKlarna  DetailsKind = "klarna"
)

// ErrMissingMethodType is returned when a payment method payload has no type.
var ErrMissingMethodType = errors.New("adyen: payment method type is required")

// KindFor maps a payment method type discriminator onto its details variant.
func KindFor(methodType string) DetailsKind {
	switch methodType {
	case "ach":
		return KindACH
	case "dotpay":
		return KindDotpay
	case "giropay":
		return KindGiropay
	case "klarna", "klarna_paynow", "klarna_account":
		return KindKlarna
	default:
		return KindDefault
	}
}

// ACHDetails holds the fields of an ACH direct debit.
type ACHDetails struct {
	BankAccountNumber          string `json:"bankAccountNumber,omitempty"`
	BankLocationID             string `json:"bankLocationId,omitempty"`
	EncryptedBankAccountNumber string `json:"encryptedBankAccountNumber,omitempty"`
	EncryptedBankLocationID    string `json:"encryptedBankLocationId,omitempty"`
	OwnerName                  string `json:"ownerName,omitempty"`
}

// DotpayDetails holds the selected Dotpay issuer.
type DotpayDetails struct {
	Issuer string `json:"issuer,omitempty"`
}

// GiropayDetails carries no method-specific fields.
type GiropayDetails struct{}

// KlarnaDetails holds the optional Klarna shopper details.
type KlarnaDetails struct {
	BillingAddress  json.RawMessage `json:"billingAddress,omitempty"`
	DeliveryAddress json.RawMessage `json:"deliveryAddress,omitempty"`
	PersonalDetails json.RawMessage `json:"personalDetails,omitempty"`
	Subtype         string          `json:"subtype,omitempty"`
}

// PaymentMethodDetails is a tagged union keyed by the payment method type.
// Exactly one variant pointer matches Kind; unknown types land in Fields.
// The decoded JSON is forwarded to the provider byte for byte.
type PaymentMethodDetails struct {
	Type    string
	Kind    DetailsKind
	ACH     *ACHDetails
	Dotpay  *DotpayDetails
	Giropay *GiropayDetails
	Klarna  *KlarnaDetails
	Fields  map[string]json.RawMessage

	raw json.RawMessage
}

// NewDefaultDetails builds a details value for a method type with no dedicated variant.
func NewDefaultDetails(methodType string, fields map[string]json.RawMessage) PaymentMethodDetails {
	return PaymentMethodDetails{Type: methodType, Kind: KindFor(methodType), Fields: fields}
}

// UnmarshalJSON decodes the variant selected by the "type" field.
func (d *PaymentMethodDetails) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	methodType := strings.TrimSpace(head.Type)
	if methodType == "" {
		return ErrMissingMethodType
	}
	out := PaymentMethodDetails{Type: methodType, Kind: KindFor(methodType), raw: append(json.RawMessage(nil), bytes.TrimSpace(data)...)}
	var err error
	switch out.Kind {
	case KindACH:
		out.ACH = &ACHDetails{}
		err = json.Unmarshal(data, out.ACH)
	case KindDotpay:
		out.Dotpay = &DotpayDetails{}
		err = json.Unmarshal(data, out.Dotpay)
	case KindGiropay:
		out.Giropay = &GiropayDetails{}
	case KindKlarna:
		out.Klarna = &KlarnaDetails{}
		err = json.Unmarshal(data, out.Klarna)
	default:
		err = json.Unmarshal(data, &out.Fields)
		delete(out.Fields, "type")
	}
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON re-emits the original payload when the value was decoded, and
// otherwise encodes the active variant together with its type.
func (d PaymentMethodDetails) MarshalJSON() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	if d.Type == "" {
		return nil, ErrMissingMethodType
	}
	var (
		encoded []byte
		err     error
	)
	switch {
	case d.Kind == KindACH && d.ACH != nil:
		encoded, err = json.Marshal(d.ACH)
	case d.Kind == KindDotpay && d.Dotpay != nil:
		encoded, err = json.Marshal(d.Dotpay)
	case d.Kind == KindKlarna && d.Klarna != nil:
		encoded, err = json.Marshal(d.Klarna)
	}
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if encoded != nil {
		if err := json.Unmarshal(encoded, &fields); err != nil {
			return nil, err
		}
	} else {
		for k, v := range d.Fields {
			fields[k] = v
		}
	}
	typ, err := json.Marshal(d.Type)
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}
