package checkout

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/online-payments/internal/adyen"
	"github.com/noah-isme/online-payments/internal/pricing"
)

// CartItem is a line of the shopper's cart. AmountIncludingTax is the unit price in minor units.
type CartItem struct {
	ID                 string `json:"id,omitempty" validate:"max=64"`
	Description        string `json:"description" validate:"required,max=255"`
	Quantity           int64  `json:"quantity" validate:"gt=0,lte=1000"`
	AmountIncludingTax int64  `json:"amountIncludingTax" validate:"gte=0,lte=100000000000"`
}

// DefaultCart is charged when the client does not send its own line items.
var DefaultCart = []CartItem{
	{ID: "Item 1", Description: "Sunglasses", Quantity: 1, AmountIncludingTax: 400},
	{ID: "Item 2", Description: "Headphones", Quantity: 2, AmountIncludingTax: 300},
}

// PaymentInput is the client payload of an initiate-payment call.
type PaymentInput struct {
	PaymentMethod  adyen.PaymentMethodDetails `json:"paymentMethod"`
	BrowserInfo    *adyen.BrowserInfo         `json:"browserInfo,omitempty"`
	Origin         string                     `json:"origin,omitempty" validate:"omitempty,url"`
	BillingAddress *adyen.Address             `json:"billingAddress,omitempty"`
	LineItems      []CartItem                 `json:"lineItems,omitempty" validate:"omitempty,max=50,dive"`
}

// Order is the method-independent part of an outbound payment or session
// request. Augmentations mutate it before it is rendered.
type Order struct {
	Reference        string
	MethodType       string
	Amount           adyen.Amount
	Cart             []CartItem
	CountryCode      string
	ShopperReference string
	ShopperEmail     string
	ShopperLocale    string
	LineItems        []adyen.LineItem
}

// Augmentation contributes method-specific fields to an order.
type Augmentation struct {
	Name  string
	Match func(methodType string) bool
	Apply func(o *Order)
}

// DefaultAugmentations returns the augmentation table used in production.
func DefaultAugmentations(taxBps int64) []Augmentation {
	return []Augmentation{DeferredAugmentation(taxBps)}
}

// DeferredAugmentation adds the shopper identity and itemised tax breakdown
// required by buy-now-pay-later methods.
func DeferredAugmentation(taxBps int64) Augmentation {
	return Augmentation{
		Name: "deferred",
		Match: func(methodType string) bool {
			return strings.Contains(methodType, "klarna")
		},
		Apply: func(o *Order) {
			o.CountryCode = "DE"
			o.ShopperReference = "1234"
			o.ShopperEmail = "youremail@email.com"
			o.ShopperLocale = "en_US"
			o.LineItems = taxedLineItems(o.Cart, taxBps)
		},
	}
}

func taxedLineItems(cart []CartItem, taxBps int64) []adyen.LineItem {
	items := make([]adyen.LineItem, 0, len(cart))
	for _, it := range cart {
		split := pricing.SplitInclusive(it.AmountIncludingTax, taxBps)
		incl, excl, tax, pct := split.Gross, split.Net, split.Tax, taxBps
		items = append(items, adyen.LineItem{
			ID:                 it.ID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			AmountIncludingTax: &incl,
			AmountExcludingTax: &excl,
			TaxAmount:          &tax,
			TaxPercentage:      &pct,
		})
	}
	return items
}

// Builder assembles provider requests from client payloads and merchant context.
type Builder struct {
	MerchantAccount string
	PublicBaseURL   string
	Augmentations   []Augmentation
	// NewReference generates order references; uuid.NewString when nil.
	NewReference func() string
}

// ReturnURL is where the provider sends the shopper back after a redirect.
func (b Builder) ReturnURL(orderRef string) string {
	return strings.TrimRight(b.PublicBaseURL, "/") + "/api/handleShopperRedirect?orderRef=" + url.QueryEscape(orderRef)
}

// NewOrder creates an order with a fresh reference for methodType and applies
// every matching augmentation in table order. It fails when the cart total
// does not fit in minor units.
func (b Builder) NewOrder(methodType string, cart []CartItem) (Order, error) {
	if len(cart) == 0 {
		cart = DefaultCart
	}
	items := make([]pricing.Item, 0, len(cart))
	for _, it := range cart {
		items = append(items, pricing.Item{Qty: it.Quantity, UnitPrice: it.AmountIncludingTax})
	}
	total, err := pricing.Subtotal(items)
	if err != nil {
		return Order{}, err
	}
	newRef := b.NewReference
	if newRef == nil {
		newRef = uuid.NewString
	}
	o := Order{
		Reference:  newRef(),
		MethodType: methodType,
		Amount:     adyen.Amount{Currency: ResolveCurrency(methodType), Value: total},
		Cart:       cart,
	}
	for _, aug := range b.Augmentations {
		if aug.Match != nil && aug.Apply != nil && aug.Match(methodType) {
			aug.Apply(&o)
		}
	}
	return o, nil
}

// BuildPayment renders the request for POST /payments.
func (b Builder) BuildPayment(in PaymentInput, shopperIP string) (adyen.PaymentRequest, Order, error) {
	o, err := b.NewOrder(in.PaymentMethod.Type, in.LineItems)
	if err != nil {
		return adyen.PaymentRequest{}, Order{}, err
	}
	return adyen.PaymentRequest{
		MerchantAccount:  b.MerchantAccount,
		Reference:        o.Reference,
		Amount:           o.Amount,
		Channel:          adyen.ChannelWeb,
		ReturnURL:        b.ReturnURL(o.Reference),
		PaymentMethod:    in.PaymentMethod,
		BrowserInfo:      in.BrowserInfo,
		BillingAddress:   in.BillingAddress,
		Origin:           in.Origin,
		ShopperIP:        shopperIP,
		AdditionalData:   map[string]string{"allow3DS2": "true"},
		CountryCode:      o.CountryCode,
		ShopperReference: o.ShopperReference,
		ShopperEmail:     o.ShopperEmail,
		ShopperLocale:    o.ShopperLocale,
		LineItems:        o.LineItems,
	}, o, nil
}

// BuildSession renders the request for POST /sessions.
func (b Builder) BuildSession(methodType, shopperIP string) (adyen.SessionRequest, Order, error) {
	o, err := b.NewOrder(methodType, nil)
	if err != nil {
		return adyen.SessionRequest{}, Order{}, err
	}
	return adyen.SessionRequest{
		MerchantAccount:  b.MerchantAccount,
		Reference:        o.Reference,
		Amount:           o.Amount,
		Channel:          adyen.ChannelWeb,
		ReturnURL:        b.ReturnURL(o.Reference),
		CountryCode:      o.CountryCode,
		ShopperReference: o.ShopperReference,
		ShopperEmail:     o.ShopperEmail,
		ShopperLocale:    o.ShopperLocale,
		ShopperIP:        shopperIP,
		LineItems:        o.LineItems,
	}, o, nil
}
