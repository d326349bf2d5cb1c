package checkout_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/online-payments/internal/adyen"
	"github.com/noah-isme/online-payments/internal/checkout"
)

func TestResolveCurrency(t *testing.T) {
	known := map[string]string{
		"ach":                      "USD",
		"wechatpayqr":              "CNY",
		"alipay":                   "CNY",
		"dotpay":                   "PLN",
		"boletobancario":           "BRL",
		"boletobancario_santander": "BRL",
	}
	for method, want := range known {
		require.Equal(t, want, checkout.ResolveCurrency(method), method)
	}
	for _, method := range []string{"scheme", "ideal", "klarna", "", "ACH", "alipay_hk"} {
		require.Equal(t, "EUR", checkout.ResolveCurrency(method), method)
	}
}

func TestOutcomeMapping(t *testing.T) {
	cases := map[string]string{
		adyen.ResultAuthorised:       "/result/success?reason=Authorised",
		adyen.ResultRefused:          "/result/failed?reason=Refused",
		adyen.ResultPending:          "/result/pending?reason=Pending",
		adyen.ResultReceived:         "/result/pending?reason=Received",
		adyen.ResultCancelled:        "/result/error?reason=Cancelled",
		adyen.ResultError:            "/result/error?reason=Error",
		adyen.ResultChallengeShopper: "/result/error?reason=ChallengeShopper",
	}
	for code, want := range cases {
		require.Equal(t, want, checkout.ResultPath(code), code)
	}
}

func TestBuilderReferencesAreUniqueUnderConcurrency(t *testing.T) {
	b := checkout.Builder{MerchantAccount: "TestMerchant", PublicBaseURL: "http://localhost:8080"}
	const n = 200
	refs := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := b.NewOrder("scheme", nil)
			assert.NoError(t, err)
			refs <- o.Reference
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[string]struct{}, n)
	for ref := range refs {
		require.NotEmpty(t, ref)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
	require.Len(t, seen, n)
}

func schemeDetails(t *testing.T, methodType string) adyen.PaymentMethodDetails {
	t.Helper()
	var d adyen.PaymentMethodDetails
	require.NoError(t, d.UnmarshalJSON([]byte(`{"type":"`+methodType+`"}`)))
	return d
}

func TestBuildPaymentForDeferredMethodCarriesTaxBreakdown(t *testing.T) {
	b := checkout.Builder{
		MerchantAccount: "TestMerchant",
		PublicBaseURL:   "http://localhost:8080/",
		Augmentations:   checkout.DefaultAugmentations(2100),
		NewReference:    func() string { return "ref-42" },
	}
	cart := []checkout.CartItem{
		{ID: "Item 1", Description: "Sunglasses", Quantity: 1, AmountIncludingTax: 400},
		{ID: "Item 2", Description: "Headphones", Quantity: 2, AmountIncludingTax: 300},
		{ID: "Item 3", Description: "Case", Quantity: 1, AmountIncludingTax: 121},
	}
	req, order, err := b.BuildPayment(checkout.PaymentInput{PaymentMethod: schemeDetails(t, "klarna_account"), LineItems: cart}, "10.0.0.1")
	require.NoError(t, err)

	require.Equal(t, "ref-42", req.Reference)
	require.Equal(t, "ref-42", order.Reference)
	require.Equal(t, "http://localhost:8080/api/handleShopperRedirect?orderRef=ref-42", req.ReturnURL)
	require.Equal(t, adyen.Amount{Currency: "EUR", Value: 1121}, req.Amount)
	require.Equal(t, adyen.ChannelWeb, req.Channel)
	require.Equal(t, "true", req.AdditionalData["allow3DS2"])
	require.Equal(t, "DE", req.CountryCode)
	require.Equal(t, "en_US", req.ShopperLocale)
	require.NotEmpty(t, req.ShopperReference)
	require.NotEmpty(t, req.ShopperEmail)
	require.Equal(t, "10.0.0.1", req.ShopperIP)

	require.Len(t, req.LineItems, 3)
	for _, li := range req.LineItems {
		require.NotNil(t, li.TaxAmount)
		require.NotNil(t, li.TaxPercentage)
		require.NotNil(t, li.AmountExcludingTax)
		require.NotNil(t, li.AmountIncludingTax)
		require.Equal(t, int64(2100), *li.TaxPercentage)
		require.Equal(t, *li.AmountIncludingTax, *li.AmountExcludingTax+*li.TaxAmount)
	}
	require.Equal(t, int64(331), *req.LineItems[0].AmountExcludingTax)
	require.Equal(t, int64(69), *req.LineItems[0].TaxAmount)
	require.Equal(t, int64(248), *req.LineItems[1].AmountExcludingTax)
	require.Equal(t, int64(52), *req.LineItems[1].TaxAmount)
	require.Equal(t, int64(100), *req.LineItems[2].AmountExcludingTax)
	require.Equal(t, int64(21), *req.LineItems[2].TaxAmount)
}

func TestBuildPaymentForCardHasNoLineItems(t *testing.T) {
	b := checkout.Builder{MerchantAccount: "TestMerchant", PublicBaseURL: "http://localhost:8080", Augmentations: checkout.DefaultAugmentations(2100)}
	req, _, err := b.BuildPayment(checkout.PaymentInput{PaymentMethod: schemeDetails(t, "scheme"), Origin: "http://localhost:8080"}, "")
	require.NoError(t, err)

	require.Empty(t, req.LineItems)
	require.Empty(t, req.CountryCode)
	require.Empty(t, req.ShopperReference)
	require.Equal(t, adyen.Amount{Currency: "EUR", Value: 1000}, req.Amount)
	require.Equal(t, "http://localhost:8080", req.Origin)
}

func TestBuildPaymentUsesMethodCurrency(t *testing.T) {
	b := checkout.Builder{MerchantAccount: "TestMerchant"}
	req, _, err := b.BuildPayment(checkout.PaymentInput{PaymentMethod: schemeDetails(t, "dotpay")}, "")
	require.NoError(t, err)
	require.Equal(t, "PLN", req.Amount.Currency)
}

func TestAugmentationsApplyInOrder(t *testing.T) {
	var applied []string
	entry := func(name string) checkout.Augmentation {
		return checkout.Augmentation{
			Name:  name,
			Match: func(string) bool { return true },
			Apply: func(o *checkout.Order) {
				applied = append(applied, name)
				o.ShopperLocale = name
			},
		}
	}
	b := checkout.Builder{Augmentations: []checkout.Augmentation{
		entry("first"),
		{Name: "never", Match: func(string) bool { return false }, Apply: func(*checkout.Order) { applied = append(applied, "never") }},
		entry("second"),
	}}
	o, err := b.NewOrder("ideal", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, applied)
	require.Equal(t, "second", o.ShopperLocale)
}

func TestBuildSessionUsesSameAugmentations(t *testing.T) {
	b := checkout.Builder{MerchantAccount: "TestMerchant", PublicBaseURL: "http://localhost:8080", Augmentations: checkout.DefaultAugmentations(2100)}
	req, order, err := b.BuildSession("klarna_paynow", "")
	require.NoError(t, err)
	require.Equal(t, order.Reference, req.Reference)
	require.Len(t, req.LineItems, 2)
	require.Equal(t, "DE", req.CountryCode)

	req, _, err = b.BuildSession("ideal", "")
	require.NoError(t, err)
	require.Empty(t, req.LineItems)
}

func TestMemoryStoreSingleUse(t *testing.T) {
	testStoreSingleUse(t, checkout.NewMemoryStore())
}

func testStoreSingleUse(t *testing.T, store checkout.Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Take(ctx, "never-inserted")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(ctx, "ref-1", "token-1"))
	token, ok, err := store.Take(ctx, "ref-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "token-1", token)

	_, ok, err = store.Take(ctx, "ref-1")
	require.NoError(t, err)
	require.False(t, ok, "entries must be consumed by the first take")
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := checkout.NewMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := fmt.Sprintf("ref-%d", i)
			if !assert.NoError(t, store.Put(ctx, ref, ref)) {
				return
			}
			token, ok, err := store.Take(ctx, ref)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, ref, token)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 0, store.Len())
}
