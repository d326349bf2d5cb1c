package checkout

// DefaultCurrency is used for payment methods without a dedicated currency.
const DefaultCurrency = "EUR"

var currencyByMethod = map[string]string{
	"ach":                      "USD",
	"wechatpayqr":              "CNY",
	"alipay":                   "CNY",
	"dotpay":                   "PLN",
	"boletobancario":           "BRL",
	"boletobancario_santander": "BRL",
}

// ResolveCurrency returns the ISO 4217 currency to charge for a payment method type.
func ResolveCurrency(methodType string) string {
	if code, ok := currencyByMethod[methodType]; ok {
		return code
	}
	return DefaultCurrency
}
