package adyen

// Channel values accepted by the Checkout API.
const (
	ChannelWeb = "Web"
)

// Result codes reported by the Checkout API for payments and payment details.
const (
	ResultAuthenticationFinished    = "AuthenticationFinished"
	ResultAuthenticationNotRequired = "AuthenticationNotRequired"
	ResultAuthorised                = "Authorised"
	ResultCancelled                 = "Cancelled"
	ResultChallengeShopper          = "ChallengeShopper"
	ResultError                     = "Error"
	ResultIdentifyShopper           = "IdentifyShopper"
	ResultPending                   = "Pending"
	ResultPresentToShopper          = "PresentToShopper"
	ResultReceived                  = "Received"
	ResultRedirectShopper           = "RedirectShopper"
	ResultRefused                   = "Refused"
)

// Amount is a monetary value in minor units.
type Amount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

// LineItem describes a single cart entry. Tax fields are only required by
// deferred payment methods such as Klarna.
type LineItem struct {
	ID                 string `json:"id,omitempty"`
	Description        string `json:"description,omitempty"`
	Quantity           int64  `json:"quantity,omitempty"`
	AmountIncludingTax *int64 `json:"amountIncludingTax,omitempty"`
	AmountExcludingTax *int64 `json:"amountExcludingTax,omitempty"`
	TaxAmount          *int64 `json:"taxAmount,omitempty"`
	TaxPercentage      *int64 `json:"taxPercentage,omitempty"`
}

// BrowserInfo carries the shopper browser metadata needed for 3-D Secure 2.
type BrowserInfo struct {
	AcceptHeader   string `json:"acceptHeader,omitempty"`
	ColorDepth     int    `json:"colorDepth,omitempty"`
	JavaEnabled    bool   `json:"javaEnabled"`
	JavaScript     *bool  `json:"javaScriptEnabled,omitempty"`
	Language       string `json:"language,omitempty"`
	ScreenHeight   int    `json:"screenHeight,omitempty"`
	ScreenWidth    int    `json:"screenWidth,omitempty"`
	TimeZoneOffset int    `json:"timeZoneOffset"`
	UserAgent      string `json:"userAgent,omitempty"`
}

// Address is a postal address.
type Address struct {
	City              string `json:"city,omitempty"`
	Country           string `json:"country,omitempty"`
	HouseNumberOrName string `json:"houseNumberOrName,omitempty"`
	PostalCode        string `json:"postalCode,omitempty"`
	StateOrProvince   string `json:"stateOrProvince,omitempty"`
	Street            string `json:"street,omitempty"`
}

// PaymentMethodsRequest asks for the payment methods available to a merchant.
type PaymentMethodsRequest struct {
	MerchantAccount string  `json:"merchantAccount"`
	Channel         string  `json:"channel,omitempty"`
	CountryCode     string  `json:"countryCode,omitempty"`
	ShopperLocale   string  `json:"shopperLocale,omitempty"`
	Amount          *Amount `json:"amount,omitempty"`
}

// Issuer is a selectable issuer of a payment method, e.g. a bank.
type Issuer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled,omitempty"`
}

// PaymentMethod is one entry of the payment methods list.
type PaymentMethod struct {
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	Brand         string            `json:"brand,omitempty"`
	Brands        []string          `json:"brands,omitempty"`
	Configuration map[string]string `json:"configuration,omitempty"`
	FundingSource string            `json:"fundingSource,omitempty"`
	Issuers       []Issuer          `json:"issuers,omitempty"`
}

// StoredPaymentMethod is a tokenised payment method saved for a shopper.
type StoredPaymentMethod struct {
	ID                           string   `json:"id"`
	Name                         string   `json:"name,omitempty"`
	Type                         string   `json:"type,omitempty"`
	Brand                        string   `json:"brand,omitempty"`
	ExpiryMonth                  string   `json:"expiryMonth,omitempty"`
	ExpiryYear                   string   `json:"expiryYear,omitempty"`
	HolderName                   string   `json:"holderName,omitempty"`
	LastFour                     string   `json:"lastFour,omitempty"`
	SupportedShopperInteractions []string `json:"supportedShopperInteractions,omitempty"`
}

// PaymentMethodsResponse lists the methods the shopper can choose from.
type PaymentMethodsResponse struct {
	PaymentMethods       []PaymentMethod       `json:"paymentMethods,omitempty"`
	StoredPaymentMethods []StoredPaymentMethod `json:"storedPaymentMethods,omitempty"`
}

// PaymentRequest is the body of POST /payments.
type PaymentRequest struct {
	MerchantAccount  string               `json:"merchantAccount"`
	Reference        string               `json:"reference"`
	Amount           Amount               `json:"amount"`
	Channel          string               `json:"channel,omitempty"`
	ReturnURL        string               `json:"returnUrl"`
	PaymentMethod    PaymentMethodDetails `json:"paymentMethod"`
	BrowserInfo      *BrowserInfo         `json:"browserInfo,omitempty"`
	BillingAddress   *Address             `json:"billingAddress,omitempty"`
	Origin           string               `json:"origin,omitempty"`
	ShopperIP        string               `json:"shopperIP,omitempty"`
	AdditionalData   map[string]string    `json:"additionalData,omitempty"`
	CountryCode      string               `json:"countryCode,omitempty"`
	ShopperReference string               `json:"shopperReference,omitempty"`
	ShopperEmail     string               `json:"shopperEmail,omitempty"`
	ShopperLocale    string               `json:"shopperLocale,omitempty"`
	LineItems        []LineItem           `json:"lineItems,omitempty"`
}

// Action is the next step the shopper must complete, such as a redirect or a
// 3-D Secure challenge.
type Action struct {
	Type               string            `json:"type"`
	PaymentMethodType  string            `json:"paymentMethodType,omitempty"`
	PaymentData        string            `json:"paymentData,omitempty"`
	URL                string            `json:"url,omitempty"`
	Method             string            `json:"method,omitempty"`
	Data               map[string]string `json:"data,omitempty"`
	Token              string            `json:"token,omitempty"`
	AuthorisationToken string            `json:"authorisationToken,omitempty"`
	Subtype            string            `json:"subtype,omitempty"`
	QRCodeData         string            `json:"qrCodeData,omitempty"`
	SDKData            map[string]string `json:"sdkData,omitempty"`
}

// PaymentResponse is returned by both /payments and /payments/details.
type PaymentResponse struct {
	PSPReference      string            `json:"pspReference,omitempty"`
	ResultCode        string            `json:"resultCode,omitempty"`
	MerchantReference string            `json:"merchantReference,omitempty"`
	RefusalReason     string            `json:"refusalReason,omitempty"`
	RefusalReasonCode string            `json:"refusalReasonCode,omitempty"`
	Amount            *Amount           `json:"amount,omitempty"`
	Action            *Action           `json:"action,omitempty"`
	AdditionalData    map[string]string `json:"additionalData,omitempty"`
	Order             map[string]any    `json:"order,omitempty"`
	DonationToken     string            `json:"donationToken,omitempty"`
}

// ContinuationToken returns the opaque payment data the provider expects to be
// echoed back on the next step, if any.
func (r PaymentResponse) ContinuationToken() (string, bool) {
	if r.Action == nil || r.Action.PaymentData == "" {
		return "", false
	}
	return r.Action.PaymentData, true
}

// PaymentDetailsRequest is the body of POST /payments/details.
type PaymentDetailsRequest struct {
	Details                   map[string]string `json:"details,omitempty"`
	PaymentData               string            `json:"paymentData,omitempty"`
	ThreeDSAuthenticationOnly *bool             `json:"threeDSAuthenticationOnly,omitempty"`
}

// SessionRequest is the body of POST /sessions.
type SessionRequest struct {
	MerchantAccount  string     `json:"merchantAccount"`
	Reference        string     `json:"reference"`
	Amount           Amount     `json:"amount"`
	Channel          string     `json:"channel,omitempty"`
	ReturnURL        string     `json:"returnUrl"`
	CountryCode      string     `json:"countryCode,omitempty"`
	ShopperReference string     `json:"shopperReference,omitempty"`
	ShopperEmail     string     `json:"shopperEmail,omitempty"`
	ShopperLocale    string     `json:"shopperLocale,omitempty"`
	ShopperIP        string     `json:"shopperIP,omitempty"`
	LineItems        []LineItem `json:"lineItems,omitempty"`
}

// SessionResponse carries the session the front end hands to Drop-in.
type SessionResponse struct {
	ID              string `json:"id"`
	SessionData     string `json:"sessionData"`
	Amount          Amount `json:"amount"`
	ExpiresAt       string `json:"expiresAt,omitempty"`
	MerchantAccount string `json:"merchantAccount"`
	Reference       string `json:"reference"`
	ReturnURL       string `json:"returnUrl"`
	CountryCode     string `json:"countryCode,omitempty"`
	ShopperLocale   string `json:"shopperLocale,omitempty"`
}
