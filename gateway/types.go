package gateway

// Payment method identifiers accepted by the gateway.
const (
	MethodPix  = "pix"
	MethodCard = "card"
)

// Gateway payment statuses. The reconciliation engine owns the mapping into
// ledger statuses; this package only transports them.
const (
	StatusApproved  = "approved"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

// Payer identifies who is paying.
type Payer struct {
	Email          string          `json:"email"`
	Identification *Identification `json:"identification,omitempty"`
}

// Identification is the payer's tax document, required for card payments.
type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// CreatePaymentRequest is the body of POST /v1/payments.
//
// ApplicationFee is the marketplace split: the platform's share of the sale,
// retained by the gateway on settlement. ExternalReference is the caller's
// correlation token, echoed back on every later fetch.
type CreatePaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description,omitempty"`
	PaymentMethodID   string  `json:"payment_method_id,omitempty"`
	Token             string  `json:"token,omitempty"`
	Installments      int     `json:"installments,omitempty"`
	Payer             Payer   `json:"payer"`
	ApplicationFee    float64 `json:"application_fee,omitempty"`
	ExternalReference string  `json:"external_reference"`
	NotificationURL   string  `json:"notification_url,omitempty"`
}

// Payment is the gateway's payment resource, returned by both creation and
// GET /v1/payments/{id}. Payment ids are numeric on this gateway; order ids
// are alphanumeric.
type Payment struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	TransactionAmount  float64             `json:"transaction_amount"`
	ExternalReference  string              `json:"external_reference"`
	PointOfInteraction *PointOfInteraction `json:"point_of_interaction,omitempty"`
}

// PointOfInteraction carries the PIX transaction data on instant-transfer
// payments: a scannable QR payload and the copy-paste code string.
type PointOfInteraction struct {
	TransactionData TransactionData `json:"transaction_data"`
}

// TransactionData holds the PIX QR payloads.
type TransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

// Order is the gateway's merchant-order resource. An order aggregates zero
// or more payments; order-level status is derived from the attached set.
type Order struct {
	ID                string         `json:"id"`
	ExternalReference string         `json:"external_reference"`
	Payments          []OrderPayment `json:"payments"`
}

// OrderPayment is the per-payment summary embedded in an order.
type OrderPayment struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// OAuthTokenRequest is the body of POST /oauth/token for the authorization
// code grant. ClientID and ClientSecret are platform-level credentials.
type OAuthTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	GrantType    string `json:"grant_type"`
	RedirectURI  string `json:"redirect_uri"`
}

// OAuthTokenResponse is the gateway's token-exchange response. UserID is the
// merchant's account id on the gateway side.
type OAuthTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	PublicKey    string `json:"public_key"`
	UserID       int64  `json:"user_id"`
	LiveMode     bool   `json:"live_mode"`
	ExpiresIn    int64  `json:"expires_in"`
}
