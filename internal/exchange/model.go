package exchange

import "time"

// Exchange is a request-to-fulfillment transaction between two members over
// one service. The provider is fixed at creation as the owner of the
// requested service.
type Exchange struct {
	ID                 string    `json:"id"`
	RequestedServiceID string    `json:"requested_service_id"`
	CounterServiceID   *string   `json:"counter_service_id,omitempty"`
	RequesterID        string    `json:"requester_id"`
	ProviderID         string    `json:"provider_id"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// SettlementMode selects how a completed exchange is paid for.
type SettlementMode int

const (
	// SettlementCredits debits the requester and credits the provider by the
	// requested service's hourly cost.
	SettlementCredits SettlementMode = iota
	// SettlementBarter exchanges the two services by record only.
	SettlementBarter
)

// Settlement is decided structurally by the presence of a counter-service,
// never by a free-text flag.
func (e *Exchange) Settlement() SettlementMode {
	if e.CounterServiceID == nil {
		return SettlementCredits
	}
	return SettlementBarter
}

// Participant reports whether userID is one of the two sides of the exchange.
func (e *Exchange) Participant(userID string) bool {
	return userID == e.RequesterID || userID == e.ProviderID
}

// OtherParty returns the participant who is not userID.
func (e *Exchange) OtherParty(userID string) string {
	if userID == e.RequesterID {
		return e.ProviderID
	}
	return e.RequesterID
}

// Service is the unit requested in an exchange and, optionally, the unit
// offered back as barter payment.
type Service struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CreditsPerHour int64     `json:"credits_per_hour"`
	CreatedAt      time.Time `json:"created_at"`
}

// Rating is authored by one participant of a completed exchange about the
// other.
type Rating struct {
	ID             string    `json:"id"`
	ExchangeID     string    `json:"exchange_id"`
	AuthorID       string    `json:"author_id"`
	DestinatarioID string    `json:"destinatario_id"`
	Score          int       `json:"score"`
	Comment        string    `json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}
