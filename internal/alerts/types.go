package alerts

// Notification kinds surfaced in the in-app feed.
const (
	TypeExchangeRequested = "exchange_requested"
	TypeExchangeUpdated   = "exchange_updated"
	TypeRatingReceived    = "rating_received"
	TypeCreditsAdjusted   = "credits_adjusted"
)
