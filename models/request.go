package models

// ResolveRequest is the payload for POST /api/v1/resolve.
type ResolveRequest struct {
	// URL is the product page to describe. Required.
	URL string `json:"url" binding:"required"`

	// MaxAge, in milliseconds, tightens how old a cached card may be.
	// 0 accepts anything within the server TTL.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// BatchRequest is the payload for POST /api/v1/batch/resolve.
type BatchRequest struct {
	// URLs is the list of product pages to describe. Required.
	URLs []string `json:"urls" binding:"required,min=1"`

	// WebhookURL receives a signed batch.completed event when the job ends.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook body with HMAC-SHA256.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}
