package common

const (
	// AuthorizationHeaderName carries the bearer token on inbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// TokenTypeBearer is reported to clients alongside an issued token.
	TokenTypeBearer = "bearer"

	// DateLayout is the wire format of calendar dates (no time of day).
	DateLayout = "2006-01-02"
)
