package handlers

const (
	CSRFHeaderName      = "X-CSRF-Token"
	OAuthNonceCookie    = "oauth_nonce"
	maxJSONBodyBytes    = 1 << 20
	maxImportFileBytes  = 5 << 20
	webhookSignatureKey = "X-Signature"

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
)
