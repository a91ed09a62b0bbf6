package model

// TokenResponse is the payload of a Graph API token endpoint response.
// Both the code exchange and the long-lived exchange return this shape.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
