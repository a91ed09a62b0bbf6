package model

// AdAccount is one advertising account linked to the authorizing user,
// as returned by the Graph API. Stored with the token so listings do not
// have to re-query Meta.
type AdAccount struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id,omitempty"`
	Name          string `json:"name,omitempty"`
	AccountStatus int    `json:"account_status,omitempty"`
	Currency      string `json:"currency,omitempty"`
}
