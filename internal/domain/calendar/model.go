package calendar

import "time"

// OAuthState ties a consent round-trip to the clinic and user that started it.
type OAuthState struct {
	State     string
	ClinicID  string
	UserID    string
	Verifier  string
	ExpiresAt time.Time
}

// CallbackParams are the inputs of the OAuth callback.
type CallbackParams struct {
	Code        string
	State       string
	Error       string
	CookieState string
}
