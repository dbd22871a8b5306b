package calendar

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Repository stores OAuth state and tokens in the shared schema; the
// callback arrives without a caller, so rows carry their clinic.
type Repository interface {
	SaveState(ctx context.Context, st *OAuthState) error
	// ConsumeState deletes and returns the unexpired state, or nil.
	ConsumeState(ctx context.Context, state string, now time.Time) (*OAuthState, error)
	SaveToken(ctx context.Context, clinicID, userID string, tok *oauth2.Token) error
}
