package calendar

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope grants read/write access to the user's calendars.
const Scope = "https://www.googleapis.com/auth/calendar"

const stateTTL = 10 * time.Minute

// OAuthConfig is the part of *oauth2.Config the flow uses.
type OAuthConfig interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// NewOAuthConfig returns the Google OAuth client for calendar access.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{Scope},
	}
}

var (
	errConsentDenied = errors.New("consent denied")
	errStateMismatch = errors.New("state mismatch")
	errMissingCode   = errors.New("missing code")
	errUnknownState  = errors.New("unknown or expired state")
)

type Service struct {
	oauth OAuthConfig
	repo  Repository
	now   func() time.Time
}

// NewService returns nil when oauth is nil, meaning the integration is not
// configured.
func NewService(oauth OAuthConfig, repo Repository) *Service {
	if oauth == nil {
		return nil
	}
	return &Service{oauth: oauth, repo: repo, now: time.Now}
}

// Start records a new state for the caller and returns the consent URL.
func (s *Service) Start(ctx context.Context, clinicID, userID string) (consentURL, state string, err error) {
	state, err = randomState()
	if err != nil {
		return "", "", err
	}
	verifier := oauth2.GenerateVerifier()
	st := &OAuthState{
		State:     state,
		ClinicID:  clinicID,
		UserID:    userID,
		Verifier:  verifier,
		ExpiresAt: s.now().UTC().Add(stateTTL),
	}
	if err := s.repo.SaveState(ctx, st); err != nil {
		return "", "", err
	}
	consentURL = s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
	return consentURL, state, nil
}

// Complete validates the callback and stores the exchanged token. The code
// is exchanged only after the state checks pass.
func (s *Service) Complete(ctx context.Context, p CallbackParams) (*OAuthState, error) {
	if p.Error != "" {
		return nil, fmt.Errorf("%w: %s", errConsentDenied, p.Error)
	}
	if p.State == "" || p.State != p.CookieState {
		return nil, errStateMismatch
	}
	if p.Code == "" {
		return nil, errMissingCode
	}

	st, err := s.repo.ConsumeState(ctx, p.State, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errUnknownState
	}

	tok, err := s.oauth.Exchange(ctx, p.Code, oauth2.VerifierOption(st.Verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if err := s.repo.SaveToken(ctx, st.ClinicID, st.UserID, tok); err != nil {
		return nil, err
	}
	return st, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
