package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) SaveState(ctx context.Context, st *OAuthState) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shared.google_oauth_states (state, clinic_id, user_id, verifier, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		st.State, st.ClinicID, st.UserID, st.Verifier, st.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// consumeStateSQL removes the requested state together with every expired
// row, so abandoned logins do not accumulate.
const consumeStateSQL = `
	DELETE FROM shared.google_oauth_states
	WHERE state = $1 OR expires_at <= $2
	RETURNING state, clinic_id, user_id, verifier, expires_at`

func (r *repoPG) ConsumeState(ctx context.Context, state string, now time.Time) (*OAuthState, error) {
	rows, err := r.pool.Query(ctx, consumeStateSQL, state, now)
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	deleted, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OAuthState, error) {
		var st OAuthState
		err := row.Scan(&st.State, &st.ClinicID, &st.UserID, &st.Verifier, &st.ExpiresAt)
		return st, err
	})
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	return pickState(deleted, state, now), nil
}

// pickState returns the deleted row matching state if it was still valid.
func pickState(deleted []OAuthState, state string, now time.Time) *OAuthState {
	for i := range deleted {
		if deleted[i].State == state && deleted[i].ExpiresAt.After(now) {
			return &deleted[i]
		}
	}
	return nil
}

func (r *repoPG) SaveToken(ctx context.Context, clinicID, userID string, tok *oauth2.Token) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shared.google_calendar_tokens (clinic_id, user_id, access_token, refresh_token, token_type, expiry)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		ON CONFLICT (clinic_id, user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, shared.google_calendar_tokens.refresh_token),
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = now()`,
		clinicID, userID, tok.AccessToken, tok.RefreshToken, tok.TokenType, tok.Expiry)
	if err != nil {
		return fmt.Errorf("save calendar token: %w", err)
	}
	return nil
}
