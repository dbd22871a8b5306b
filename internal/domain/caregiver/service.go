package caregiver

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

const (
	DefaultTokenTTL      = 72 * time.Hour
	tokenBytes           = 32
	upcomingAppointments = 10
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	random io.Reader
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, random: rand.Reader, now: time.Now}
}

// Summary returns the patient's summary for a linked caregiver.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (*Summary, error) {
	linked, err := s.repo.IsLinked(ctx, req.CaregiverID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, apperr.NotFound("caregiver.not_linked")
	}

	patient, err := s.repo.GetPatient(ctx, req.CaregiverID, req.PatientID)
	if err != nil {
		return nil, err
	}
	meds, err := s.repo.ActiveMedications(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	allergies, err := s.repo.Allergies(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	appts, err := s.repo.UpcomingAppointments(ctx, req.PatientID, upcomingAppointments)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Patient:              patient,
		Medications:          nonNil(meds),
		Allergies:            nonNil(allergies),
		UpcomingAppointments: nonNil(appts),
	}, nil
}

// RotateToken revokes the caregiver's active tokens for the patient and
// issues a fresh one. The plaintext token is returned once and never stored.
func (s *Service) RotateToken(ctx context.Context, req RotateRequest) (*RotateResult, error) {
	caregiverID, err := uuid.Parse(req.CaregiverID)
	if err != nil {
		return nil, apperr.BadRequest("validation.invalid_id").With("field", "caregiver_id")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.BadRequest("validation.invalid_id").With("field", "patient_id")
	}
	linked, err := s.repo.IsLinked(ctx, caregiverID, patientID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, apperr.NotFound("caregiver.not_linked")
	}

	ttl := DefaultTokenTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	token, hash, err := s.newToken()
	if err != nil {
		return nil, err
	}
	t := &AccessToken{
		ID:          uuid.New(),
		CaregiverID: caregiverID,
		PatientID:   patientID,
		TokenHash:   hash,
		IssuedBy:    auth.UserIDFromContext(ctx),
		ExpiresAt:   s.now().UTC().Add(ttl),
	}
	revoked, err := s.repo.RotateToken(ctx, t)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("caregiver_id", caregiverID.String()).
		Str("patient_id", patientID.String()).
		Int64("revoked", revoked).
		Time("expires_at", t.ExpiresAt).
		Msg("caregiver token rotated")

	return &RotateResult{Success: true, Token: token, ExpiresAt: t.ExpiresAt, RevokedCount: revoked}, nil
}

func (s *Service) newToken() (token, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken is the stored form of a portal token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
