package telehealth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
	"github.com/clinicops/practice/internal/platform/db"
	"github.com/clinicops/practice/internal/platform/notification"
)

// Mailer sends templated email. *notification.Notifier satisfies it.
type Mailer interface {
	SendTemplate(ctx context.Context, templateID, recipient string, data map[string]string, resourceType, resourceID string) error
}

// ValidateRequest checks the provider and its URL requirements.
func ValidateRequest(req CreateLinkRequest) error {
	switch req.Provider {
	case ProviderJitsi:
		return nil
	case ProviderCustom:
		if strings.TrimSpace(req.CustomURL) == "" {
			return apperr.BadRequest("telehealth.custom_url_required")
		}
		u, err := url.Parse(strings.TrimSpace(req.CustomURL))
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return apperr.BadRequest("telehealth.custom_url_invalid")
		}
		return nil
	default:
		return apperr.BadRequest("telehealth.invalid_provider").With("allowed", strings.Join(Providers, ", "))
	}
}

type Service struct {
	repo      Repository
	mailer    Mailer
	jitsiBase string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates the service. mailer may be nil, in which case
// notify_email is ignored.
func NewService(repo Repository, mailer Mailer, jitsiBaseURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		mailer:    mailer,
		jitsiBase: strings.TrimRight(jitsiBaseURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateLink builds and stores a visit link, then emails it when requested.
// Email failures are logged and never fail the call.
func (s *Service) CreateLink(ctx context.Context, req CreateLinkRequest) (*Link, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	l := &Link{
		ID:        uuid.New(),
		Provider:  req.Provider,
		CreatedBy: auth.UserIDFromContext(ctx),
		ExpiresAt: s.now().UTC().Add(DefaultLinkTTL).Truncate(time.Second),
	}
	if req.AppointmentID != "" {
		id, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			return nil, apperr.BadRequest("validation.invalid_id").With("field", "appointment_id")
		}
		l.AppointmentID = &id
	}
	switch req.Provider {
	case ProviderCustom:
		l.URL = strings.TrimSpace(req.CustomURL)
	case ProviderJitsi:
		l.URL = s.jitsiBase + "/" + JitsiRoom(db.ClinicFromContext(ctx), l.ID)
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	if req.NotifyEmail != "" && s.mailer != nil {
		data := map[string]string{"url": l.URL, "expires_at": l.ExpiresAt.Format(time.RFC3339)}
		if err := s.mailer.SendTemplate(ctx, notification.TemplateTelehealthLink, req.NotifyEmail, data, "telehealth_link", l.ID.String()); err != nil {
			s.logger.Warn().Err(err).Str("link_id", l.ID.String()).Msg("telehealth link email failed")
		}
	}
	return l, nil
}

// JitsiRoom derives an unguessable room name scoped to the clinic.
func JitsiRoom(clinicID string, linkID uuid.UUID) string {
	prefix := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return -1
	}, clinicID)
	if prefix == "" {
		prefix = "clinic"
	}
	return prefix + "-" + strings.ReplaceAll(linkID.String(), "-", "")
}
