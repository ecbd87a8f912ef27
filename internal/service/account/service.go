package account

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/email"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/repository"
	"github.com/medidesk/clinic-api/pkg/auth"
	"github.com/medidesk/clinic-api/pkg/errors"
	"github.com/medidesk/clinic-api/pkg/logger"
	"github.com/medidesk/clinic-api/pkg/messaging"
	"github.com/medidesk/clinic-api/pkg/metrics"
	"github.com/medidesk/clinic-api/pkg/security"
	"github.com/medidesk/clinic-api/pkg/validator"
)

const (
	verifyTokenExpiry = 48 * time.Hour

	sessionChannel = "sessions"
)

// Service is the account directory: it owns the credential-to-account
// mapping, the single role assignment per account, and session issue and
// teardown. It gates every patient-facing operation.
type Service struct {
	accounts repository.AccountRepository
	tokens   repository.TokenRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	emailSvc email.Service
	broker   messaging.Broker
	metrics  *metrics.Metrics
	validate *validator.Validator
	logger   *logger.Logger
}

func NewService(
	accounts repository.AccountRepository,
	tokens repository.TokenRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	broker messaging.Broker,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		emailSvc: emailSvc,
		broker:   broker,
		metrics:  m,
		validate: validator.New(),
		logger:   log,
	}
}

// SignUp creates a pending account and assigns its role exactly once. The
// verification link and the courtesy confirmation email are dispatched in
// the background; their failure never fails the sign-up.
func (s *Service) SignUp(ctx context.Context, req *model.SignUpRequest) (*model.Account, error) {
	if !req.Role.Valid() {
		return nil, errors.Validation("role must be doctor or receptionist")
	}

	if existing, _ := s.accounts.GetByEmail(ctx, req.Email); existing != nil {
		return nil, errors.AlreadyRegistered(req.Email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Internal(err)
	}

	account := &model.Account{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         req.Role,
		Verification: model.VerificationPending,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, errors.Unavailable(err)
	}

	// Role assignment failing here is a recoverable inconsistency, not a
	// sign-up failure: the account exists and an operator can re-run the
	// assignment.
	if err := s.accounts.UpsertRole(ctx, account.ID, req.Role); err != nil {
		s.logger.Error(err, "role assignment failed after sign-up",
			"account_id", account.ID.String(), "role", string(req.Role))
	}

	verifyToken := uuid.New().String()
	if err := s.tokens.StoreVerificationToken(ctx, account.ID, verifyToken, time.Now().Add(verifyTokenExpiry)); err != nil {
		s.logger.Error(err, "failed to store verification token; resend path remains available",
			"account_id", account.ID.String())
		verifyToken = ""
	}

	go s.dispatchSignUpEmails(account.Email, account.Role, verifyToken)

	s.metrics.SignUps.Inc()
	return account, nil
}

// dispatchSignUpEmails runs detached from the sign-up request. Failures
// are counted and logged, nothing more.
func (s *Service) dispatchSignUpEmails(to string, role model.Role, verifyToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if verifyToken != "" {
		if err := s.emailSvc.SendVerification(ctx, to, verifyToken); err != nil {
			s.metrics.EmailsFailed.Inc()
			s.logger.Error(err, "failed to send verification email", "email", to)
		} else {
			s.metrics.EmailsSent.Inc()
		}
	}

	if err := s.emailSvc.SendConfirmation(ctx, to, role); err != nil {
		s.metrics.EmailsFailed.Inc()
		s.logger.Error(err, "failed to send confirmation email", "email", to)
		return
	}
	s.metrics.EmailsSent.Inc()
}

// AssignRole is an idempotent upsert, exposed for operator reconciliation
// when the assignment during sign-up was lost.
func (s *Service) AssignRole(ctx context.Context, accountID uuid.UUID, role model.Role) error {
	if !role.Valid() {
		return errors.Validation("role must be doctor or receptionist")
	}
	if err := s.accounts.UpsertRole(ctx, accountID, role); err != nil {
		return errors.Unavailable(err)
	}
	return nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.InvalidCredentials()
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, errors.InvalidCredentials()
	}

	if account.Verification != model.VerificationVerified {
		return nil, errors.NotVerified()
	}

	accessToken, expiresAt, err := s.jwtSvc.GenerateAccessToken(account)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(account)
	if err != nil {
		return nil, errors.Internal(err)
	}

	session := s.sessionFor(account, expiresAt)
	s.publishSessionEvent(ctx, model.SessionEventSignedIn, account)

	s.metrics.SignIns.Inc()
	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Session:      session,
	}, nil
}

// SignOut invalidates the session. Idempotent: an already-invalid or
// already-revoked token signs out cleanly.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil
	}

	if err := s.tokens.RevokeSession(ctx, token, claims.ExpiresAt); err != nil {
		return errors.Unavailable(err)
	}

	s.broker.Publish(ctx, sessionChannel, &model.SessionEvent{
		Type:       model.SessionEventSignedOut,
		AccountID:  claims.AccountID,
		Email:      claims.Email,
		Role:       claims.Role,
		OccurredAt: time.Now(),
	})
	return nil
}

// CurrentSession resolves the active session for a bearer token, if any.
// Clients call it on entry to skip the login form; session events cover
// the case where a session appears after that first check.
func (s *Service) CurrentSession(ctx context.Context, token string) (*model.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.Unauthorized(nil)
	}

	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	revoked, err := s.tokens.IsSessionRevoked(ctx, token)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	if revoked {
		return nil, errors.Unauthorized(nil)
	}

	return &model.Session{
		AccountID:  claims.AccountID,
		Email:      claims.Email,
		Role:       claims.Role,
		RedirectTo: model.RoleConfigs[claims.Role].PortalPath,
		ExpiresAt:  claims.ExpiresAt,
	}, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	account, err := s.accounts.Get(ctx, claims.AccountID)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	accessToken, expiresAt, err := s.jwtSvc.GenerateAccessToken(account)
	if err != nil {
		return nil, errors.Internal(err)
	}
	newRefresh, err := s.jwtSvc.GenerateRefreshToken(account)
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		Session:      s.sessionFor(account, expiresAt),
	}, nil
}

// VerifyEmail completes the out-of-band confirmation link. It publishes a
// session event so a client that loaded before the link was clicked still
// learns about the verified account without a reload.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	accountID, err := s.tokens.ValidateVerificationToken(ctx, token)
	if err != nil {
		return errors.Validation("invalid or expired verification token")
	}

	if err := s.accounts.SetVerified(ctx, accountID); err != nil {
		return errors.Unavailable(err)
	}

	if err := s.tokens.InvalidateVerificationToken(ctx, token); err != nil {
		s.logger.Error(err, "failed to invalidate verification token", "account_id", accountID.String())
	}

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		s.logger.Error(err, "failed to load account after verification", "account_id", accountID.String())
		return nil
	}
	s.publishSessionEvent(ctx, model.SessionEventVerified, account)
	return nil
}

// ResendVerification re-issues the verification link and the courtesy
// confirmation message. The email is validated before any network call.
func (s *Service) ResendVerification(ctx context.Context, emailAddr string) error {
	if err := s.validate.Var(emailAddr, "required,email"); err != nil {
		return errors.Validation("a valid email address is required")
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		return errors.NotFound("account", err)
	}

	if account.Verification == model.VerificationVerified {
		return errors.Conflict("email is already verified")
	}

	verifyToken := uuid.New().String()
	if err := s.tokens.StoreVerificationToken(ctx, account.ID, verifyToken, time.Now().Add(verifyTokenExpiry)); err != nil {
		return errors.Unavailable(err)
	}

	if err := s.emailSvc.SendVerification(ctx, account.Email, verifyToken); err != nil {
		s.metrics.EmailsFailed.Inc()
		return errors.Unavailable(err)
	}
	s.metrics.EmailsSent.Inc()

	// The courtesy message stays best-effort even on the explicit resend
	// path; the verification link above is what matters.
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.emailSvc.SendConfirmation(bg, account.Email, account.Role); err != nil {
			s.metrics.EmailsFailed.Inc()
			s.logger.Error(err, "failed to resend confirmation email", "email", account.Email)
		} else {
			s.metrics.EmailsSent.Inc()
		}
	}()

	return nil
}

// SessionEvents exposes the standing session-change subscription consumed
// by the SSE endpoint.
func (s *Service) SessionEvents(ctx context.Context) (<-chan []byte, error) {
	return s.broker.Subscribe(ctx, sessionChannel)
}

func (s *Service) sessionFor(account *model.Account, expiresAt time.Time) *model.Session {
	return &model.Session{
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		RedirectTo: model.RoleConfigs[account.Role].PortalPath,
		ExpiresAt:  expiresAt,
	}
}

func (s *Service) publishSessionEvent(ctx context.Context, eventType string, account *model.Account) {
	event := &model.SessionEvent{
		Type:       eventType,
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		RedirectTo: model.RoleConfigs[account.Role].PortalPath,
		OccurredAt: time.Now(),
	}
	if err := s.broker.Publish(ctx, sessionChannel, event); err != nil {
		s.logger.Error(err, "failed to publish session event", "type", eventType)
	}
}
