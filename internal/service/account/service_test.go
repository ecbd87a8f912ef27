package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/pkg/auth"
	apperrors "github.com/medidesk/clinic-api/pkg/errors"
	"github.com/medidesk/clinic-api/pkg/logger"
	"github.com/medidesk/clinic-api/pkg/metrics"
	"github.com/medidesk/clinic-api/pkg/security"
)

var testMetrics = metrics.NewMetrics("account_test")

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
	byEmail  map[string]uuid.UUID

	failUpsertRole bool
	createCalls    int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: map[uuid.UUID]*model.Account{},
		byEmail:  map[string]uuid.UUID{},
	}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	copy := *account
	// Mirrors the store: role lives in its own table.
	copy.Role = ""
	r.accounts[account.ID] = &copy
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *fakeAccountRepo) Get(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	copy := *account
	return &copy, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, errors.New("no rows")
	}
	copy := *r.accounts[id]
	return &copy, nil
}

func (r *fakeAccountRepo) UpsertRole(_ context.Context, accountID uuid.UUID, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsertRole {
		return errors.New("store unreachable")
	}
	if account, ok := r.accounts[accountID]; ok {
		account.Role = role
	}
	return nil
}

func (r *fakeAccountRepo) SetVerified(_ context.Context, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[accountID]; ok {
		account.Verification = model.VerificationVerified
	}
	return nil
}

type fakeTokenRepo struct {
	mu       sync.Mutex
	verify   map[string]uuid.UUID
	revoked  map[string]bool
	failNext bool
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{verify: map[string]uuid.UUID{}, revoked: map[string]bool{}}
}

func (r *fakeTokenRepo) StoreVerificationToken(_ context.Context, accountID uuid.UUID, token string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errors.New("store unreachable")
	}
	r.verify[token] = accountID
	return nil
}

func (r *fakeTokenRepo) ValidateVerificationToken(_ context.Context, token string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	accountID, ok := r.verify[token]
	if !ok {
		return uuid.Nil, errors.New("unknown token")
	}
	return accountID, nil
}

func (r *fakeTokenRepo) InvalidateVerificationToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.verify, token)
	return nil
}

func (r *fakeTokenRepo) RevokeSession(_ context.Context, token string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = true
	return nil
}

func (r *fakeTokenRepo) IsSessionRevoked(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[token], nil
}

type emailCall struct {
	kind string
	to   string
}

type fakeEmailService struct {
	mu    sync.Mutex
	calls []emailCall
	fail  bool
	sent  chan emailCall
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{sent: make(chan emailCall, 10)}
}

func (s *fakeEmailService) record(kind, to string) error {
	s.mu.Lock()
	failed := s.fail
	if !failed {
		s.calls = append(s.calls, emailCall{kind: kind, to: to})
	}
	s.mu.Unlock()
	s.sent <- emailCall{kind: kind, to: to}
	if failed {
		return errors.New("smtp unreachable")
	}
	return nil
}

func (s *fakeEmailService) SendConfirmation(_ context.Context, to string, _ model.Role) error {
	return s.record("confirmation", to)
}

func (s *fakeEmailService) SendVerification(_ context.Context, to string, _ string) error {
	return s.record("verification", to)
}

type fakeBroker struct {
	mu     sync.Mutex
	events []*model.SessionEvent
	ch     chan []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{ch: make(chan []byte, 10)}
}

func (b *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if event, ok := message.(*model.SessionEvent); ok {
		b.events = append(b.events, event)
	}
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return b.ch, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var types []string
	for _, e := range b.events {
		types = append(types, e.Type)
	}
	return types
}

type fixture struct {
	svc      *Service
	accounts *fakeAccountRepo
	tokens   *fakeTokenRepo
	emails   *fakeEmailService
	broker   *fakeBroker
}

func newFixture() *fixture {
	accounts := newFakeAccountRepo()
	tokens := newFakeTokenRepo()
	emails := newFakeEmailService()
	broker := newFakeBroker()

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})

	svc := NewService(
		accounts,
		tokens,
		jwtSvc,
		security.NewBcryptHasher(4),
		emails,
		broker,
		testMetrics,
		logger.NewLogger(nil),
	)

	return &fixture{svc: svc, accounts: accounts, tokens: tokens, emails: emails, broker: broker}
}

func signUpRequest() *model.SignUpRequest {
	return &model.SignUpRequest{
		Email:    "dr.house@example.com",
		Password: "sup3rsecret",
		FullName: "Gregory House",
		Role:     model.RoleDoctor,
	}
}

func waitForEmails(t *testing.T, emails *fakeEmailService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-emails.sent:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for email %d of %d", i+1, n)
		}
	}
}

func TestSignUp(t *testing.T) {
	f := newFixture()

	account, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)

	assert.Equal(t, model.VerificationPending, account.Verification)
	assert.Equal(t, model.RoleDoctor, account.Role)

	stored, err := f.accounts.Get(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, stored.Role)

	// Verification link plus courtesy confirmation, both dispatched off
	// the request path.
	waitForEmails(t, f.emails, 2)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	waitForEmails(t, f.emails, 2)

	_, err = f.svc.SignUp(context.Background(), signUpRequest())
	assert.Equal(t, apperrors.ErrAlreadyRegistered, apperrors.CodeOf(err))
	assert.Equal(t, 1, f.accounts.createCalls)
}

func TestSignUpInvalidRole(t *testing.T) {
	f := newFixture()

	req := signUpRequest()
	req.Role = "admin"
	_, err := f.svc.SignUp(context.Background(), req)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
	assert.Equal(t, 0, f.accounts.createCalls)
}

// Email delivery failing must not fail the sign-up.
func TestSignUpEmailFailureSwallowed(t *testing.T) {
	f := newFixture()
	f.emails.fail = true

	_, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, f.accounts.createCalls)
	waitForEmails(t, f.emails, 2)
}

// Role assignment failing after the account write is a recoverable
// inconsistency, not a sign-up failure.
func TestSignUpRoleAssignmentFailureSwallowed(t *testing.T) {
	f := newFixture()
	f.accounts.failUpsertRole = true

	account, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	waitForEmails(t, f.emails, 2)

	stored, err := f.accounts.Get(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Role)

	// The reconciliation path restores it.
	f.accounts.failUpsertRole = false
	require.NoError(t, f.svc.AssignRole(context.Background(), account.ID, model.RoleDoctor))
	stored, _ = f.accounts.Get(context.Background(), account.ID)
	assert.Equal(t, model.RoleDoctor, stored.Role)
}

func signUpVerified(t *testing.T, f *fixture) *model.Account {
	t.Helper()
	account, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	waitForEmails(t, f.emails, 2)
	require.NoError(t, f.accounts.SetVerified(context.Background(), account.ID))
	return account
}

func TestSignIn(t *testing.T) {
	f := newFixture()
	signUpVerified(t, f)

	tokens, err := f.svc.SignIn(context.Background(), "dr.house@example.com", "sup3rsecret")
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, model.RoleDoctor, tokens.Session.Role)
	assert.Equal(t, "/doctor-dashboard", tokens.Session.RedirectTo)
	assert.Contains(t, f.broker.eventTypes(), model.SessionEventSignedIn)
}

func TestSignInWrongPassword(t *testing.T) {
	f := newFixture()
	signUpVerified(t, f)

	_, err := f.svc.SignIn(context.Background(), "dr.house@example.com", "wrong")
	assert.Equal(t, apperrors.ErrInvalidCredentials, apperrors.CodeOf(err))
}

func TestSignInUnknownEmail(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SignIn(context.Background(), "nobody@example.com", "whatever")
	assert.Equal(t, apperrors.ErrInvalidCredentials, apperrors.CodeOf(err))
}

func TestSignInUnverified(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	waitForEmails(t, f.emails, 2)

	_, err = f.svc.SignIn(context.Background(), "dr.house@example.com", "sup3rsecret")
	assert.Equal(t, apperrors.ErrNotVerified, apperrors.CodeOf(err))
}

func TestSignOutIsIdempotent(t *testing.T) {
	f := newFixture()
	signUpVerified(t, f)

	tokens, err := f.svc.SignIn(context.Background(), "dr.house@example.com", "sup3rsecret")
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(context.Background(), tokens.AccessToken))
	require.NoError(t, f.svc.SignOut(context.Background(), tokens.AccessToken))
	require.NoError(t, f.svc.SignOut(context.Background(), "not-even-a-token"))

	_, err = f.svc.CurrentSession(context.Background(), tokens.AccessToken)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestCurrentSession(t *testing.T) {
	f := newFixture()
	account := signUpVerified(t, f)

	tokens, err := f.svc.SignIn(context.Background(), "dr.house@example.com", "sup3rsecret")
	require.NoError(t, err)

	session, err := f.svc.CurrentSession(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, session.AccountID)
	assert.Equal(t, "/doctor-dashboard", session.RedirectTo)

	_, err = f.svc.CurrentSession(context.Background(), "")
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture()
	account, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	waitForEmails(t, f.emails, 2)

	f.tokens.mu.Lock()
	var verifyToken string
	for token := range f.tokens.verify {
		verifyToken = token
	}
	f.tokens.mu.Unlock()
	require.NotEmpty(t, verifyToken)

	require.NoError(t, f.svc.VerifyEmail(context.Background(), verifyToken))

	stored, _ := f.accounts.Get(context.Background(), account.ID)
	assert.Equal(t, model.VerificationVerified, stored.Verification)

	// The late-arriving confirmation must be announced so a client that
	// already rendered the login screen still learns about it.
	assert.Contains(t, f.broker.eventTypes(), model.SessionEventVerified)

	// The link is single use.
	err = f.svc.VerifyEmail(context.Background(), verifyToken)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

// An empty email is rejected before any store or SMTP call.
func TestResendVerificationEmptyEmail(t *testing.T) {
	f := newFixture()

	err := f.svc.ResendVerification(context.Background(), "")
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	err = f.svc.ResendVerification(context.Background(), "not-an-email")
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	f.emails.mu.Lock()
	assert.Empty(t, f.emails.calls)
	f.emails.mu.Unlock()
}

func TestResendVerification(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	waitForEmails(t, f.emails, 2)

	require.NoError(t, f.svc.ResendVerification(context.Background(), "dr.house@example.com"))
	waitForEmails(t, f.emails, 2)

	f.emails.mu.Lock()
	defer f.emails.mu.Unlock()
	var verifications int
	for _, call := range f.emails.calls {
		if call.kind == "verification" {
			verifications++
		}
	}
	assert.Equal(t, 2, verifications)
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	f := newFixture()
	signUpVerified(t, f)

	err := f.svc.ResendVerification(context.Background(), "dr.house@example.com")
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}
