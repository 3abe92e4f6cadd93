package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/soiree-app/soiree/internal/cache"
	"github.com/soiree-app/soiree/pkg/crypto"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/mail"
)

const (
	otpKeyPrefix   = "otp:"
	otpDigits      = 6
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 5
	otpLockStripes = 64

	// otpStoreGrace keeps the stored record alive past its logical expiry.
	// Record.ExpiresAt stays authoritative; without the grace every backend
	// would evict the record at the deadline and a stale submission would
	// read as "no code sent" instead of "code expired".
	otpStoreGrace = time.Minute
)

// EligibilityChecker answers whether an email belongs to an attending guest.
type EligibilityChecker interface {
	HasAttendingRSVP(ctx context.Context, email string) (bool, error)
}

// otpRecord is the stored per-email verification state.
type otpRecord struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// OTPService runs the guest email verification flow: a six digit code is
// mailed to an eligible address, then exchanged for a guest session token.
// Records live in the shared cache.Store so a Redis or database backend can
// serve multi-instance deployments.
type OTPService struct {
	store       cache.Store
	mailer      mail.Mailer
	codec       *TokenCodec
	eligibility EligibilityChecker
	now         func() time.Time
	from        string

	// Serialises verify operations per email key so concurrent guesses cannot
	// bypass the attempt counter.
	locks [otpLockStripes]sync.Mutex
}

// OTPOption customises the OTPService.
type OTPOption func(*OTPService)

// WithOTPClock overrides the clock used for expiry checks.
func WithOTPClock(now func() time.Time) OTPOption {
	return func(s *OTPService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOTPService wires the verification flow dependencies.
func NewOTPService(store cache.Store, mailer mail.Mailer, codec *TokenCodec, eligibility EligibilityChecker, from string, opts ...OTPOption) (*OTPService, error) {
	if store == nil {
		return nil, apperrors.New("CONFIG", "otp service requires a store", 500)
	}
	if mailer == nil {
		return nil, apperrors.New("CONFIG", "otp service requires a mailer", 500)
	}
	if codec == nil {
		return nil, apperrors.New("CONFIG", "otp service requires a token codec", 500)
	}
	if eligibility == nil {
		return nil, apperrors.New("CONFIG", "otp service requires an eligibility checker", 500)
	}

	svc := &OTPService{
		store:       store,
		mailer:      mailer,
		codec:       codec,
		eligibility: eligibility,
		now:         time.Now,
		from:        from,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// NormalizeEmail lower-cases and trims an address; all OTP state is keyed on
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestCode generates and emails a fresh verification code for an eligible
// guest, overwriting any prior record for the address. When delivery fails the
// record is rolled back: a code must never exist without having been sent.
func (s *OTPService) RequestCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return apperrors.NewBadRequest("email is required")
	}

	eligible, err := s.eligibility.HasAttendingRSVP(ctx, email)
	if err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	if !eligible {
		return apperrors.ErrNotEligible
	}

	code, err := crypto.GenerateNumericCode(otpDigits)
	if err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}

	record := otpRecord{
		Code:      code,
		ExpiresAt: s.now().Add(otpTTL),
		Attempts:  0,
	}
	if err := s.putRecord(ctx, email, record); err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}

	msg := mail.Message{
		From:    s.from,
		To:      []string{email},
		Subject: "Your photo gallery verification code",
		Body:    verificationEmailBody(code),
		HTML:    true,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		_ = s.store.Delete(ctx, s.key(email))
		return apperrors.ErrDeliveryFailed.WithInternal(err)
	}

	return nil
}

// VerifyCode checks a submitted code against the stored record and, on match,
// consumes the record and issues a guest session token bound to the email.
func (s *OTPService) VerifyCode(ctx context.Context, email, submitted string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", apperrors.NewBadRequest("email is required")
	}
	submitted = strings.TrimSpace(submitted)

	lock := s.lockFor(email)
	lock.Lock()
	defer lock.Unlock()

	record, ok, err := s.getRecord(ctx, email)
	if err != nil {
		return "", apperrors.ErrInternalServer.WithInternal(err)
	}
	if !ok {
		return "", apperrors.ErrNoCodeSent
	}

	if s.now().After(record.ExpiresAt) {
		_ = s.store.Delete(ctx, s.key(email))
		return "", apperrors.ErrCodeExpired
	}

	if record.Attempts >= otpMaxAttempts {
		_ = s.store.Delete(ctx, s.key(email))
		return "", apperrors.ErrTooManyAttempts
	}

	// Count the attempt before comparing so a wrong guess always burns budget.
	record.Attempts++
	if err := s.putRecordRemaining(ctx, email, record); err != nil {
		return "", apperrors.ErrInternalServer.WithInternal(err)
	}

	if !crypto.ConstantTimeEquals(record.Code, submitted) {
		remaining := otpMaxAttempts - record.Attempts
		return "", apperrors.ErrInvalidCode.WithMessage(
			fmt.Sprintf("Incorrect verification code. %d attempts remaining.", remaining))
	}

	if err := s.store.Delete(ctx, s.key(email)); err != nil {
		return "", apperrors.ErrInternalServer.WithInternal(err)
	}

	token, err := s.codec.Issue(SessionClaims{Email: email})
	if err != nil {
		return "", apperrors.ErrInternalServer.WithInternal(err)
	}
	return token, nil
}

// CheckToken validates a guest session cookie value and returns the bound email.
func (s *OTPService) CheckToken(token string) (string, bool) {
	claims, ok := s.codec.Verify(token, SessionMaxAge)
	if !ok || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}

func (s *OTPService) key(email string) string {
	return otpKeyPrefix + email
}

func (s *OTPService) lockFor(email string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(email))
	return &s.locks[h.Sum32()%otpLockStripes]
}

func (s *OTPService) getRecord(ctx context.Context, email string) (otpRecord, bool, error) {
	raw, ok, err := s.store.Get(ctx, s.key(email))
	if err != nil || !ok {
		return otpRecord{}, false, err
	}

	var record otpRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		// A corrupt record is unrecoverable; drop it.
		_ = s.store.Delete(ctx, s.key(email))
		return otpRecord{}, false, nil
	}
	return record, true, nil
}

func (s *OTPService) putRecord(ctx context.Context, email string, record otpRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, s.key(email), raw, otpTTL+otpStoreGrace)
}

// putRecordRemaining persists a mutated record without extending its logical
// expiry. The store TTL is the remaining window plus the grace period.
func (s *OTPService) putRecordRemaining(ctx context.Context, email string, record otpRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	remaining := record.ExpiresAt.Sub(s.now())
	if remaining < 0 {
		remaining = 0
	}
	return s.store.Set(ctx, s.key(email), raw, remaining+otpStoreGrace)
}

func verificationEmailBody(code string) string {
	return fmt.Sprintf(`<div style="font-family:sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;">
  <p>Hi,</p>
  <p>Your verification code for the event photo gallery is:</p>
  <p style="font-size:28px;font-weight:bold;letter-spacing:4px;">%s</p>
  <p>The code expires in 10 minutes.</p>
</div>`, code)
}
