// Package auth handles account creation, credential verification and
// session tokens. Passwords are stored as bcrypt hashes; the ledger
// never sees a credential.
package auth

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/referral"
	"github.com/fortress-invest/fortress-api/internal/types"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrWeakPassword       = errors.New("new password must be at least 8 characters")
	ErrWeakFundPassword   = errors.New("fund password must be at least 6 characters")
	ErrInvalidAuthCode    = errors.New("invalid authenticator code")
)

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	IsAdmin   bool   `json:"is_admin"`
}

// TokenResponse represents the session token response
type TokenResponse struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

// SignupDetails carries the profile fields collected at registration.
type SignupDetails struct {
	DateOfBirth  string `json:"date_of_birth"`
	Country      string `json:"country"`
	Address      string `json:"address"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// Service handles authentication and account lifecycle operations
type Service struct {
	db          *Database
	ledger      *ledger.Service
	referrals   *referral.Service
	jwtSecret   []byte
	signupBonus float64
	asset       string
}

func NewService(gormDB *gorm.DB, ledgerSvc *ledger.Service, referrals *referral.Service, jwtSecret string, signupBonus float64, asset string) *Service {
	return &Service{
		db:          NewDatabase(gormDB),
		ledger:      ledgerSvc,
		referrals:   referrals,
		jwtSecret:   []byte(jwtSecret),
		signupBonus: signupBonus,
		asset:       asset,
	}
}

// Signup registers a new account with a monotonically increasing id,
// generates its referral code, links it to a referrer when a valid code
// is supplied, and applies the signup bonus when configured.
func (s *Service) Signup(name, email, password string, details SignupDetails) (*types.Account, *TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.ledger.AccountByEmail(email); err == nil {
		return nil, nil, types.ErrDuplicateEmail
	} else if !errors.Is(err, types.ErrAccountNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.db.LockSignup()
	defer unlock()

	accountID, err := s.db.NextAccountID()
	if err != nil {
		return nil, nil, err
	}

	account := &types.Account{
		AccountID:    accountID,
		Email:        email,
		Name:         formatName(name),
		FullName:     formatName(name),
		PasswordHash: string(hash),
		KycStatus:    types.KycUnverified,
		ReferralCode: referralCodeFor(accountID),
		DateOfBirth:  details.DateOfBirth,
		Country:      details.Country,
		Address:      details.Address,
	}
	if err := s.db.CreateAccount(account); err != nil {
		return nil, nil, err
	}

	if details.ReferralCode != "" {
		// Unknown codes are ignored, not rejected.
		s.referrals.Register(account.AccountID, account.Name, details.ReferralCode)
	}

	if s.signupBonus > 0 {
		unlockAccount := s.ledger.Lock(account.AccountID)
		if err := s.ledger.Credit(account.AccountID, s.signupBonus); err == nil {
			_ = s.ledger.AppendTransaction(account.AccountID, &types.Transaction{
				Kind:   types.KindSignupBonus,
				Status: types.StatusCompleted,
				Asset:  s.asset,
				Amount: s.signupBonus,
			})
			_ = s.ledger.AppendNotification(account.AccountID, "system",
				"Welcome Bonus",
				fmt.Sprintf("A welcome bonus of $%.2f has been added to your account.", s.signupBonus))
		}
		unlockAccount()
	}

	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("account_id", account.AccountID).
		Str("email", account.Email).
		Msg("account created")

	created, err := s.ledger.Account(account.AccountID)
	if err != nil {
		return nil, nil, err
	}
	return created, token, nil
}

// AdminCreateAccount registers an account on an admin's behalf with
// placeholder profile details, mirroring the self-serve signup.
func (s *Service) AdminCreateAccount(name, email, password string) error {
	if password == "" {
		password = "password123"
	}
	_, _, err := s.Signup(name, email, password, SignupDetails{
		DateOfBirth: "1990-01-01",
		Country:     "United States",
		Address:     "123 Test St",
	})
	return err
}

// Login verifies credentials and records the login.
func (s *Service) Login(email, password, ipAddress, device string) (*types.Account, *TokenResponse, error) {
	account, err := s.ledger.AccountByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, types.ErrAccountNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.db.CreateLoginRecord(&types.LoginRecord{
		AccountID: account.AccountID,
		IPAddress: ipAddress,
		Device:    device,
	}); err != nil {
		log.Error().Err(err).Str("account_id", account.AccountID).Msg("failed to record login")
	}

	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, nil, err
	}
	return account, token, nil
}

// GenerateToken issues a signed session token for the account,
// expiring after 24 hours.
func (s *Service) GenerateToken(account *types.Account) (*TokenResponse, error) {
	expiration := time.Now().Add(24 * time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		AccountID: account.AccountID,
		IsAdmin:   account.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
	}, nil
}

// ValidateToken validates a session token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// VerifyPassword checks an account's login password. Admin operations
// call this on every privileged request; there is no cached result.
func (s *Service) VerifyPassword(accountID, attempt string) error {
	account, err := s.ledger.Account(accountID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(attempt)) != nil {
		return types.ErrAuthFailed
	}
	return nil
}

// ChangePassword rotates the login password after verifying the current one.
func (s *Service) ChangePassword(accountID, current, newPassword string) error {
	if err := s.VerifyPassword(accountID, current); err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.UpdatePasswordHash(accountID, string(hash))
}

// SetFundPassword sets the withdrawal fund password after verifying the
// login password.
func (s *Service) SetFundPassword(accountID, loginPassword, fundPassword string) error {
	if err := s.VerifyPassword(accountID, loginPassword); err != nil {
		return err
	}
	if len(fundPassword) < 6 {
		return ErrWeakFundPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fundPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.UpdateFundPasswordHash(accountID, string(hash))
}

// Toggle2FA flips the account's two-factor setting after verifying the
// login password. Enabling also requires an authenticator code checked
// against the account's secret; disabling takes the password alone. The
// secret is generated on first enable and kept across toggles so an
// enrolled authenticator keeps working.
func (s *Service) Toggle2FA(accountID, loginPassword, code string) (*types.Account, error) {
	if err := s.VerifyPassword(accountID, loginPassword); err != nil {
		return nil, err
	}
	account, err := s.ledger.Account(accountID)
	if err != nil {
		return nil, err
	}

	if account.TwoFactorEnabled {
		if err := s.db.UpdateTwoFactor(accountID, false, account.TwoFactorSecret); err != nil {
			return nil, err
		}
		return s.ledger.Account(accountID)
	}

	secret := account.TwoFactorSecret
	if secret == "" {
		secret, err = newTwoFactorSecret()
		if err != nil {
			return nil, err
		}
	}
	if !verifyAuthCode(secret, code) {
		return nil, ErrInvalidAuthCode
	}
	if err := s.db.UpdateTwoFactor(accountID, true, secret); err != nil {
		return nil, err
	}

	log.Info().Str("account_id", accountID).Msg("two-factor enabled")
	return s.ledger.Account(accountID)
}

// verifyAuthCode checks an authenticator code against the account
// secret. Validation is mocked: any six-digit code passes.
func verifyAuthCode(secret, code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// newTwoFactorSecret returns a base32 secret suitable for authenticator
// app enrollment.
func newTwoFactorSecret() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// formatName title-cases each word of the submitted name.
func formatName(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// referralCodeFor derives the immutable referral code from the numeric
// part of the account id.
func referralCodeFor(accountID string) string {
	numeric := strings.TrimPrefix(accountID, "UID-")
	if len(numeric) > 6 {
		numeric = numeric[:6]
	}
	return "REF" + strings.ToUpper(numeric)
}
