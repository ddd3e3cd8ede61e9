package auth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/database"
	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/referral"
	"github.com/fortress-invest/fortress-api/internal/tier"
	"github.com/fortress-invest/fortress-api/internal/types"
)

func newTestService(t *testing.T, signupBonus float64) (*Service, *ledger.Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(db, tier.NewPolicy(120))
	referralSvc := referral.NewService(db, ledgerSvc, 10)
	return NewService(db, ledgerSvc, referralSvc, "test-secret", signupBonus, "USDT"), ledgerSvc, db
}

func TestSignup(t *testing.T) {
	service, _, _ := newTestService(t, 0)

	account, token, err := service.Signup("alice smith", "Alice@Example.com ", "supersecret", SignupDetails{
		Country: "Singapore",
	})
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.NotEmpty(t, token.Token)

	// The first self-registered account follows the seeded sequence.
	assert.Equal(t, "UID-10001", account.AccountID)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "Alice Smith", account.Name)
	assert.Equal(t, "REF10001", account.ReferralCode)
	assert.Equal(t, types.KycUnverified, account.KycStatus)
	assert.Equal(t, 0.0, account.Balance)
	assert.False(t, account.IsAdmin)

	t.Run("MonotonicIDs", func(t *testing.T) {
		second, _, err := service.Signup("bob", "bob@example.com", "supersecret", SignupDetails{})
		require.NoError(t, err)
		assert.Equal(t, "UID-10002", second.AccountID)
		assert.Equal(t, "REF10002", second.ReferralCode)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, _, err := service.Signup("alice again", "ALICE@example.com", "supersecret", SignupDetails{})
		assert.ErrorIs(t, err, types.ErrDuplicateEmail)
	})
}

func TestSignupWithBonus(t *testing.T) {
	service, ledgerSvc, _ := newTestService(t, 25)

	account, _, err := service.Signup("carol", "carol@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)
	assert.Equal(t, 25.0, account.Balance)

	snap, err := ledgerSvc.Snapshot(account.AccountID)
	require.NoError(t, err)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, types.KindSignupBonus, snap.Transactions[0].Kind)
	assert.Equal(t, types.StatusCompleted, snap.Transactions[0].Status)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "Welcome Bonus", snap.Notifications[0].Title)
}

func TestSignupWithReferralCode(t *testing.T) {
	service, _, db := newTestService(t, 0)

	referrer, _, err := service.Signup("dave", "dave@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)

	_, _, err = service.Signup("erin", "erin@example.com", "supersecret", SignupDetails{
		ReferralCode: referrer.ReferralCode,
	})
	require.NoError(t, err)

	var entry types.Referral
	require.NoError(t, db.Where("referrer_id = ?", referrer.AccountID).First(&entry).Error)
	assert.Equal(t, types.ReferralRegistered, entry.Status)

	t.Run("UnknownCodeIgnored", func(t *testing.T) {
		account, _, err := service.Signup("frank", "frank@example.com", "supersecret", SignupDetails{
			ReferralCode: "REF000000",
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&types.Referral{}).
			Where("referred_id = ?", account.AccountID).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestLogin(t *testing.T) {
	service, _, db := newTestService(t, 0)

	_, _, err := service.Signup("grace", "grace@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)

	account, token, err := service.Login("Grace@Example.com", "supersecret", "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", account.Email)
	assert.NotEmpty(t, token.Token)

	var record types.LoginRecord
	require.NoError(t, db.Where("account_id = ?", account.AccountID).First(&record).Error)
	assert.Equal(t, "127.0.0.1", record.IPAddress)

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := service.Login("grace@example.com", "wrong", "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, _, err := service.Login("nobody@example.com", "supersecret", "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	service, _, _ := newTestService(t, 0)

	account, token, err := service.Signup("henry", "henry@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)

	claims, err := service.ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, account.AccountID, claims.AccountID)
	assert.False(t, claims.IsAdmin)

	t.Run("TamperedToken", func(t *testing.T) {
		_, err := service.ValidateToken(token.Token + "x")
		assert.Error(t, err)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other, _, _ := newTestService(t, 0)
		other.jwtSecret = []byte("different-secret")
		_, err := other.ValidateToken(token.Token)
		assert.Error(t, err)
	})
}

func TestVerifyPassword(t *testing.T) {
	service, _, _ := newTestService(t, 0)

	account, _, err := service.Signup("iris", "iris@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)

	assert.NoError(t, service.VerifyPassword(account.AccountID, "supersecret"))
	assert.ErrorIs(t, service.VerifyPassword(account.AccountID, "nope"), types.ErrAuthFailed)
	assert.ErrorIs(t, service.VerifyPassword("UID-99999", "supersecret"), types.ErrAccountNotFound)
}

func TestChangePassword(t *testing.T) {
	service, _, _ := newTestService(t, 0)

	account, _, err := service.Signup("judy", "judy@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)

	t.Run("WrongCurrent", func(t *testing.T) {
		err := service.ChangePassword(account.AccountID, "wrong", "newpassword")
		assert.ErrorIs(t, err, types.ErrAuthFailed)
	})

	t.Run("TooShort", func(t *testing.T) {
		err := service.ChangePassword(account.AccountID, "supersecret", "short")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	require.NoError(t, service.ChangePassword(account.AccountID, "supersecret", "newpassword"))
	assert.NoError(t, service.VerifyPassword(account.AccountID, "newpassword"))
	assert.Error(t, service.VerifyPassword(account.AccountID, "supersecret"))
}

func TestSetFundPassword(t *testing.T) {
	service, ledgerSvc, _ := newTestService(t, 0)

	account, _, err := service.Signup("kate", "kate@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)

	t.Run("TooShort", func(t *testing.T) {
		err := service.SetFundPassword(account.AccountID, "supersecret", "123")
		assert.ErrorIs(t, err, ErrWeakFundPassword)
	})

	require.NoError(t, service.SetFundPassword(account.AccountID, "supersecret", "123456"))

	stored, err := ledgerSvc.Account(account.AccountID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.FundPasswordHash)
}

func TestAdminCreateAccount(t *testing.T) {
	service, ledgerSvc, _ := newTestService(t, 0)

	require.NoError(t, service.AdminCreateAccount("managed user", "managed@example.com", ""))

	account, err := ledgerSvc.AccountByEmail("managed@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Managed User", account.Name)
	// The default password applies when none is supplied.
	assert.NoError(t, service.VerifyPassword(account.AccountID, "password123"))
}

func TestToggle2FA(t *testing.T) {
	service, ledgerSvc, _ := newTestService(t, 0)
	account, _, err := service.Signup("carol", "carol@example.com", "supersecret", SignupDetails{})
	require.NoError(t, err)
	require.False(t, account.TwoFactorEnabled)

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := service.Toggle2FA(account.AccountID, "nope", "123456")
		assert.ErrorIs(t, err, types.ErrAuthFailed)
	})

	t.Run("EnableRequiresSixDigitCode", func(t *testing.T) {
		_, err := service.Toggle2FA(account.AccountID, "supersecret", "12ab56")
		assert.ErrorIs(t, err, ErrInvalidAuthCode)

		_, err = service.Toggle2FA(account.AccountID, "supersecret", "123")
		assert.ErrorIs(t, err, ErrInvalidAuthCode)
	})

	updated, err := service.Toggle2FA(account.AccountID, "supersecret", "123456")
	require.NoError(t, err)
	assert.True(t, updated.TwoFactorEnabled)
	assert.NotEmpty(t, updated.TwoFactorSecret)

	t.Run("DisableKeepsSecret", func(t *testing.T) {
		secret := updated.TwoFactorSecret

		disabled, err := service.Toggle2FA(account.AccountID, "supersecret", "")
		require.NoError(t, err)
		assert.False(t, disabled.TwoFactorEnabled)

		stored, err := ledgerSvc.Account(account.AccountID)
		require.NoError(t, err)
		assert.Equal(t, secret, stored.TwoFactorSecret)
	})
}
