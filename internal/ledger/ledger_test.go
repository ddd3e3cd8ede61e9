package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/database"
	"github.com/fortress-invest/fortress-api/internal/tier"
	"github.com/fortress-invest/fortress-api/internal/types"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return NewService(db, tier.NewPolicy(120)), db
}

func createTestAccount(t *testing.T, db *gorm.DB, accountID string, balance float64) *types.Account {
	t.Helper()
	account := &types.Account{
		AccountID:    accountID,
		Email:        accountID + "@example.com",
		Name:         "Test User",
		KycStatus:    types.KycUnverified,
		Balance:      balance,
		ReferralCode: "REF" + accountID,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestCreditAndDebit(t *testing.T) {
	service, db := newTestService(t)
	createTestAccount(t, db, "UID-10001", 0)

	require.NoError(t, service.Credit("UID-10001", 500))

	account, err := service.Account("UID-10001")
	require.NoError(t, err)
	assert.Equal(t, 500.0, account.Balance)

	require.NoError(t, service.Debit("UID-10001", 200))

	account, err = service.Account("UID-10001")
	require.NoError(t, err)
	assert.Equal(t, 300.0, account.Balance)

	t.Run("InsufficientFunds", func(t *testing.T) {
		err := service.Debit("UID-10001", 400)
		assert.ErrorIs(t, err, types.ErrInsufficientFunds)

		// A rejected debit leaves the balance untouched.
		account, err := service.Account("UID-10001")
		require.NoError(t, err)
		assert.Equal(t, 300.0, account.Balance)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		assert.ErrorIs(t, service.Credit("UID-10001", 0), types.ErrInvalidAmount)
		assert.ErrorIs(t, service.Credit("UID-10001", -5), types.ErrInvalidAmount)
		assert.ErrorIs(t, service.Debit("UID-10001", -5), types.ErrInvalidAmount)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		assert.ErrorIs(t, service.Credit("UID-99999", 10), types.ErrAccountNotFound)
	})
}

func TestVipLevelRefresh(t *testing.T) {
	service, db := newTestService(t)
	createTestAccount(t, db, "UID-10002", 0)

	// A completed deposit drives total_deposits, which the next balance
	// mutation folds into the VIP level.
	require.NoError(t, service.AppendTransaction("UID-10002", &types.Transaction{
		Kind:   types.KindDeposit,
		Status: types.StatusCompleted,
		Asset:  "USDT",
		Amount: 600,
	}))
	require.NoError(t, service.Credit("UID-10002", 600))

	account, err := service.Account("UID-10002")
	require.NoError(t, err)
	assert.Equal(t, 600.0, account.TotalDeposits)
	assert.Equal(t, 2, account.VipLevel)

	t.Run("DropsToZeroBelowFloor", func(t *testing.T) {
		require.NoError(t, service.Debit("UID-10002", 550))

		account, err := service.Account("UID-10002")
		require.NoError(t, err)
		assert.Equal(t, 50.0, account.Balance)
		assert.Equal(t, 0, account.VipLevel)
		// Deposit history survives the downgrade.
		assert.Equal(t, 600.0, account.TotalDeposits)
	})

	t.Run("PendingDepositsIgnored", func(t *testing.T) {
		require.NoError(t, service.AppendTransaction("UID-10002", &types.Transaction{
			Kind:   types.KindDeposit,
			Status: types.StatusPending,
			Asset:  "USDT",
			Amount: 10000,
		}))
		require.NoError(t, service.RefreshVipLevel("UID-10002"))

		account, err := service.Account("UID-10002")
		require.NoError(t, err)
		assert.Equal(t, 600.0, account.TotalDeposits)
	})
}

func TestSetBalance(t *testing.T) {
	service, db := newTestService(t)
	createTestAccount(t, db, "UID-10003", 250)

	diff, err := service.SetBalance("UID-10003", 1000)
	require.NoError(t, err)
	assert.Equal(t, 750.0, diff)

	diff, err = service.SetBalance("UID-10003", 400)
	require.NoError(t, err)
	assert.Equal(t, -600.0, diff)

	account, err := service.Account("UID-10003")
	require.NoError(t, err)
	assert.Equal(t, 400.0, account.Balance)
}

func TestSnapshot(t *testing.T) {
	service, db := newTestService(t)
	createTestAccount(t, db, "UID-10004", 100)

	require.NoError(t, service.AppendTransaction("UID-10004", &types.Transaction{
		Kind: types.KindDeposit, Status: types.StatusPending, Asset: "USDT", Amount: 50,
	}))
	require.NoError(t, service.AppendNotification("UID-10004", "system", "Welcome", "Account created."))

	require.NoError(t, db.Create(&types.Contract{
		ContractID: "CT_active", AccountID: "UID-10004", Pair: "BTC-USDT",
		Direction: "buy", Stake: 10, Status: types.ContractActive,
	}).Error)
	require.NoError(t, db.Create(&types.Contract{
		ContractID: "CT_done", AccountID: "UID-10004", Pair: "BTC-USDT",
		Direction: "sell", Stake: 10, Status: types.ContractWon,
	}).Error)

	snap, err := service.Snapshot("UID-10004")
	require.NoError(t, err)
	assert.Equal(t, "UID-10004", snap.Account.AccountID)
	assert.Len(t, snap.Transactions, 1)
	assert.Len(t, snap.Notifications, 1)
	require.Len(t, snap.ActiveContracts, 1)
	assert.Equal(t, "CT_active", snap.ActiveContracts[0].ContractID)
	require.Len(t, snap.ContractHistory, 1)
	assert.Equal(t, "CT_done", snap.ContractHistory[0].ContractID)
}

func TestNotifications(t *testing.T) {
	service, db := newTestService(t)
	createTestAccount(t, db, "UID-10005", 0)

	require.NoError(t, service.AppendNotification("UID-10005", "system", "One", "first"))
	require.NoError(t, service.AppendNotification("UID-10005", "system", "Two", "second"))

	notes, err := service.GetDB().ListNotifications("UID-10005")
	require.NoError(t, err)
	require.Len(t, notes, 2)

	require.NoError(t, service.MarkNotificationRead("UID-10005", notes[0].NotificationID))

	notes, err = service.GetDB().ListNotifications("UID-10005")
	require.NoError(t, err)
	read := 0
	for _, n := range notes {
		if n.Read {
			read++
		}
	}
	assert.Equal(t, 1, read)

	require.NoError(t, service.MarkAllNotificationsRead("UID-10005"))
	notes, err = service.GetDB().ListNotifications("UID-10005")
	require.NoError(t, err)
	for _, n := range notes {
		assert.True(t, n.Read)
	}

	t.Run("ForeignNotificationNotMarkable", func(t *testing.T) {
		createTestAccount(t, db, "UID-10006", 0)
		err := service.MarkNotificationRead("UID-10006", notes[0].NotificationID)
		assert.Error(t, err)
	})
}

func TestNotifyOperator(t *testing.T) {
	service, _ := newTestService(t)

	service.NotifyOperator("Review Needed", "A deposit awaits review.")

	notes, err := service.GetDB().ListNotifications(database.AdminAccountID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Review Needed", notes[0].Title)
}
