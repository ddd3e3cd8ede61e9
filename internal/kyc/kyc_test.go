package kyc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/database"
	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/tier"
	"github.com/fortress-invest/fortress-api/internal/types"
)

func newTestService(t *testing.T) (*Service, *ledger.Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	ledgerSvc := ledger.NewService(db, tier.NewPolicy(120))
	return NewService(db, ledgerSvc), ledgerSvc, db
}

func createAccount(t *testing.T, db *gorm.DB, accountID string) {
	t.Helper()
	require.NoError(t, db.Create(&types.Account{
		AccountID:    accountID,
		Email:        accountID + "@example.com",
		Name:         "User " + accountID,
		KycStatus:    types.KycUnverified,
		ReferralCode: "REF" + accountID,
	}).Error)
}

var testSubmission = Submission{
	FullName:    "Alice Smith",
	DateOfBirth: "1990-01-01",
	Country:     "Singapore",
	Address:     "1 Market Street",
	IDFront:     "data:front",
	IDBack:      "data:back",
}

func TestSubmit(t *testing.T) {
	service, ledgerSvc, db := newTestService(t)
	createAccount(t, db, "UID-10001")

	require.NoError(t, service.Submit("UID-10001", testSubmission))

	account, err := ledgerSvc.Account("UID-10001")
	require.NoError(t, err)
	assert.Equal(t, types.KycPending, account.KycStatus)
	assert.Equal(t, "Alice Smith", account.FullName)
	assert.Equal(t, "Singapore", account.Country)

	var doc types.KycDocument
	require.NoError(t, db.Where("account_id = ?", "UID-10001").First(&doc).Error)
	assert.Equal(t, "data:front", doc.IDFront)

	// The operator inbox received the review request.
	notes, err := ledgerSvc.GetDB().ListNotifications(database.AdminAccountID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "New KYC Submission", notes[0].Title)

	t.Run("ResubmissionReplacesDocuments", func(t *testing.T) {
		resub := testSubmission
		resub.IDFront = "data:front-v2"
		require.NoError(t, service.Submit("UID-10001", resub))

		var count int64
		require.NoError(t, db.Model(&types.KycDocument{}).
			Where("account_id = ?", "UID-10001").Count(&count).Error)
		assert.Equal(t, int64(1), count)

		var doc types.KycDocument
		require.NoError(t, db.Where("account_id = ?", "UID-10001").First(&doc).Error)
		assert.Equal(t, "data:front-v2", doc.IDFront)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		err := service.Submit("UID-99999", testSubmission)
		assert.ErrorIs(t, err, types.ErrAccountNotFound)
	})
}

func TestReview(t *testing.T) {
	service, ledgerSvc, db := newTestService(t)
	createAccount(t, db, "UID-20001")
	require.NoError(t, service.Submit("UID-20001", testSubmission))

	require.NoError(t, service.Review("UID-20001", types.KycVerified))

	account, err := ledgerSvc.Account("UID-20001")
	require.NoError(t, err)
	assert.Equal(t, types.KycVerified, account.KycStatus)

	notes, err := ledgerSvc.GetDB().ListNotifications("UID-20001")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "KYC Approved", notes[0].Title)

	t.Run("Rejection", func(t *testing.T) {
		createAccount(t, db, "UID-20002")
		require.NoError(t, service.Submit("UID-20002", testSubmission))
		require.NoError(t, service.Review("UID-20002", types.KycRejected))

		account, err := ledgerSvc.Account("UID-20002")
		require.NoError(t, err)
		assert.Equal(t, types.KycRejected, account.KycStatus)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		assert.Error(t, service.Review("UID-20001", "maybe"))
	})
}

func TestPendingRequests(t *testing.T) {
	service, _, db := newTestService(t)
	createAccount(t, db, "UID-30001")
	createAccount(t, db, "UID-30002")
	createAccount(t, db, "UID-30003")

	require.NoError(t, service.Submit("UID-30001", testSubmission))
	require.NoError(t, service.Submit("UID-30002", testSubmission))
	require.NoError(t, service.Review("UID-30002", types.KycVerified))

	pending, err := service.PendingRequests()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "UID-30001", pending[0].Account.AccountID)
	assert.Equal(t, "data:front", pending[0].Documents.IDFront)
}
