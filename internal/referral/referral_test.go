package referral

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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
	return NewService(db, ledgerSvc, 10), ledgerSvc, db
}

func createAccount(t *testing.T, db *gorm.DB, accountID, code string) {
	t.Helper()
	require.NoError(t, db.Create(&types.Account{
		AccountID:    accountID,
		Email:        accountID + "@example.com",
		Name:         "User " + accountID,
		KycStatus:    types.KycUnverified,
		ReferralCode: code,
	}).Error)
}

func TestRegister(t *testing.T) {
	service, _, db := newTestService(t)
	createAccount(t, db, "UID-10001", "REF111111")
	createAccount(t, db, "UID-10002", "REF222222")

	service.Register("UID-10002", "User Two", "REF111111")

	entries, err := service.Referrals("UID-10001")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "UID-10002", entries[0].ReferredID)
	assert.Equal(t, types.ReferralRegistered, entries[0].Status)
	assert.Equal(t, 0.0, entries[0].Reward)

	t.Run("CodeIsNormalized", func(t *testing.T) {
		createAccount(t, db, "UID-10003", "REF333333")
		service.Register("UID-10003", "User Three", "  ref111111 ")

		entries, err := service.Referrals("UID-10001")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("UnknownCodeIsNoOp", func(t *testing.T) {
		createAccount(t, db, "UID-10004", "REF444444")
		service.Register("UID-10004", "User Four", "REF000000")

		var count int64
		require.NoError(t, db.Model(&types.Referral{}).
			Where("referred_id = ?", "UID-10004").Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestGrantFirstDepositReward(t *testing.T) {
	service, ledgerSvc, db := newTestService(t)
	createAccount(t, db, "UID-20001", "REF211111")
	createAccount(t, db, "UID-20002", "REF222222")

	service.Register("UID-20002", "User Two", "REF211111")

	require.NoError(t, service.GrantFirstDepositReward("UID-20002"))

	referrer, err := ledgerSvc.Account("UID-20001")
	require.NoError(t, err)
	assert.Equal(t, 10.0, referrer.Balance)
	assert.Equal(t, 10.0, referrer.ReferralRewards)

	entries, err := service.Referrals("UID-20001")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.ReferralDeposited, entries[0].Status)
	assert.Equal(t, 10.0, entries[0].Reward)

	notes, err := ledgerSvc.GetDB().ListNotifications("UID-20001")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Referral Reward!", notes[0].Title)

	t.Run("GrantedOnlyOnce", func(t *testing.T) {
		require.NoError(t, service.GrantFirstDepositReward("UID-20002"))

		referrer, err := ledgerSvc.Account("UID-20001")
		require.NoError(t, err)
		assert.Equal(t, 10.0, referrer.Balance)
	})

	t.Run("NoReferralEntryIsNoOp", func(t *testing.T) {
		createAccount(t, db, "UID-20003", "REF233333")
		require.NoError(t, service.GrantFirstDepositReward("UID-20003"))
	})
}

func TestReferrals(t *testing.T) {
	service, _, db := newTestService(t)
	createAccount(t, db, "UID-30001", "REF311111")
	createAccount(t, db, "UID-30002", "REF322222")

	older := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Create(&types.Referral{
		ReferrerID:   "UID-30001",
		ReferredID:   "UID-30003",
		ReferredName: "User Three",
		Status:       types.ReferralRegistered,
		CreatedAt:    older,
	}).Error)
	require.NoError(t, db.Create(&types.Referral{
		ReferrerID:   "UID-30001",
		ReferredID:   "UID-30004",
		ReferredName: "User Four",
		Status:       types.ReferralDeposited,
		Reward:       10,
		CreatedAt:    older.Add(time.Hour),
	}).Error)
	require.NoError(t, db.Create(&types.Referral{
		ReferrerID:   "UID-30002",
		ReferredID:   "UID-30005",
		ReferredName: "User Five",
		Status:       types.ReferralRegistered,
		CreatedAt:    older,
	}).Error)

	entries, err := service.Referrals("UID-30001")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first, scoped to the referrer.
	assert.Equal(t, "UID-30004", entries[0].ReferredID)
	assert.Equal(t, 10.0, entries[0].Reward)
	assert.Equal(t, "UID-30003", entries[1].ReferredID)

	t.Run("EmptyForAccountWithoutReferrals", func(t *testing.T) {
		createAccount(t, db, "UID-30006", "REF366666")
		entries, err := service.Referrals("UID-30006")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestReferralsHandler(t *testing.T) {
	service, _, db := newTestService(t)
	createAccount(t, db, "UID-40001", "REF411111")
	createAccount(t, db, "UID-40002", "REF422222")
	service.Register("UID-40002", "User Two", "REF411111")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/accounts/me/referrals", func(c *gin.Context) {
		c.Set("accountID", "UID-40001")
	}, NewGinHandlers(service).ReferralsHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/me/referrals", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Referrals []types.Referral `json:"referrals"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Referrals, 1)
	assert.Equal(t, "UID-40002", body.Data.Referrals[0].ReferredID)
	assert.Equal(t, "User Two", body.Data.Referrals[0].ReferredName)
}
