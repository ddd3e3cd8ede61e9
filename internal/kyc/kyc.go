// Package kyc handles identity verification submissions and their
// review. Documents are opaque blobs; the ledger only consumes the
// resulting status.
package kyc

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/types"
	"github.com/fortress-invest/fortress-api/pkg/response"
)

// Submission carries the profile fields and document blobs a user
// provides for verification.
type Submission struct {
	FullName    string `json:"full_name" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"required"`
	Country     string `json:"country" binding:"required"`
	Address     string `json:"address" binding:"required"`
	IDFront     string `json:"id_front" binding:"required"`
	IDBack      string `json:"id_back" binding:"required"`
}

type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
}

func NewService(gormDB *gorm.DB, ledgerSvc *ledger.Service) *Service {
	return &Service{db: gormDB, ledger: ledgerSvc}
}

// Submit stores the documents and moves the account to pending review.
func (s *Service) Submit(accountID string, sub Submission) error {
	account, err := s.ledger.Account(accountID)
	if err != nil {
		return err
	}

	account.FullName = sub.FullName
	account.DateOfBirth = sub.DateOfBirth
	account.Country = sub.Country
	account.Address = sub.Address
	account.KycStatus = types.KycPending
	if err := s.ledger.GetDB().UpdateAccount(account); err != nil {
		return err
	}

	doc := types.KycDocument{
		AccountID: accountID,
		IDFront:   sub.IDFront,
		IDBack:    sub.IDBack,
	}
	// Resubmissions replace the previous documents.
	if err := s.db.Where("account_id = ?", accountID).
		Assign(map[string]interface{}{"id_front": sub.IDFront, "id_back": sub.IDBack}).
		FirstOrCreate(&doc).Error; err != nil {
		return err
	}

	s.ledger.NotifyOperator("New KYC Submission",
		fmt.Sprintf("%s has submitted documents for KYC verification.", account.Name))

	log.Info().Str("account_id", accountID).Msg("kyc submitted")
	return nil
}

// Review resolves a pending submission to verified or rejected and
// notifies the account.
func (s *Service) Review(accountID, status string) error {
	if status != types.KycVerified && status != types.KycRejected {
		return fmt.Errorf("invalid kyc status: %s", status)
	}

	account, err := s.ledger.Account(accountID)
	if err != nil {
		return err
	}

	account.KycStatus = status
	if err := s.ledger.GetDB().UpdateAccount(account); err != nil {
		return err
	}

	title := "KYC Rejected"
	message := "Your KYC submission has been rejected. Please resubmit."
	if status == types.KycVerified {
		title = "KYC Approved"
		message = "Your identity has been successfully verified."
	}
	if err := s.ledger.AppendNotification(accountID, "system", title, message); err != nil {
		return err
	}

	log.Info().Str("account_id", accountID).Str("status", status).Msg("kyc reviewed")
	return nil
}

// PendingRequests returns every account awaiting review with its
// documents.
func (s *Service) PendingRequests() ([]types.KycRequest, error) {
	var accounts []types.Account
	if err := s.db.Where("kyc_status = ?", types.KycPending).
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	requests := make([]types.KycRequest, 0, len(accounts))
	for _, account := range accounts {
		var doc types.KycDocument
		if err := s.db.Where("account_id = ?", account.AccountID).
			First(&doc).Error; err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}
		requests = append(requests, types.KycRequest{Account: account, Documents: doc})
	}
	return requests, nil
}

// GinHandlers contains the self-serve KYC endpoint.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SubmitHandler accepts a KYC submission for the authenticated account.
func (h *GinHandlers) SubmitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub Submission
		if err := c.ShouldBindJSON(&sub); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.Submit(c.GetString("accountID"), sub); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "kyc submitted for review"})
	}
}
