package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
)

// PostRequest 记账请求 DTO (Input)
type PostRequest struct {
	TenantID    int64
	UserID      string
	Date        time.Time
	Description string
	ReferenceNo string
	Mapping     *MappingResult
}

// CorrectRequest 更正请求：原单 ID + 新的映射结果
type CorrectRequest struct {
	TenantID              int64
	UserID                string
	OriginalTransactionID int64
	Date                  time.Time
	Description           string
	ReferenceNo           string
	Mapping               *MappingResult
}

// LedgerService 交易生命周期管理
// 账本不可变：创建之后只允许核销标注这一种修改，改错走更正链，删除受严格约束
type LedgerService struct {
	db     *gorm.DB // 用于开启事务
	logger *zap.Logger
	txRepo domain.TransactionRepository
	clock  Clock
}

func NewLedgerService(db *gorm.DB, logger *zap.Logger, txRepo domain.TransactionRepository, clock Clock) *LedgerService {
	return &LedgerService{
		db:     db,
		logger: logger,
		txRepo: txRepo,
		clock:  clock,
	}
}

// PostTransaction 按映射结果落一笔两行的平衡交易
func (s *LedgerService) PostTransaction(ctx context.Context, req PostRequest) (*domain.Transaction, error) {
	if err := s.validatePostRequest(&req); err != nil {
		return nil, err
	}

	txn := s.buildTransaction(&req, req.Mapping)
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := s.txRepo.Create(ctx, s.db, txn); err != nil {
		s.logger.Error("failed to post transaction",
			zap.Int64("tenant_id", req.TenantID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("transaction posted",
		zap.Int64("tenant_id", req.TenantID),
		zap.Int64("tx_id", txn.ID),
		zap.String("entered_by", req.UserID))
	return txn, nil
}

// CorrectTransaction 更正一笔已过账的交易
// 三步写入在同一个数据库事务里：
//  1. 冲正单：逐行镜像原单的借贷
//  2. 更正单：新映射产生的两行
//  3. 回填冲正单指向更正单（互相链接）
//
// 任何一步失败整体回滚，原单保持原样。
func (s *LedgerService) CorrectTransaction(ctx context.Context, req CorrectRequest) (reversal, correcting *domain.Transaction, err error) {
	if err := s.validatePostRequest(&PostRequest{
		TenantID: req.TenantID, UserID: req.UserID,
		Date: req.Date, Description: req.Description, Mapping: req.Mapping,
	}); err != nil {
		return nil, nil, err
	}
	if req.OriginalTransactionID <= 0 {
		return nil, nil, domain.ErrTransactionNotFound
	}

	original, err := s.txRepo.FindByID(ctx, req.TenantID, req.OriginalTransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrTransactionNotFound
		}
		return nil, nil, err
	}

	// 快速失败：原单已被更正过
	corrected, err := s.txRepo.HasCorrectionFor(ctx, nil, original.ID)
	if err != nil {
		return nil, nil, err
	}
	if corrected {
		return nil, nil, domain.ErrAlreadyCorrected
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 事务内复查，抵御并发的双重更正；后提交者在这里失败
		corrected, err := s.txRepo.HasCorrectionFor(ctx, tx, original.ID)
		if err != nil {
			return err
		}
		if corrected {
			return domain.ErrAlreadyCorrected
		}

		// 1. 冲正单：逐行交换借贷（镜像每一行，不是只抵净额）
		reversal = &domain.Transaction{
			TenantID:               req.TenantID,
			Date:                   DateOnly(req.Date),
			Description:            "REVERSAL: " + original.Description,
			ReferenceNo:            "REV-" + strconv.FormatInt(original.ID, 10),
			EnteredByUserID:        req.UserID,
			EnteredAt:              time.Now(),
			IsReversal:             true,
			CorrectedTransactionID: &original.ID,
		}
		for _, line := range original.Lines {
			reversal.Lines = append(reversal.Lines, domain.TransactionLine{
				AccountID: line.AccountID,
				Debit:     line.Credit,
				Credit:    line.Debit,
			})
		}
		if err := s.txRepo.Create(ctx, tx, reversal); err != nil {
			return err
		}

		// 2. 更正单：新的两行映射
		correcting = s.buildTransaction(&PostRequest{
			TenantID:    req.TenantID,
			UserID:      req.UserID,
			Date:        req.Date,
			Description: req.Description,
			ReferenceNo: req.ReferenceNo,
		}, req.Mapping)
		correcting.IsCorrection = true
		correcting.CorrectedTransactionID = &original.ID
		correcting.ReversalTransactionID = &reversal.ID
		if err := correcting.Validate(); err != nil {
			return err
		}
		if err := s.txRepo.Create(ctx, tx, correcting); err != nil {
			return err
		}

		// 3. 回填：冲正单也指向更正单
		reversal.ReversalTransactionID = &correcting.ID
		return s.txRepo.Save(ctx, tx, reversal)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyCorrected) {
			return nil, nil, domain.ErrAlreadyCorrected
		}
		s.logger.Error("correction rolled back",
			zap.Int64("tenant_id", req.TenantID),
			zap.Int64("original_id", req.OriginalTransactionID),
			zap.Error(err))
		// 对外只给笼统错误，细节进日志
		return nil, nil, domain.ErrCorrectionFailed
	}

	s.logger.Info("transaction corrected",
		zap.Int64("tenant_id", req.TenantID),
		zap.Int64("original_id", original.ID),
		zap.Int64("reversal_id", reversal.ID),
		zap.Int64("correcting_id", correcting.ID))
	return reversal, correcting, nil
}

// DeleteTransaction 删除一笔交易（连同分录行）
// 四个条件全部满足才允许：本人录入、当天录入、不是更正/冲正单、没被更正链引用
func (s *LedgerService) DeleteTransaction(ctx context.Context, tenantID int64, userID string, id int64) error {
	if tenantID <= 0 || id <= 0 {
		return domain.ErrTransactionNotFound
	}

	txn, err := s.txRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTransactionNotFound
		}
		return err
	}

	if txn.EnteredByUserID != userID {
		return &domain.CannotDeleteError{Reason: domain.DeleteReasonNotOwner}
	}
	if !DateOnly(txn.Date).Equal(s.clock.Today()) {
		return &domain.CannotDeleteError{Reason: domain.DeleteReasonNotToday}
	}
	if txn.IsCorrection || txn.IsReversal {
		return &domain.CannotDeleteError{Reason: domain.DeleteReasonIsChain}
	}
	referenced, err := s.txRepo.IsReferenced(ctx, txn.ID)
	if err != nil {
		return err
	}
	if referenced {
		return &domain.CannotDeleteError{Reason: domain.DeleteReasonReferred}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.txRepo.Delete(ctx, tx, txn)
	})
	if err != nil {
		return err
	}

	s.logger.Info("transaction deleted",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("tx_id", id),
		zap.String("deleted_by", userID))
	return nil
}

// WriteOff 核销标注：唯一允许的事后修改，只记元数据不动金额
func (s *LedgerService) WriteOff(ctx context.Context, tenantID int64, userID string, id int64, reason string) (*domain.Transaction, error) {
	txn, err := s.txRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.IsWrittenOff() {
		return nil, domain.ErrAlreadyWrittenOff
	}

	now := time.Now()
	txn.WrittenOffByUserID = &userID
	txn.WrittenOffAt = &now
	txn.WriteOffReason = &reason
	if err := s.txRepo.Save(ctx, s.db, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransaction 租户内查单笔交易（含分录行）
func (s *LedgerService) GetTransaction(ctx context.Context, tenantID, id int64) (*domain.Transaction, error) {
	txn, err := s.txRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

// ListTransactions 租户流水，日期倒序
func (s *LedgerService) ListTransactions(ctx context.Context, tenantID int64) ([]domain.Transaction, error) {
	return s.txRepo.ListByTenant(ctx, tenantID)
}

// ListMyTransactions 只看自己录入的流水
func (s *LedgerService) ListMyTransactions(ctx context.Context, tenantID int64, userID string) ([]domain.Transaction, error) {
	return s.txRepo.ListByUser(ctx, tenantID, userID)
}

// ---------------------------------------------------------

func (s *LedgerService) validatePostRequest(req *PostRequest) error {
	if req.TenantID <= 0 {
		return domain.ErrInvalidTenantID
	}
	if req.UserID == "" {
		return errors.New("user id is required")
	}
	if req.Description == "" {
		return errors.New("description is required")
	}
	if req.Mapping == nil {
		return errors.New("mapping result is required")
	}
	if req.Mapping.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if req.Mapping.DebitAccountID <= 0 || req.Mapping.CreditAccountID <= 0 ||
		req.Mapping.DebitAccountID == req.Mapping.CreditAccountID {
		return domain.ErrInvalidAccountID
	}
	return nil
}

// buildTransaction 由映射结果构造标准的两行交易：借一行、贷一行
func (s *LedgerService) buildTransaction(req *PostRequest, mapping *MappingResult) *domain.Transaction {
	return &domain.Transaction{
		TenantID:        req.TenantID,
		Date:            DateOnly(req.Date),
		Description:     req.Description,
		ReferenceNo:     req.ReferenceNo,
		EnteredByUserID: req.UserID,
		EnteredAt:       time.Now(),
		Lines: []domain.TransactionLine{
			{AccountID: mapping.DebitAccountID, Debit: mapping.Amount, Credit: decimal.Zero},
			{AccountID: mapping.CreditAccountID, Debit: decimal.Zero, Credit: mapping.Amount},
		},
	}
}
