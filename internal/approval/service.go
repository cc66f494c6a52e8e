package approval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/model"
)

// 面向用户的提示文案
const (
	MsgApproved = "Proposal %s telah disetujui oleh %s."
	MsgRejected = "Proposal %s telah ditolak oleh %s."
	MsgNotFound = "NOP tidak ditemukan."
)

// Store 审批所需的存储能力
type Store interface {
	RecordExists(ctx context.Context, nop string) (bool, error)
	SetStatus(ctx context.Context, nop string, status model.Status, approvedBy string) (int64, error)
}

// Result 审批结果
type Result struct {
	NOP          string       `json:"nop"`
	Status       model.Status `json:"status"`
	Actor        string       `json:"actor"`
	RowsAffected int64        `json:"rowsAffected"`
	Message      string       `json:"message"`
}

// Service 审批服务
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService 创建审批服务
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Approve 批准提案；NOP 不存在时返回 apperr.ErrNotFound 且不做修改
// 已批准的记录再次批准会覆盖审批人
func (s *Service) Approve(ctx context.Context, nop, actor string) (*Result, error) {
	exists, err := s.store.RecordExists(ctx, nop)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("approve %s: %w", nop, apperr.ErrNotFound)
	}

	n, err := s.store.SetStatus(ctx, nop, model.StatusApproved, actor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("proposal approved", zap.String("nop", nop), zap.String("actor", actor))
	return &Result{
		NOP:          nop,
		Status:       model.StatusApproved,
		Actor:        actor,
		RowsAffected: n,
		Message:      fmt.Sprintf(MsgApproved, nop, actor),
	}, nil
}

// Reject 拒绝提案；不检查记录是否存在，未匹配任何行也视为成功
func (s *Service) Reject(ctx context.Context, nop, actor string) (*Result, error) {
	n, err := s.store.SetStatus(ctx, nop, model.StatusRejected, actor)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		s.logger.Warn("reject matched no record", zap.String("nop", nop), zap.String("actor", actor), zap.Int64("rows_affected", n))
	} else {
		s.logger.Info("proposal rejected", zap.String("nop", nop), zap.String("actor", actor))
	}
	return &Result{
		NOP:          nop,
		Status:       model.StatusRejected,
		Actor:        actor,
		RowsAffected: n,
		Message:      fmt.Sprintf(MsgRejected, nop, actor),
	}, nil
}
