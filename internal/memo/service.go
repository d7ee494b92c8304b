package memo

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
)

type Repository interface {
	Create(m *Memo) error
	GetByID(id string) (*Memo, error)
	ListRecent(limit int) ([]*Memo, error)
	MarkRead(memoID string, userID int64) error
	ReadMemoIDs(userID int64) (map[string]bool, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateMemo publishes an operator notice.
func (s *Service) CreateMemo(actor *auth.Actor, dto CreateMemoDTO) (*Memo, error) {
	if !actor.HasPermission(auth.PermSendMemos) {
		return nil, errors.NewForbiddenError("not allowed to send memos", errors.ErrCodeNotPermitted)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	m := &Memo{
		ID:         uuid.New().String(),
		Title:      dto.Title,
		Content:    dto.Content,
		Category:   dto.Category,
		Priority:   dto.Priority,
		Recipients: dto.Recipients,
		CreatedBy:  actor.Email,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Create(m); err != nil {
		s.logger.Error("failed to create memo", "error", err)
		return nil, errors.NewInternalError("failed to create memo", err)
	}

	s.logger.Info("memo created", "memo_id", m.ID, "by", actor.Email, "recipients", len(m.Recipients))
	return m, nil
}

// DispatchSystemMemo writes a workflow-generated memo. Called from event
// handlers, so there is no actor permission check.
func (s *Service) DispatchSystemMemo(title, content, category, priority string, recipients []string, permitID string) error {
	m := &Memo{
		ID:         uuid.New().String(),
		Title:      title,
		Content:    content,
		Category:   category,
		Priority:   priority,
		Recipients: recipients,
		CreatedBy:  "system",
		CreatedAt:  s.now(),
	}
	if permitID != "" {
		m.PermitID = &permitID
	}

	if err := s.repo.Create(m); err != nil {
		return err
	}

	s.logger.Info("system memo dispatched", "memo_id", m.ID, "permit_id", permitID)
	return nil
}

// ListForActor returns the memos addressed to the actor, newest first, with
// the actor's read marks applied.
func (s *Service) ListForActor(actor *auth.Actor, limit int) ([]*Memo, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	memos, err := s.repo.ListRecent(limit * 4)
	if err != nil {
		s.logger.Error("failed to list memos", "error", err)
		return nil, errors.NewInternalError("failed to list memos", err)
	}

	readIDs, err := s.repo.ReadMemoIDs(actor.UserID)
	if err != nil {
		s.logger.Error("failed to load read marks", "user_id", actor.UserID, "error", err)
		return nil, errors.NewInternalError("failed to list memos", err)
	}

	visible := make([]*Memo, 0, limit)
	for _, m := range memos {
		if !m.VisibleTo(actor) {
			continue
		}
		m.IsRead = readIDs[m.ID]
		visible = append(visible, m)
		if len(visible) == limit {
			break
		}
	}
	return visible, nil
}

// MarkRead records that the actor has seen a memo. Idempotent.
func (s *Service) MarkRead(actor *auth.Actor, memoID string) error {
	m, err := s.repo.GetByID(memoID)
	if err != nil {
		if err == ErrMemoNotFound {
			return errors.NewNotFoundError("memo not found", errors.ErrCodeMemoNotFound)
		}
		return errors.NewInternalError("failed to load memo", err)
	}
	if !m.VisibleTo(actor) {
		return errors.NewForbiddenError("memo is not addressed to you", errors.ErrCodeNotPermitted)
	}

	if err := s.repo.MarkRead(memoID, actor.UserID); err != nil {
		s.logger.Error("failed to mark memo read", "memo_id", memoID, "user_id", actor.UserID, "error", err)
		return errors.NewInternalError("failed to mark memo read", err)
	}
	return nil
}
