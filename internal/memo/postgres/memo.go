package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	memoDatamodel "github.com/permitworks/permit-management/internal/core/datamodel/memo"
	"github.com/permitworks/permit-management/internal/memo"
)

type MemoRepository struct {
	db *gorm.DB
}

func NewMemoRepository(db *gorm.DB) *MemoRepository {
	return &MemoRepository{db: db}
}

func (r *MemoRepository) Create(m *memo.Memo) error {
	return r.db.Create(memo.ToDataModel(m)).Error
}

func (r *MemoRepository) GetByID(id string) (*memo.Memo, error) {
	var dm memoDatamodel.Memo
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, memo.ErrMemoNotFound
		}
		return nil, err
	}
	return memo.FromDataModel(&dm), nil
}

func (r *MemoRepository) ListRecent(limit int) ([]*memo.Memo, error) {
	var models []*memoDatamodel.Memo
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return memo.FromDataModelSlice(models), nil
}

// MarkRead is idempotent: re-reading a memo does not error.
func (r *MemoRepository) MarkRead(memoID string, userID int64) error {
	read := memoDatamodel.MemoRead{MemoID: memoID, UserID: userID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&read).Error
}

func (r *MemoRepository) ReadMemoIDs(userID int64) (map[string]bool, error) {
	var ids []string
	err := r.db.Model(&memoDatamodel.MemoRead{}).
		Where("user_id = ?", userID).
		Pluck("memo_id", &ids).Error
	if err != nil {
		return nil, err
	}

	read := make(map[string]bool, len(ids))
	for _, id := range ids {
		read[id] = true
	}
	return read, nil
}
