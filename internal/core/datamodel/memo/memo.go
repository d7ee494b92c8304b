package memo

import "time"

// Memo stores recipients as a JSON-encoded string array (shop ids, role
// names, or the all_shops/all_departments/all sentinels).
type Memo struct {
	ID         string    `gorm:"primaryKey;column:id"`
	Title      string    `gorm:"column:title;not null"`
	Content    string    `gorm:"column:content;not null"`
	Category   string    `gorm:"column:category;default:general"`
	Priority   string    `gorm:"column:priority;default:medium"`
	Recipients string    `gorm:"column:recipients;not null"`
	PermitID   *string   `gorm:"column:permit_id;index"`
	CreatedBy  string    `gorm:"column:created_by;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Memo) TableName() string {
	return "memos"
}

type MemoRead struct {
	ID     int64     `gorm:"primaryKey"`
	MemoID string    `gorm:"column:memo_id;not null;uniqueIndex:idx_memo_reads_memo_user"`
	UserID int64     `gorm:"column:user_id;not null;uniqueIndex:idx_memo_reads_memo_user"`
	ReadAt time.Time `gorm:"column:read_at;autoCreateTime"`
}

func (MemoRead) TableName() string {
	return "memo_reads"
}
