package memo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/permitworks/permit-management/internal/auth"
	memoDatamodel "github.com/permitworks/permit-management/internal/core/datamodel/memo"
)

// Recipient sentinels. Shop recipients are encoded as "shop:<id>", staff
// departments by their role name.
const (
	RecipientAll            = "all"
	RecipientAllShops       = "all_shops"
	RecipientAllDepartments = "all_departments"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	CategoryGeneral  = "general"
	CategoryPermit   = "permit"
	CategorySecurity = "security"
)

var ErrMemoNotFound = errors.New("memo not found")

// Memo is an immutable notice. Read state lives per user in memo_reads.
type Memo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Priority   string    `json:"priority"`
	Recipients []string  `json:"recipients"`
	PermitID   *string   `json:"permit_id,omitempty"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

func ShopRecipient(shopID int64) string {
	return fmt.Sprintf("shop:%d", shopID)
}

// VisibleTo decides whether the actor is among the memo's recipients.
func (m *Memo) VisibleTo(actor *auth.Actor) bool {
	for _, r := range m.Recipients {
		switch {
		case r == RecipientAll:
			return true
		case r == RecipientAllShops && actor.Role == auth.RoleTenant:
			return true
		case r == RecipientAllDepartments && actor.Role != auth.RoleTenant:
			return true
		case r == string(actor.Role):
			return true
		case strings.HasPrefix(r, "shop:") && actor.ShopID != nil:
			if id, err := strconv.ParseInt(strings.TrimPrefix(r, "shop:"), 10, 64); err == nil && id == *actor.ShopID {
				return true
			}
		}
	}
	return false
}

func ToDataModel(m *Memo) *memoDatamodel.Memo {
	recipients, _ := json.Marshal(m.Recipients)
	return &memoDatamodel.Memo{
		ID:         m.ID,
		Title:      m.Title,
		Content:    m.Content,
		Category:   m.Category,
		Priority:   m.Priority,
		Recipients: string(recipients),
		PermitID:   m.PermitID,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}

func FromDataModel(dm *memoDatamodel.Memo) *Memo {
	m := &Memo{
		ID:        dm.ID,
		Title:     dm.Title,
		Content:   dm.Content,
		Category:  dm.Category,
		Priority:  dm.Priority,
		PermitID:  dm.PermitID,
		CreatedBy: dm.CreatedBy,
		CreatedAt: dm.CreatedAt,
	}
	if dm.Recipients != "" {
		var recipients []string
		if err := json.Unmarshal([]byte(dm.Recipients), &recipients); err == nil {
			m.Recipients = recipients
		}
	}
	return m
}

func FromDataModelSlice(models []*memoDatamodel.Memo) []*Memo {
	result := make([]*Memo, len(models))
	for i, dm := range models {
		result[i] = FromDataModel(dm)
	}
	return result
}
