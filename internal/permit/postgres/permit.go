package postgres

import (
	"gorm.io/gorm"

	permitDatamodel "github.com/permitworks/permit-management/internal/core/datamodel/permit"
	"github.com/permitworks/permit-management/internal/permit"
)

// PermitRepository implements permit.Repository using GORM.
type PermitRepository struct {
	db *gorm.DB
}

func NewPermitRepository(db *gorm.DB) *PermitRepository {
	return &PermitRepository{db: db}
}

func (r *PermitRepository) Create(p *permit.Permit) error {
	dm := permit.ToDataModel(p)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	p.ID = dm.ID
	p.CreatedAt = dm.CreatedAt
	p.UpdatedAt = dm.UpdatedAt
	return nil
}

// NextSequence increments and returns the per-year permit counter in one
// statement. RETURNING works on both Postgres and the SQLite test driver.
func (r *PermitRepository) NextSequence(year int) (int64, error) {
	var lastValue int64
	err := r.db.Raw(`
		INSERT INTO permit_sequences (year, last_value) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = permit_sequences.last_value + 1
		RETURNING last_value`, year).Scan(&lastValue).Error
	if err != nil {
		return 0, err
	}
	return lastValue, nil
}

func (r *PermitRepository) GetByPermitID(permitID string) (*permit.Permit, error) {
	var dm permitDatamodel.Permit
	err := r.db.Where("permit_id = ?", permitID).First(&dm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, permit.ErrPermitNotFound
		}
		return nil, err
	}
	return permit.FromDataModel(&dm), nil
}

// Save writes the permit conditionally on the version the caller loaded.
// Zero rows affected means another writer got there first.
func (r *PermitRepository) Save(p *permit.Permit, expectedVersion int64) error {
	dm := permit.ToDataModel(p)

	updates := map[string]interface{}{
		"status":     dm.Status,
		"updated_at": dm.UpdatedAt,
		"version":    expectedVersion + 1,

		"technical_status":      dm.TechnicalStatus,
		"technical_approved_by": dm.TechnicalApprovedBy,
		"technical_approved_at": dm.TechnicalApprovedAt,
		"technical_comments":    dm.TechnicalComments,

		"security_status":      dm.SecurityStatus,
		"security_approved_by": dm.SecurityApprovedBy,
		"security_approved_at": dm.SecurityApprovedAt,
		"security_comments":    dm.SecurityComments,

		"management_status":      dm.ManagementStatus,
		"management_approved_by": dm.ManagementApprovedBy,
		"management_approved_at": dm.ManagementApprovedAt,
		"management_comments":    dm.ManagementComments,
	}

	result := r.db.Model(&permitDatamodel.Permit{}).
		Where("id = ? AND version = ?", dm.ID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return permit.ErrVersionConflict
	}

	p.Version = expectedVersion + 1
	return nil
}

func (r *PermitRepository) ListAll(f permit.ListFilters) ([]*permit.Permit, error) {
	return r.list(r.db, f)
}

func (r *PermitRepository) ListByShop(shopID int64, f permit.ListFilters) ([]*permit.Permit, error) {
	return r.list(r.db.Where("shop_id = ?", shopID), f)
}

// ListTechnicalQueue covers the technical reviewer's view: everything still
// pending plus permits the stage has already acted on.
func (r *PermitRepository) ListTechnicalQueue(f permit.ListFilters) ([]*permit.Permit, error) {
	return r.list(r.db.Where("status = ? OR technical_status IS NOT NULL", permit.StatusPending), f)
}

// ListSecurityQueue covers the security reviewer's view: permits cleared by
// technical plus permits the stage has already acted on.
func (r *PermitRepository) ListSecurityQueue(f permit.ListFilters) ([]*permit.Permit, error) {
	return r.list(r.db.Where("technical_status = ? OR security_status IS NOT NULL", permit.ApprovalStatusApproved), f)
}

func (r *PermitRepository) ListActive() ([]*permit.Permit, error) {
	var models []*permitDatamodel.Permit
	err := r.db.
		Where("status IN ?", []string{permit.StatusPending, permit.StatusApproved, permit.StatusInProgress}).
		Order("created_at DESC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return permit.FromDataModelSlice(models), nil
}

func (r *PermitRepository) list(query *gorm.DB, f permit.ListFilters) ([]*permit.Permit, error) {
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.ShopID != 0 {
		query = query.Where("shop_id = ?", f.ShopID)
	}
	if !f.DateFrom.IsZero() {
		query = query.Where("end_date >= ?", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		query = query.Where("start_date <= ?", f.DateTo)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var models []*permitDatamodel.Permit
	err := query.Order("created_at DESC, id ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	return permit.FromDataModelSlice(models), nil
}
