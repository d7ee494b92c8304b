package permit

import "time"

// Permit is the persisted shape: the three approval slots are flattened into
// columns so the conditional-version update stays a single row write.
type Permit struct {
	ID               int64     `gorm:"primaryKey"`
	PermitID         string    `gorm:"column:permit_id;uniqueIndex;not null"`
	ShopID           int64     `gorm:"column:shop_id;not null;index"`
	ShopName         string    `gorm:"column:shop_name;not null"`
	WorkType         string    `gorm:"column:work_type;not null"`
	WorkDescription  string    `gorm:"column:work_description;not null"`
	Location         string    `gorm:"column:location;not null"`
	StartDate        time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate          time.Time `gorm:"column:end_date;type:date;not null"`
	StartTime        string    `gorm:"column:start_time"`
	EndTime          string    `gorm:"column:end_time"`
	ContractorName   string    `gorm:"column:contractor_name"`
	WorkerCount      int       `gorm:"column:worker_count;not null"`
	EmergencyContact string    `gorm:"column:emergency_contact"`
	EquipmentNeeded  string    `gorm:"column:equipment_needed"`
	InsuranceRequired bool     `gorm:"column:insurance_required;default:false"`
	Status           string    `gorm:"column:status;default:pending;index"`
	SubmittedBy      string    `gorm:"column:submitted_by;not null"`

	TechnicalStatus     *string    `gorm:"column:technical_status"`
	TechnicalApprovedBy *string    `gorm:"column:technical_approved_by"`
	TechnicalApprovedAt *time.Time `gorm:"column:technical_approved_at"`
	TechnicalComments   *string    `gorm:"column:technical_comments"`

	SecurityStatus     *string    `gorm:"column:security_status"`
	SecurityApprovedBy *string    `gorm:"column:security_approved_by"`
	SecurityApprovedAt *time.Time `gorm:"column:security_approved_at"`
	SecurityComments   *string    `gorm:"column:security_comments"`

	ManagementStatus     *string    `gorm:"column:management_status"`
	ManagementApprovedBy *string    `gorm:"column:management_approved_by"`
	ManagementApprovedAt *time.Time `gorm:"column:management_approved_at"`
	ManagementComments   *string    `gorm:"column:management_comments"`

	Version   int64     `gorm:"column:version;default:1;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permit) TableName() string {
	return "permits"
}

// PermitSequence backs the per-year PTW number counter.
type PermitSequence struct {
	Year      int   `gorm:"primaryKey;column:year"`
	LastValue int64 `gorm:"column:last_value;not null"`
}

func (PermitSequence) TableName() string {
	return "permit_sequences"
}
