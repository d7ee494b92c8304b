package permit

import (
	"time"

	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

// workTypeAliases maps the short spellings still used by older clients onto
// the canonical values.
var workTypeAliases = map[string]string{
	"light":  WorkTypeLight,
	"medium": WorkTypeMedium,
	"heavy":  WorkTypeHeavy,
}

// NormalizeWorkType resolves aliases; unknown values pass through so the
// validator can report them.
func NormalizeWorkType(workType string) string {
	if canonical, ok := workTypeAliases[workType]; ok {
		return canonical
	}
	return workType
}

// SubmitPermitDTO is the request payload for creating a permit. Dates travel
// as YYYY-MM-DD strings; Validate parses them into ParsedStartDate/EndDate.
type SubmitPermitDTO struct {
	WorkType         string   `json:"work_type"`
	WorkDescription  string   `json:"work_description"`
	Location         string   `json:"location"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	ContractorName   string   `json:"contractor_name"`
	WorkerCount      int      `json:"worker_count"`
	EmergencyContact string   `json:"emergency_contact"`
	EquipmentNeeded  []string `json:"equipment_needed,omitempty"`

	ParsedStartDate time.Time `json:"-"`
	ParsedEndDate   time.Time `json:"-"`
}

func (dto *SubmitPermitDTO) Validate() *errors.AppError {
	dto.WorkType = NormalizeWorkType(dto.WorkType)

	var dateErrors []errors.ValidationError
	if dto.StartDate != "" {
		parsed, err := time.Parse(dateLayout, dto.StartDate)
		if err != nil {
			dateErrors = append(dateErrors, errors.ValidationError{
				Field: "start_date", Message: "start_date must be in YYYY-MM-DD format", Code: string(errors.ErrCodeInvalidDate),
			})
		} else {
			dto.ParsedStartDate = parsed
		}
	}
	if dto.EndDate != "" {
		parsed, err := time.Parse(dateLayout, dto.EndDate)
		if err != nil {
			dateErrors = append(dateErrors, errors.ValidationError{
				Field: "end_date", Message: "end_date must be in YYYY-MM-DD format", Code: string(errors.ErrCodeInvalidDate),
			})
		} else {
			dto.ParsedEndDate = parsed
		}
	}

	v := validation.NewValidator()
	v.Field("work_type", dto.WorkType).
		Required().
		OneOf(ValidWorkTypes(), errors.ErrCodeInvalidWorkType)
	v.Field("work_description", dto.WorkDescription).
		Required().
		MinLength(10).
		MaxLength(500)
	v.Field("location", dto.Location).
		Required().
		MaxLength(200)
	v.Field("start_date", dto.StartDate).Required()
	v.Field("end_date", dto.EndDate).Required()
	v.Field("start_time", dto.StartTime).Required().TimeOfDay()
	v.Field("end_time", dto.EndTime).Required().TimeOfDay()
	v.Field("contractor_name", dto.ContractorName).
		Required().
		MinLength(2).
		MaxLength(120)
	v.Field("emergency_contact", dto.EmergencyContact).
		Required().
		MaxLength(30)
	v.Field("worker_count", dto.WorkerCount).
		Required().
		MinInt(1, errors.ErrCodeWorkerCount).
		MaxInt(50, errors.ErrCodeWorkerCount)
	v.Field("end_date", dto.ParsedEndDate).
		NotBefore(dto.ParsedStartDate, "start_date")

	// Format errors for the times are the builder's; ordering is checked on
	// the parsed values so a malformed time does not double-report.
	if st, err := time.Parse("15:04", dto.StartTime); err == nil {
		if et, err := time.Parse("15:04", dto.EndTime); err == nil && !et.After(st) {
			dateErrors = append(dateErrors, errors.ValidationError{
				Field: "end_time", Message: "end_time must be after start_time", Code: string(errors.ErrCodeInvalidTime),
			})
		}
	}

	appErr := v.Validate()
	if len(dateErrors) == 0 {
		return appErr
	}

	all := dateErrors
	if appErr != nil {
		if details, ok := appErr.Details.(errors.ValidationErrors); ok {
			all = append(all, details.Errors...)
		}
	}
	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: all})
}

// ReviewPermitDTO carries one stage decision.
type ReviewPermitDTO struct {
	Action   string `json:"action"`
	Comments string `json:"comments,omitempty"`
}

const (
	ReviewActionApprove = "approve"
	ReviewActionReject  = "reject"
)

func (dto ReviewPermitDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("action", dto.Action).
		Required().
		OneOf([]string{ReviewActionApprove, ReviewActionReject}, errors.ErrCodeValidationFailed)
	v.Field("comments", dto.Comments).MaxLength(500)
	if err := v.Validate(); err != nil {
		return err
	}
	if dto.Action == ReviewActionReject && dto.Comments == "" {
		return errors.NewValidationFieldError("comments", "comments are required when rejecting", errors.ErrCodeValidationFailed)
	}
	return nil
}

// ListFilters narrows a visible-permit listing. Zero values mean no filter.
type ListFilters struct {
	Status   string
	ShopID   int64
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
	Offset   int
}
