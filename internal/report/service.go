package report

import (
	"log/slog"

	"gorm.io/gorm"

	errors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
)

// Service builds read-only aggregates straight from the database. Reports
// have no domain state of their own, so there is no repository layer.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) PermitReport(actor *auth.Actor) (*PermitReport, error) {
	if !actor.HasPermission(auth.PermViewReports) {
		return nil, errors.NewForbiddenError("not allowed to view reports", errors.ErrCodeNotPermitted)
	}

	report := &PermitReport{}

	if err := s.db.Raw("SELECT COUNT(*) FROM permits").Scan(&report.Total).Error; err != nil {
		return nil, s.fail("permit total", err)
	}
	if err := s.db.Raw(
		"SELECT status, COUNT(*) AS count FROM permits GROUP BY status ORDER BY count DESC").
		Scan(&report.ByStatus).Error; err != nil {
		return nil, s.fail("permits by status", err)
	}
	if err := s.db.Raw(
		"SELECT work_type, COUNT(*) AS count FROM permits GROUP BY work_type ORDER BY count DESC").
		Scan(&report.ByWorkType).Error; err != nil {
		return nil, s.fail("permits by work type", err)
	}
	if err := s.db.Raw(
		"SELECT shop_id, shop_name, COUNT(*) AS count FROM permits GROUP BY shop_id, shop_name ORDER BY count DESC LIMIT 20").
		Scan(&report.ByShop).Error; err != nil {
		return nil, s.fail("permits by shop", err)
	}

	return report, nil
}

func (s *Service) ShopsReport(actor *auth.Actor) (*ShopsReport, error) {
	if !actor.HasPermission(auth.PermViewReports) {
		return nil, errors.NewForbiddenError("not allowed to view reports", errors.ErrCodeNotPermitted)
	}

	report := &ShopsReport{}

	if err := s.db.Raw("SELECT COUNT(*) FROM shops").Scan(&report.TotalShops).Error; err != nil {
		return nil, s.fail("shop total", err)
	}
	if err := s.db.Raw("SELECT COUNT(*) FROM shops WHERE status = 'active'").Scan(&report.ActiveShops).Error; err != nil {
		return nil, s.fail("active shops", err)
	}
	if err := s.db.Raw(`
		SELECT s.id AS shop_id, s.name AS shop_name, COUNT(p.id) AS count
		FROM shops s
		LEFT JOIN permits p ON p.shop_id = s.id
		GROUP BY s.id, s.name
		ORDER BY count DESC`).
		Scan(&report.ByPermits).Error; err != nil {
		return nil, s.fail("shops by permits", err)
	}

	return report, nil
}

func (s *Service) Dashboard(actor *auth.Actor) (*DashboardSummary, error) {
	if !actor.HasPermission(auth.PermViewReports) {
		return nil, errors.NewForbiddenError("not allowed to view reports", errors.ErrCodeNotPermitted)
	}

	summary := &DashboardSummary{}

	queries := []struct {
		sql  string
		dest *int64
	}{
		{"SELECT COUNT(*) FROM permits", &summary.TotalPermits},
		{"SELECT COUNT(*) FROM permits WHERE status = 'pending'", &summary.PendingPermits},
		{"SELECT COUNT(*) FROM permits WHERE status = 'in_progress'", &summary.ActivePermits},
		{"SELECT COUNT(*) FROM permits WHERE status = 'approved'", &summary.ApprovedPermits},
		{"SELECT COUNT(*) FROM shops", &summary.TotalShops},
		{"SELECT COUNT(*) FROM shops WHERE status = 'active'", &summary.ActiveShops},
	}

	for _, q := range queries {
		if err := s.db.Raw(q.sql).Scan(q.dest).Error; err != nil {
			return nil, s.fail("dashboard", err)
		}
	}

	return summary, nil
}

func (s *Service) fail(what string, err error) *errors.AppError {
	s.logger.Error("report query failed", "report", what, "error", err)
	return errors.NewInternalError("failed to build report", err)
}
