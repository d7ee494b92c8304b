package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	permitDatamodel "github.com/permitworks/permit-management/internal/core/datamodel/permit"
	"github.com/permitworks/permit-management/internal/permit"
)

func TestPermitRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PermitRepository Suite")
}

var _ = Describe("PermitRepository", func() {
	var (
		db   *gorm.DB
		repo *PermitRepository
	)

	newPermit := func(permitID string, shopID int64) *permit.Permit {
		return &permit.Permit{
			PermitID:        permitID,
			ShopID:          shopID,
			ShopName:        "Demo Coffee House",
			WorkType:        permit.WorkTypeLight,
			WorkDescription: "Replace shopfront signage lighting",
			Location:        "Unit A-101, facade",
			StartDate:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
			WorkerCount:     3,
			EquipmentNeeded: []string{"ladder", "power drill"},
			Status:          permit.StatusPending,
			SubmittedBy:     "tenant@mall.local",
			Version:         1,
		}
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&permitDatamodel.Permit{}, &permitDatamodel.PermitSequence{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewPermitRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Create and GetByPermitID", func() {
		It("round-trips a permit including equipment and empty slots", func() {
			created := newPermit("PTW-2026-001", 1)
			Expect(repo.Create(created)).To(Succeed())
			Expect(created.ID).To(BeNumerically(">", 0))

			got, err := repo.GetByPermitID("PTW-2026-001")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PermitID).To(Equal("PTW-2026-001"))
			Expect(got.EquipmentNeeded).To(Equal([]string{"ladder", "power drill"}))
			Expect(got.Approvals.Technical).To(BeNil())
			Expect(got.Version).To(Equal(int64(1)))
		})

		It("returns ErrPermitNotFound for unknown ids", func() {
			_, err := repo.GetByPermitID("PTW-2026-999")
			Expect(err).To(Equal(permit.ErrPermitNotFound))
		})
	})

	Describe("NextSequence", func() {
		It("increments within a year", func() {
			first, err := repo.NextSequence(2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal(int64(1)))

			second, err := repo.NextSequence(2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(int64(2)))
		})

		It("keeps separate counters per year", func() {
			_, err := repo.NextSequence(2026)
			Expect(err).NotTo(HaveOccurred())

			next, err := repo.NextSequence(2027)
			Expect(err).NotTo(HaveOccurred())
			Expect(next).To(Equal(int64(1)))
		})
	})

	Describe("Save", func() {
		var p *permit.Permit

		BeforeEach(func() {
			p = newPermit("PTW-2026-001", 1)
			Expect(repo.Create(p)).To(Succeed())
		})

		It("persists approval slots and bumps the version", func() {
			p.Approvals.Technical = &permit.Approval{
				Status:     permit.ApprovalStatusApproved,
				ApprovedBy: "tech@mall.local",
				ApprovedAt: time.Now().UTC(),
				Comments:   "scaffolding plan checked",
			}
			p.UpdatedAt = time.Now().UTC()

			Expect(repo.Save(p, 1)).To(Succeed())
			Expect(p.Version).To(Equal(int64(2)))

			got, err := repo.GetByPermitID(p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Version).To(Equal(int64(2)))
			Expect(got.Approvals.Technical).NotTo(BeNil())
			Expect(got.Approvals.Technical.ApprovedBy).To(Equal("tech@mall.local"))
			Expect(got.Approvals.Technical.Comments).To(Equal("scaffolding plan checked"))
		})

		It("rejects a stale version", func() {
			p.Status = permit.StatusCancelled
			Expect(repo.Save(p, 1)).To(Succeed())

			stale := *p
			stale.Status = permit.StatusRejected
			err := repo.Save(&stale, 1)
			Expect(err).To(Equal(permit.ErrVersionConflict))

			got, err := repo.GetByPermitID(p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(permit.StatusCancelled))
		})
	})

	Describe("listing", func() {
		BeforeEach(func() {
			a := newPermit("PTW-2026-001", 1)
			Expect(repo.Create(a)).To(Succeed())

			b := newPermit("PTW-2026-002", 2)
			Expect(repo.Create(b)).To(Succeed())

			// clear technical on permit b so it sits in the security queue
			b.Approvals.Technical = &permit.Approval{
				Status:     permit.ApprovalStatusApproved,
				ApprovedBy: "tech@mall.local",
				ApprovedAt: time.Now().UTC(),
			}
			Expect(repo.Save(b, 1)).To(Succeed())
		})

		It("filters by shop", func() {
			got, err := repo.ListByShop(1, permit.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].PermitID).To(Equal("PTW-2026-001"))
		})

		It("filters by status", func() {
			got, err := repo.ListAll(permit.ListFilters{Status: permit.StatusPending})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
		})

		It("includes only technically cleared permits in the security queue", func() {
			got, err := repo.ListSecurityQueue(permit.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].PermitID).To(Equal("PTW-2026-002"))
		})

		It("includes everything pending in the technical queue", func() {
			got, err := repo.ListTechnicalQueue(permit.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
		})
	})
})
