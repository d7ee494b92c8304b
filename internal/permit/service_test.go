package permit_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
	"github.com/permitworks/permit-management/internal/core/events"
	"github.com/permitworks/permit-management/internal/permit"
)

func TestPermit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permit Module Suite")
}

// Mock repository for testing
type mockPermitRepository struct {
	mu        sync.Mutex
	permits   map[string]*permit.Permit
	sequences map[int]int64

	createError   error
	getError      error
	saveError     error
	forceConflict bool
}

func newMockPermitRepository() *mockPermitRepository {
	return &mockPermitRepository{
		permits:   make(map[string]*permit.Permit),
		sequences: make(map[int]int64),
	}
}

func (m *mockPermitRepository) Create(p *permit.Permit) error {
	if m.createError != nil {
		return m.createError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *p
	m.permits[p.PermitID] = &copied
	return nil
}

func (m *mockPermitRepository) NextSequence(year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[year]++
	return m.sequences[year], nil
}

func (m *mockPermitRepository) GetByPermitID(permitID string) (*permit.Permit, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permits[permitID]
	if !ok {
		return nil, permit.ErrPermitNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockPermitRepository) Save(p *permit.Permit, expectedVersion int64) error {
	if m.saveError != nil {
		return m.saveError
	}
	if m.forceConflict {
		return permit.ErrVersionConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.permits[p.PermitID]
	if !ok || stored.Version != expectedVersion {
		return permit.ErrVersionConflict
	}
	p.Version = expectedVersion + 1
	copied := *p
	m.permits[p.PermitID] = &copied
	return nil
}

func (m *mockPermitRepository) ListAll(f permit.ListFilters) ([]*permit.Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*permit.Permit
	for _, p := range m.permits {
		copied := *p
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockPermitRepository) ListByShop(shopID int64, f permit.ListFilters) ([]*permit.Permit, error) {
	all, _ := m.ListAll(f)
	var result []*permit.Permit
	for _, p := range all {
		if p.ShopID == shopID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPermitRepository) ListTechnicalQueue(f permit.ListFilters) ([]*permit.Permit, error) {
	return m.ListAll(f)
}

func (m *mockPermitRepository) ListSecurityQueue(f permit.ListFilters) ([]*permit.Permit, error) {
	return m.ListAll(f)
}

func (m *mockPermitRepository) ListActive() ([]*permit.Permit, error) {
	all, _ := m.ListAll(permit.ListFilters{})
	var result []*permit.Permit
	for _, p := range all {
		switch p.Status {
		case permit.StatusPending, permit.StatusApproved, permit.StatusInProgress:
			result = append(result, p)
		}
	}
	return result, nil
}

// Mock document checker for the insurance gate
type mockDocumentChecker struct {
	documents map[string]bool
	err       error
}

func newMockDocumentChecker() *mockDocumentChecker {
	return &mockDocumentChecker{documents: make(map[string]bool)}
}

func (m *mockDocumentChecker) HasDocument(permitID, category string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.documents[permitID+"/"+category], nil
}

type mockShopDirectory struct {
	names map[int64]string
}

func (m *mockShopDirectory) GetShopName(shopID int64) (string, error) {
	if name, ok := m.names[shopID]; ok {
		return name, nil
	}
	return "", errors.New("shop not found")
}

type recordingEventBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingEventBus) Publish(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingEventBus) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var types []string
	for _, e := range b.events {
		types = append(types, e.EventType())
	}
	return types
}

func shopID(id int64) *int64 { return &id }

func tenantActor(shop int64) *auth.Actor {
	return &auth.Actor{UserID: 100 + shop, Email: "tenant@mall.local", Name: "Tenant", Role: auth.RoleTenant, ShopID: shopID(shop)}
}

func technicalActor() *auth.Actor {
	return &auth.Actor{UserID: 2, Email: "tech@mall.local", Name: "Technical", Role: auth.RoleTechnical}
}

func securityActor() *auth.Actor {
	return &auth.Actor{UserID: 3, Email: "sec@mall.local", Name: "Security", Role: auth.RoleSecurity}
}

func operationsActor() *auth.Actor {
	return &auth.Actor{UserID: 4, Email: "ops@mall.local", Name: "Operations", Role: auth.RoleOperations}
}

func adminActor() *auth.Actor {
	return &auth.Actor{UserID: 1, Email: "admin@mall.local", Name: "Admin", Role: auth.RoleAdmin}
}

var _ = Describe("PermitService", func() {
	var (
		service   *permit.Service
		mockRepo  *mockPermitRepository
		mockDocs  *mockDocumentChecker
		mockShops *mockShopDirectory
		bus       *recordingEventBus
		ctx       context.Context
	)

	submitDTO := func() permit.SubmitPermitDTO {
		return permit.SubmitPermitDTO{
			WorkType:         "light_work",
			WorkDescription:  "Replace shopfront signage lighting",
			Location:         "Unit A-101, facade",
			StartDate:        time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
			EndDate:          time.Now().AddDate(0, 0, 9).Format("2006-01-02"),
			StartTime:        "09:00",
			EndTime:          "18:00",
			ContractorName:   "Brightline Electrical",
			WorkerCount:      3,
			EmergencyContact: "+60123456789",
		}
	}

	submit := func(dto permit.SubmitPermitDTO) *permit.Permit {
		p, err := service.SubmitPermit(ctx, tenantActor(1), dto)
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	approve := func(actor *auth.Actor, permitID string) (*permit.Permit, error) {
		return service.ReviewPermit(ctx, actor, permitID, permit.ReviewPermitDTO{Action: permit.ReviewActionApprove})
	}

	expectAppError := func(err error, code apperrors.ErrorCode) *apperrors.AppError {
		Expect(err).To(HaveOccurred())
		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(code))
		return appErr
	}

	BeforeEach(func() {
		mockRepo = newMockPermitRepository()
		mockDocs = newMockDocumentChecker()
		mockShops = &mockShopDirectory{names: map[int64]string{1: "Demo Coffee House", 2: "Bookstore"}}
		bus = &recordingEventBus{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = permit.NewService(mockRepo, mockDocs, mockShops, bus, logger)
		ctx = context.Background()
	})

	Describe("SubmitPermit", func() {
		It("creates a pending permit with a PTW id and empty approval slots", func() {
			p := submit(submitDTO())

			Expect(p.PermitID).To(MatchRegexp(`^PTW-\d{4}-\d{3}$`))
			Expect(p.Status).To(Equal(permit.StatusPending))
			Expect(p.ShopName).To(Equal("Demo Coffee House"))
			Expect(p.SubmittedBy).To(Equal("tenant@mall.local"))
			Expect(p.Approvals.Technical).To(BeNil())
			Expect(p.Approvals.Security).To(BeNil())
			Expect(p.Approvals.Management).To(BeNil())
			Expect(bus.eventTypes()).To(ContainElement(events.EventTypePermitSubmitted))
		})

		It("allocates sequential ids within a year", func() {
			first := submit(submitDTO())
			second := submit(submitDTO())
			Expect(first.PermitID).NotTo(Equal(second.PermitID))
		})

		It("flags heavy work as requiring insurance", func() {
			dto := submitDTO()
			dto.WorkType = "heavy_work"
			p := submit(dto)
			Expect(p.InsuranceRequired).To(BeTrue())
		})

		It("refuses submissions from reviewer roles", func() {
			_, err := service.SubmitPermit(ctx, technicalActor(), submitDTO())
			expectAppError(err, apperrors.ErrCodeNotPermitted)
		})

		It("rejects an invalid payload", func() {
			dto := submitDTO()
			dto.WorkerCount = 0
			_, err := service.SubmitPermit(ctx, tenantActor(1), dto)
			expectAppError(err, apperrors.ErrCodeValidationFailed)
		})
	})

	Describe("ReviewPermit", func() {
		var p *permit.Permit

		BeforeEach(func() {
			p = submit(submitDTO())
		})

		It("walks the three stages in order to full approval", func() {
			reviewed, err := approve(technicalActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal(permit.StatusPending))
			Expect(reviewed.Approvals.Technical).NotTo(BeNil())

			reviewed, err = approve(securityActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal(permit.StatusPending))

			reviewed, err = approve(operationsActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal(permit.StatusApproved))
			Expect(bus.eventTypes()).To(ContainElement(events.EventTypePermitApproved))
		})

		It("refuses a security review before technical approval", func() {
			_, err := approve(securityActor(), p.PermitID)
			expectAppError(err, apperrors.ErrCodeWrongStage)
		})

		It("refuses a management review before security approval", func() {
			_, err := approve(technicalActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())

			_, err = approve(operationsActor(), p.PermitID)
			expectAppError(err, apperrors.ErrCodeWrongStage)
		})

		It("refuses a second review of the same stage", func() {
			_, err := approve(technicalActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())

			_, err = approve(technicalActor(), p.PermitID)
			expectAppError(err, apperrors.ErrCodeWrongStage)
		})

		It("rejects the permit and stops the workflow", func() {
			reviewed, err := service.ReviewPermit(ctx, technicalActor(), p.PermitID, permit.ReviewPermitDTO{
				Action:   permit.ReviewActionReject,
				Comments: "method statement missing",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal(permit.StatusRejected))
			Expect(reviewed.Approvals.Technical.Status).To(Equal(permit.ApprovalStatusRejected))

			_, err = approve(securityActor(), p.PermitID)
			expectAppError(err, apperrors.ErrCodeTerminalPermit)
			Expect(bus.eventTypes()).To(ContainElement(events.EventTypePermitRejected))
		})

		It("requires comments on rejection", func() {
			_, err := service.ReviewPermit(ctx, technicalActor(), p.PermitID, permit.ReviewPermitDTO{
				Action: permit.ReviewActionReject,
			})
			expectAppError(err, apperrors.ErrCodeValidationFailed)
		})

		It("refuses tenant reviews", func() {
			_, err := approve(tenantActor(1), p.PermitID)
			expectAppError(err, apperrors.ErrCodeNotPermitted)
		})

		It("lets admin review whichever stage is next", func() {
			reviewed, err := approve(adminActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Approvals.Technical).NotTo(BeNil())

			reviewed, err = approve(adminActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Approvals.Security).NotTo(BeNil())
		})

		It("surfaces a conflict when a concurrent writer wins", func() {
			mockRepo.forceConflict = true
			_, err := approve(technicalActor(), p.PermitID)
			appErr := expectAppError(err, apperrors.ErrCodeVersionConflict)
			Expect(appErr.StatusCode).To(Equal(409))
		})

		Context("heavy work insurance gate", func() {
			BeforeEach(func() {
				dto := submitDTO()
				dto.WorkType = "heavy_work"
				p = submit(dto)
			})

			It("blocks technical approval without an insurance document", func() {
				_, err := approve(technicalActor(), p.PermitID)
				expectAppError(err, apperrors.ErrCodeInsuranceMissing)
			})

			It("approves once the insurance document is on file", func() {
				mockDocs.documents[p.PermitID+"/insurance"] = true
				reviewed, err := approve(technicalActor(), p.PermitID)
				Expect(err).NotTo(HaveOccurred())
				Expect(reviewed.Approvals.Technical.Status).To(Equal(permit.ApprovalStatusApproved))
			})

			It("allows rejection without an insurance document", func() {
				_, err := service.ReviewPermit(ctx, technicalActor(), p.PermitID, permit.ReviewPermitDTO{
					Action:   permit.ReviewActionReject,
					Comments: "no insurance certificate submitted",
				})
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Describe("GetPermit", func() {
		var p *permit.Permit

		BeforeEach(func() {
			p = submit(submitDTO())
		})

		It("lets the owning tenant view it", func() {
			got, err := service.GetPermit(tenantActor(1), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PermitID).To(Equal(p.PermitID))
		})

		It("hides it from other tenants", func() {
			_, err := service.GetPermit(tenantActor(2), p.PermitID)
			expectAppError(err, apperrors.ErrCodeNotPermitted)
		})

		It("returns not found for unknown ids", func() {
			_, err := service.GetPermit(adminActor(), "PTW-2026-999")
			expectAppError(err, apperrors.ErrCodePermitNotFound)
		})
	})

	Describe("ListVisiblePermits", func() {
		It("scopes tenants to their own shop", func() {
			submit(submitDTO())

			mine, err := service.ListVisiblePermits(tenantActor(1), permit.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))

			others, err := service.ListVisiblePermits(tenantActor(2), permit.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(others).To(BeEmpty())
		})

		It("applies the status filter to the date-derived status", func() {
			dto := submitDTO()
			dto.StartDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
			dto.EndDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
			p := submit(dto)

			_, err := approve(technicalActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			_, err = approve(securityActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			_, err = approve(operationsActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())

			listed, err := service.ListVisiblePermits(tenantActor(1), permit.ListFilters{Status: permit.StatusInProgress})
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(HaveLen(1))
			Expect(listed[0].Status).To(Equal(permit.StatusInProgress))

			listed, err = service.ListVisiblePermits(tenantActor(1), permit.ListFilters{Status: permit.StatusApproved})
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(BeEmpty())
		})
	})

	Describe("lifecycle transitions", func() {
		var p *permit.Permit

		fullyApprove := func(id string) {
			_, err := approve(technicalActor(), id)
			Expect(err).NotTo(HaveOccurred())
			_, err = approve(securityActor(), id)
			Expect(err).NotTo(HaveOccurred())
			_, err = approve(operationsActor(), id)
			Expect(err).NotTo(HaveOccurred())
		}

		BeforeEach(func() {
			p = submit(submitDTO())
		})

		It("cancels a pending permit for its tenant", func() {
			cancelled, err := service.CancelPermit(ctx, tenantActor(1), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(permit.StatusCancelled))
		})

		It("refuses cancellation by another shop's tenant", func() {
			_, err := service.CancelPermit(ctx, tenantActor(2), p.PermitID)
			expectAppError(err, apperrors.ErrCodeNotPermitted)
		})

		It("starts and completes work on an approved permit", func() {
			fullyApprove(p.PermitID)

			started, err := service.StartWork(ctx, securityActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(started.Status).To(Equal(permit.StatusInProgress))

			completed, err := service.CompleteWork(ctx, tenantActor(1), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(completed.Status).To(Equal(permit.StatusCompleted))
		})

		It("refuses to start work on a pending permit", func() {
			_, err := service.StartWork(ctx, tenantActor(1), p.PermitID)
			expectAppError(err, apperrors.ErrCodePermitNotApproved)
		})
	})

	Describe("IssueQRPayload", func() {
		var p *permit.Permit

		BeforeEach(func() {
			p = submit(submitDTO())
		})

		It("refuses a QR for a pending permit", func() {
			_, err := service.IssueQRPayload(tenantActor(1), p.PermitID, "https://mall.local")
			appErr := expectAppError(err, apperrors.ErrCodePermitNotApproved)
			Expect(appErr.StatusCode).To(Equal(412))
		})

		It("issues a gate pass for an approved permit", func() {
			_, err := approve(technicalActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			_, err = approve(securityActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			_, err = approve(operationsActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())

			payload, err := service.IssueQRPayload(tenantActor(1), p.PermitID, "https://mall.local")
			Expect(err).NotTo(HaveOccurred())
			Expect(payload.PermitID).To(Equal(p.PermitID))
			Expect(payload.ValidationCode).To(MatchRegexp(`^[A-Z2-7]{6}$`))
			Expect(payload.VerifyURL).To(Equal("https://mall.local/verify/" + p.PermitID))
		})
	})

	Describe("SweepDateTransitions", func() {
		It("expires pending permits past their end date", func() {
			dto := submitDTO()
			dto.StartDate = "2020-01-01"
			dto.EndDate = "2020-01-03"
			p := submit(dto)

			changed, err := service.SweepDateTransitions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(Equal(1))

			got, err := service.GetPermit(adminActor(), p.PermitID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(permit.StatusExpired))
			Expect(bus.eventTypes()).To(ContainElement(events.EventTypePermitStatusChanged))
		})

		It("does nothing on a second pass", func() {
			dto := submitDTO()
			dto.StartDate = "2020-01-01"
			dto.EndDate = "2020-01-03"
			submit(dto)

			_, err := service.SweepDateTransitions(ctx)
			Expect(err).NotTo(HaveOccurred())

			changed, err := service.SweepDateTransitions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeZero())
		})
	})
})
