package permit_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/permitworks/permit-management/internal/permit"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	Expect(err).NotTo(HaveOccurred())
	return t
}

func approvedSlot(by string) *permit.Approval {
	return &permit.Approval{
		Status:     permit.ApprovalStatusApproved,
		ApprovedBy: by,
		ApprovedAt: time.Now(),
	}
}

var _ = Describe("Permit", func() {
	Describe("NextStage", func() {
		It("starts at the technical stage", func() {
			p := &permit.Permit{Status: permit.StatusPending}
			stage, ok := p.NextStage()
			Expect(ok).To(BeTrue())
			Expect(stage).To(Equal(permit.StageTechnical))
		})

		It("advances to security after technical approves", func() {
			p := &permit.Permit{Status: permit.StatusPending}
			p.Approvals.Technical = approvedSlot("tech@mall.local")

			stage, ok := p.NextStage()
			Expect(ok).To(BeTrue())
			Expect(stage).To(Equal(permit.StageSecurity))
		})

		It("reports no next stage once all three approved", func() {
			p := &permit.Permit{Status: permit.StatusPending}
			p.Approvals.Technical = approvedSlot("tech@mall.local")
			p.Approvals.Security = approvedSlot("sec@mall.local")
			p.Approvals.Management = approvedSlot("ops@mall.local")

			_, ok := p.NextStage()
			Expect(ok).To(BeFalse())
			Expect(p.AllStagesApproved()).To(BeTrue())
		})
	})

	Describe("StagePrerequisitesMet", func() {
		It("always allows the technical stage", func() {
			p := &permit.Permit{Status: permit.StatusPending}
			Expect(p.StagePrerequisitesMet(permit.StageTechnical)).To(BeTrue())
		})

		It("blocks security until technical approves", func() {
			p := &permit.Permit{Status: permit.StatusPending}
			Expect(p.StagePrerequisitesMet(permit.StageSecurity)).To(BeFalse())

			p.Approvals.Technical = approvedSlot("tech@mall.local")
			Expect(p.StagePrerequisitesMet(permit.StageSecurity)).To(BeTrue())
		})

		It("blocks management until both prior stages approve", func() {
			p := &permit.Permit{Status: permit.StatusPending}
			p.Approvals.Technical = approvedSlot("tech@mall.local")
			Expect(p.StagePrerequisitesMet(permit.StageManagement)).To(BeFalse())

			p.Approvals.Security = approvedSlot("sec@mall.local")
			Expect(p.StagePrerequisitesMet(permit.StageManagement)).To(BeTrue())
		})

		It("does not count a rejected slot as a met prerequisite", func() {
			p := &permit.Permit{Status: permit.StatusPending}
			p.Approvals.Technical = &permit.Approval{Status: permit.ApprovalStatusRejected}
			Expect(p.StagePrerequisitesMet(permit.StageSecurity)).To(BeFalse())
		})
	})

	Describe("EffectiveStatus", func() {
		It("expires a pending permit past its end date", func() {
			p := &permit.Permit{
				Status:    permit.StatusPending,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.EffectiveStatus(day("2026-08-11"))).To(Equal(permit.StatusExpired))
		})

		It("keeps a pending permit pending on its end date", func() {
			p := &permit.Permit{
				Status:    permit.StatusPending,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.EffectiveStatus(day("2026-08-10"))).To(Equal(permit.StatusPending))
		})

		It("moves an approved permit to in_progress on its start date", func() {
			p := &permit.Permit{
				Status:    permit.StatusApproved,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.EffectiveStatus(day("2026-07-31"))).To(Equal(permit.StatusApproved))
			Expect(p.EffectiveStatus(day("2026-08-01"))).To(Equal(permit.StatusInProgress))
		})

		It("completes an approved permit past its end date", func() {
			p := &permit.Permit{
				Status:    permit.StatusApproved,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.EffectiveStatus(day("2026-08-11"))).To(Equal(permit.StatusCompleted))
		})

		It("completes an in_progress permit past its end date", func() {
			p := &permit.Permit{
				Status:    permit.StatusInProgress,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.EffectiveStatus(day("2026-08-11"))).To(Equal(permit.StatusCompleted))
		})

		It("leaves terminal statuses alone", func() {
			p := &permit.Permit{
				Status:    permit.StatusRejected,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.EffectiveStatus(day("2026-09-01"))).To(Equal(permit.StatusRejected))
		})

		It("converges under repeated application", func() {
			p := &permit.Permit{
				Status:    permit.StatusApproved,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			now := day("2026-08-05")
			Expect(p.ApplyDateTransitions(now)).To(BeTrue())
			Expect(p.Status).To(Equal(permit.StatusInProgress))
			Expect(p.ApplyDateTransitions(now)).To(BeFalse())
		})
	})

	Describe("CanCancel", func() {
		It("allows cancelling a pending permit", func() {
			p := &permit.Permit{
				Status:    permit.StatusPending,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.CanCancel(day("2026-07-20"))).To(BeTrue())
		})

		It("allows cancelling an approved permit before work starts", func() {
			p := &permit.Permit{
				Status:    permit.StatusApproved,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.CanCancel(day("2026-07-31"))).To(BeTrue())
		})

		It("refuses cancellation once the start date arrives", func() {
			p := &permit.Permit{
				Status:    permit.StatusApproved,
				StartDate: day("2026-08-01"),
				EndDate:   day("2026-08-10"),
			}
			Expect(p.CanCancel(day("2026-08-01"))).To(BeFalse())
		})

		It("refuses cancellation of terminal permits", func() {
			p := &permit.Permit{Status: permit.StatusRejected}
			Expect(p.CanCancel(day("2026-08-01"))).To(BeFalse())
		})
	})

	Describe("NormalizeWorkType", func() {
		It("resolves short aliases to canonical values", func() {
			Expect(permit.NormalizeWorkType("light")).To(Equal(permit.WorkTypeLight))
			Expect(permit.NormalizeWorkType("medium")).To(Equal(permit.WorkTypeMedium))
			Expect(permit.NormalizeWorkType("heavy")).To(Equal(permit.WorkTypeHeavy))
		})

		It("passes canonical and unknown values through", func() {
			Expect(permit.NormalizeWorkType("electrical")).To(Equal("electrical"))
			Expect(permit.NormalizeWorkType("demolition")).To(Equal("demolition"))
		})
	})

	Describe("ValidationCode", func() {
		It("is six characters from the base-32 alphabet", func() {
			code := permit.ValidationCode("PTW-2026-001")
			Expect(code).To(HaveLen(6))
			Expect(code).To(MatchRegexp(`^[A-Z2-7]{6}$`))
		})

		It("is deterministic per permit id", func() {
			Expect(permit.ValidationCode("PTW-2026-001")).To(Equal(permit.ValidationCode("PTW-2026-001")))
			Expect(permit.ValidationCode("PTW-2026-001")).NotTo(Equal(permit.ValidationCode("PTW-2026-002")))
		})
	})

	Describe("SubmitPermitDTO validation", func() {
		var dto permit.SubmitPermitDTO

		BeforeEach(func() {
			dto = permit.SubmitPermitDTO{
				WorkType:         "light_work",
				WorkDescription:  "Replace the shopfront signage lighting",
				Location:         "Unit A-101, facade",
				StartDate:        "2026-09-01",
				EndDate:          "2026-09-03",
				StartTime:        "09:00",
				EndTime:          "18:00",
				ContractorName:   "Brightline Electrical",
				WorkerCount:      3,
				EmergencyContact: "+60123456789",
			}
		})

		It("accepts a complete payload and parses the dates", func() {
			Expect(dto.Validate()).To(BeNil())
			Expect(dto.ParsedStartDate).To(Equal(day("2026-09-01")))
			Expect(dto.ParsedEndDate).To(Equal(day("2026-09-03")))
		})

		It("normalizes aliased work types before validating", func() {
			dto.WorkType = "heavy"
			Expect(dto.Validate()).To(BeNil())
			Expect(dto.WorkType).To(Equal(permit.WorkTypeHeavy))
		})

		It("rejects unknown work types", func() {
			dto.WorkType = "demolition"
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("rejects a too-short description", func() {
			dto.WorkDescription = "paint"
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("rejects malformed dates", func() {
			dto.StartDate = "01/09/2026"
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("rejects an end date before the start date", func() {
			dto.StartDate = "2026-09-03"
			dto.EndDate = "2026-09-01"
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("rejects malformed times", func() {
			dto.StartTime = "9am"
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("requires both times and an end time after the start time", func() {
			dto.StartTime = ""
			Expect(dto.Validate()).NotTo(BeNil())

			dto.StartTime = "18:00"
			dto.EndTime = "09:00"
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("requires a contractor name of at least two characters", func() {
			dto.ContractorName = ""
			Expect(dto.Validate()).NotTo(BeNil())

			dto.ContractorName = "B"
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("requires an emergency contact", func() {
			dto.EmergencyContact = ""
			Expect(dto.Validate()).NotTo(BeNil())
		})

		It("rejects a worker count outside 1..50", func() {
			dto.WorkerCount = 0
			Expect(dto.Validate()).NotTo(BeNil())

			dto.WorkerCount = 51
			Expect(dto.Validate()).NotTo(BeNil())
		})
	})

	Describe("ReviewPermitDTO validation", func() {
		It("accepts an approval without comments", func() {
			dto := permit.ReviewPermitDTO{Action: permit.ReviewActionApprove}
			Expect(dto.Validate()).To(BeNil())
		})

		It("requires comments when rejecting", func() {
			dto := permit.ReviewPermitDTO{Action: permit.ReviewActionReject}
			Expect(dto.Validate()).NotTo(BeNil())

			dto.Comments = "insufficient method statement"
			Expect(dto.Validate()).To(BeNil())
		})

		It("rejects unknown actions", func() {
			dto := permit.ReviewPermitDTO{Action: "escalate"}
			Expect(dto.Validate()).NotTo(BeNil())
		})
	})
})
