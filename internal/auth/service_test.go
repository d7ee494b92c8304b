package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock repository for testing
type mockAuthRepository struct {
	passwords map[string]string // email -> password hash
	userIDs   map[string]string // email -> userID
	actors    map[int64]*Actor

	returnError   bool
	errorToReturn error
}

func newMockAuthRepository() *mockAuthRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	shop := int64(1)
	return &mockAuthRepository{
		passwords: map[string]string{
			"tenant@mall.local": string(hashedPassword),
			"admin@mall.local":  string(hashedPassword),
		},
		userIDs: map[string]string{
			"tenant@mall.local": "1",
			"admin@mall.local":  "2",
		},
		actors: map[int64]*Actor{
			1: {UserID: 1, Email: "tenant@mall.local", Name: "Tenant", Role: RoleTenant, ShopID: &shop},
			2: {UserID: 2, Email: "admin@mall.local", Name: "Admin", Role: RoleAdmin},
		},
	}
}

func (m *mockAuthRepository) GetPasswordForEmail(email string) (string, string, error) {
	if m.returnError {
		return "", "", m.errorToReturn
	}
	if hash, ok := m.passwords[email]; ok {
		return hash, m.userIDs[email], nil
	}
	return "", "", errors.New("user not found")
}

func (m *mockAuthRepository) GetActor(userID int64) (*Actor, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if actor, ok := m.actors[userID]; ok {
		return actor, nil
	}
	return nil, errors.New("user not found")
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockAuthRepository
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockAuthRepository()
		tokenGen = NewJWTTokenGenerator(
			"test-access-secret-test-access-secret",
			"test-refresh-secret-test-refresh-secret",
			15*time.Minute,
			7*24*time.Hour,
		)
		service = NewService(mockRepo, tokenGen, bcrypt.MinCost)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(LoginDTO{Email: "tenant@mall.local", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).NotTo(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).NotTo(gomega.BeEmpty())
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Authenticate(LoginDTO{Email: "tenant@mall.local", Password: "wrong"})
			gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
		})

		ginkgo.It("rejects an unknown email without leaking existence", func() {
			_, err := service.Authenticate(LoginDTO{Email: "nobody@mall.local", Password: "correct_password"})
			gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
		})
	})

	ginkgo.Describe("token validation", func() {
		ginkgo.It("round-trips claims through an access token", func() {
			token, err := tokenGen.GenerateAccessToken("1", "tenant@mall.local")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			claims, err := service.ValidateAccessToken(token)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("1"))
			gomega.Expect(claims.Email).To(gomega.Equal("tenant@mall.local"))
		})

		ginkgo.It("rejects tampered tokens", func() {
			token, err := tokenGen.GenerateAccessToken("1", "tenant@mall.local")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token + "x")
			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})

		ginkgo.It("rotates the pair on refresh", func() {
			refresh, err := tokenGen.GenerateRefreshToken("1", "tenant@mall.local")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			tokens, err := service.RefreshTokens(refresh)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).NotTo(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).NotTo(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).NotTo(gomega.Equal(refresh))
		})

		ginkgo.It("rejects an access token used as a refresh token only when expired", func() {
			expired := NewJWTTokenGenerator(
				"test-access-secret-test-access-secret",
				"test-refresh-secret-test-refresh-secret",
				-time.Minute,
				7*24*time.Hour,
			)
			token, err := expired.GenerateAccessToken("1", "tenant@mall.local")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
		})
	})

	ginkgo.Describe("GetActor", func() {
		ginkgo.It("loads the actor with role and shop", func() {
			actor, err := service.GetActor(1)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(actor.Role).To(gomega.Equal(RoleTenant))
			gomega.Expect(actor.ShopID).NotTo(gomega.BeNil())
			gomega.Expect(*actor.ShopID).To(gomega.Equal(int64(1)))
		})
	})
})

var _ = ginkgo.Describe("Role permissions", func() {
	ginkgo.It("grants admin everything via full_access", func() {
		admin := &Actor{Role: RoleAdmin}
		gomega.Expect(admin.HasPermission(PermReviewTechnical)).To(gomega.BeTrue())
		gomega.Expect(admin.HasPermission(PermManageShops)).To(gomega.BeTrue())
		gomega.Expect(admin.HasPermission(PermSubmitPermit)).To(gomega.BeTrue())
	})

	ginkgo.It("does not list submit_permit for admin explicitly", func() {
		gomega.Expect(PermissionsFor(RoleAdmin)).NotTo(gomega.ContainElement(PermSubmitPermit))
		gomega.Expect(RoleAdmin.HasPermission(PermSubmitPermit)).To(gomega.BeTrue())
	})

	ginkgo.It("scopes reviewers to their own stage", func() {
		tech := &Actor{Role: RoleTechnical}
		gomega.Expect(tech.HasPermission(PermReviewTechnical)).To(gomega.BeTrue())
		gomega.Expect(tech.HasPermission(PermReviewSecurity)).To(gomega.BeFalse())
		gomega.Expect(tech.HasPermission(PermManageUsers)).To(gomega.BeFalse())
	})

	ginkgo.It("limits tenants to submitting permits", func() {
		tenant := &Actor{Role: RoleTenant}
		gomega.Expect(tenant.HasPermission(PermSubmitPermit)).To(gomega.BeTrue())
		gomega.Expect(tenant.HasPermission(PermReviewTechnical)).To(gomega.BeFalse())
		gomega.Expect(tenant.HasPermission(PermViewReports)).To(gomega.BeFalse())
	})

	ginkgo.It("matches tenants to their own shop only", func() {
		shop := int64(4)
		tenant := &Actor{Role: RoleTenant, ShopID: &shop}
		gomega.Expect(tenant.IsTenantOf(4)).To(gomega.BeTrue())
		gomega.Expect(tenant.IsTenantOf(5)).To(gomega.BeFalse())
	})
})
