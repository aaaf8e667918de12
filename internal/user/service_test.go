package user_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/regulariza/process-management/internal/audit"
	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/user"
)

func TestUserModule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Module Suite")
}

// Mock repository for testing
type mockUserRepository struct {
	users      map[int64]*user.User
	passwords  map[int64]string
	nextID     int64
	lastHashed string
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:     make(map[int64]*user.User),
		passwords: make(map[int64]string),
		nextID:    1,
	}
}

func (m *mockUserRepository) Create(u *user.User, passwordHash string) error {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	m.passwords[u.ID] = passwordHash
	m.lastHashed = passwordHash
	return nil
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	u, exists := m.users[id]
	if !exists {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepository) List(role string, limit, offset int) ([]*user.User, error) {
	var result []*user.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

func (m *mockUserRepository) Update(u *user.User) error {
	if _, exists := m.users[u.ID]; !exists {
		return user.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) Deactivate(id int64) error {
	u, exists := m.users[id]
	if !exists {
		return user.ErrUserNotFound
	}
	u.IsActive = false
	return nil
}

type mockAuditRecorder struct {
	entries []audit.Entry
}

func (m *mockAuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

type smsCall struct {
	to       string
	template string
	params   map[string]string
}

type mockSMSSender struct {
	calls []smsCall
}

func (m *mockSMSSender) Send(to, template string, params map[string]string) error {
	m.calls = append(m.calls, smsCall{to: to, template: template, params: params})
	return nil
}

func masterUser() *auth.User {
	return &auth.User{ID: 1, Name: "Mariana", Role: auth.RoleAdminMaster, Capabilities: auth.CapabilitiesOf(auth.RoleAdminMaster)}
}

func adminUser() *auth.User {
	return &auth.User{ID: 2, Name: "Eduardo", Role: auth.RoleAdmin, Capabilities: auth.CapabilitiesOf(auth.RoleAdmin)}
}

var _ = Describe("UserService", func() {
	var (
		service   *user.Service
		mockRepo  *mockUserRepository
		mockAudit *mockAuditRecorder
		mockSMS   *mockSMSSender
		ctx       context.Context
	)

	const portalURL = "https://portal.regulariza.com"

	BeforeEach(func() {
		mockRepo = newMockUserRepository()
		mockAudit = &mockAuditRecorder{}
		mockSMS = &mockSMSSender{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(mockRepo, mockAudit, mockSMS, portalURL, bcrypt.MinCost, logger)
		ctx = context.Background()
	})

	Describe("CreateClient", func() {
		It("should register the client with a hashed temporary password", func() {
			dto := user.CreateClientDTO{
				Name:     "Carlos Cliente",
				Email:    "carlos@mail.com",
				CPF:      "529.982.247-25",
				Phone:    "+5511999990000",
				SMSOptIn: true,
			}

			u, err := service.CreateClient(ctx, masterUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(u.ID).To(BeNumerically(">", 0))
			Expect(u.Role).To(Equal("cliente"))
			Expect(u.IsActive).To(BeTrue())
			Expect(mockRepo.lastHashed).ToNot(BeEmpty())
			Expect(mockRepo.lastHashed).To(HavePrefix("$2"))
		})

		It("should send the welcome SMS with the password and portal link", func() {
			dto := user.CreateClientDTO{
				Name:     "Carlos Cliente",
				Email:    "carlos@mail.com",
				Phone:    "+5511999990000",
				SMSOptIn: true,
			}

			_, err := service.CreateClient(ctx, masterUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockSMS.calls).To(HaveLen(1))
			call := mockSMS.calls[0]
			Expect(call.to).To(Equal("+5511999990000"))
			Expect(call.template).To(Equal("welcome"))
			Expect(call.params["nome"]).To(Equal("Carlos Cliente"))
			Expect(call.params["senha"]).ToNot(BeEmpty())
			Expect(call.params["link"]).To(Equal(portalURL))
		})

		It("should verify the SMS password against the stored hash", func() {
			dto := user.CreateClientDTO{
				Name:     "Carlos Cliente",
				Email:    "carlos@mail.com",
				Phone:    "+5511999990000",
				SMSOptIn: true,
			}

			_, err := service.CreateClient(ctx, masterUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			plaintext := mockSMS.calls[0].params["senha"]
			Expect(bcrypt.CompareHashAndPassword([]byte(mockRepo.lastHashed), []byte(plaintext))).To(Succeed())
		})

		It("should skip the SMS when the client opted out", func() {
			dto := user.CreateClientDTO{
				Name:  "Carlos Cliente",
				Email: "carlos@mail.com",
				Phone: "+5511999990000",
			}

			_, err := service.CreateClient(ctx, masterUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockSMS.calls).To(BeEmpty())
		})

		It("should refuse a taken email", func() {
			dto := user.CreateClientDTO{Name: "Carlos", Email: "carlos@mail.com"}
			_, err := service.CreateClient(ctx, masterUser(), dto)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.CreateClient(ctx, masterUser(), user.CreateClientDTO{
				Name: "Outro Carlos", Email: "carlos@mail.com",
			})

			Expect(err).To(Equal(user.ErrEmailTaken))
		})

		It("should refuse an invalid CPF", func() {
			dto := user.CreateClientDTO{Name: "Carlos", Email: "carlos@mail.com", CPF: "111.111.111-11"}

			_, err := service.CreateClient(ctx, masterUser(), dto)

			Expect(err).To(HaveOccurred())
		})

		It("should refuse an unknown role", func() {
			dto := user.CreateClientDTO{Name: "Carlos", Email: "carlos@mail.com", Role: "superuser"}

			_, err := service.CreateClient(ctx, masterUser(), dto)

			Expect(err).To(Equal(user.ErrInvalidRole))
		})

		It("should record the creation in the trail", func() {
			dto := user.CreateClientDTO{Name: "Carlos", Email: "carlos@mail.com"}

			_, err := service.CreateClient(ctx, masterUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockAudit.entries).To(HaveLen(1))
			Expect(mockAudit.entries[0].Action).To(Equal("CREATE_USER"))
			Expect(mockAudit.entries[0].TargetType).To(Equal(audit.TargetTypeUser))
		})
	})

	Describe("Update", func() {
		var clientID int64

		BeforeEach(func() {
			u, err := service.CreateClient(ctx, masterUser(), user.CreateClientDTO{
				Name: "Carlos", Email: "carlos@mail.com",
			})
			Expect(err).ToNot(HaveOccurred())
			clientID = u.ID
		})

		It("should apply partial updates", func() {
			phone := "+5511888880000"
			u, err := service.Update(ctx, masterUser(), clientID, user.UpdateUserDTO{Phone: &phone})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Phone).To(Equal(phone))
			Expect(u.Name).To(Equal("Carlos"))
		})

		It("should let the master change roles", func() {
			role := "admin_viewer"
			u, err := service.Update(ctx, masterUser(), clientID, user.UpdateUserDTO{Role: &role})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Role).To(Equal("admin_viewer"))
		})

		It("should block role changes without the permission capability", func() {
			role := "admin_viewer"
			_, err := service.Update(ctx, adminUser(), clientID, user.UpdateUserDTO{Role: &role})

			Expect(err).To(Equal(auth.ErrInsufficientRole))
		})

		It("should return not found for an unknown user", func() {
			name := "Novo Nome"
			_, err := service.Update(ctx, masterUser(), 9999, user.UpdateUserDTO{Name: &name})

			Expect(err).To(Equal(user.ErrUserNotFound))
		})
	})

	Describe("Deactivate", func() {
		var clientID int64

		BeforeEach(func() {
			u, err := service.CreateClient(ctx, masterUser(), user.CreateClientDTO{
				Name: "Carlos", Email: "carlos@mail.com",
			})
			Expect(err).ToNot(HaveOccurred())
			clientID = u.ID
		})

		It("should soft-delete the account", func() {
			err := service.Deactivate(ctx, masterUser(), clientID)

			Expect(err).ToNot(HaveOccurred())
			u, err := service.GetByID(ctx, clientID)
			Expect(err).ToNot(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())
		})

		It("should refuse self-deactivation", func() {
			actor := masterUser()
			actor.ID = clientID

			err := service.Deactivate(ctx, actor, clientID)

			Expect(err).To(Equal(user.ErrSelfDeactivate))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, email := range []string{"a@mail.com", "b@mail.com"} {
				_, err := service.CreateClient(ctx, masterUser(), user.CreateClientDTO{Name: "Cliente", Email: email})
				Expect(err).ToNot(HaveOccurred())
			}
		})

		It("should filter by role", func() {
			users, err := service.List(ctx, "cliente", 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})

		It("should reject an unknown role filter", func() {
			_, err := service.List(ctx, "superuser", 20, 0)

			Expect(err).To(Equal(user.ErrInvalidRole))
		})
	})

	Describe("GetContactInfo", func() {
		It("should expose the SMS leg of a recipient", func() {
			u, err := service.CreateClient(ctx, masterUser(), user.CreateClientDTO{
				Name: "Carlos", Email: "carlos@mail.com", Phone: "+5511999990000", SMSOptIn: true,
			})
			Expect(err).ToNot(HaveOccurred())

			name, phone, optIn, err := service.GetContactInfo(u.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(name).To(Equal("Carlos"))
			Expect(phone).To(Equal("+5511999990000"))
			Expect(optIn).To(BeTrue())
		})

		It("should fail for an unknown recipient", func() {
			_, _, _, err := service.GetContactInfo(9999)

			Expect(err).To(Equal(user.ErrUserNotFound))
		})
	})
})

var _ = Describe("CreateClientDTO", func() {
	It("should default the role to cliente", func() {
		dto := user.CreateClientDTO{Name: "Carlos", Email: "carlos@mail.com"}

		Expect(dto.Validate()).To(Succeed())
		Expect(dto.Role).To(Equal("cliente"))
	})

	It("should accept a punctuated CPF", func() {
		dto := user.CreateClientDTO{Name: "Carlos", Email: "carlos@mail.com", CPF: "529.982.247-25"}

		Expect(dto.Validate()).To(Succeed())
	})

	It("should require an email with an at sign", func() {
		dto := user.CreateClientDTO{Name: "Carlos", Email: "carlos.mail.com"}

		Expect(dto.Validate()).To(HaveOccurred())
	})
})

var _ = Describe("UpdateUserDTO", func() {
	It("should refuse clearing the name", func() {
		empty := ""
		dto := user.UpdateUserDTO{Name: &empty}

		Expect(dto.Validate()).To(HaveOccurred())
	})

	It("should refuse an unknown role", func() {
		role := "superuser"
		dto := user.UpdateUserDTO{Role: &role}

		Expect(dto.Validate()).To(Equal(user.ErrInvalidRole))
	})
})
