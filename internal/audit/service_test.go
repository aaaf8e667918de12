package audit_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/regulariza/process-management/internal"
	"github.com/regulariza/process-management/internal/audit"
	"github.com/regulariza/process-management/internal/core/events"
)

func TestAuditModule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Module Suite")
}

// Mock repository for testing
type mockAuditRepository struct {
	created     []audit.Entry
	userAgents  []string
	logs        []*audit.Log
	createError error
	listError   error
	lastFilters audit.Filters
}

func (m *mockAuditRepository) Create(entry audit.Entry, userAgent string) error {
	if m.createError != nil {
		return m.createError
	}
	m.created = append(m.created, entry)
	m.userAgents = append(m.userAgents, userAgent)
	return nil
}

func (m *mockAuditRepository) List(filters audit.Filters) ([]*audit.Log, error) {
	m.lastFilters = filters
	if m.listError != nil {
		return nil, m.listError
	}
	return m.logs, nil
}

type mockEventPublisher struct {
	published    []events.Event
	publishError error
}

func (m *mockEventPublisher) Publish(ctx context.Context, event events.Event) error {
	if m.publishError != nil {
		return m.publishError
	}
	m.published = append(m.published, event)
	return nil
}

var _ = Describe("AuditService", func() {
	var (
		service  *audit.Service
		mockRepo *mockAuditRepository
		mockBus  *mockEventPublisher
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = &mockAuditRepository{}
		mockBus = &mockEventPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = audit.NewService(mockRepo, mockBus, logger)
		ctx = context.Background()
	})

	Describe("Record", func() {
		It("should append a valid entry", func() {
			entry := audit.NewProcessEntry(10, "CREATE_PROCESS", 7, "ER-2503-00001", nil)

			err := service.Record(ctx, entry)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.created).To(HaveLen(1))
			Expect(mockRepo.created[0].Action).To(Equal("CREATE_PROCESS"))
		})

		It("should carry the user agent from the request context", func() {
			ctx := internal.ContextWithUserAgent(ctx, "Mozilla/5.0")
			entry := audit.NewSystemEntry(10, "LOGIN", nil)

			err := service.Record(ctx, entry)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.userAgents[0]).To(Equal("Mozilla/5.0"))
		})

		It("should mirror the entry onto the event bus", func() {
			entry := audit.NewProcessEntry(10, "CREATE_PROCESS", 7, "ER-2503-00001", nil)

			err := service.Record(ctx, entry)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockBus.published).To(HaveLen(1))
			Expect(mockBus.published[0].EventType()).To(Equal(events.EventTypeAdminAction))

			action, ok := mockBus.published[0].(*events.AdminActionEvent)
			Expect(ok).To(BeTrue())
			Expect(action.AdminID).To(Equal(int64(10)))
			Expect(action.Action).To(Equal("CREATE_PROCESS"))
			Expect(action.TargetType).To(Equal("process"))
		})

		It("should still record the entry when the event bus fails", func() {
			mockBus.publishError = errors.New("bus down")
			entry := audit.NewSystemEntry(10, "LOGIN", nil)

			err := service.Record(ctx, entry)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.created).To(HaveLen(1))
		})

		It("should not publish anything for an invalid entry", func() {
			entry := audit.Entry{AdminID: 10, TargetType: audit.TargetTypeProcess}

			Expect(service.Record(ctx, entry)).ToNot(Succeed())
			Expect(mockBus.published).To(BeEmpty())
		})

		It("should reject an entry without an action", func() {
			entry := audit.Entry{AdminID: 10, TargetType: audit.TargetTypeProcess}

			err := service.Record(ctx, entry)

			Expect(err).To(Equal(audit.ErrInvalidEntry))
			Expect(mockRepo.created).To(BeEmpty())
		})

		It("should reject an unknown target type", func() {
			entry := audit.Entry{AdminID: 10, Action: "CREATE_PROCESS", TargetType: "invoice"}

			err := service.Record(ctx, entry)

			Expect(err).To(Equal(audit.ErrInvalidEntry))
		})

		It("should surface repository failures", func() {
			mockRepo.createError = errors.New("connection refused")
			entry := audit.NewSystemEntry(10, "LOGIN", nil)

			err := service.Record(ctx, entry)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		It("should return the matching entries", func() {
			mockRepo.logs = []*audit.Log{
				{ID: 2, Action: "UPDATE_PROCESS"},
				{ID: 1, Action: "CREATE_PROCESS"},
			}

			logs, err := service.List(ctx, audit.Filters{})

			Expect(err).ToNot(HaveOccurred())
			Expect(logs).To(HaveLen(2))
		})

		It("should distinguish a failed read from an empty result", func() {
			mockRepo.listError = errors.New("connection refused")

			_, err := service.List(ctx, audit.Filters{})

			Expect(err).To(Equal(audit.ErrQueryFailed))
		})

		It("should clamp a missing limit to the default", func() {
			_, err := service.List(ctx, audit.Filters{})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastFilters.Limit).To(Equal(50))
		})

		It("should clamp an oversized limit to the default", func() {
			_, err := service.List(ctx, audit.Filters{Limit: 5000, Offset: -3})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastFilters.Limit).To(Equal(50))
			Expect(mockRepo.lastFilters.Offset).To(Equal(0))
		})

		It("should pass a reasonable limit through unchanged", func() {
			_, err := service.List(ctx, audit.Filters{Limit: 25})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastFilters.Limit).To(Equal(25))
		})
	})
})
