package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/regulariza/process-management/internal/core/events"
	"github.com/regulariza/process-management/internal/notification"
)

func TestNotificationModule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Module Suite")
}

// Mock repository for testing
type mockNotificationRepository struct {
	notifications []*notification.Notification
	nextID        int64
	createError   error
}

func newMockNotificationRepository() *mockNotificationRepository {
	return &mockNotificationRepository{nextID: 1}
}

func (m *mockNotificationRepository) Create(n *notification.Notification) error {
	if m.createError != nil {
		return m.createError
	}
	n.ID = m.nextID
	m.nextID++
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepository) ListByRecipient(recipientID int64, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	var result []*notification.Notification
	for _, n := range m.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (m *mockNotificationRepository) UnreadCount(recipientID int64) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepository) MarkRead(id, recipientID int64) error {
	for _, n := range m.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func (m *mockNotificationRepository) MarkAllRead(recipientID int64) error {
	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

type smsCall struct {
	to       string
	template string
	params   map[string]string
}

type mockSMSSender struct {
	calls     []smsCall
	sendError error
}

func (m *mockSMSSender) Send(to, template string, params map[string]string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.calls = append(m.calls, smsCall{to: to, template: template, params: params})
	return nil
}

type contact struct {
	name   string
	phone  string
	optIn  bool
	exists bool
}

type mockRecipientReader struct {
	contacts map[int64]contact
}

func (m *mockRecipientReader) GetContactInfo(userID int64) (string, string, bool, error) {
	c, ok := m.contacts[userID]
	if !ok || !c.exists {
		return "", "", false, errors.New("user not found")
	}
	return c.name, c.phone, c.optIn, nil
}

var _ = Describe("NotificationService", func() {
	var (
		service        *notification.Service
		mockRepo       *mockNotificationRepository
		mockSMS        *mockSMSSender
		mockRecipients *mockRecipientReader
		ctx            context.Context
	)

	const recipientID = int64(55)

	BeforeEach(func() {
		mockRepo = newMockNotificationRepository()
		mockSMS = &mockSMSSender{}
		mockRecipients = &mockRecipientReader{contacts: map[int64]contact{
			recipientID: {name: "Carlos Cliente", phone: "+5511999990000", optIn: true, exists: true},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = notification.NewService(mockRepo, mockSMS, mockRecipients, logger)
		ctx = context.Background()
	})

	Describe("Dispatch", func() {
		It("should store the in-app notification", func() {
			n := &notification.Notification{
				RecipientID: recipientID,
				Type:        notification.TypeProcessCompleted,
				Title:       "Processo concluído",
				Message:     "Parabéns! Seu processo ER-2503-00001 foi concluído.",
			}

			err := service.Dispatch(ctx, n, "", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(n.ID).To(BeNumerically(">", 0))
			Expect(mockRepo.notifications).To(HaveLen(1))
		})

		It("should reject a missing recipient", func() {
			err := service.Dispatch(ctx, &notification.Notification{Title: "x"}, "", nil)

			Expect(err).To(Equal(notification.ErrInvalidRecipient))
		})

		It("should queue an SMS when the recipient opted in", func() {
			n := &notification.Notification{RecipientID: recipientID, Title: "Processo concluído"}

			err := service.Dispatch(ctx, n, "process_completed", map[string]string{"processo": "ER-2503-00001"})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockSMS.calls).To(HaveLen(1))
			Expect(mockSMS.calls[0].to).To(Equal("+5511999990000"))
			Expect(mockSMS.calls[0].template).To(Equal("process_completed"))
			Expect(mockSMS.calls[0].params["nome"]).To(Equal("Carlos Cliente"))
			Expect(mockSMS.calls[0].params["processo"]).To(Equal("ER-2503-00001"))
		})

		It("should skip the SMS when the recipient opted out", func() {
			mockRecipients.contacts[recipientID] = contact{name: "Carlos", phone: "+5511999990000", optIn: false, exists: true}
			n := &notification.Notification{RecipientID: recipientID, Title: "Processo concluído"}

			err := service.Dispatch(ctx, n, "process_completed", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockSMS.calls).To(BeEmpty())
			Expect(mockRepo.notifications).To(HaveLen(1))
		})

		It("should skip the SMS when no phone is on file", func() {
			mockRecipients.contacts[recipientID] = contact{name: "Carlos", phone: "", optIn: true, exists: true}
			n := &notification.Notification{RecipientID: recipientID, Title: "Processo concluído"}

			err := service.Dispatch(ctx, n, "process_completed", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockSMS.calls).To(BeEmpty())
		})

		It("should keep the in-app row when the SMS queue fails", func() {
			mockSMS.sendError = errors.New("queue full")
			n := &notification.Notification{RecipientID: recipientID, Title: "Processo concluído"}

			err := service.Dispatch(ctx, n, "process_completed", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.notifications).To(HaveLen(1))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for i := 0; i < 3; i++ {
				n := &notification.Notification{RecipientID: recipientID, Title: "n", Type: notification.TypeSystem}
				Expect(service.Dispatch(ctx, n, "", nil)).To(Succeed())
			}
			other := &notification.Notification{RecipientID: 99, Title: "other", Type: notification.TypeSystem}
			Expect(service.Dispatch(ctx, other, "", nil)).To(Succeed())
		})

		It("should only return the recipient's own notifications", func() {
			items, err := service.List(ctx, recipientID, false, 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(3))
		})

		It("should filter to unread when asked", func() {
			Expect(service.MarkRead(ctx, mockRepo.notifications[0].ID, recipientID)).To(Succeed())

			items, err := service.List(ctx, recipientID, true, 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(2))
		})
	})

	Describe("MarkRead", func() {
		var id int64

		BeforeEach(func() {
			n := &notification.Notification{RecipientID: recipientID, Title: "n", Type: notification.TypeSystem}
			Expect(service.Dispatch(ctx, n, "", nil)).To(Succeed())
			id = n.ID
		})

		It("should flip the unread flag", func() {
			err := service.MarkRead(ctx, id, recipientID)

			Expect(err).ToNot(HaveOccurred())
			count, err := service.UnreadCount(ctx, recipientID)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(int64(0)))
		})

		It("should never mark another recipient's notification", func() {
			err := service.MarkRead(ctx, id, 99)

			Expect(err).To(Equal(notification.ErrNotificationNotFound))
		})
	})

	Describe("MarkAllRead", func() {
		It("should clear the recipient's unread pile", func() {
			for i := 0; i < 3; i++ {
				n := &notification.Notification{RecipientID: recipientID, Title: "n", Type: notification.TypeSystem}
				Expect(service.Dispatch(ctx, n, "", nil)).To(Succeed())
			}

			err := service.MarkAllRead(ctx, recipientID)

			Expect(err).ToNot(HaveOccurred())
			count, err := service.UnreadCount(ctx, recipientID)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(int64(0)))
		})
	})
})

var _ = Describe("NotificationEventHandler", func() {
	var (
		handler        *notification.EventHandler
		mockRepo       *mockNotificationRepository
		mockSMS        *mockSMSSender
		mockRecipients *mockRecipientReader
		ctx            context.Context
	)

	const ownerID = int64(55)

	BeforeEach(func() {
		mockRepo = newMockNotificationRepository()
		mockSMS = &mockSMSSender{}
		mockRecipients = &mockRecipientReader{contacts: map[int64]contact{
			ownerID: {name: "Carlos Cliente", phone: "+5511999990000", optIn: true, exists: true},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := notification.NewService(mockRepo, mockSMS, mockRecipients, logger)
		handler = notification.NewEventHandler(service, logger)
		ctx = context.Background()
	})

	It("should notify an approval without feedback", func() {
		event := events.NewDocumentReviewedEvent(3, "RG do proprietário", 7, ownerID, "approved", "")

		err := handler.HandleDocumentReviewed(ctx, event)

		Expect(err).ToNot(HaveOccurred())
		Expect(mockRepo.notifications).To(HaveLen(1))
		n := mockRepo.notifications[0]
		Expect(n.Type).To(Equal(notification.TypeDocumentApproved))
		Expect(n.RecipientID).To(Equal(ownerID))
		Expect(n.Link).To(Equal("/processos/7/documentos"))
	})

	It("should carry the reviewer feedback into a rejection notice", func() {
		event := events.NewDocumentReviewedEvent(3, "RG do proprietário", 7, ownerID, "rejected", "Documento ilegível")

		err := handler.HandleDocumentReviewed(ctx, event)

		Expect(err).ToNot(HaveOccurred())
		n := mockRepo.notifications[0]
		Expect(n.Type).To(Equal(notification.TypeDocumentRejected))
		Expect(n.Message).To(ContainSubstring("Documento ilegível"))
	})

	It("should notify stage completion with the progress", func() {
		event := events.NewStageCompletedEvent(7, "ER-2503-00001", ownerID, 2, "Análise documental", 50)

		err := handler.HandleStageCompleted(ctx, event)

		Expect(err).ToNot(HaveOccurred())
		n := mockRepo.notifications[0]
		Expect(n.Type).To(Equal(notification.TypeStageCompleted))
		Expect(n.Message).To(ContainSubstring("50%"))
		Expect(n.Link).To(Equal("/processos/7"))
	})

	It("should send the completion SMS alongside the in-app notice", func() {
		event := events.NewProcessCompletedEvent(7, "ER-2503-00001", ownerID, "Regularização Lote 42")

		err := handler.HandleProcessCompleted(ctx, event)

		Expect(err).ToNot(HaveOccurred())
		Expect(mockRepo.notifications).To(HaveLen(1))
		Expect(mockSMS.calls).To(HaveLen(1))
		Expect(mockSMS.calls[0].template).To(Equal("process_completed"))
		Expect(mockSMS.calls[0].params["processo"]).To(Equal("ER-2503-00001"))
	})

	It("should reject a mismatched event payload", func() {
		event := events.NewProcessCompletedEvent(7, "ER-2503-00001", ownerID, "x")

		err := handler.HandleDocumentReviewed(ctx, event)

		Expect(err).To(HaveOccurred())
	})
})
