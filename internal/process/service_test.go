package process_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/regulariza/process-management/internal/audit"
	"github.com/regulariza/process-management/internal/auth"
	"github.com/regulariza/process-management/internal/core/events"
	"github.com/regulariza/process-management/internal/process"
)

// Mock repository for testing
type mockProcessRepository struct {
	processes   map[int64]*process.Process
	steps       map[int64][]*process.Step
	counter     int64
	nextID      int64
	nextStepID  int64
	createError error
	getError    error
	numberError error
}

func newMockProcessRepository() *mockProcessRepository {
	return &mockProcessRepository{
		processes:  make(map[int64]*process.Process),
		steps:      make(map[int64][]*process.Step),
		nextID:     1,
		nextStepID: 1,
	}
}

func (m *mockProcessRepository) NextProcessNumber(now time.Time) (string, error) {
	if m.numberError != nil {
		return "", m.numberError
	}
	m.counter++
	return process.FormatProcessNumber(process.NumberBucket(now), m.counter), nil
}

func (m *mockProcessRepository) Create(proc *process.Process, steps []*process.Step) error {
	if m.createError != nil {
		return m.createError
	}
	proc.ID = m.nextID
	m.nextID++
	m.processes[proc.ID] = proc
	for _, step := range steps {
		step.ID = m.nextStepID
		m.nextStepID++
		step.ProcessID = proc.ID
	}
	m.steps[proc.ID] = steps
	return nil
}

func (m *mockProcessRepository) GetByID(id int64) (*process.Process, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	proc, exists := m.processes[id]
	if !exists {
		return nil, process.ErrProcessNotFound
	}
	return proc, nil
}

func (m *mockProcessRepository) GetSteps(processID int64) ([]*process.Step, error) {
	return m.steps[processID], nil
}

func (m *mockProcessRepository) List(status string, clientID int64, limit, offset int) ([]*process.Process, error) {
	var result []*process.Process
	for _, proc := range m.processes {
		if status != "" && proc.Status != status {
			continue
		}
		if clientID > 0 && proc.ClientID != clientID {
			continue
		}
		result = append(result, proc)
	}
	return result, nil
}

func (m *mockProcessRepository) UpdateStatus(id int64, status string, progress int) error {
	proc, exists := m.processes[id]
	if !exists {
		return process.ErrProcessNotFound
	}
	proc.Status = status
	proc.Progress = progress
	return nil
}

func (m *mockProcessRepository) AddStep(step *process.Step) error {
	step.ID = m.nextStepID
	m.nextStepID++
	m.steps[step.ProcessID] = append(m.steps[step.ProcessID], step)
	return nil
}

func (m *mockProcessRepository) CompleteStep(stepID int64, completedAt time.Time) error {
	for _, steps := range m.steps {
		for _, step := range steps {
			if step.ID == stepID {
				step.Status = process.StepStatusConcluido
				step.CompletedAt = &completedAt
				return nil
			}
		}
	}
	return process.ErrStepNotFound
}

func (m *mockProcessRepository) ListApproachingDeadline(before time.Time) ([]*process.Process, error) {
	var result []*process.Process
	for _, proc := range m.processes {
		if proc.Deadline != nil && !proc.Deadline.After(before) {
			result = append(result, proc)
		}
	}
	return result, nil
}

type mockAuditRecorder struct {
	entries     []audit.Entry
	recordError error
}

func (m *mockAuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	if m.recordError != nil {
		return m.recordError
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockEventPublisher struct {
	published []events.Event
}

func (m *mockEventPublisher) Publish(ctx context.Context, event events.Event) error {
	m.published = append(m.published, event)
	return nil
}

func (m *mockEventPublisher) eventTypes() []string {
	types := make([]string, len(m.published))
	for i, e := range m.published {
		types[i] = e.EventType()
	}
	return types
}

func adminUser() *auth.User {
	return &auth.User{
		ID:           10,
		Name:         "Eduardo Editor",
		Email:        "eduardo@regulariza.com",
		Role:         auth.RoleAdminEditor,
		Capabilities: auth.CapabilitiesOf(auth.RoleAdminEditor),
	}
}

func clientUser(id int64) *auth.User {
	return &auth.User{
		ID:           id,
		Name:         "Carlos Cliente",
		Email:        "carlos@mail.com",
		Role:         auth.RoleCliente,
		Capabilities: auth.CapabilitiesOf(auth.RoleCliente),
	}
}

var _ = Describe("ProcessService", func() {
	var (
		service   *process.Service
		mockRepo  *mockProcessRepository
		mockAudit *mockAuditRecorder
		mockBus   *mockEventPublisher
		logger    *slog.Logger
		ctx       context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockProcessRepository()
		mockAudit = &mockAuditRecorder{}
		mockBus = &mockEventPublisher{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = process.NewService(mockRepo, mockAudit, mockBus, logger)
		ctx = context.Background()
	})

	Describe("CreateProcess", func() {
		It("should allocate a process number and open the case", func() {
			dto := process.CreateProcessDTO{
				Title:       "Regularização Lote 42",
				ProcessType: "usucapiao",
				ClientID:    55,
				Steps: []process.CreateStepDTO{
					{Title: "Análise documental"},
					{Title: "Entrada no cartório"},
				},
			}

			proc, err := service.CreateProcess(ctx, adminUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(process.IsValidProcessNumber(proc.ProcessNumber)).To(BeTrue())
			Expect(proc.Status).To(Equal(process.StatusPendente))
			Expect(proc.Progress).To(Equal(0))
			Expect(proc.Steps).To(HaveLen(2))
			Expect(proc.Steps[0].Position).To(Equal(1))
			Expect(proc.Steps[1].Position).To(Equal(2))
		})

		It("should seed the timeline from the type template when no steps are given", func() {
			dto := process.CreateProcessDTO{Title: "Processo", ProcessType: "usucapiao", ClientID: 55}

			proc, err := service.CreateProcess(ctx, adminUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.Steps).To(HaveLen(4))
			Expect(proc.Steps[0].Title).To(Equal("Análise documental"))
			Expect(proc.Steps[3].Title).To(Equal("Registro final"))
		})

		It("should fall back to the generic timeline for unknown types", func() {
			dto := process.CreateProcessDTO{Title: "Processo", ProcessType: "averbacao", ClientID: 55}

			proc, err := service.CreateProcess(ctx, adminUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.Steps).To(HaveLen(3))
			Expect(proc.Steps[2].Title).To(Equal("Registro final"))
		})

		It("should allocate distinct numbers for consecutive cases", func() {
			seen := map[string]bool{}
			for i := 0; i < 20; i++ {
				dto := process.CreateProcessDTO{
					Title:       fmt.Sprintf("Processo %d", i),
					ProcessType: "usucapiao",
					ClientID:    55,
				}
				proc, err := service.CreateProcess(ctx, adminUser(), dto)
				Expect(err).ToNot(HaveOccurred())
				Expect(seen[proc.ProcessNumber]).To(BeFalse(), "number %s was handed out twice", proc.ProcessNumber)
				seen[proc.ProcessNumber] = true
			}
		})

		It("should record an audit entry for the creation", func() {
			dto := process.CreateProcessDTO{Title: "Processo", ProcessType: "usucapiao", ClientID: 55}

			_, err := service.CreateProcess(ctx, adminUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockAudit.entries).To(HaveLen(1))
			Expect(mockAudit.entries[0].Action).To(Equal("CREATE_PROCESS"))
			Expect(mockAudit.entries[0].TargetType).To(Equal(audit.TargetTypeProcess))
		})

		It("should fail with ErrNumberUnavailable when allocation fails", func() {
			mockRepo.numberError = errors.New("connection refused")
			dto := process.CreateProcessDTO{Title: "Processo", ProcessType: "usucapiao", ClientID: 55}

			_, err := service.CreateProcess(ctx, adminUser(), dto)

			Expect(err).To(Equal(process.ErrNumberUnavailable))
		})

		It("should still create the process when the audit write fails", func() {
			mockAudit.recordError = errors.New("audit store down")
			dto := process.CreateProcessDTO{Title: "Processo", ProcessType: "usucapiao", ClientID: 55}

			proc, err := service.CreateProcess(ctx, adminUser(), dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.ID).To(BeNumerically(">", 0))
		})

		It("should reject a process without a client", func() {
			dto := process.CreateProcessDTO{Title: "Processo", ProcessType: "usucapiao"}

			_, err := service.CreateProcess(ctx, adminUser(), dto)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetProcess", func() {
		var processID int64

		BeforeEach(func() {
			proc, err := service.CreateProcess(ctx, adminUser(), process.CreateProcessDTO{
				Title: "Processo", ProcessType: "usucapiao", ClientID: 55,
			})
			Expect(err).ToNot(HaveOccurred())
			processID = proc.ID
		})

		It("should let the owning client read the case", func() {
			proc, err := service.GetProcess(ctx, clientUser(55), processID)

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.ID).To(Equal(processID))
		})

		It("should hide other clients' cases behind not found", func() {
			_, err := service.GetProcess(ctx, clientUser(99), processID)

			Expect(err).To(Equal(process.ErrProcessNotFound))
		})

		It("should let admins read any case", func() {
			proc, err := service.GetProcess(ctx, adminUser(), processID)

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.ID).To(Equal(processID))
		})
	})

	Describe("ListProcesses", func() {
		BeforeEach(func() {
			for _, clientID := range []int64{55, 55, 99} {
				_, err := service.CreateProcess(ctx, adminUser(), process.CreateProcessDTO{
					Title: "Processo", ProcessType: "usucapiao", ClientID: clientID,
				})
				Expect(err).ToNot(HaveOccurred())
			}
		})

		It("should pin clients to their own cases", func() {
			procs, err := service.ListProcesses(ctx, clientUser(55), "", 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(procs).To(HaveLen(2))
			for _, proc := range procs {
				Expect(proc.ClientID).To(Equal(int64(55)))
			}
		})

		It("should return everything for admins", func() {
			procs, err := service.ListProcesses(ctx, adminUser(), "", 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(procs).To(HaveLen(3))
		})

		It("should reject an unknown status filter", func() {
			_, err := service.ListProcesses(ctx, adminUser(), "finalizado", 20, 0)

			Expect(err).To(Equal(process.ErrInvalidStatus))
		})
	})

	Describe("UpdateStatus", func() {
		var processID int64

		BeforeEach(func() {
			proc, err := service.CreateProcess(ctx, adminUser(), process.CreateProcessDTO{
				Title: "Processo", ProcessType: "usucapiao", ClientID: 55,
			})
			Expect(err).ToNot(HaveOccurred())
			processID = proc.ID
		})

		It("should force progress to 100 when concluding", func() {
			progress := 40
			proc, err := service.UpdateStatus(ctx, adminUser(), processID, process.UpdateStatusDTO{
				Status:   process.StatusConcluido,
				Progress: &progress,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.Status).To(Equal(process.StatusConcluido))
			Expect(proc.Progress).To(Equal(100))
		})

		It("should publish a completion event on the transition to concluido", func() {
			_, err := service.UpdateStatus(ctx, adminUser(), processID, process.UpdateStatusDTO{
				Status: process.StatusConcluido,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockBus.eventTypes()).To(ContainElement(events.EventTypeProcessCompleted))
		})

		It("should not publish again when the case is already concluded", func() {
			_, err := service.UpdateStatus(ctx, adminUser(), processID, process.UpdateStatusDTO{Status: process.StatusConcluido})
			Expect(err).ToNot(HaveOccurred())
			before := len(mockBus.published)

			_, err = service.UpdateStatus(ctx, adminUser(), processID, process.UpdateStatusDTO{Status: process.StatusConcluido})
			Expect(err).ToNot(HaveOccurred())
			Expect(mockBus.published).To(HaveLen(before))
		})

		It("should reject an invalid status", func() {
			_, err := service.UpdateStatus(ctx, adminUser(), processID, process.UpdateStatusDTO{Status: "done"})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CompleteStep", func() {
		var (
			processID int64
			stepIDs   []int64
		)

		BeforeEach(func() {
			proc, err := service.CreateProcess(ctx, adminUser(), process.CreateProcessDTO{
				Title:       "Processo",
				ProcessType: "usucapiao",
				ClientID:    55,
				Steps: []process.CreateStepDTO{
					{Title: "Análise documental"},
					{Title: "Registro final"},
				},
			})
			Expect(err).ToNot(HaveOccurred())
			processID = proc.ID
			stepIDs = []int64{proc.Steps[0].ID, proc.Steps[1].ID}
		})

		It("should recompute progress and move the case forward", func() {
			proc, err := service.CompleteStep(ctx, adminUser(), processID, stepIDs[0])

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.Progress).To(Equal(50))
			Expect(proc.Status).To(Equal(process.StatusEmAndamento))
			Expect(mockBus.eventTypes()).To(ContainElement(events.EventTypeStageCompleted))
		})

		It("should conclude the case when the last step completes", func() {
			_, err := service.CompleteStep(ctx, adminUser(), processID, stepIDs[0])
			Expect(err).ToNot(HaveOccurred())

			proc, err := service.CompleteStep(ctx, adminUser(), processID, stepIDs[1])

			Expect(err).ToNot(HaveOccurred())
			Expect(proc.Progress).To(Equal(100))
			Expect(proc.Status).To(Equal(process.StatusConcluido))
			Expect(mockBus.eventTypes()).To(ContainElement(events.EventTypeProcessCompleted))
		})

		It("should refuse to complete a step twice", func() {
			_, err := service.CompleteStep(ctx, adminUser(), processID, stepIDs[0])
			Expect(err).ToNot(HaveOccurred())

			_, err = service.CompleteStep(ctx, adminUser(), processID, stepIDs[0])

			Expect(err).To(Equal(process.ErrStepAlreadyDone))
		})

		It("should return not found for an unknown step", func() {
			_, err := service.CompleteStep(ctx, adminUser(), processID, 9999)

			Expect(err).To(Equal(process.ErrStepNotFound))
		})
	})

	Describe("AddStep", func() {
		It("should append the step at the end of the timeline", func() {
			proc, err := service.CreateProcess(ctx, adminUser(), process.CreateProcessDTO{
				Title:       "Processo",
				ProcessType: "usucapiao",
				ClientID:    55,
				Steps:       []process.CreateStepDTO{{Title: "Análise documental"}},
			})
			Expect(err).ToNot(HaveOccurred())

			step, err := service.AddStep(ctx, adminUser(), proc.ID, process.AddStepDTO{Title: "Vistoria"})

			Expect(err).ToNot(HaveOccurred())
			Expect(step.Position).To(Equal(2))
			Expect(step.Status).To(Equal(process.StepStatusPendente))
		})
	})
})
