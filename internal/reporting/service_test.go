package reporting_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/regulariza/process-management/internal/process"
	"github.com/regulariza/process-management/internal/reporting"
)

func TestReportingModule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reporting Module Suite")
}

// Mock repository for testing
type mockReportingRepository struct {
	total       int64
	byStatus    map[string]int64
	avgDays     float64
	sinceCounts []int64
	sinceCalls  int
	rows        []*reporting.ExportRow
	queryError  error
}

func (m *mockReportingRepository) CountTotal() (int64, error) {
	if m.queryError != nil {
		return 0, m.queryError
	}
	return m.total, nil
}

func (m *mockReportingRepository) CountByStatus() (map[string]int64, error) {
	if m.queryError != nil {
		return nil, m.queryError
	}
	return m.byStatus, nil
}

func (m *mockReportingRepository) AverageCompletionDays() (float64, error) {
	if m.queryError != nil {
		return 0, m.queryError
	}
	return m.avgDays, nil
}

func (m *mockReportingRepository) CountCreatedSince(since time.Time) (int64, error) {
	if m.queryError != nil {
		return 0, m.queryError
	}
	count := m.sinceCounts[m.sinceCalls%len(m.sinceCounts)]
	m.sinceCalls++
	return count, nil
}

func (m *mockReportingRepository) ExportRows() ([]*reporting.ExportRow, error) {
	if m.queryError != nil {
		return nil, m.queryError
	}
	return m.rows, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("ReportingService", func() {
	var (
		service  *reporting.Service
		mockRepo *mockReportingRepository
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = &mockReportingRepository{
			total: 12,
			byStatus: map[string]int64{
				"pendente":     3,
				"em_andamento": 6,
				"concluido":    2,
				"rejeitado":    1,
			},
			avgDays:     45.5,
			sinceCounts: []int64{2, 5},
			rows: []*reporting.ExportRow{
				{
					ProcessNumber: "ER-2503-00001",
					Title:         "Regularização Lote 42, Quadra B",
					ProcessType:   "usucapiao",
					ClientName:    "Carlos Cliente",
					Status:        "em_andamento",
					Progress:      33,
					CreatedAt:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
					UpdatedAt:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
				},
			},
		}
		service = reporting.NewService(mockRepo, testLogger())
		ctx = context.Background()
	})

	Describe("Metrics", func() {
		It("should aggregate the portfolio counters", func() {
			metrics, err := service.Metrics(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(metrics.Total).To(Equal(int64(12)))
			Expect(metrics.ByStatus["em_andamento"]).To(Equal(int64(6)))
			Expect(metrics.AverageCompletionDays).To(Equal(45.5))
			Expect(metrics.CreatedThisWeek).To(Equal(int64(2)))
			Expect(metrics.CreatedThisMonth).To(Equal(int64(5)))
		})

		It("should surface repository failures", func() {
			mockRepo.queryError = errors.New("connection refused")

			_, err := service.Metrics(ctx)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ExportCSV", func() {
		It("should write the header and one line per case", func() {
			var buf bytes.Buffer

			err := service.ExportCSV(ctx, &buf)

			Expect(err).ToNot(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(ContainSubstring("Número do Processo"))
			Expect(lines[1]).To(ContainSubstring("ER-2503-00001"))
		})

		It("should quote fields containing commas", func() {
			var buf bytes.Buffer

			err := service.ExportCSV(ctx, &buf)

			Expect(err).ToNot(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring(`"Regularização Lote 42, Quadra B"`))
		})

		It("should report a failed query as an export failure", func() {
			mockRepo.queryError = errors.New("connection refused")

			err := service.ExportCSV(ctx, io.Discard)

			Expect(err).To(Equal(reporting.ErrExportFailed))
		})
	})

	Describe("ExportXLSX", func() {
		It("should build a workbook with the data on its own sheet", func() {
			f, err := service.ExportXLSX(ctx)

			Expect(err).ToNot(HaveOccurred())
			defer f.Close()

			header, err := f.GetCellValue("Processos", "A1")
			Expect(err).ToNot(HaveOccurred())
			Expect(header).To(Equal("Número do Processo"))

			number, err := f.GetCellValue("Processos", "A2")
			Expect(err).ToNot(HaveOccurred())
			Expect(number).To(Equal("ER-2503-00001"))
		})
	})

	Describe("ExportFilename", func() {
		It("should name the download after the generation day", func() {
			day := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

			Expect(reporting.ExportFilename("csv", day)).To(Equal("relatorio-processos-2025-03-15.csv"))
			Expect(reporting.ExportFilename("xlsx", day)).To(Equal("relatorio-processos-2025-03-15.xlsx"))
		})
	})
})

var _ = Describe("CRMClient", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	sampleProcess := func(status string) *process.Process {
		return &process.Process{
			ID:            7,
			ProcessNumber: "ER-2503-00001",
			ProcessType:   "usucapiao",
			Status:        status,
		}
	}

	It("should skip silently when disabled", func() {
		client := reporting.NewCRMClient(reporting.CRMConfig{Enabled: false}, testLogger())

		err := client.SyncProcess(ctx, sampleProcess("pendente"), "Carlos Cliente")

		Expect(err).ToNot(HaveOccurred())
	})

	It("should fail loudly when the api key is missing", func() {
		client := reporting.NewCRMClient(reporting.CRMConfig{Enabled: true}, testLogger())

		err := client.SyncProcess(ctx, sampleProcess("pendente"), "Carlos Cliente")

		Expect(err).To(Equal(reporting.ErrCRMMissingAPIKey))
	})

	It("should push the mapped deal stage", func() {
		var received map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/crm/v3/objects/deals"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := reporting.NewCRMClient(reporting.CRMConfig{
			Enabled: true,
			APIURL:  server.URL,
			APIKey:  "test-key",
		}, testLogger())

		err := client.SyncProcess(ctx, sampleProcess("concluido"), "Carlos Cliente")

		Expect(err).ToNot(HaveOccurred())
		properties := received["properties"].(map[string]interface{})
		Expect(properties["dealstage"]).To(Equal("closedwon"))
		Expect(properties["dealname"]).To(Equal("ER-2503-00001 - Carlos Cliente"))
		Expect(properties["processo"]).To(Equal("ER-2503-00001"))
	})

	It("should refuse a status outside the pipeline map", func() {
		client := reporting.NewCRMClient(reporting.CRMConfig{
			Enabled: true,
			APIKey:  "test-key",
		}, testLogger())

		proc := sampleProcess("arquivado")

		err := client.SyncProcess(ctx, proc, "Carlos Cliente")

		Expect(err).To(Equal(reporting.ErrCRMUnknownStatus))
	})

	It("should surface a CRM error response", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := reporting.NewCRMClient(reporting.CRMConfig{
			Enabled: true,
			APIURL:  server.URL,
			APIKey:  "test-key",
		}, testLogger())

		err := client.SyncProcess(ctx, sampleProcess("pendente"), "Carlos Cliente")

		Expect(err).To(HaveOccurred())
	})
})
