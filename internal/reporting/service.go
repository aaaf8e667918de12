package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Metrics aggregates the portfolio counters in one pass. Week starts on
// Monday; month on the first day of the current month.
func (s *Service) Metrics(ctx context.Context) (*ProcessMetrics, error) {
	total, err := s.repo.CountTotal()
	if err != nil {
		s.logger.Error("metrics: total count failed", "error", err)
		return nil, err
	}

	byStatus, err := s.repo.CountByStatus()
	if err != nil {
		s.logger.Error("metrics: status breakdown failed", "error", err)
		return nil, err
	}

	avgDays, err := s.repo.AverageCompletionDays()
	if err != nil {
		s.logger.Error("metrics: average completion failed", "error", err)
		return nil, err
	}

	now := time.Now()
	weekStart := startOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	thisWeek, err := s.repo.CountCreatedSince(weekStart)
	if err != nil {
		s.logger.Error("metrics: week count failed", "error", err)
		return nil, err
	}

	thisMonth, err := s.repo.CountCreatedSince(monthStart)
	if err != nil {
		s.logger.Error("metrics: month count failed", "error", err)
		return nil, err
	}

	return &ProcessMetrics{
		Total:                 total,
		ByStatus:              byStatus,
		AverageCompletionDays: avgDays,
		CreatedThisWeek:       thisWeek,
		CreatedThisMonth:      thisMonth,
	}, nil
}

func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

var exportHeader = []string{
	"Número do Processo",
	"Título",
	"Tipo",
	"Cliente",
	"Status",
	"Progresso (%)",
	"Prazo",
	"Criado em",
	"Atualizado em",
}

// ExportFilename names the download after the day it was generated.
func ExportFilename(format string, now time.Time) string {
	return fmt.Sprintf("relatorio-processos-%s.%s", now.Format("2006-01-02"), format)
}

func rowCells(row *ExportRow) []string {
	deadline := ""
	if row.Deadline != nil {
		deadline = row.Deadline.Format("2006-01-02")
	}
	return []string{
		row.ProcessNumber,
		row.Title,
		row.ProcessType,
		row.ClientName,
		row.Status,
		strconv.Itoa(row.Progress),
		deadline,
		row.CreatedAt.Format("2006-01-02"),
		row.UpdatedAt.Format("2006-01-02"),
	}
}

// ExportCSV streams the full portfolio as CSV. encoding/csv handles the
// quoting of titles and client names that contain commas.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.repo.ExportRows()
	if err != nil {
		s.logger.Error("csv export query failed", "error", err)
		return ErrExportFailed
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(rowCells(row)); err != nil {
			return err
		}
	}
	writer.Flush()

	s.logger.Info("csv export generated", "rows", len(rows))

	return writer.Error()
}

// ExportXLSX builds a single-sheet workbook with a bold header row.
func (s *Service) ExportXLSX(ctx context.Context) (*excelize.File, error) {
	rows, err := s.repo.ExportRows()
	if err != nil {
		s.logger.Error("xlsx export query failed", "error", err)
		return nil, ErrExportFailed
	}

	f := excelize.NewFile()
	sheet := "Processos"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		for col, value := range rowCells(row) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Info("xlsx export generated", "rows", len(rows))

	return f, nil
}
