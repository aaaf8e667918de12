package postgres

import (
	"time"

	processDatamodel "github.com/regulariza/process-management/internal/core/datamodel/process"
	"github.com/regulariza/process-management/internal/process"
	"gorm.io/gorm"
)

// ProcessRepository implements the process.Repository interface using GORM
type ProcessRepository struct {
	db *gorm.DB
}

func NewProcessRepository(db *gorm.DB) process.Repository {
	return &ProcessRepository{db: db}
}

// NextProcessNumber allocates the next number in the current year-month
// bucket through a single atomic upsert. The increment happens inside the
// database so concurrent callers can never observe the same counter value;
// there is no read-then-write window.
func (r *ProcessRepository) NextProcessNumber(now time.Time) (string, error) {
	bucket := process.NumberBucket(now)

	var counter int64
	err := r.db.Raw(`
		INSERT INTO process_counters (bucket, counter, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT (bucket)
		DO UPDATE SET counter = process_counters.counter + 1, updated_at = EXCLUDED.updated_at
		RETURNING counter`, bucket, now).Scan(&counter).Error
	if err != nil {
		return "", err
	}

	return process.FormatProcessNumber(bucket, counter), nil
}

func (r *ProcessRepository) Create(proc *process.Process, steps []*process.Step) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		row := process.ToDataModel(proc)
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		proc.ID = row.ID

		for _, step := range steps {
			step.ProcessID = row.ID
			stepRow := process.StepToDataModel(step)
			if err := tx.Create(stepRow).Error; err != nil {
				return err
			}
			step.ID = stepRow.ID
		}
		return nil
	})
}

func (r *ProcessRepository) GetByID(id int64) (*process.Process, error) {
	var row processDatamodel.Process
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, process.ErrProcessNotFound
		}
		return nil, err
	}
	return process.FromDataModel(&row), nil
}

func (r *ProcessRepository) GetSteps(processID int64) ([]*process.Step, error) {
	var rows []*processDatamodel.ProcessStep
	err := r.db.Where("process_id = ?", processID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	steps := make([]*process.Step, len(rows))
	for i, row := range rows {
		steps[i] = process.StepFromDataModel(row)
	}
	return steps, nil
}

func (r *ProcessRepository) List(status string, clientID int64, limit, offset int) ([]*process.Process, error) {
	query := r.db.Model(&processDatamodel.Process{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID > 0 {
		query = query.Where("client_id = ?", clientID)
	}

	var rows []*processDatamodel.Process
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	procs := make([]*process.Process, len(rows))
	for i, row := range rows {
		procs[i] = process.FromDataModel(row)
	}
	return procs, nil
}

func (r *ProcessRepository) UpdateStatus(id int64, status string, progress int) error {
	return r.db.Model(&processDatamodel.Process{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"progress":   progress,
			"updated_at": time.Now(),
		}).Error
}

func (r *ProcessRepository) AddStep(step *process.Step) error {
	row := process.StepToDataModel(step)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	step.ID = row.ID
	return nil
}

// ListApproachingDeadline returns open processes whose deadline falls on
// or before the given cutoff. Concluded and rejected cases are excluded.
func (r *ProcessRepository) ListApproachingDeadline(before time.Time) ([]*process.Process, error) {
	var rows []*processDatamodel.Process
	err := r.db.
		Where("deadline IS NOT NULL AND deadline <= ?", before).
		Where("status NOT IN ?", []string{process.StatusConcluido, process.StatusRejeitado}).
		Order("deadline ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	procs := make([]*process.Process, len(rows))
	for i, row := range rows {
		procs[i] = process.FromDataModel(row)
	}
	return procs, nil
}

func (r *ProcessRepository) CompleteStep(stepID int64, completedAt time.Time) error {
	result := r.db.Model(&processDatamodel.ProcessStep{}).
		Where("id = ?", stepID).
		Updates(map[string]interface{}{
			"status":       process.StepStatusConcluido,
			"completed_at": completedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return process.ErrStepNotFound
	}
	return nil
}
