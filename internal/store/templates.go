package store

import (
	"errors"
	"fmt"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrTemplateInUse is returned when deleting a template that scheduled
	// reports still reference.
	ErrTemplateInUse = errors.New("template is referenced by scheduled reports")
)

// TemplateStore persists report templates. Templates are shared and
// read-only at execution time.
type TemplateStore struct {
	db *gorm.DB
}

func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) List() ([]models.ReportTemplate, error) {
	var templates []models.ReportTemplate
	if err := s.db.Order("name").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %v", err)
	}
	return templates, nil
}

func (s *TemplateStore) Get(id string) (*models.ReportTemplate, error) {
	var template models.ReportTemplate
	if err := s.db.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load template: %v", err)
	}
	return &template, nil
}

func (s *TemplateStore) Create(template *models.ReportTemplate) error {
	if template.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if !template.Type.Valid() {
		return fmt.Errorf("invalid report type: %s", template.Type)
	}
	if !template.Format.Valid() {
		return fmt.Errorf("invalid report format: %s", template.Format)
	}
	if err := s.db.Create(template).Error; err != nil {
		return fmt.Errorf("failed to create template: %v", err)
	}
	return nil
}

// Delete refuses to remove a template while any scheduled report references
// it; referential integrity is enforced here, not assumed from the store.
func (s *TemplateStore) Delete(id string) error {
	var refs int64
	if err := s.db.Model(&models.ScheduledReport{}).
		Where("template_id = ?", id).
		Count(&refs).Error; err != nil {
		return fmt.Errorf("failed to count template references: %v", err)
	}
	if refs > 0 {
		return fmt.Errorf("template %s: %w", id, ErrTemplateInUse)
	}

	result := s.db.Delete(&models.ReportTemplate{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}
