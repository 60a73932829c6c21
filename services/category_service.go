package services

import (
	"errors"

	"quizhub/models"

	"gorm.io/gorm"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *CategoryService) List() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name").Find(&categories).Error; err != nil {
		return nil, persistence("list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load category", err)
	}
	return &category, nil
}

func (s *CategoryService) Create(createdBy uint, req *CategoryRequest) (*models.Category, error) {
	var existing models.Category
	err := s.db.Where("LOWER(name) = LOWER(?)", req.Name).First(&existing).Error
	if err == nil {
		return nil, validationf("category %q already exists", existing.Name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistence("check category name", err)
	}

	category := models.Category{Name: req.Name, CreatedBy: createdBy}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, persistence("create category", err)
	}
	return &category, nil
}

func (s *CategoryService) Update(id uint, req *CategoryRequest) (*models.Category, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var duplicate models.Category
	err = s.db.Where("LOWER(name) = LOWER(?) AND id != ?", req.Name, id).First(&duplicate).Error
	if err == nil {
		return nil, validationf("category %q already exists", duplicate.Name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistence("check category name", err)
	}

	category.Name = req.Name
	if err := s.db.Save(category).Error; err != nil {
		return nil, persistence("update category", err)
	}
	return category, nil
}

// Delete refuses to remove a category that still backs materials or
// question sets.
func (s *CategoryService) Delete(id uint) error {
	var materialCount int64
	if err := s.db.Model(&models.Material{}).
		Where("category_id = ?", id).
		Count(&materialCount).Error; err != nil {
		return persistence("count materials", err)
	}
	var setCount int64
	if err := s.db.Model(&models.QuestionSet{}).
		Where("category_id = ?", id).
		Count(&setCount).Error; err != nil {
		return persistence("count question sets", err)
	}
	if materialCount > 0 || setCount > 0 {
		return validationf("category is still used by %d materials and %d question sets", materialCount, setCount)
	}

	res := s.db.Delete(&models.Category{}, id)
	if res.Error != nil {
		return persistence("delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
