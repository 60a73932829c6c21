package services

import (
	"errors"

	"quizhub/models"

	"gorm.io/gorm"
)

type MaterialService struct {
	db *gorm.DB
}

func NewMaterialService(db *gorm.DB) *MaterialService {
	return &MaterialService{db: db}
}

type MaterialRequest struct {
	Title      string `json:"title" binding:"required"`
	CategoryID uint   `json:"category_id" binding:"required"`
	Content    string `json:"content"`
}

func (s *MaterialService) List(categoryID *uint) ([]models.Material, error) {
	q := s.db.Preload("Category").Order("title")
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var materials []models.Material
	if err := q.Find(&materials).Error; err != nil {
		return nil, persistence("list materials", err)
	}
	return materials, nil
}

func (s *MaterialService) Get(id uint) (*models.Material, error) {
	var material models.Material
	if err := s.db.Preload("Category").First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load material", err)
	}
	return &material, nil
}

func (s *MaterialService) Create(createdBy uint, req *MaterialRequest) (*models.Material, error) {
	material := models.Material{
		Title:      req.Title,
		CategoryID: req.CategoryID,
		Content:    req.Content,
		CreatedBy:  createdBy,
	}
	if err := s.db.Create(&material).Error; err != nil {
		return nil, persistence("create material", err)
	}
	return s.Get(material.ID)
}

func (s *MaterialService) Update(id uint, req *MaterialRequest) (*models.Material, error) {
	res := s.db.Model(&models.Material{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":       req.Title,
			"category_id": req.CategoryID,
			"content":     req.Content,
		})
	if res.Error != nil {
		return nil, persistence("update material", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(id)
}

func (s *MaterialService) Delete(id uint) error {
	res := s.db.Delete(&models.Material{}, id)
	if res.Error != nil {
		return persistence("delete material", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
