package services

import (
	"testing"

	"quizhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCreateRejectsDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	service := NewCategoryService(db)

	_, err := service.Create(1, &CategoryRequest{Name: "Math"})
	require.NoError(t, err)

	_, err = service.Create(1, &CategoryRequest{Name: "math"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.Create(1, &CategoryRequest{Name: "MATH"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCategoryUpdateRejectsNameCollision(t *testing.T) {
	db := setupTestDB(t)
	service := NewCategoryService(db)

	_, err := service.Create(1, &CategoryRequest{Name: "Math"})
	require.NoError(t, err)
	science, err := service.Create(1, &CategoryRequest{Name: "Science"})
	require.NoError(t, err)

	_, err = service.Update(science.ID, &CategoryRequest{Name: "math"})
	assert.ErrorIs(t, err, ErrValidation)

	renamed, err := service.Update(science.ID, &CategoryRequest{Name: "Physics"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", renamed.Name)
}

func TestCategoryDeleteBlockedWhileReferenced(t *testing.T) {
	db := setupTestDB(t)
	service := NewCategoryService(db)

	category, err := service.Create(1, &CategoryRequest{Name: "Math"})
	require.NoError(t, err)

	creator := seedCreator(t, db, "teacher")
	seedQuestionSet(t, db, creator.ID, category.ID, "111111", 1, 60)

	assert.ErrorIs(t, service.Delete(category.ID), ErrValidation)

	// Clear the reference and the delete goes through.
	require.NoError(t, db.Where("category_id = ?", category.ID).Delete(&models.QuestionSet{}).Error)
	require.NoError(t, service.Delete(category.ID))

	_, err = service.Get(category.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaterialListFiltersByCategory(t *testing.T) {
	db := setupTestDB(t)
	service := NewMaterialService(db)

	math := seedCategory(t, db, "Math")
	science := seedCategory(t, db, "Science")
	seedMaterial(t, db, math.ID, "Fractions")
	seedMaterial(t, db, science.ID, "Gravity")

	all, err := service.List(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyMath, err := service.List(&math.ID)
	require.NoError(t, err)
	require.Len(t, onlyMath, 1)
	assert.Equal(t, "Fractions", onlyMath[0].Title)
}

func TestMaterialCRUD(t *testing.T) {
	db := setupTestDB(t)
	service := NewMaterialService(db)
	category := seedCategory(t, db, "Math")

	material, err := service.Create(1, &MaterialRequest{
		Title:      "Fractions",
		CategoryID: category.ID,
		Content:    "Halves and quarters.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Math", material.Category.Name)

	updated, err := service.Update(material.ID, &MaterialRequest{
		Title:      "Fractions II",
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Fractions II", updated.Title)

	require.NoError(t, service.Delete(material.ID))
	_, err = service.Get(material.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, service.Delete(9999), ErrNotFound)
}
