package services

import (
	"time"

	"quizhub/models"

	"gorm.io/gorm"
)

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

type SystemOverview struct {
	AdminCount       int64 `json:"admin_count"`
	CreatorCount     int64 `json:"creator_count"`
	ParticipantCount int64 `json:"participant_count"`
	CategoryCount    int64 `json:"category_count"`
	QuestionSetCount int64 `json:"question_set_count"`
	QuestionCount    int64 `json:"question_count"`
	CompletedResults int64 `json:"completed_results"`
}

// Overview collects the dashboard counts. Participants are distinct names
// ever seen in a session; completed results are those with a completion
// timestamp regardless of reset markers.
func (s *AdminService) Overview() (*SystemOverview, error) {
	overview := SystemOverview{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&overview.AdminCount, s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin)},
		{&overview.CreatorCount, s.db.Model(&models.User{}).Where("role = ?", models.RoleCreator)},
		{&overview.CategoryCount, s.db.Model(&models.Category{})},
		{&overview.QuestionSetCount, s.db.Model(&models.QuestionSet{})},
		{&overview.QuestionCount, s.db.Model(&models.Question{})},
		{&overview.CompletedResults, s.db.Model(&models.Result{}).Where("completed_at IS NOT NULL")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, persistence("system overview", err)
		}
	}

	if err := s.db.Model(&models.Session{}).
		Distinct("participant_name").
		Count(&overview.ParticipantCount).Error; err != nil {
		return nil, persistence("system overview", err)
	}

	return &overview, nil
}

// RoleParticipant labels session participants in the combined user listing.
// It is never stored on a User row.
const RoleParticipant = "participant"

type UserOverview struct {
	UserID           *uint     `json:"user_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	Verified         bool      `json:"verified"`
	QuestionSetCount int       `json:"question_set_count"`
	FirstSeen        time.Time `json:"first_seen"`
}

// ListUsers returns registered accounts with their question set counts,
// followed by the distinct participant names ever seen in a session.
func (s *AdminService) ListUsers() ([]UserOverview, error) {
	users := []UserOverview{}
	err := s.db.Raw(`SELECT users.id AS user_id,
			users.name,
			users.email,
			users.role,
			users.verified,
			COUNT(DISTINCT qs.id) AS question_set_count,
			users.created_at AS first_seen
		FROM users
		LEFT JOIN question_sets qs ON qs.created_by = users.id AND qs.deleted_at IS NULL
		WHERE users.deleted_at IS NULL
		GROUP BY users.id, users.name, users.email, users.role, users.verified, users.created_at
		ORDER BY users.created_at DESC`).Scan(&users).Error
	if err != nil {
		return nil, persistence("list users", err)
	}

	participants := []UserOverview{}
	err = s.db.Raw(`SELECT sessions.participant_name AS name,
			COUNT(DISTINCT sessions.question_set_id) AS question_set_count,
			MIN(sessions.created_at) AS first_seen
		FROM sessions
		WHERE sessions.participant_name != ''
		GROUP BY sessions.participant_name
		ORDER BY MIN(sessions.created_at) DESC`).Scan(&participants).Error
	if err != nil {
		return nil, persistence("list participants", err)
	}
	for i := range participants {
		participants[i].Role = RoleParticipant
	}

	return append(users, participants...), nil
}

// UpdateUserRole changes a registered account's role.
func (s *AdminService) UpdateUserRole(userID uint, role string) error {
	if role != models.RoleAdmin && role != models.RoleCreator {
		return validationf("role must be %s or %s", models.RoleAdmin, models.RoleCreator)
	}

	res := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("role", role)
	if res.Error != nil {
		return persistence("update user role", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a registered account. Their question sets and results
// stay; creator-scoped reads simply stop resolving the name.
func (s *AdminService) DeleteUser(userID uint) error {
	res := s.db.Delete(&models.User{}, userID)
	if res.Error != nil {
		return persistence("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
