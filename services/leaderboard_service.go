package services

import (
	"errors"
	"fmt"
	"time"

	"quizhub/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// LeaderboardService computes ranked results under the reset-window model:
// a reset never deletes rows, it appends a scoped marker, and visibility is
// decided at read time against the latest applicable marker.
type LeaderboardService struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewLeaderboardService(db *gorm.DB, clock clockwork.Clock) *LeaderboardService {
	return &LeaderboardService{db: db, clock: clock}
}

type LeaderboardFilters struct {
	CreatedBy     *uint `json:"created_by"`
	CategoryID    *uint `json:"category_id"`
	MaterialID    *uint `json:"material_id"`
	QuestionSetID *uint `json:"question_set_id"`
}

type LeaderboardEntry struct {
	ResultID         uint      `json:"result_id"`
	ParticipantName  string    `json:"participant_name"`
	Score            int       `json:"score"`
	CorrectCount     int       `json:"correct_count"`
	TotalCount       int       `json:"total_count"`
	ElapsedSeconds   int       `json:"elapsed_seconds"`
	CompletedAt      time.Time `json:"completed_at"`
	PinCode          string    `json:"pin_code"`
	CategoryName     string    `json:"category_name"`
	MaterialTitle    string    `json:"material_title"`
	QuestionSetTitle string    `json:"question_set_title"`
}

type ResetOutcome struct {
	Scope      string             `json:"scope"`
	HiddenRows int64              `json:"hidden_rows"`
	Filters    LeaderboardFilters `json:"filters"`
}

// resetCutoffExpr builds the correlated subquery yielding the latest reset
// timestamp that applies to a result row: every marker field is either NULL
// (wildcard) or equal to the row's corresponding field.
func resetCutoffExpr(resultAlias, setAlias string) string {
	return fmt.Sprintf(`SELECT MAX(rm.reset_at) FROM reset_markers rm
		WHERE (rm.created_by IS NULL OR rm.created_by = %[2]s.created_by)
		  AND (rm.question_set_id IS NULL OR rm.question_set_id = %[1]s.question_set_id)
		  AND (rm.material_id IS NULL OR rm.material_id = %[2]s.material_id)
		  AND (rm.category_id IS NULL OR rm.category_id = %[2]s.category_id)`,
		resultAlias, setAlias)
}

var epoch = time.Unix(0, 0).UTC()

// visibleResults builds the base query for completed results inside the
// current reset window, joined to their question set for creator, category
// and material filtering.
func (s *LeaderboardService) visibleResults(filters LeaderboardFilters) *gorm.DB {
	q := s.db.Table("results").
		Joins("JOIN question_sets ON question_sets.id = results.question_set_id AND question_sets.deleted_at IS NULL").
		Where("results.completed_at IS NOT NULL").
		Where("results.completed_at > COALESCE(("+resetCutoffExpr("results", "question_sets")+"), ?)", epoch)

	if filters.CreatedBy != nil {
		q = q.Where("question_sets.created_by = ?", *filters.CreatedBy)
	}
	if filters.CategoryID != nil {
		q = q.Where("question_sets.category_id = ?", *filters.CategoryID)
	}
	if filters.MaterialID != nil {
		q = q.Where("question_sets.material_id = ?", *filters.MaterialID)
	}
	if filters.QuestionSetID != nil {
		q = q.Where("results.question_set_id = ?", *filters.QuestionSetID)
	}

	return q
}

// GetLeaderboard returns the visible standings. The creator filter is a hard
// requirement: without it the query would mix results across tenants.
// Ordering is score, then correct count, then elapsed time (faster wins
// ties), capped at 100 rows.
func (s *LeaderboardService) GetLeaderboard(filters LeaderboardFilters) ([]LeaderboardEntry, error) {
	if filters.CreatedBy == nil {
		return nil, ErrMissingCreatorFilter
	}

	entries := []LeaderboardEntry{}
	err := s.visibleResults(filters).
		Joins("LEFT JOIN categories ON categories.id = question_sets.category_id").
		Joins("LEFT JOIN materials ON materials.id = question_sets.material_id").
		Select(`results.id AS result_id,
			results.participant_name,
			results.score,
			results.correct_count,
			results.total_count,
			results.elapsed_seconds,
			results.completed_at,
			results.pin_code,
			categories.name AS category_name,
			materials.title AS material_title,
			question_sets.title AS question_set_title`).
		Order("results.score DESC, results.correct_count DESC, results.elapsed_seconds ASC").
		Limit(100).
		Scan(&entries).Error
	if err != nil {
		return nil, persistence("load leaderboard", err)
	}

	return entries, nil
}

// CountVisibleRows reports how many results the given filters currently
// show. Used to tell a resetting actor what their reset will hide; the count
// is informational only.
func (s *LeaderboardService) CountVisibleRows(filters LeaderboardFilters) (int64, error) {
	var count int64
	if err := s.visibleResults(filters).Count(&count).Error; err != nil {
		return 0, persistence("count leaderboard rows", err)
	}
	return count, nil
}

// scopeLabel picks the single stored scope from the present filter fields,
// most specific first.
func scopeLabel(filters LeaderboardFilters) string {
	switch {
	case filters.QuestionSetID != nil:
		return models.ResetScopeQuestionSet
	case filters.MaterialID != nil:
		return models.ResetScopeMaterial
	case filters.CategoryID != nil:
		return models.ResetScopeCategory
	case filters.CreatedBy != nil:
		return models.ResetScopeCreator
	default:
		return models.ResetScopeAll
	}
}

// ResetLeaderboard appends one marker for the given filters. Nothing is
// deleted; rows completed at or before the marker simply stop matching the
// visibility cutoff.
func (s *LeaderboardService) ResetLeaderboard(filters LeaderboardFilters, actorID uint, actorRole string) (*ResetOutcome, error) {
	hidden, err := s.CountVisibleRows(filters)
	if err != nil {
		return nil, err
	}

	marker := models.ResetMarker{
		CreatedBy:     filters.CreatedBy,
		CategoryID:    filters.CategoryID,
		MaterialID:    filters.MaterialID,
		QuestionSetID: filters.QuestionSetID,
		Scope:         scopeLabel(filters),
		ResetBy:       actorID,
		ResetRole:     actorRole,
		ResetAt:       s.clock.Now(),
	}
	if err := s.db.Create(&marker).Error; err != nil {
		return nil, persistence("record reset marker", err)
	}

	return &ResetOutcome{Scope: marker.Scope, HiddenRows: hidden, Filters: filters}, nil
}

// ResetByQuestionSet resets the board for one set after verifying the acting
// creator owns it. The marker is pinned to the set's creator, category and
// material so later wildcard markers compose predictably.
func (s *LeaderboardService) ResetByQuestionSet(questionSetID, actorID uint, actorRole string) (*ResetOutcome, error) {
	var set models.QuestionSet
	if err := s.db.First(&set, questionSetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load question set", err)
	}
	if set.CreatedBy != actorID {
		return nil, ErrForbidden
	}

	setID := set.ID
	categoryID := set.CategoryID
	filters := LeaderboardFilters{
		CreatedBy:     &set.CreatedBy,
		QuestionSetID: &setID,
		CategoryID:    &categoryID,
		MaterialID:    set.MaterialID,
	}
	return s.ResetLeaderboard(filters, actorID, actorRole)
}

// ResetByCreator resets everything the acting creator owns, optionally
// narrowed by category, material or question set.
func (s *LeaderboardService) ResetByCreator(filters LeaderboardFilters, actorID uint, actorRole string) (*ResetOutcome, error) {
	filters.CreatedBy = &actorID
	return s.ResetLeaderboard(filters, actorID, actorRole)
}

type CategoryStat struct {
	CategoryID       uint   `json:"category_id"`
	Name             string `json:"name"`
	QuestionSetCount int    `json:"question_set_count"`
	ResultCount      int    `json:"result_count"`
}

// CategoryStats lists the creator's categories with set counts and
// reset-window-aware result counts.
func (s *LeaderboardService) CategoryStats(createdBy uint) ([]CategoryStat, error) {
	stats := []CategoryStat{}
	err := s.db.Raw(`SELECT categories.id AS category_id,
			categories.name,
			COUNT(DISTINCT qs.id) AS question_set_count,
			COUNT(DISTINCT CASE WHEN r.completed_at IS NOT NULL
				AND r.completed_at > COALESCE((`+resetCutoffExpr("r", "qs")+`), ?)
				THEN r.id END) AS result_count
		FROM categories
		LEFT JOIN question_sets qs ON qs.category_id = categories.id AND qs.created_by = ? AND qs.deleted_at IS NULL
		LEFT JOIN results r ON r.question_set_id = qs.id
		WHERE categories.deleted_at IS NULL
		GROUP BY categories.id, categories.name
		HAVING COUNT(DISTINCT qs.id) > 0
		ORDER BY categories.name`, epoch, createdBy).Scan(&stats).Error
	if err != nil {
		return nil, persistence("load category stats", err)
	}
	return stats, nil
}

type MaterialStat struct {
	MaterialID       uint   `json:"material_id"`
	Title            string `json:"title"`
	CategoryID       uint   `json:"category_id"`
	CategoryName     string `json:"category_name"`
	QuestionSetCount int    `json:"question_set_count"`
	ResultCount      int    `json:"result_count"`
}

// MaterialStats lists the creator's materials, optionally narrowed to one
// category, with the same reset-window-aware counting.
func (s *LeaderboardService) MaterialStats(createdBy uint, categoryID *uint) ([]MaterialStat, error) {
	query := `SELECT materials.id AS material_id,
			materials.title,
			categories.id AS category_id,
			categories.name AS category_name,
			COUNT(DISTINCT qs.id) AS question_set_count,
			COUNT(DISTINCT CASE WHEN r.completed_at IS NOT NULL
				AND r.completed_at > COALESCE((` + resetCutoffExpr("r", "qs") + `), ?)
				THEN r.id END) AS result_count
		FROM materials
		JOIN categories ON categories.id = materials.category_id
		LEFT JOIN question_sets qs ON qs.material_id = materials.id AND qs.created_by = ? AND qs.deleted_at IS NULL
		LEFT JOIN results r ON r.question_set_id = qs.id
		WHERE materials.deleted_at IS NULL`
	args := []interface{}{epoch, createdBy}

	if categoryID != nil {
		query += ` AND categories.id = ?`
		args = append(args, *categoryID)
	}

	query += `
		GROUP BY materials.id, materials.title, categories.id, categories.name
		HAVING COUNT(DISTINCT qs.id) > 0
		ORDER BY materials.title`

	stats := []MaterialStat{}
	if err := s.db.Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, persistence("load material stats", err)
	}
	return stats, nil
}

type SessionAuditRow struct {
	SessionID        uint       `json:"session_id"`
	ParticipantName  string     `json:"participant_name"`
	QuestionSetID    uint       `json:"question_set_id"`
	QuestionSetTitle string     `json:"question_set_title"`
	PinCode          string     `json:"pin_code"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at"`
	Deadline         time.Time  `json:"deadline"`
	Active           bool       `json:"active"`
	ResultID         *uint      `json:"result_id"`
	Score            *int       `json:"score"`
	CorrectCount     *int       `json:"correct_count"`
	TotalCount       *int       `json:"total_count"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatorName      string     `json:"creator_name"`
}

// SessionAudit lists sessions with their results for admins and creators.
// Creators only ever see their own sets; admins may narrow by creator. The
// audit read ignores reset markers on purpose: hidden leaderboard rows stay
// verifiable here.
func (s *LeaderboardService) SessionAudit(actorID uint, actorRole string, questionSetID, createdBy *uint) ([]SessionAuditRow, error) {
	q := s.db.Table("sessions").
		Joins("LEFT JOIN question_sets ON question_sets.id = sessions.question_set_id").
		Joins("LEFT JOIN results ON results.session_id = sessions.id").
		Joins("LEFT JOIN users ON users.id = question_sets.created_by").
		Select(`sessions.id AS session_id,
			sessions.participant_name,
			sessions.question_set_id,
			question_sets.title AS question_set_title,
			sessions.pin_code,
			sessions.started_at,
			sessions.finished_at,
			sessions.deadline,
			sessions.active,
			results.id AS result_id,
			results.score,
			results.correct_count,
			results.total_count,
			results.completed_at,
			users.name AS creator_name`)

	if questionSetID != nil {
		q = q.Where("sessions.question_set_id = ?", *questionSetID)
	}
	if actorRole == models.RoleCreator {
		q = q.Where("question_sets.created_by = ?", actorID)
	} else if createdBy != nil {
		q = q.Where("question_sets.created_by = ?", *createdBy)
	}

	rows := []SessionAuditRow{}
	if err := q.Order("sessions.created_at DESC").Limit(100).Scan(&rows).Error; err != nil {
		return nil, persistence("load session audit", err)
	}
	return rows, nil
}
