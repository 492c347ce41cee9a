package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/hub"
	"speedrun/backend/internal/models"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// CreateRecordInput holds the caller-supplied fields of a new run.
type CreateRecordInput struct {
	UserID    uint
	GameID    uint
	VersionID uint
	TimeMs    int64
	VideoURL  string
	Notes     string
	// CategoryIDs are linked in the same transaction; each must belong to
	// GameID.
	CategoryIDs []uint
}

// RecordPatch lists the record fields an update may change. Nil fields are
// left alone.
type RecordPatch struct {
	VersionID *uint
	TimeMs    *int64
	VideoURL  *string
	Status    *models.RecordStatus
	Notes     *string
}

func (p RecordPatch) changes() (map[string]any, error) {
	c := changeSet{}
	if p.VersionID != nil {
		c.set("version_id", *p.VersionID)
	}
	if p.TimeMs != nil {
		if *p.TimeMs <= 0 {
			return nil, fmt.Errorf("%w: time must be positive", ErrValidation)
		}
		c.set("record_time_ms", *p.TimeMs)
	}
	if p.VideoURL != nil {
		c.set("video_url", *p.VideoURL)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
		}
		c.set("status", *p.Status)
	}
	if p.Notes != nil {
		c.set("notes", *p.Notes)
	}
	return c.finalize(true)
}

// RecordFilter narrows List.
type RecordFilter struct {
	Status *models.RecordStatus
	UserID *uint
}

// LeaderboardFilter narrows a game's leaderboard.
type LeaderboardFilter struct {
	CategoryID *uint
	VersionID  *uint
	Status     *models.RecordStatus
}

func (f LeaderboardFilter) variant() string {
	part := func(id *uint) string {
		if id == nil {
			return "-"
		}
		return strconv.FormatUint(uint64(*id), 10)
	}
	status := "-"
	if f.Status != nil {
		status = string(*f.Status)
	}
	return "c" + part(f.CategoryID) + ":v" + part(f.VersionID) + ":s" + status
}

// RecordService owns record submission, moderation and leaderboards.
type RecordService struct {
	db     *gorm.DB
	cache  cache.LeaderboardCache
	events *hub.Hub
}

// NewRecordService wires a RecordService. A nil cache disables caching and
// a nil hub disables events.
func NewRecordService(db *gorm.DB, lc cache.LeaderboardCache, events *hub.Hub) *RecordService {
	if lc == nil {
		lc = cache.Nop{}
	}
	return &RecordService{db: db, cache: lc, events: events}
}

func recordViewQuery() sq.SelectBuilder {
	return sq.Select(
		"r.id", "r.user_id", "u.username",
		"r.game_id", "g.name AS game_name",
		"r.version_id", "v.name AS version_name",
		"r.record_time_ms", "r.video_url", "r.notes", "r.status",
		"r.created_at", "r.updated_at",
	).
		From("records r").
		Join("users u ON u.id = r.user_id").
		Join("games g ON g.id = r.game_id").
		Join("game_versions v ON v.id = r.version_id")
}

// queryViews runs a record view query and attaches category names.
func (s *RecordService) queryViews(ctx context.Context, q sq.Sqlizer) ([]models.RecordView, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	var views []models.RecordView
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&views).Error; err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, views); err != nil {
		return nil, err
	}
	return views, nil
}

func (s *RecordService) attachCategories(ctx context.Context, views []models.RecordView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]uint, len(views))
	byID := make(map[uint]*models.RecordView, len(views))
	for i := range views {
		ids[i] = views[i].ID
		views[i].Categories = []string{}
		byID[views[i].ID] = &views[i]
	}

	query, args, err := sq.Select("rc.record_id", "c.name").
		From("record_categories rc").
		Join("categories c ON c.id = rc.category_id").
		Where(sq.Eq{"rc.record_id": ids}).
		OrderBy("c.name").
		ToSql()
	if err != nil {
		return err
	}
	var rows []struct {
		RecordID uint
		Name     string
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		if v, ok := byID[row.RecordID]; ok {
			v.Categories = append(v.Categories, row.Name)
		}
	}
	return nil
}

// List returns every record, oldest first.
func (s *RecordService) List(ctx context.Context, f RecordFilter) ([]models.RecordView, error) {
	q := recordViewQuery().OrderBy("r.id")
	if f.Status != nil {
		q = q.Where(sq.Eq{"r.status": string(*f.Status)})
	}
	if f.UserID != nil {
		q = q.Where(sq.Eq{"r.user_id": *f.UserID})
	}
	return s.queryViews(ctx, q)
}

// Get returns one record with its joined names.
func (s *RecordService) Get(ctx context.Context, id uint) (models.RecordView, error) {
	views, err := s.queryViews(ctx, recordViewQuery().Where(sq.Eq{"r.id": id}))
	if err != nil {
		return models.RecordView{}, err
	}
	if len(views) == 0 {
		return models.RecordView{}, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	return views[0], nil
}

// Create validates the references of a new run and stores it as Pending.
func (s *RecordService) Create(ctx context.Context, in CreateRecordInput) (models.RecordView, error) {
	if in.TimeMs <= 0 {
		return models.RecordView{}, fmt.Errorf("%w: time must be positive", ErrValidation)
	}

	record := models.Record{
		UserID:    in.UserID,
		GameID:    in.GameID,
		VersionID: in.VersionID,
		TimeMs:    in.TimeMs,
		VideoURL:  in.VideoURL,
		Notes:     in.Notes,
		Status:    models.StatusPending,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reference(tx, &models.User{}, in.UserID, "user"); err != nil {
			return err
		}
		if err := reference(tx, &models.Game{}, in.GameID, "game"); err != nil {
			return err
		}
		var version models.GameVersion
		if err := reference(tx, &version, in.VersionID, "version"); err != nil {
			return err
		}
		if version.GameID != in.GameID {
			return fmt.Errorf("%w: version %d does not belong to game %d", ErrIncompatibleReference, in.VersionID, in.GameID)
		}
		categoryIDs := uniqueIDs(in.CategoryIDs)
		for _, categoryID := range categoryIDs {
			var category models.Category
			if err := reference(tx.Select("id", "game_id"), &category, categoryID, "category"); err != nil {
				return err
			}
			if category.GameID != in.GameID {
				return fmt.Errorf("%w: category %d is for game %d, record is for game %d",
					ErrCrossGameMismatch, categoryID, category.GameID, in.GameID)
			}
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for _, categoryID := range categoryIDs {
			if err := tx.Create(&models.RecordCategory{RecordID: record.ID, CategoryID: categoryID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.RecordView{}, translate(err)
	}

	s.changed(ctx, record.GameID, hub.RecordCreated, record.ID, record.Status)
	return s.Get(ctx, record.ID)
}

// Update applies a partial change. A new version must belong to the
// record's game. The bool reports whether the record existed.
func (s *RecordService) Update(ctx context.Context, id uint, patch RecordPatch) (bool, error) {
	set, err := patch.changes()
	if err != nil {
		return false, err
	}

	var existing models.Record
	var affected bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forShare(tx).First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if patch.VersionID != nil {
			var version models.GameVersion
			if err := reference(tx, &version, *patch.VersionID, "version"); err != nil {
				return err
			}
			if version.GameID != existing.GameID {
				return fmt.Errorf("%w: version %d does not belong to game %d", ErrIncompatibleReference, version.ID, existing.GameID)
			}
		}
		res := tx.Model(&models.Record{}).Where("id = ?", id).Updates(set)
		affected = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, translate(err)
	}
	if affected {
		status := existing.Status
		if patch.Status != nil {
			status = *patch.Status
		}
		s.changed(ctx, existing.GameID, hub.RecordUpdated, id, status)
	}
	return affected, nil
}

// Approve marks a record Approved.
func (s *RecordService) Approve(ctx context.Context, id uint) (models.RecordView, error) {
	return s.setStatus(ctx, id, models.StatusApproved, hub.RecordApproved, "record approval failed")
}

// Reject marks a record Rejected.
func (s *RecordService) Reject(ctx context.Context, id uint) (models.RecordView, error) {
	return s.setStatus(ctx, id, models.StatusRejected, hub.RecordRejected, "record rejection failed")
}

func (s *RecordService) setStatus(ctx context.Context, id uint, status models.RecordStatus, event, failure string) (models.RecordView, error) {
	res := s.db.WithContext(ctx).Model(&models.Record{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return models.RecordView{}, fmt.Errorf("%s: %w", failure, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.RecordView{}, fmt.Errorf("%s: %w: record %d", failure, ErrNotFound, id)
	}

	view, err := s.Get(ctx, id)
	if err != nil {
		return models.RecordView{}, err
	}
	s.changed(ctx, view.GameID, event, id, status)
	return view, nil
}

// Delete removes a record and its links and comments.
func (s *RecordService) Delete(ctx context.Context, id uint) (bool, error) {
	var record models.Record
	var affected bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "game_id").First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		res := tx.Delete(&models.Record{}, id)
		affected = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, err
	}
	if affected {
		s.changed(ctx, record.GameID, hub.RecordDeleted, id, "")
	}
	return affected, nil
}

// Leaderboard ranks a game's records by time, fastest first. Ties keep
// submission order.
func (s *RecordService) Leaderboard(ctx context.Context, gameID uint, f LeaderboardFilter) ([]models.RecordView, error) {
	variant := f.variant()
	cached, gen, ok := s.cache.Get(ctx, gameID, variant)
	if ok {
		return cached, nil
	}

	q := recordViewQuery().
		Where(sq.Eq{"r.game_id": gameID}).
		OrderBy("r.record_time_ms ASC", "r.id ASC")
	if f.CategoryID != nil {
		q = q.Where(sq.Expr("EXISTS (SELECT 1 FROM record_categories rc WHERE rc.record_id = r.id AND rc.category_id = ?)", *f.CategoryID))
	}
	if f.VersionID != nil {
		q = q.Where(sq.Eq{"r.version_id": *f.VersionID})
	}
	if f.Status != nil {
		q = q.Where(sq.Eq{"r.status": string(*f.Status)})
	}

	rows, err := s.queryViews(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no records for game %d with the given filters", ErrNotFound, gameID)
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}

	s.cache.Set(ctx, gameID, gen, variant, rows)
	return rows, nil
}

// changed drops cached boards of a game and notifies its watchers.
func (s *RecordService) changed(ctx context.Context, gameID uint, event string, recordID uint, status models.RecordStatus) {
	s.cache.InvalidateGame(ctx, gameID)
	payload := map[string]any{"record_id": recordID, "game_id": gameID}
	if status != "" {
		payload["status"] = status
	}
	s.events.Broadcast(gameID, hub.Event{Type: event, Payload: payload})
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	var out []uint
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
