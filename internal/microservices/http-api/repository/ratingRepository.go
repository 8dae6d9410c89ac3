package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ratings/internal/microservices/http-api/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("rating not found")
	ErrAlreadyVoted = errors.New("voter already rated this item")
)

// maxVoteAttempts bounds how often a vote transaction is replayed after
// losing a unique-key race to a concurrent vote on the same item.
const maxVoteAttempts = 3

// sortColumns maps accepted sort field names to real columns.
var sortColumns = map[string]string{
	"rid":        "rid",
	"id":         "rid",
	"module":     "module",
	"itemid":     "itemid",
	"item_id":    "itemid",
	"rating":     "rating",
	"average":    "rating",
	"numratings": "numratings",
	"count":      "numratings",
}

// ListFilter selects and orders aggregates. Zero values mean "no filter",
// "store order" and "no limit".
type ListFilter struct {
	Module    string
	SortField string
	Ascending bool
	Limit     int
}

// VoteParams carries one accepted vote into RecordVote.
type VoteParams struct {
	Key             models.ItemKey
	Value           int
	VoterKey        string
	LookupKeys      []string
	RejectDuplicate bool
}

type RatingRepository interface {
	GetByKey(ctx context.Context, key models.ItemKey) (*models.Rating, error)
	GetByID(ctx context.Context, id int64) (*models.Rating, error)
	List(ctx context.Context, filter ListFilter) ([]models.Rating, error)
	Count(ctx context.Context) (int64, error)
	HasVoted(ctx context.Context, voterKeys []string, key models.ItemKey) (bool, error)
	RecordVote(ctx context.Context, vote VoteParams) (*models.Rating, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// IsSortField reports whether name can be used as ListFilter.SortField.
func IsSortField(name string) bool {
	_, ok := sortColumns[strings.ToLower(name)]
	return ok
}

// GetByKey retrieves the aggregate for one item
func (r *ratingRepository) GetByKey(ctx context.Context, key models.ItemKey) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("module = ? AND itemid = ?", key.Module, key.ItemID).
		Take(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get rating %s: %w", key, err)
	}
	return &rating, nil
}

// GetByID retrieves an aggregate by its id
func (r *ratingRepository) GetByID(ctx context.Context, id int64) (*models.Rating, error) {
	var rating models.Rating
	if err := r.db.WithContext(ctx).Take(&rating, "rid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get rating %d: %w", id, err)
	}
	return &rating, nil
}

func (r *ratingRepository) List(ctx context.Context, filter ListFilter) ([]models.Rating, error) {
	q := r.db.WithContext(ctx).Model(&models.Rating{})
	if filter.Module != "" {
		q = q.Where("module = ?", filter.Module)
	}

	if filter.SortField != "" {
		column, ok := sortColumns[strings.ToLower(filter.SortField)]
		if !ok {
			return nil, fmt.Errorf("unknown sort field %q", filter.SortField)
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: !filter.Ascending})
	} else {
		q = q.Order("rid")
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	list := make([]models.Rating, 0)
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return list, nil
}

// Count returns the number of aggregates across all modules
func (r *ratingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Rating{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return count, nil
}

// HasVoted reports whether any of voterKeys is logged against key.
func (r *ratingRepository) HasVoted(ctx context.Context, voterKeys []string, key models.ItemKey) (bool, error) {
	voted, err := hasVoted(r.db.WithContext(ctx), voterKeys, key)
	if err != nil {
		return false, fmt.Errorf("check vote log: %w", err)
	}
	return voted, nil
}

// RecordVote folds one vote into the aggregate and logs the voter, atomically.
// With RejectDuplicate set it returns ErrAlreadyVoted when the voter is
// already logged, which closes the gap between an earlier HasVoted and the write.
func (r *ratingRepository) RecordVote(ctx context.Context, vote VoteParams) (*models.Rating, error) {
	var err error
	for attempt := 0; attempt < maxVoteAttempts; attempt++ {
		var rating *models.Rating
		rating, err = r.recordVote(ctx, vote)
		if err == nil {
			return rating, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("record vote on %s: retries exhausted: %w", vote.Key, err)
}

func (r *ratingRepository) recordVote(ctx context.Context, vote VoteParams) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		voted, err := hasVoted(tx, vote.LookupKeys, vote.Key)
		if err != nil {
			return fmt.Errorf("check vote log: %w", err)
		}
		if voted && vote.RejectDuplicate {
			return ErrAlreadyVoted
		}

		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err = q.Where("module = ? AND itemid = ?", vote.Key.Module, vote.Key.ItemID).Take(&rating).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating = models.Rating{Module: vote.Key.Module, ItemID: vote.Key.ItemID}
			rating.Fold(vote.Value)
			if err := tx.Create(&rating).Error; err != nil {
				return fmt.Errorf("insert rating: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load rating: %w", err)
		default:
			rating.Fold(vote.Value)
			if err := tx.Save(&rating).Error; err != nil {
				return fmt.Errorf("update rating: %w", err)
			}
		}

		if !voted {
			entry := models.VoteLog{
				VoterKey: vote.VoterKey,
				Module:   vote.Key.Module,
				ItemID:   vote.Key.ItemID,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("insert vote log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func hasVoted(db *gorm.DB, voterKeys []string, key models.ItemKey) (bool, error) {
	if len(voterKeys) == 0 {
		return false, nil
	}
	var n int64
	err := db.Model(&models.VoteLog{}).
		Where("userid IN ? AND module = ? AND itemid = ?", voterKeys, key.Module, key.ItemID).
		Count(&n).Error
	return n > 0, err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
