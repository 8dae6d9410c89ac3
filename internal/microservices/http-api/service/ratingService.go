package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ratings/internal/identity"
	"ratings/internal/microservices/http-api/models"
	"ratings/internal/microservices/http-api/repository"
	"ratings/internal/permission"
)

// PermissionChecker answers capability questions for a caller.
type PermissionChecker interface {
	Check(caller identity.Caller, component, instance string, level permission.Level) bool
}

// SessionFlags holds the "already rated in this session" marker for the
// caller's session. ClaimRated sets it atomically and reports whether this
// call was the one that set it.
type SessionFlags interface {
	ClaimRated(ctx context.Context, key models.ItemKey) (bool, error)
	ReleaseRated(ctx context.Context, key models.ItemKey) error
}

// VoteObserver receives the outcome of every RateItem call.
type VoteObserver interface {
	ObserveVote(result string, elapsed time.Duration)
}

// Lookup selects one aggregate, either by (Module, ItemID) or by ID.
type Lookup struct {
	Module string
	ItemID string
	ID     int64
}

type ListQuery struct {
	Module        string
	SortField     string
	SortDirection string
	MaxItems      int
}

type RateRequest struct {
	Module  string
	ItemID  string
	Rating  *int
	Caller  identity.Caller
	Policy  DuplicatePolicy
	Session SessionFlags
}

// RateResult is the outcome of an accepted or rejected vote. Rating is nil
// when the vote was rejected as a duplicate.
type RateResult struct {
	Accepted bool
	Rating   *models.Rating
}

// Vote outcomes reported to the VoteObserver.
const (
	VoteAccepted = "accepted"
	VoteRejected = "rejected"
	VoteInvalid  = "invalid"
	VoteDenied   = "denied"
	VoteError    = "error"
)

type RatingService interface {
	GetRating(ctx context.Context, caller identity.Caller, lookup Lookup) (*models.Rating, error)
	ListRatings(ctx context.Context, caller identity.Caller, query ListQuery) ([]models.Rating, error)
	CountRatings(ctx context.Context) (int64, error)
	RateItem(ctx context.Context, req RateRequest) (*RateResult, error)
}

type ratingService struct {
	repo     repository.RatingRepository
	perms    PermissionChecker
	observer VoteObserver
	logger   *slog.Logger
}

func NewRatingService(repo repository.RatingRepository, perms PermissionChecker, observer VoteObserver, logger *slog.Logger) RatingService {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ratingService{
		repo:     repo,
		perms:    perms,
		observer: observer,
		logger:   logger,
	}
}

// NormalizeDirection returns "ASC" only for the literal "ASC"; anything else is "DESC".
func NormalizeDirection(direction string) string {
	if direction == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// GetRating returns the aggregate selected by lookup, or nil when nothing has been rated yet.
func (s *ratingService) GetRating(ctx context.Context, caller identity.Caller, lookup Lookup) (*models.Rating, error) {
	var (
		rating *models.Rating
		err    error
	)
	switch {
	case lookup.Module != "" && lookup.ItemID != "":
		if !s.canRead(caller, lookup.Module, lookup.ItemID) {
			return nil, ErrPermissionDenied
		}
		rating, err = s.repo.GetByKey(ctx, models.ItemKey{Module: lookup.Module, ItemID: lookup.ItemID})
	case lookup.ID > 0:
		rating, err = s.repo.GetByID(ctx, lookup.ID)
	default:
		return nil, fmt.Errorf("%w: module and item id, or a rating id, are required", ErrInvalidArgument)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if !s.canRead(caller, rating.Module, rating.ItemID) {
		return nil, ErrPermissionDenied
	}
	return rating, nil
}

// ListRatings returns the aggregates the caller may see. A caller without
// overview access on the module gets an empty list rather than an error.
func (s *ratingService) ListRatings(ctx context.Context, caller identity.Caller, query ListQuery) ([]models.Rating, error) {
	if !s.perms.Check(caller, permission.Component, permission.Instance(query.Module, ""), permission.LevelOverview) {
		s.logger.DebugContext(ctx, "list_ratings_not_permitted", "module", query.Module)
		return []models.Rating{}, nil
	}

	if query.SortField != "" && !repository.IsSortField(query.SortField) {
		return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidArgument, query.SortField)
	}

	list, err := s.repo.List(ctx, repository.ListFilter{
		Module:    query.Module,
		SortField: query.SortField,
		Ascending: NormalizeDirection(query.SortDirection) == "ASC",
		Limit:     query.MaxItems,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	visible := make([]models.Rating, 0, len(list))
	for _, r := range list {
		if s.perms.Check(caller, permission.Component, permission.Instance(r.Module, r.ItemID), permission.LevelOverview) {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

func (s *ratingService) CountRatings(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return n, nil
}

// RateItem records one vote and returns the new aggregate.
// A duplicate vote is not an error: it yields RateResult{Accepted: false}.
func (s *ratingService) RateItem(ctx context.Context, req RateRequest) (*RateResult, error) {
	start := time.Now()
	outcome := VoteError
	defer func() {
		s.observer.ObserveVote(outcome, time.Since(start))
	}()

	if req.Module == "" || req.ItemID == "" || req.Rating == nil {
		outcome = VoteInvalid
		return nil, fmt.Errorf("%w: module, item id and rating are required", ErrInvalidArgument)
	}
	if !req.Policy.Valid() {
		outcome = VoteInvalid
		return nil, fmt.Errorf("%w: unknown duplicate policy %q", ErrInvalidArgument, req.Policy)
	}
	if req.Policy == PolicyMedium && req.Session == nil {
		outcome = VoteInvalid
		return nil, fmt.Errorf("%w: policy %q needs a session", ErrInvalidArgument, req.Policy)
	}

	key := models.ItemKey{Module: req.Module, ItemID: req.ItemID}
	if !s.canRead(req.Caller, key.Module, key.ItemID) {
		outcome = VoteDenied
		return nil, ErrPermissionDenied
	}

	voterKey := req.Caller.VoterKey()
	if voterKey == "" {
		outcome = VoteInvalid
		return nil, fmt.Errorf("%w: caller has neither a user id nor a network address", ErrInvalidArgument)
	}
	lookupKeys := req.Caller.LookupKeys()

	alreadyVoted, err := s.repo.HasVoted(ctx, lookupKeys, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	switch req.Policy {
	case PolicyHigh:
		if alreadyVoted {
			outcome = VoteRejected
			s.logger.InfoContext(ctx, "vote_rejected_duplicate", "item", key.String(), "policy", req.Policy)
			return &RateResult{Accepted: false}, nil
		}
	case PolicyMedium:
		claimed, err := req.Session.ClaimRated(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: session flag: %w", ErrStorage, err)
		}
		if !claimed {
			outcome = VoteRejected
			s.logger.InfoContext(ctx, "vote_rejected_duplicate", "item", key.String(), "policy", req.Policy)
			return &RateResult{Accepted: false}, nil
		}
		defer func() {
			if outcome == VoteAccepted {
				return
			}
			if err := req.Session.ReleaseRated(context.WithoutCancel(ctx), key); err != nil {
				s.logger.WarnContext(ctx, "session_flag_not_released", "item", key.String(), "error", err)
			}
		}()
	}

	value := *req.Rating
	if value < 0 || value > 100 {
		outcome = VoteInvalid
		return nil, fmt.Errorf("%w: %d is outside 0..100", ErrInvalidInput, value)
	}

	rating, err := s.repo.RecordVote(ctx, repository.VoteParams{
		Key:             key,
		Value:           value,
		VoterKey:        voterKey,
		LookupKeys:      lookupKeys,
		RejectDuplicate: req.Policy == PolicyHigh,
	})
	if errors.Is(err, repository.ErrAlreadyVoted) {
		outcome = VoteRejected
		s.logger.InfoContext(ctx, "vote_rejected_duplicate", "item", key.String(), "policy", req.Policy)
		return &RateResult{Accepted: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	outcome = VoteAccepted
	s.logger.InfoContext(ctx, "vote_accepted",
		"item", key.String(),
		"average", rating.Average,
		"count", rating.Count,
	)
	return &RateResult{Accepted: true, Rating: rating}, nil
}

func (s *ratingService) canRead(caller identity.Caller, module, itemID string) bool {
	return s.perms.Check(caller, permission.Component, permission.Instance(module, itemID), permission.LevelRead)
}

type noopObserver struct{}

func (noopObserver) ObserveVote(string, time.Duration) {}
