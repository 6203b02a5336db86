package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	db "github.com/moskvinegor321/Project-analyzer/internal/core/database"
	"github.com/moskvinegor321/Project-analyzer/internal/core/telegram"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

var ErrReviewNotFound = errors.New("review not found")

// Notion decision values.
const (
	DecisionPending   = "Pending"
	DecisionApproved  = "Approved"
	DecisionRejected  = "Rejected"
	DecisionNeedsInfo = "Needs info"
)

// Callback answers shown to the moderator.
const (
	answerDone      = "✅"
	answerUnknown   = "Unknown action"
	answerNotFound  = "Request not found"
	answerForbidden = "Not allowed"
)

type ReviewOptions struct {
	Reviewers          []string // usernames without "@"; empty allows everyone
	NeedsInfoOnComment bool
}

// ReviewService applies moderator decisions coming from the review channel.
type ReviewService struct {
	kv       core.KVStore
	notion   *NotionPublisher
	notifier core.Notifier
	opts     ReviewOptions
	now      func() time.Time
	log      *slog.Logger
}

func NewReviewService(kv core.KVStore, notion *NotionPublisher, notifier core.Notifier, opts ReviewOptions, log *slog.Logger) *ReviewService {
	reviewers := make([]string, 0, len(opts.Reviewers))
	for _, r := range opts.Reviewers {
		reviewers = append(reviewers, strings.ToLower(strings.TrimPrefix(r, "@")))
	}
	opts.Reviewers = reviewers
	return &ReviewService{
		kv:       kv,
		notion:   notion,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		log:      log.With("component", "review"),
	}
}

func (s *ReviewService) Get(ctx context.Context, id string) (*models.ReviewRequest, error) {
	var review models.ReviewRequest
	found, err := db.GetJSON(ctx, s.kv, ReviewKey(id), &review)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrReviewNotFound
	}
	return &review, nil
}

// HandleCallback processes one inline-button press. Problems are reported to the moderator
// through the callback answer; only storage failures are returned.
func (s *ReviewService) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	id, action, ok := telegram.ParseAction(cb.Data)
	if !ok {
		s.answer(ctx, cb.ID, answerUnknown)
		return nil
	}
	moderator := telegram.Moderator(cb)
	log := s.log.With("requestId", id, "action", action, "moderator", moderator)

	review, err := s.Get(ctx, id)
	if errors.Is(err, ErrReviewNotFound) {
		s.answer(ctx, cb.ID, answerNotFound)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load review %s: %w", id, err)
	}

	if !s.allowed(moderator) {
		log.Warn("moderator not in reviewer list")
		s.answer(ctx, cb.ID, answerForbidden)
		return nil
	}

	s.apply(review, action, moderator)
	if err := db.SetJSON(ctx, s.kv, ReviewKey(id), review, recordTTL); err != nil {
		return fmt.Errorf("store review %s: %w", id, err)
	}

	if review.NotionPageID != "" {
		props := s.notion.Properties().DecisionUpdate(review.Decision, action, moderator, s.now())
		if err := s.notion.RecordDecision(ctx, review.NotionPageID, props); err != nil {
			log.Warn("notion decision update failed", "err", err)
		}
	}

	s.answer(ctx, cb.ID, answerDone)
	log.Info("review decision recorded", "decision", review.Decision)
	return nil
}

func (s *ReviewService) apply(review *models.ReviewRequest, action, moderator string) {
	switch action {
	case telegram.ActionApprove:
		review.Decision = DecisionApproved
		review.Status = models.ReviewApproved
	case telegram.ActionReject:
		review.Decision = DecisionRejected
		review.Status = models.ReviewRejected
	case telegram.ActionAdd:
		if s.opts.NeedsInfoOnComment {
			review.Decision = DecisionNeedsInfo
			review.Status = models.ReviewNeedsInfo
		}
	}
	if review.Decision == "" {
		review.Decision = DecisionPending
	}
	review.LastAction = action
	review.LastModerator = moderator
}

func (s *ReviewService) allowed(username string) bool {
	if len(s.opts.Reviewers) == 0 {
		return true
	}
	return slices.Contains(s.opts.Reviewers, strings.ToLower(username))
}

func (s *ReviewService) answer(ctx context.Context, callbackID, text string) {
	if err := s.notifier.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		s.log.Warn("callback answer failed", "err", err)
	}
}
