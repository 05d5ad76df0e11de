package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

const inboxLimit = 10

type MessageStore interface {
	CreateMessage(ctx context.Context, userID int64, text string) (*model.Message, error)
	ListRecent(ctx context.Context, limit int) ([]model.Message, error)
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error
}

// AdminNotifier pushes a note to each listed admin.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, adminIDs []int64, text string) error
}

type AdminRoster interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// MessageService is the participant-to-admin inbox. New messages are
// stored and every admin gets a notification.
type MessageService struct {
	store    MessageStore
	roster   AdminRoster
	notifier AdminNotifier
	log      zerolog.Logger
}

func NewMessageService(store MessageStore, roster AdminRoster, notifier AdminNotifier, log zerolog.Logger) *MessageService {
	return &MessageService{store: store, roster: roster, notifier: notifier, log: log}
}

func (s *MessageService) Submit(ctx context.Context, principal model.Principal, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrInvalidInput)
	}

	message, err := s.store.CreateMessage(ctx, principal.UserID, text)
	if err != nil {
		return nil, err
	}

	// Notification failure must not fail the submission.
	adminIDs, err := s.roster.AdminIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list admins for message notification")
		return message, nil
	}
	note := fmt.Sprintf("message from %s (%d): %s", principal.Username, principal.UserID, text)
	if err := s.notifier.NotifyAdmins(ctx, adminIDs, note); err != nil {
		s.log.Error().Err(err).
			Str("message_id", message.ID.String()).
			Msg("notify admins about message")
	}
	return message, nil
}

// Inbox returns the ten most recent messages.
func (s *MessageService) Inbox(ctx context.Context) ([]model.Message, error) {
	return s.store.ListRecent(ctx, inboxLimit)
}

func (s *MessageService) Delete(ctx context.Context, messageID uuid.UUID) error {
	err := s.store.DeleteMessage(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
