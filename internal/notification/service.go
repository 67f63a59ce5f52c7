package notification

import (
	"context"
	"fmt"

	authrepo "rolodex-backend/internal/auth/repository"
	syncusecase "rolodex-backend/internal/sync/usecase"
	"rolodex-backend/pkg/fcm"

	"go.uber.org/zap"
)

// Service pushes a summary to the user's devices when one of their syncs
// finishes.
type Service struct {
	fcmRepo   authrepo.FCMTokenRepository
	fcmClient *fcm.Client
	logger    *zap.Logger
}

// NewService creates a new notification service instance
func NewService(fcmRepo authrepo.FCMTokenRepository, fcmClient *fcm.Client, logger *zap.Logger) *Service {
	return &Service{
		fcmRepo:   fcmRepo,
		fcmClient: fcmClient,
		logger:    logger.Named("notification"),
	}
}

// SyncCompleted sends the sync summary as a push notification. Delivery is
// best effort; a notification failure never fails the sync.
func (s *Service) SyncCompleted(ctx context.Context, userID string, result *syncusecase.Result) {
	if s.fcmClient == nil {
		return
	}

	tokens, err := s.fcmRepo.GetTokensByUserID(userID)
	if err != nil {
		s.logger.Error("failed to load device tokens", zap.String("userId", userID), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	contacts := result.EmailContacts + result.CalendarContacts
	failedTokens, err := s.fcmClient.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
		Title: "Contacts synced",
		Body:  notificationBody(contacts, result.Interactions),
		Data: map[string]string{
			"type":         "sync_completed",
			"contacts":     fmt.Sprintf("%d", contacts),
			"interactions": fmt.Sprintf("%d", result.Interactions),
			"click_action": "/contacts",
		},
	})
	if err != nil {
		s.logger.Error("failed to send sync notification", zap.String("userId", userID), zap.Error(err))
		return
	}

	// Cleanup failed tokens
	for _, token := range failedTokens {
		if err := s.fcmRepo.DeleteToken(token); err != nil {
			s.logger.Warn("failed to prune stale device token", zap.Error(err))
		}
	}
}

func notificationBody(contacts, interactions int) string {
	if contacts == 0 && interactions == 0 {
		return "Your contacts are up to date."
	}
	return fmt.Sprintf("Synced %d contacts and %d interactions.", contacts, interactions)
}
