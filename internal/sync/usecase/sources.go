package usecase

import (
	"context"
	"fmt"

	integrationdomain "rolodex-backend/internal/integration/domain"
	integrationrepo "rolodex-backend/internal/integration/repository"
	"rolodex-backend/pkg/crypto"
	"rolodex-backend/pkg/gcal"
	"rolodex-backend/pkg/gmail"
	"rolodex-backend/pkg/imapmail"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// providerSourceFactory opens real provider connections for an integration.
type providerSourceFactory struct {
	gmail         *gmail.Service
	gcal          *gcal.Service
	imap          *imapmail.Service
	integrations  integrationrepo.IntegrationRepository
	encryptionKey string
	logger        *zap.Logger
}

// NewSourceFactory creates a new source factory instance
func NewSourceFactory(
	gmailSvc *gmail.Service,
	gcalSvc *gcal.Service,
	imapSvc *imapmail.Service,
	integrations integrationrepo.IntegrationRepository,
	encryptionKey string,
	logger *zap.Logger,
) SourceFactory {
	return &providerSourceFactory{
		gmail:         gmailSvc,
		gcal:          gcalSvc,
		imap:          imapSvc,
		integrations:  integrations,
		encryptionKey: encryptionKey,
		logger:        logger.Named("sources"),
	}
}

func (f *providerSourceFactory) Sources(ctx context.Context, integration *integrationdomain.Integration, mock bool) (*Sources, error) {
	if mock {
		return fixtureSources(integration.EmailAddress), nil
	}

	switch integration.Provider {
	case integrationdomain.ProviderGoogle:
		return f.googleSources(ctx, integration)
	case integrationdomain.ProviderIMAP:
		return f.imapSources(ctx, integration)
	default:
		return nil, fmt.Errorf("unknown provider %q", integration.Provider)
	}
}

func (f *providerSourceFactory) googleSources(ctx context.Context, integration *integrationdomain.Integration) (*Sources, error) {
	// Persist rotated tokens immediately so a crash mid-sync cannot strand
	// the integration with stale credentials.
	onRefresh := func(token *oauth2.Token) error {
		integration.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			integration.RefreshToken = token.RefreshToken
		}
		f.logger.Info("persisting refreshed token", zap.String("grantId", integration.ID))
		return f.integrations.Update(integration)
	}

	messages, err := f.gmail.MessageSource(ctx, integration.AccessToken, integration.RefreshToken, onRefresh)
	if err != nil {
		return nil, err
	}
	events, err := f.gcal.EventSource(ctx, integration.AccessToken, integration.RefreshToken, onRefresh)
	if err != nil {
		return nil, err
	}

	return &Sources{Messages: messages, Events: events}, nil
}

func (f *providerSourceFactory) imapSources(ctx context.Context, integration *integrationdomain.Integration) (*Sources, error) {
	password, err := crypto.Decrypt(integration.ImapPassword, f.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt IMAP password: %w", err)
	}

	source, err := f.imap.MessageSource(ctx, integration.ImapServer, integration.ImapPort, integration.EmailAddress, password)
	if err != nil {
		return nil, err
	}

	return &Sources{
		Messages: source,
		Close: func() {
			if err := source.Close(); err != nil {
				f.logger.Warn("failed to close IMAP connection", zap.Error(err))
			}
		},
	}, nil
}
