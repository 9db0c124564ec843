package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/quantmind-br/adenotifier-go/internal/manifest"
	"github.com/quantmind-br/adenotifier-go/internal/source"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
)

// Notifier closes the OPEN manifests of a source
type Notifier struct {
	client domain.StateClient
	logger *utils.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(client domain.StateClient, logger *utils.Logger) (*Notifier, error) {
	if client == nil {
		return nil, errors.New("notifier: state client is required")
	}
	return &Notifier{
		client: client,
		logger: logger.OrNop().WithComponent("notifier"),
	}, nil
}

// NotifyManifests notifies every OPEN manifest of the source, in search
// order. Having no OPEN manifest is not an error. A failure on one manifest
// does not stop the others: the notified manifests are returned together
// with the joined failures.
func (n *Notifier) NotifyManifests(ctx context.Context, src *source.Datasource) ([]*manifest.Manifest, error) {
	if err := validateSource(src); err != nil {
		return nil, err
	}

	key := src.Key()
	logger := n.logger.WithSource(src.ID, key.System, key.Entity)

	records, err := n.client.Search(ctx, key, domain.StateOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to search open manifests: %w", err)
	}

	notified := []*manifest.Manifest{}
	if len(records) == 0 {
		logger.Warn().Msg("Open manifests not found when attempting to notify")
		return notified, nil
	}

	var errs []error
	for _, record := range records {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs = append(errs, ctxErr)
			break
		}

		m := manifest.New(n.client, key, src.Parameters(), n.logger)
		if err := m.Fetch(ctx, record.ID); err != nil {
			logger.Error().Err(err).Str("manifest_id", record.ID).Msg("Failed to fetch manifest")
			errs = append(errs, fmt.Errorf("fetch manifest %s: %w", record.ID, err))
			continue
		}
		if err := m.Notify(ctx); err != nil {
			logger.Error().Err(err).Str("manifest_id", record.ID).Msg("Failed to notify manifest")
			errs = append(errs, fmt.Errorf("notify manifest %s: %w", record.ID, err))
			continue
		}

		logger.Info().Str("manifest_id", m.ID).Msg("Notified manifest")
		notified = append(notified, m)
	}

	return notified, errors.Join(errs...)
}
