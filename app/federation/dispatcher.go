package federation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/castfeed/castfeed/app/database"
)

// ErrAlreadyTerminal is returned when a federated post is resolved a second
// time. The first terminal state always wins; callers treat this as a
// benign no-op.
var ErrAlreadyTerminal = errors.New("federated post is already in a terminal state")

// ErrNotFound is returned when the federated post id is unknown
var ErrNotFound = errors.New("federated post not found")

// Outcome is the result of one out-of-band publish attempt against an
// external platform.
type Outcome struct {
	Published      bool
	ExternalPostID string
	ExternalURL    string
	ErrorMessage   string
}

// Publisher performs the actual network publish to one external platform.
// It is an external collaborator: the dispatcher records delivery state but
// never publishes anything itself.
type Publisher interface {
	Publish(ctx context.Context, post database.Post, connectedAccountID string) (Outcome, error)
}

// Dispatcher creates fan-out records for a local post and applies their
// terminal transitions as publish attempts report back. Each target's
// lifecycle is independent of its siblings.
type Dispatcher struct {
	federated database.FederationRepository
}

func NewDispatcher(federated database.FederationRepository) *Dispatcher {
	return &Dispatcher{federated: federated}
}

// Dispatch creates one pending record per target account and returns
// immediately. No external calls happen here.
func (d *Dispatcher) Dispatch(localPostID string, accountIDs []string) ([]database.FederatedPost, error) {
	rows := make([]database.FederatedPost, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		rows = append(rows, database.FederatedPost{
			ID:                 uuid.New().String(),
			LocalPostID:        localPostID,
			ConnectedAccountID: accountID,
		})
	}

	created, err := d.federated.CreatePending(rows)
	if err != nil {
		return created, fmt.Errorf("failed to create fan-out records: %w", err)
	}

	slog.Info("Federation targets created", "post_id", localPostID, "targets", len(created))

	return created, nil
}

// Resolve applies the single allowed transition out of pending. Resolving a
// record that already reached a terminal state returns ErrAlreadyTerminal
// and leaves the row untouched.
func (d *Dispatcher) Resolve(id string, outcome Outcome) error {
	var updated bool
	var err error
	if outcome.Published {
		updated, err = d.federated.MarkPublished(id, outcome.ExternalPostID, outcome.ExternalURL, time.Now().UTC())
	} else {
		updated, err = d.federated.MarkFailed(id, outcome.ErrorMessage)
	}
	if err != nil {
		return err
	}

	if !updated {
		existing, err := d.federated.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		slog.Debug("Duplicate federation resolution ignored", "id", id, "status", existing.Status)
		return ErrAlreadyTerminal
	}

	return nil
}

// Status returns the per-target delivery state of a post's fan-out.
func (d *Dispatcher) Status(localPostID string) ([]database.FederatedPost, error) {
	return d.federated.ListByPost(localPostID)
}
