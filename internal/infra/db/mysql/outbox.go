package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "heavenly/internal/app/outbox"
	"heavenly/internal/app/uow"
	relay "heavenly/internal/infra/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// OutboxStore persists staged events in the app_outbox table. Add writes
// through the ambient unit's transaction when one is present, so events
// commit or roll back together with the rows they describe.
type OutboxStore struct {
	DB *gorm.DB
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{DB: db}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := OutboxModel{
		ID:            record.ID,
		Name:          record.Name,
		Payload:       record.Payload,
		OccurredAt:    record.OccurredAt,
		Aggregate:     record.Aggregate,
		Headers:       headers,
		State:         stateNew,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	return s.db(ctx).Create(&row).Error
}

// Flush is a no-op: staged rows become visible at transaction commit and
// the relay worker picks them up from there.
func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*relay.EventRow, error) {
	var row OutboxModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("state IN ? AND next_attempt_at <= ?", []string{stateNew, stateFailed}, now).
			Order("next_attempt_at ASC").
			Take(&row).Error
		if err != nil {
			return err
		}
		return tx.Model(&OutboxModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"state":      stateClaimed,
				"claimed_by": workerID,
				"claimed_at": now,
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	headers := map[string]string{}
	if len(row.Headers) > 0 {
		if err := json.Unmarshal(row.Headers, &headers); err != nil {
			headers = map[string]string{}
		}
	}
	return &relay.EventRow{
		ID:          row.ID,
		Name:        row.Name,
		Payload:     row.Payload,
		OccurredAt:  row.OccurredAt,
		Aggregate:   row.Aggregate,
		Headers:     headers,
		State:       stateClaimed,
		Attempts:    row.Attempts,
		NextAttempt: row.NextAttemptAt,
		LastError:   row.LastError,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return s.DB.WithContext(ctx).
		Model(&OutboxModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"state": stateSent, "sent_at": now}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return s.DB.WithContext(ctx).
		Model(&OutboxModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"state":           stateFailed,
			"attempts":        gorm.Expr("attempts + 1"),
			"next_attempt_at": next,
			"last_error":      errMsg,
		}).Error
}

// db prefers the transaction of the ambient unit of work.
func (s *OutboxStore) db(ctx context.Context) *gorm.DB {
	if unit, ok := uow.FromContext(ctx); ok {
		if u, ok := unit.(*Unit); ok {
			return u.tx.WithContext(ctx)
		}
	}
	return s.DB.WithContext(ctx)
}

var _ appoutbox.Outbox = (*OutboxStore)(nil)
var _ relay.RelayStore = (*OutboxStore)(nil)
