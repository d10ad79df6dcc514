package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradesync/internal/market/state"

	"gorm.io/gorm/clause"
)

// ErrDuplicate is returned when an event with the same ID is already archived.
var ErrDuplicate = errors.New("duplicate event")

func (p *PostgresClient) InsertSignal(ctx context.Context, record *SignalRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: signal %s", ErrDuplicate, record.EventID)
	}
	return nil
}

func (p *PostgresClient) InsertInsight(ctx context.Context, record *InsightRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: insight %s", ErrDuplicate, record.EventID)
	}
	return nil
}

// DeleteEventsBefore prunes signals and insights stamped before the cutoff.
func (p *PostgresClient) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	sig := p.DB.WithContext(ctx).Where("at < ?", before).Delete(&SignalRecord{})
	if sig.Error != nil {
		return 0, fmt.Errorf("prune signals: %w", sig.Error)
	}
	ins := p.DB.WithContext(ctx).Where("at < ?", before).Delete(&InsightRecord{})
	if ins.Error != nil {
		return sig.RowsAffected, fmt.Errorf("prune insights: %w", ins.Error)
	}
	return sig.RowsAffected + ins.RowsAffected, nil
}

// ToSignalRecord converts a signal into a SignalRecord for DB insertion.
func ToSignalRecord(s state.Signal) (*SignalRecord, error) {
	if s.ID == "" {
		return nil, errors.New("signal has no id")
	}
	return &SignalRecord{
		EventID:    s.ID,
		Symbol:     s.Symbol,
		Sentiment:  string(s.Sentiment),
		Status:     string(s.Status),
		Price:      s.Price,
		Confidence: s.Confidence,
		Reason:     s.Reason,
		At:         s.At.UTC(),
	}, nil
}

// ToInsightRecord converts an insight into an InsightRecord for DB insertion.
func ToInsightRecord(in state.Insight) (*InsightRecord, error) {
	if in.ID == "" {
		return nil, errors.New("insight has no id")
	}
	return &InsightRecord{
		EventID:    in.ID,
		Symbol:     in.Symbol,
		Sentiment:  string(in.Sentiment),
		Status:     string(in.Status),
		Title:      in.Title,
		Body:       in.Body,
		Confidence: in.Confidence,
		At:         in.At.UTC(),
	}, nil
}
