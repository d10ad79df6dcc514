package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalRecord is an archived trading signal.
type SignalRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	EventID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_signal_event_id"`

	Symbol     string          `gorm:"type:text;not null;index:idx_signal_symbol_at"`
	Sentiment  string          `gorm:"type:varchar(16);not null"`
	Status     string          `gorm:"type:varchar(16);not null"`
	Price      decimal.Decimal `gorm:"type:numeric;not null"`
	Confidence float64         `gorm:"not null"`
	Reason     string          `gorm:"type:text"`

	At time.Time `gorm:"not null;index:idx_signal_symbol_at"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (SignalRecord) TableName() string {
	return "signal_record"
}

// InsightRecord is an archived analysis note.
type InsightRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	EventID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_insight_event_id"`

	Symbol     string  `gorm:"type:text;index:idx_insight_symbol"`
	Sentiment  string  `gorm:"type:varchar(16);not null"`
	Status     string  `gorm:"type:varchar(16);not null"`
	Title      string  `gorm:"type:text;not null"`
	Body       string  `gorm:"type:text"`
	Confidence float64 `gorm:"not null"`

	At time.Time `gorm:"not null;index:idx_insight_at"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (InsightRecord) TableName() string {
	return "insight_record"
}
