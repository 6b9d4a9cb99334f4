// Package report günlük satış raporunu üretir.
package report

import (
	"context"
	"fmt"
	"time"

	"pos-backend/internal/calendar"
	"pos-backend/internal/models"
)

const DateLayout = calendar.DateLayout

// Source fişleri tarih aralığına göre okuyan depo (sales.Store).
type Source interface {
	FindTransactionsByDate(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
	SumSubtotalsBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type Aggregator struct {
	src Source
	loc *time.Location
}

func NewAggregator(src Source, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{src: src, loc: loc}
}

func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// DayBounds verilen günün [00:00, ertesi gün 00:00) aralığı.
func (a *Aggregator) DayBounds(date time.Time) (time.Time, time.Time) {
	return calendar.DayBounds(date, a.loc)
}

// ParseDate YYYY-MM-DD; boş ise bugün.
func (a *Aggregator) ParseDate(s string, now time.Time) (time.Time, error) {
	return calendar.ParseDay(s, now, a.loc)
}

func (a *Aggregator) ListForDate(ctx context.Context, date time.Time) ([]models.Transaction, error) {
	from, to := a.DayBounds(date)
	list, err := a.src.FindTransactionsByDate(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("günlük fişler okunamadı: %w", err)
	}
	return list, nil
}

func (a *Aggregator) TotalForDate(ctx context.Context, date time.Time) (int64, error) {
	from, to := a.DayBounds(date)
	total, err := a.src.SumSubtotalsBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("günlük toplam hesaplanamadı: %w", err)
	}
	return total, nil
}
