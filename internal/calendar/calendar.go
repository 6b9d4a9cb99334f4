// Package calendar fiş listesi ve günlük rapor için ortak gün sınırlarını hesaplar.
package calendar

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// DayBounds date'in loc'taki gününü [00:00, ertesi gün 00:00) olarak döner.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	d := date.In(loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// ParseDay YYYY-MM-DD'yi loc'ta günün başlangıcına çevirir; boş ise now'un günü.
func ParseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if s == "" {
		from, _ := DayBounds(now, loc)
		return from, nil
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("geçersiz tarih %q: %w", s, err)
	}
	return d, nil
}
