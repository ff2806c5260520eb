// Package forms разбирает поля HTML-форм. Ошибок не возвращает: пустое или
// кривое значение молча заменяется значением по умолчанию (0, nil, сегодня).
package forms

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const DateLayout = "2006-01-02"

// Getter: источник значений, обычно (*gin.Context).PostForm.
type Getter func(key string) string

type Form struct {
	get Getter
}

func New(get Getter) Form {
	return Form{get: get}
}

func (f Form) String(key string) string {
	return strings.TrimSpace(f.get(key))
}

// OptionalString возвращает nil для пустого поля.
func (f Form) OptionalString(key string) *string {
	s := f.String(key)
	if s == "" {
		return nil
	}
	return &s
}

// Int читает неотрицательное целое, иначе 0.
func (f Form) Int(key string) int {
	n, err := strconv.Atoi(f.String(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Float читает конечное неотрицательное число, иначе 0. Запятая как
// разделитель тоже годится.
func (f Form) Float(key string) float64 {
	s := strings.ReplaceAll(f.String(key), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ID читает внешний ключ; пустой или некорректный даёт nil.
func (f Form) ID(key string) *uint {
	n, err := strconv.ParseUint(f.String(key), 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	id := uint(n)
	return &id
}

// Date читает дату в формате YYYY-MM-DD или nil.
func (f Form) Date(key string) *datatypes.Date {
	t, err := ParseDate(f.String(key))
	if err != nil {
		return nil
	}
	d := datatypes.Date(t)
	return &d
}

// DateOr работает как Date, но с запасным значением.
func (f Form) DateOr(key string, def time.Time) datatypes.Date {
	if d := f.Date(key); d != nil {
		return *d
	}
	return datatypes.Date(Day(def))
}

// ParseDate разбирает YYYY-MM-DD в полночь UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// Day обрезает время до полуночи UTC того же календарного дня.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
