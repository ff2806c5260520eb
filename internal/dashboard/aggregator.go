// Package dashboard считает счётчики и суммы для дашбордов. Только чтение.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"office-portal/internal/forms"
	"office-portal/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const SeriesDays = 7

type Aggregator struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

type roleCount struct {
	Role  models.UserRole
	Count int64
}

// UsersByRole считает пользователей по каждой роли, отсутствующие роли = 0.
func (a *Aggregator) UsersByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	var rows []roleCount
	err := a.db.WithContext(ctx).Model(&models.User{}).
		Select("role, count(*) as count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}

	out := make(map[models.UserRole]int64, len(models.AllRoles))
	for _, r := range models.AllRoles {
		out[r] = 0
	}
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

type statusCount struct {
	Status models.TaskStatus
	Count  int64
}

func (a *Aggregator) countByStatus(ctx context.Context, model any, statuses []models.TaskStatus, where ...any) (map[models.TaskStatus]int64, error) {
	q := a.db.WithContext(ctx).Model(model).Select("status, count(*) as count").Group("status")
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	var rows []statusCount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[models.TaskStatus]int64, len(statuses))
	for _, s := range statuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (a *Aggregator) TasksByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	out, err := a.countByStatus(ctx, &models.Task{}, models.TaskStatuses)
	if err != nil {
		return nil, fmt.Errorf("tasks by status: %w", err)
	}
	return out, nil
}

func (a *Aggregator) IjroByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	out, err := a.countByStatus(ctx, &models.IjroTask{}, models.IjroStatuses)
	if err != nil {
		return nil, fmt.Errorf("ijro by status: %w", err)
	}
	return out, nil
}

// ContractTotal суммирует все договоры; пустая таблица даёт 0.
func (a *Aggregator) ContractTotal(ctx context.Context) (float64, error) {
	var total float64
	err := a.db.WithContext(ctx).Model(&models.Contract{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("contract total: %w", err)
	}
	return total, nil
}

// SolarEnergyOn суммирует выработку всех станций за день.
func (a *Aggregator) SolarEnergyOn(ctx context.Context, day time.Time) (float64, error) {
	var total float64
	err := a.db.WithContext(ctx).Model(&models.SolarReading{}).
		Select("COALESCE(SUM(energy_kwh), 0)").
		Where("date = ?", datatypes.Date(forms.Day(day))).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("solar energy on %s: %w", day.Format(forms.DateLayout), err)
	}
	return total, nil
}

type DayEnergy struct {
	Date      string  `json:"date"`
	EnergyKWh float64 `json:"energy_kwh"`
}

// SolarSeries возвращает выработку по дням за days дней, заканчивая end; старые дни первыми,
// дни без показаний = 0.
func (a *Aggregator) SolarSeries(ctx context.Context, end time.Time, days int) ([]DayEnergy, error) {
	last := forms.Day(end)
	first := last.AddDate(0, 0, -(days - 1))

	var readings []models.SolarReading
	err := a.db.WithContext(ctx).
		Select("date", "energy_kwh").
		Where("date >= ? AND date <= ?", datatypes.Date(first), datatypes.Date(last)).
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("solar series: %w", err)
	}

	sums := make(map[string]float64, days)
	for _, r := range readings {
		sums[forms.Day(time.Time(r.Date).UTC()).Format(forms.DateLayout)] += r.EnergyKWh
	}

	series := make([]DayEnergy, 0, days)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(forms.DateLayout)
		series = append(series, DayEnergy{Date: key, EnergyKWh: sums[key]})
	}
	return series, nil
}
