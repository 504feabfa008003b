package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

const leadColumns = `id, telegram_id, username, full_name, service_type, country,
	city_from, cargo_type, weight_kg, volume_m3, urgency, incoterms,
	declared_value, phone, comment, status, created_at, updated_at`

// SaveLead вставляет новую заявку и возвращает её ID.
// Статус NEW и отметка времени выставляются атомарно с самой вставкой.
func (db *DB) SaveLead(ctx context.Context, lead *models.Lead) (int64, error) {
	if !db.Available() {
		return 0, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int64
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO leads
			(telegram_id, username, full_name, service_type, country, city_from,
			 cargo_type, weight_kg, volume_m3, urgency, incoterms,
			 declared_value, phone, comment, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,'NEW')
		RETURNING id`,
		lead.TelegramID, lead.Username, lead.FullName, lead.ServiceType,
		lead.Country, lead.CityFrom, lead.CargoType, lead.WeightKg,
		lead.VolumeM3, lead.Urgency, lead.Incoterms, lead.DeclaredValue,
		lead.Phone, lead.Comment,
	).Scan(&id)
	if err != nil {
		db.markDown(err)
		return 0, fmt.Errorf("не удалось сохранить лид: %w", err)
	}
	return id, nil
}

// GetLead возвращает лид по ID; (nil, nil) если такого нет
func (db *DB) GetLead(ctx context.Context, id int64) (*models.Lead, error) {
	if !db.Available() {
		return nil, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		db.markDown(err)
		return nil, fmt.Errorf("не удалось прочитать лид #%d: %w", id, err)
	}
	return lead, nil
}

// ListLeads возвращает последние limit лидов, новые первыми
func (db *DB) ListLeads(ctx context.Context, limit int) ([]*models.Lead, error) {
	return db.queryLeads(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC LIMIT $1`, limit)
}

// ExportAllLeads возвращает все лиды, новые первыми
func (db *DB) ExportAllLeads(ctx context.Context) ([]*models.Lead, error) {
	return db.queryLeads(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
}

// UpdateLeadStatus меняет статус и обновляет updated_at.
// Возвращает false, если лид с таким ID не найден.
func (db *DB) UpdateLeadStatus(ctx context.Context, id int64, status string) (bool, error) {
	if !db.Available() {
		return false, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		db.markDown(err)
		return false, fmt.Errorf("не удалось обновить статус #%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (db *DB) queryLeads(ctx context.Context, query string, args ...any) ([]*models.Lead, error) {
	if !db.Available() {
		return nil, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		db.markDown(err)
		return nil, fmt.Errorf("не удалось получить лиды: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var l models.Lead
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&l.ID, &l.TelegramID, &l.Username, &l.FullName, &l.ServiceType,
		&l.Country, &l.CityFrom, &l.CargoType, &l.WeightKg, &l.VolumeM3,
		&l.Urgency, &l.Incoterms, &l.DeclaredValue, &l.Phone, &l.Comment,
		&l.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.CreatedAt = createdAt
	l.UpdatedAt = updatedAt
	return &l, nil
}
