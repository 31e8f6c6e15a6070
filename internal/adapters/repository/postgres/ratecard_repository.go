package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
	pgdb "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

// RateCardRepository は PostgreSQL を利用したレート表永続化の実装です。
// numeric 列は text として読み取り decimal に変換します。
type RateCardRepository struct {
	pool pgdb.Queryer
}

// NewRateCardRepository は RateCardRepository を生成します。
func NewRateCardRepository(pool pgdb.Queryer) *RateCardRepository {
	return &RateCardRepository{pool: pool}
}

const rateCardColumns = `id, client_id, job_role_id, effective_date, end_date, active,
               client_day_rate::text, client_night_rate::text, client_weekend_rate::text, client_bank_holiday_rate::text,
               worker_day_rate::text, worker_night_rate::text, worker_weekend_rate::text, worker_bank_holiday_rate::text,
               notes, created_at, updated_at`

// Create はレート表を新規作成します。
func (r *RateCardRepository) Create(ctx context.Context, card *ratecard.RateCard) (*ratecard.RateCard, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO rate_cards (
            client_id, job_role_id, effective_date, end_date, active,
            client_day_rate, client_night_rate, client_weekend_rate, client_bank_holiday_rate,
            worker_day_rate, worker_night_rate, worker_weekend_rate, worker_bank_holiday_rate,
            notes, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING `+rateCardColumns+`
    `,
		card.ClientID,
		card.JobRoleID,
		card.EffectiveDate,
		nullableTime(card.EndDate),
		card.Active,
		card.ClientRates.Day.StringFixed(2),
		card.ClientRates.Night.StringFixed(2),
		card.ClientRates.Weekend.StringFixed(2),
		card.ClientRates.BankHoliday.StringFixed(2),
		card.WorkerRates.Day.StringFixed(2),
		card.WorkerRates.Night.StringFixed(2),
		card.WorkerRates.Weekend.StringFixed(2),
		card.WorkerRates.BankHoliday.StringFixed(2),
		card.Notes,
		card.CreatedAt,
		card.UpdatedAt,
	)

	created, err := scanRateCard(row)
	if err != nil {
		return nil, translateRateCardPgError(err)
	}
	return created, nil
}

// Update はレート表を更新します。
func (r *RateCardRepository) Update(ctx context.Context, card *ratecard.RateCard) (*ratecard.RateCard, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE rate_cards
           SET end_date = $1,
               active = $2,
               client_day_rate = $3,
               client_night_rate = $4,
               client_weekend_rate = $5,
               client_bank_holiday_rate = $6,
               worker_day_rate = $7,
               worker_night_rate = $8,
               worker_weekend_rate = $9,
               worker_bank_holiday_rate = $10,
               notes = $11,
               updated_at = $12
         WHERE id = $13
        RETURNING `+rateCardColumns+`
    `,
		nullableTime(card.EndDate),
		card.Active,
		card.ClientRates.Day.StringFixed(2),
		card.ClientRates.Night.StringFixed(2),
		card.ClientRates.Weekend.StringFixed(2),
		card.ClientRates.BankHoliday.StringFixed(2),
		card.WorkerRates.Day.StringFixed(2),
		card.WorkerRates.Night.StringFixed(2),
		card.WorkerRates.Weekend.StringFixed(2),
		card.WorkerRates.BankHoliday.StringFixed(2),
		card.Notes,
		card.UpdatedAt,
		card.ID,
	)

	updated, err := scanRateCard(row)
	if err != nil {
		return nil, translateRateCardPgError(err)
	}
	return updated, nil
}

// FindByID は ID でレート表を取得します。
func (r *RateCardRepository) FindByID(ctx context.Context, id string) (*ratecard.RateCard, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+rateCardColumns+`
          FROM rate_cards
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanRateCard(row)
	if err != nil {
		return nil, translateRateCardPgError(err)
	}
	return found, nil
}

// ListForClientRole はクライアントと職種のレート表をすべて取得します。
func (r *RateCardRepository) ListForClientRole(ctx context.Context, clientID, jobRoleID string) ([]*ratecard.RateCard, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+rateCardColumns+`
          FROM rate_cards
         WHERE client_id = $1 AND job_role_id = $2
         ORDER BY effective_date DESC, id DESC
    `, clientID, jobRoleID)
	if err != nil {
		return nil, translateRateCardPgError(err)
	}
	defer rows.Close()

	cards := make([]*ratecard.RateCard, 0)
	for rows.Next() {
		card, err := scanRateCard(rows)
		if err != nil {
			return nil, translateRateCardPgError(err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, translateRateCardPgError(err)
	}

	return cards, nil
}

// List はレート表の一覧を取得します。
func (r *RateCardRepository) List(ctx context.Context, filter ratecard.ListRateCardsFilter) ([]*ratecard.RateCard, string, error) {
	if filter.Limit <= 0 {
		return nil, "", ratecard.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", ratecard.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.ClientID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "client_id = "+placeholder)
		args = append(args, filter.ClientID)
	}

	if filter.JobRoleID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "job_role_id = "+placeholder)
		args = append(args, filter.JobRoleID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + rateCardColumns + `
          FROM rate_cards` + whereClause + `
         ORDER BY effective_date DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateRateCardPgError(err)
	}
	defer rows.Close()

	cards := make([]*ratecard.RateCard, 0, filter.Limit)
	for rows.Next() {
		card, err := scanRateCard(rows)
		if err != nil {
			return nil, "", translateRateCardPgError(err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateRateCardPgError(err)
	}

	var nextToken string
	if len(cards) == limitWithBuffer {
		cards = cards[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return cards, nextToken, nil
}

func scanRateCard(row pgx.Row) (*ratecard.RateCard, error) {
	var (
		id            string
		clientID      string
		jobRoleID     string
		effectiveDate time.Time
		endDate       sql.NullTime
		active        bool
		clientRates   [4]string
		workerRates   [4]string
		notes         string
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id,
		&clientID,
		&jobRoleID,
		&effectiveDate,
		&endDate,
		&active,
		&clientRates[0],
		&clientRates[1],
		&clientRates[2],
		&clientRates[3],
		&workerRates[0],
		&workerRates[1],
		&workerRates[2],
		&workerRates[3],
		&notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ratecard.ErrRateCardNotFound
		}
		return nil, err
	}

	client, err := parseRates(clientRates)
	if err != nil {
		return nil, err
	}

	worker, err := parseRates(workerRates)
	if err != nil {
		return nil, err
	}

	return &ratecard.RateCard{
		ID:            id,
		ClientID:      clientID,
		JobRoleID:     jobRoleID,
		EffectiveDate: effectiveDate,
		EndDate:       timePtrFromNull(endDate),
		Active:        active,
		ClientRates:   client,
		WorkerRates:   worker,
		Notes:         notes,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func parseRates(raw [4]string) (ratecard.Rates, error) {
	day, err := decimal.NewFromString(raw[0])
	if err != nil {
		return ratecard.Rates{}, err
	}
	night, err := decimal.NewFromString(raw[1])
	if err != nil {
		return ratecard.Rates{}, err
	}
	weekend, err := decimal.NewFromString(raw[2])
	if err != nil {
		return ratecard.Rates{}, err
	}
	bankHoliday, err := decimal.NewFromString(raw[3])
	if err != nil {
		return ratecard.Rates{}, err
	}

	return ratecard.Rates{Day: day, Night: night, Weekend: weekend, BankHoliday: bankHoliday}, nil
}

func translateRateCardPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if strings.Contains(pgErr.ConstraintName, "client") {
				return ratecard.ErrClientNotFound
			}
			return ratecard.ErrJobRoleNotFound
		case checkViolationCode:
			return ratecard.ErrInvalidRate
		}
	}
	return err
}
