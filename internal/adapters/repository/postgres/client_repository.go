package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
	pgdb "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

// ClientRepository は PostgreSQL を利用したクライアント永続化の実装です。
type ClientRepository struct {
	pool pgdb.Queryer
}

// NewClientRepository は ClientRepository を生成します。
func NewClientRepository(pool pgdb.Queryer) *ClientRepository {
	return &ClientRepository{pool: pool}
}

const clientColumns = `id, name, contact_person, email, phone, city, postcode, finance_contact, active, created_at, updated_at`

// Create はクライアントを新規作成します。
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO clients (name, contact_person, email, phone, city, postcode, finance_contact, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+clientColumns+`
    `,
		c.Name,
		c.ContactPerson,
		c.Email,
		c.Phone,
		c.City,
		c.Postcode,
		c.FinanceContact,
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	)

	created, err := scanClient(row)
	if err != nil {
		return nil, translateClientPgError(err)
	}
	return created, nil
}

// Update はクライアントを更新します。
func (r *ClientRepository) Update(ctx context.Context, c *client.Client) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE clients
           SET name = $1,
               contact_person = $2,
               email = $3,
               phone = $4,
               city = $5,
               postcode = $6,
               finance_contact = $7,
               active = $8,
               updated_at = $9
         WHERE id = $10
        RETURNING `+clientColumns+`
    `,
		c.Name,
		c.ContactPerson,
		c.Email,
		c.Phone,
		c.City,
		c.Postcode,
		c.FinanceContact,
		c.Active,
		c.UpdatedAt,
		c.ID,
	)

	updated, err := scanClient(row)
	if err != nil {
		return nil, translateClientPgError(err)
	}
	return updated, nil
}

// Delete はクライアントを削除します。
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return translateClientPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrClientNotFound
	}
	return nil
}

// FindByID は ID でクライアントを取得します。
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+clientColumns+`
          FROM clients
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanClient(row)
	if err != nil {
		return nil, translateClientPgError(err)
	}
	return found, nil
}

// FindByName は名称でクライアントを取得します。
func (r *ClientRepository) FindByName(ctx context.Context, name string) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+clientColumns+`
          FROM clients
         WHERE name = $1
         LIMIT 1
    `, name)

	found, err := scanClient(row)
	if err != nil {
		return nil, translateClientPgError(err)
	}
	return found, nil
}

// List はクライアントの一覧を取得します。
func (r *ClientRepository) List(ctx context.Context, filter client.ListClientsFilter) ([]*client.Client, string, error) {
	if filter.Limit <= 0 {
		return nil, "", client.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", client.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	whereClause := ""
	args := make([]any, 0, 2)
	if filter.ActiveOnly {
		whereClause = " WHERE active = TRUE"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + clientColumns + `
          FROM clients` + whereClause + `
         ORDER BY name ASC, id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateClientPgError(err)
	}
	defer rows.Close()

	clients := make([]*client.Client, 0, filter.Limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, "", translateClientPgError(err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateClientPgError(err)
	}

	var nextToken string
	if len(clients) == limitWithBuffer {
		clients = clients[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return clients, nextToken, nil
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var (
		id             string
		name           string
		contactPerson  string
		email          string
		phone          string
		city           string
		postcode       string
		financeContact string
		active         bool
		createdAt      time.Time
		updatedAt      time.Time
	)

	if err := row.Scan(
		&id,
		&name,
		&contactPerson,
		&email,
		&phone,
		&city,
		&postcode,
		&financeContact,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, client.ErrClientNotFound
		}
		return nil, err
	}

	return &client.Client{
		ID:             id,
		Name:           name,
		ContactPerson:  contactPerson,
		Email:          email,
		Phone:          phone,
		City:           city,
		Postcode:       postcode,
		FinanceContact: financeContact,
		Active:         active,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func translateClientPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return client.ErrNameAlreadyExists
		}
	}
	return err
}
