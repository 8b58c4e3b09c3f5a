package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

// AccountRepository reads and creates rows in the account service's tables.
// The schema is owned elsewhere; this subsystem only touches the columns it
// needs for identity resolution and claims assembly.
type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(phone, ''), username, COALESCE(role, ''), status, created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1;
	`

	return r.getOne(ctx, query, email)
}

func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(phone, ''), username, COALESCE(role, ''), status, created_at, updated_at
		FROM users
		WHERE phone = $1
		LIMIT 1;
	`

	return r.getOne(ctx, query, phone)
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(phone, ''), username, COALESCE(role, ''), status, created_at, updated_at
		FROM users
		WHERE id = $1
		LIMIT 1;
	`

	return r.getOne(ctx, query, id)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, query, arg)

	var account domain.Account
	err := row.Scan(&account.ID, &account.Email, &account.Phone, &account.Username,
		&account.Role, &account.Status, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	orgs, err := r.getOrgMemberships(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Orgs = orgs

	return &account, nil
}

func (r *AccountRepository) getOrgMemberships(ctx context.Context, userID string) ([]domain.OrgMembership, error) {
	rows, err := r.db.Query(ctx, `
		SELECT org_id, org_type, org_role
		FROM organization_members
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get org memberships: %w", err)
	}
	defer rows.Close()

	var orgs []domain.OrgMembership
	for rows.Next() {
		var m domain.OrgMembership
		if err := rows.Scan(&m.OrgID, &m.OrgType, &m.OrgRole); err != nil {
			return nil, fmt.Errorf("failed to scan org membership: %w", err)
		}
		orgs = append(orgs, m)
	}

	return orgs, rows.Err()
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, email, phone, username, role, status, created_at, updated_at)
        VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, $8)
    `, account.ID, account.Email, account.Phone, account.Username, account.Role,
		account.Status, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}
