package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
)

const tableAccounts = "accounts"

var accountColumns = []string{
	"id", "username", "email", "password_hash", "role", "client_number",
	"auto_provisioned", "must_change_password", "created_at",
}

// AccountRepository stores borrower accounts.
type AccountRepository interface {
	// Insert stores acc. An empty ClientNumber is allocated in the same
	// transaction. Any unique collision returns ErrUniqueViolation.
	Insert(ctx context.Context, acc *entity.Account) error
	// InsertClaiming is Insert plus the ownership transfer named by claim, in
	// one transaction. If the transfer fails no account is stored.
	InsertClaiming(ctx context.Context, acc *entity.Account, claim Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	UsernamesWithPrefix(ctx context.Context, prefix string) ([]string, error)
	NextClientNumber(ctx context.Context) (string, error)
}

// Claim names the application, and optionally its source document, that a
// new account takes ownership of.
type Claim struct {
	ApplicationID uuid.UUID
	DocumentID    *uuid.UUID
}

type accountRepo struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewAccountRepository(drv *entsql.Driver, logger *slog.Logger) AccountRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountRepo{drv: drv, logger: logger}
}

func (r *accountRepo) Insert(ctx context.Context, acc *entity.Account) error {
	return r.insert(ctx, acc, nil)
}

func (r *accountRepo) InsertClaiming(ctx context.Context, acc *entity.Account, claim Claim) error {
	return r.insert(ctx, acc, &claim)
}

func (r *accountRepo) insert(ctx context.Context, acc *entity.Account, claim *Claim) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	if acc.Role == "" {
		acc.Role = constants.RoleBorrower
	}

	b := entsql.Dialect(r.drv.Dialect())
	clientNumber := acc.ClientNumber
	err := WithTx(ctx, r.drv, func(tx dialect.Tx) error {
		if clientNumber == "" {
			n, err := maxClientNumber(ctx, tx, b)
			if err != nil {
				return fmt.Errorf("allocate client number: %w", err)
			}
			clientNumber = constants.FormatClientNumber(n + 1)
		}
		var email any
		if acc.Email != nil {
			email = *acc.Email
		}
		ins := b.Insert(tableAccounts).
			Columns(accountColumns...).
			Values(acc.ID, acc.Username, email, acc.PasswordHash, acc.Role, clientNumber,
				acc.AutoProvisioned, acc.MustChangePassword, acc.CreatedAt)
		if err := execQ(ctx, tx, ins); err != nil {
			return err
		}
		if claim == nil {
			return nil
		}
		return reassignTx(ctx, tx, b, claim.ApplicationID, claim.DocumentID, acc.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug("account insert collided", "username", acc.Username, "error", err)
			return fmt.Errorf("insert account %q: %w", acc.Username, ErrUniqueViolation)
		}
		r.logger.Error("failed to insert account", "username", acc.Username, "error", err)
		return fmt.Errorf("insert account: %w", err)
	}
	acc.ClientNumber = clientNumber
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	acc, err := r.one(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return acc, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	acc, err := r.one(ctx, entsql.EQ("email", email))
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return acc, nil
}

// UsernamesWithPrefix lists the usernames starting with prefix.
func (r *accountRepo) UsernamesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	b := entsql.Dialect(r.drv.Dialect())
	q := b.Select("username").From(b.Table(tableAccounts)).Where(entsql.HasPrefix("username", prefix))
	var names []string
	err := queryQ(ctx, r.drv, q, func(rows *entsql.Rows) error {
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				return err
			}
			names = append(names, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	return names, nil
}

// NextClientNumber reports the number the next Insert would allocate. It is
// advisory; Insert allocates again inside its own transaction.
func (r *accountRepo) NextClientNumber(ctx context.Context) (string, error) {
	n, err := maxClientNumber(ctx, r.drv, entsql.Dialect(r.drv.Dialect()))
	if err != nil {
		return "", fmt.Errorf("next client number: %w", err)
	}
	return constants.FormatClientNumber(n + 1), nil
}

func maxClientNumber(ctx context.Context, x dialect.ExecQuerier, b *entsql.DialectBuilder) (int, error) {
	q := b.Select("client_number").From(b.Table(tableAccounts)).
		Where(entsql.HasPrefix("client_number", constants.ClientNumberPrefix))
	highest := 0
	err := queryQ(ctx, x, q, func(rows *entsql.Rows) error {
		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				return err
			}
			if n, ok := constants.ParseClientNumber(s); ok && n > highest {
				highest = n
			}
		}
		return nil
	})
	return highest, err
}

func (r *accountRepo) one(ctx context.Context, p *entsql.Predicate) (*entity.Account, error) {
	b := entsql.Dialect(r.drv.Dialect())
	q := b.Select(accountColumns...).From(b.Table(tableAccounts)).Where(p)
	var acc *entity.Account
	err := queryQ(ctx, r.drv, q, func(rows *entsql.Rows) error {
		if !rows.Next() {
			return common.ErrNotFound
		}
		var (
			a     entity.Account
			email sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Username, &email, &a.PasswordHash, &a.Role, &a.ClientNumber,
			&a.AutoProvisioned, &a.MustChangePassword, &a.CreatedAt); err != nil {
			return err
		}
		if email.Valid {
			a.Email = &email.String
		}
		acc = &a
		return nil
	})
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		r.logger.Error("failed to load account", "error", err)
	}
	return acc, err
}
