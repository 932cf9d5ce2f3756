// Package provision creates borrower accounts for unauthenticated uploads.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
	"github.com/joseph-ayodele/loan-intake/internal/extract"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

// TemporaryPassword is the published first-login credential of every
// auto-provisioned account. Accounts carrying it must change it on login.
const TemporaryPassword = "password1234"

const DefaultMaxAttempts = 10

// ErrEmailTaken means the extracted email already belongs to an account; the
// caller should ask the borrower to sign in instead.
var ErrEmailTaken = errors.New("email already registered")

// Identity is the caller on whose behalf a document is processed.
type Identity struct {
	Authenticated bool
	AccountID     *uuid.UUID
}

// AccountRef is what the caller needs to sign the new borrower in.
type AccountRef struct {
	ID           uuid.UUID
	Username     string
	Email        *string
	ClientNumber string
}

type Config struct {
	MaxAttempts int
	BcryptCost  int
	Now         func() time.Time
}

type Provisioner struct {
	accounts repository.AccountRepository
	cfg      Config
	logger   *slog.Logger
}

func New(accounts repository.AccountRepository, cfg Config, logger *slog.Logger) *Provisioner {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{accounts: accounts, cfg: cfg, logger: logger}
}

// ProvisionIfNeeded creates an account for an unauthenticated caller. It
// returns nil for authenticated callers.
func (p *Provisioner) ProvisionIfNeeded(ctx context.Context, fields extract.FieldSet, id Identity) (*AccountRef, error) {
	return p.provision(ctx, fields, id, nil)
}

// ProvisionClaiming is ProvisionIfNeeded where the new account takes over the
// application and document named by claim in the same transaction. Either
// both happen or neither does, so a failed run can be retried.
func (p *Provisioner) ProvisionClaiming(ctx context.Context, fields extract.FieldSet, id Identity, claim repository.Claim) (*AccountRef, error) {
	return p.provision(ctx, fields, id, &claim)
}

func (p *Provisioner) provision(ctx context.Context, fields extract.FieldSet, id Identity, claim *repository.Claim) (*AccountRef, error) {
	if id.Authenticated {
		return nil, nil
	}

	var email *string
	if e, ok := fields.String(extract.FieldEmail); ok && strings.Contains(e, "@") {
		e = strings.ToLower(strings.TrimSpace(e))
		email = &e
		if _, err := p.accounts.GetByEmail(ctx, e); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(TemporaryPassword), p.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash temporary password: %w", err)
	}

	base := BaseUsername(email, p.cfg.Now())
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		taken, err := p.accounts.UsernamesWithPrefix(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("list usernames: %w", err)
		}
		ref, err := p.insert(ctx, NextUsername(base, taken), email, hash, claim)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, repository.ErrUniqueViolation) {
			return nil, err
		}
		if email != nil {
			if _, lookupErr := p.accounts.GetByEmail(ctx, *email); lookupErr == nil {
				return nil, ErrEmailTaken
			}
		}
		p.logger.Debug("provision.username_collision", "base", base, "attempt", attempt)
	}

	fallback := base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	p.logger.Warn("provision.attempts_exhausted", "base", base, "fallback", fallback)
	return p.insert(ctx, fallback, email, hash, claim)
}

func (p *Provisioner) insert(ctx context.Context, username string, email *string, hash []byte, claim *repository.Claim) (*AccountRef, error) {
	acc := &entity.Account{
		Username:           username,
		Email:              email,
		PasswordHash:       string(hash),
		Role:               constants.RoleBorrower,
		AutoProvisioned:    true,
		MustChangePassword: true,
	}
	var err error
	if claim != nil {
		err = p.accounts.InsertClaiming(ctx, acc, *claim)
	} else {
		err = p.accounts.Insert(ctx, acc)
	}
	if err != nil {
		return nil, err
	}
	p.logger.Info("provision.account_created", "account_id", acc.ID, "username", acc.Username, "client_number", acc.ClientNumber)
	return &AccountRef{ID: acc.ID, Username: acc.Username, Email: acc.Email, ClientNumber: acc.ClientNumber}, nil
}

// BaseUsername is the local part of email, or user_<unix seconds> when no
// usable email was extracted.
func BaseUsername(email *string, now time.Time) string {
	if email != nil {
		if local, _, ok := strings.Cut(*email, "@"); ok && local != "" {
			return strings.ToLower(local)
		}
	}
	return "user_" + strconv.FormatInt(now.Unix(), 10)
}

// NextUsername returns the lowest free name of base, base1, base2, ...
func NextUsername(base string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[strings.ToLower(t)] = true
	}
	if !used[base] {
		return base
	}
	for i := 1; ; i++ {
		if c := base + strconv.Itoa(i); !used[c] {
			return c
		}
	}
}

// CheckTemporaryPassword reports whether hash still holds the temporary
// credential.
func CheckTemporaryPassword(hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(TemporaryPassword)) == nil
}
