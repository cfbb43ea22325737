package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/mattn/go-sqlite3"
)

type (
	// Role is the closed set of roles a principal can hold. It never
	// changes through the auth core itself, only through administrative
	// commands.
	Role string

	// Principal is a registered account. Email is the natural key,
	// case-sensitive as stored.
	Principal struct {
		ID           int64
		Email        string
		PasswordHash string
		IsActive     bool
		Role         Role
	}

	// Store gives access to persisted principals. It only writes during
	// registration, every other caller treats it as read-only.
	Store struct {
		db *sql.DB
	}
)

const (
	RoleAdmin = Role("admin")
	RoleUser  = Role("user")

	ScopeAdmin = "admin"
	ScopeUser  = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Scopes computes the scopes granted at token issuance time. The switch is
// exhaustive over the closed role set.
func (r Role) Scopes() []string {
	switch r {
	case RoleAdmin:
		return []string{ScopeAdmin, ScopeUser}
	case RoleUser:
		return []string{ScopeUser}
	}
	return nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Setup creates the principal table. Safe to call on every startup.
func (s *Store) Setup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `create table if not exists principals(
		principal_id integer primary key autoincrement,
		email text not null unique,
		email_hash64 integer not null,
		password_hash text not null,
		is_active integer not null default 1,
		role text not null);
	create index if not exists idx_principals_email_hash64 on principals(email_hash64)`)
	if err != nil {
		return fmt.Errorf("unable to create principals table, cause %w", err)
	}
	return nil
}

// FindByEmail returns the principal registered under email, or nil when
// there is none. Absence is not an error at this layer.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	var p Principal
	var active int
	err := s.db.QueryRowContext(ctx,
		`select principal_id, email, password_hash, is_active, role
		from principals where email_hash64 = ? and email = ?`,
		emailHash64(email), email).Scan(&p.ID, &p.Email, &p.PasswordHash, &active, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to load principal %v, cause %w", email, err)
	}
	p.IsActive = active != 0
	return &p, nil
}

func (s *Store) insert(ctx context.Context, p *Principal) error {
	res, err := s.db.ExecContext(ctx,
		`insert into principals (email, email_hash64, password_hash, is_active, role) values (?, ?, ?, ?, ?)`,
		p.Email, emailHash64(p.Email), p.PasswordHash, boolToInt(p.IsActive), string(p.Role))
	if isUniqueViolation(err) {
		// concurrent registrations race here, exactly one wins
		return ErrDuplicateIdentity
	} else if err != nil {
		return fmt.Errorf("unable to store principal %v, cause %w", p.Email, err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("unable to read id of principal %v, cause %w", p.Email, err)
	}
	return nil
}

// SetActive flips the active flag of an existing principal.
func (s *Store) SetActive(ctx context.Context, email string, active bool) error {
	return s.updateOne(ctx,
		`update principals set is_active = ? where email_hash64 = ? and email = ?`,
		email, boolToInt(active), emailHash64(email), email)
}

// SetRole changes the role of an existing principal. Outstanding tokens
// keep the scopes they were issued with until they expire.
func (s *Store) SetRole(ctx context.Context, email string, role Role) error {
	if !role.Valid() {
		return UnknownRole{Role: string(role)}
	}
	return s.updateOne(ctx,
		`update principals set role = ? where email_hash64 = ? and email = ?`,
		email, string(role), emailHash64(email), email)
}

// Remove deletes the principal. Tokens already issued for it stop
// authenticating on their next use.
func (s *Store) Remove(ctx context.Context, email string) error {
	return s.updateOne(ctx,
		`delete from principals where email_hash64 = ? and email = ?`,
		email, emailHash64(email), email)
}

func (s *Store) updateOne(ctx context.Context, stmt string, email string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("unable to update principal %v, cause %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to update principal %v, cause %w", email, err)
	}
	if n == 0 {
		return PrincipalNotFound{Email: email}
	}
	return nil
}

type (
	// PrincipalNotFound indicates an administrative operation against an
	// email with no principal behind it.
	PrincipalNotFound struct {
		Email string
	}
)

func (p PrincipalNotFound) Error() string {
	return fmt.Sprintf("principal %v not found", p.Email)
}

func emailHash64(email string) int64 {
	return int64(xxhash.Sum64String(email))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code == sqlite3.ErrConstraint
}
