package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"
)

// Store persists accounts in the users table.
type Store struct {
	db      *sql.DB
	cost    int
	compare func(hash, pw []byte) error
	// dummyHash is compared against when a username is unknown so the
	// lookup costs the same as a wrong password.
	dummyHash func() ([]byte, error)
}

func newStore(db *sql.DB, cost int) *Store {
	return &Store{
		db:      db,
		cost:    cost,
		compare: bcrypt.CompareHashAndPassword,
		dummyHash: sync.OnceValues(func() ([]byte, error) {
			return bcrypt.GenerateFromPassword([]byte("mediacat-unknown-user"), cost)
		}),
	}
}

// NewStore creates an account store using bcrypt.DefaultCost.
func NewStore(db *sql.DB) *Store {
	return newStore(db, bcrypt.DefaultCost)
}

// WithCost returns a copy of the store hashing with the given bcrypt cost.
func (s *Store) WithCost(cost int) *Store {
	return newStore(s.db, cost)
}

func (s *Store) hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

const userColumns = "id, username, role, active, password"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &role, &u.Active, &u.hash); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

func (s *Store) insert(ctx context.Context, username, pw string, role Role) (*User, error) {
	h, err := s.hash(pw)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, role, active) VALUES (?, ?, ?, 1)`,
		username, h, string(role))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return &User{ID: id, Username: username, Role: role, Active: true, hash: h}, nil
}

func checkNewAccount(username, pw string) error {
	if strings.TrimSpace(username) == "" || pw == "" {
		return ErrFieldsRequired
	}
	if strings.EqualFold(strings.TrimSpace(username), RootUsername) {
		return ErrUsernameReserved
	}
	return nil
}

// Register creates a self-service account with the user role.
func (s *Store) Register(ctx context.Context, username, pw string) (*User, error) {
	if err := checkNewAccount(username, pw); err != nil {
		return nil, err
	}
	return s.insert(ctx, strings.TrimSpace(username), pw, RoleUser)
}

// Create makes an account on behalf of the root user. Only the user and
// admin roles may be assigned.
func (s *Store) Create(ctx context.Context, username, pw string, role Role) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, ErrInvalidRole
	}
	if err := checkNewAccount(username, pw); err != nil {
		return nil, err
	}
	return s.insert(ctx, strings.TrimSpace(username), pw, role)
}

// EnsureRoot creates the root account if no account holds the root role.
// An empty pw generates a random password, which is returned so the
// caller can show it once. created is false when root already existed.
func (s *Store) EnsureRoot(ctx context.Context, pw string) (generated string, created bool, err error) {
	var id int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE role = ? LIMIT 1`, string(RoleRoot)).Scan(&id)
	if err == nil {
		return "", false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("find root: %w", err)
	}

	if pw == "" {
		pw, err = password.Generate(20, 4, 0, false, true)
		if err != nil {
			return "", false, fmt.Errorf("generate root password: %w", err)
		}
		generated = pw
	}
	if _, err := s.insert(ctx, RootUsername, pw, RoleRoot); err != nil {
		return "", false, err
	}
	return generated, true, nil
}

// Authenticate checks a username and password. Disabled accounts are rejected
// even with the right password.
func (s *Store) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		if h, herr := s.dummyHash(); herr == nil {
			_ = s.compare(h, []byte(pw))
		}
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if s.compare([]byte(u.hash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

// Get returns an account by ID.
func (s *Store) Get(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername returns an account by its exact username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

// List returns accounts matching f, ordered by id.
func (s *Store) List(ctx context.Context, f Filter) ([]*User, error) {
	var conditions []string
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		conditions = append(conditions, "username LIKE ?")
		args = append(args, "%"+q+"%")
	}
	if f.Role.Valid() {
		conditions = append(conditions, "role = ?")
		args = append(args, string(f.Role))
	}
	switch f.Status {
	case StatusActive:
		conditions = append(conditions, "active = 1")
	case StatusDisabled:
		conditions = append(conditions, "active = 0")
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ToggleActive flips an account between active and disabled and returns
// the updated account. The root account cannot be toggled.
func (s *Store) ToggleActive(ctx context.Context, id int64) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == RoleRoot {
		return nil, ErrRootImmutable
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET active = NOT active WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("toggle user %d: %w", id, err)
	}
	u.Active = !u.Active
	return u, nil
}
