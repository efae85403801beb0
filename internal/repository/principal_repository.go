package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

const principalColumns = "id,email,password_hash,role,display_name,phone,email_verified,is_banned,last_login_at,created_at,updated_at"

type PrincipalRepo struct{ DB *sql.DB }

func NewPrincipalRepo(db *sql.DB) *PrincipalRepo { return &PrincipalRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address the same way on every path.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts an unverified principal and returns its ID.  The caller
// supplies the bcrypt hash.
func (r *PrincipalRepo) Create(ctx context.Context, p model.Principal) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, display_name, phone) VALUES (?,?,?,?,?)",
		NormalizeEmail(p.Email), p.PasswordHash, p.Role, p.DisplayName, p.Phone)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert principal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a principal by normalized email.
func (r *PrincipalRepo) GetByEmail(ctx context.Context, email string) (model.Principal, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanPrincipal(row)
}

// GetByID fetches a principal by id.
func (r *PrincipalRepo) GetByID(ctx context.Context, id uint64) (model.Principal, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanPrincipal(row)
}

func (r *PrincipalRepo) MarkEmailVerified(ctx context.Context, id uint64) error {
	return r.execOne(ctx, "UPDATE users SET email_verified=1 WHERE id=?", id)
}

func (r *PrincipalRepo) UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.execOne(ctx, "UPDATE users SET last_login_at=? WHERE id=?", at.UTC(), id)
}

func (r *PrincipalRepo) UpdatePersonalInfo(ctx context.Context, id uint64, displayName, phone string) error {
	return r.execOne(ctx, "UPDATE users SET display_name=?, phone=? WHERE id=?", displayName, phone, id)
}

// execOne runs an UPDATE that must address an existing row.  MySQL reports
// zero affected rows when values are unchanged, so a miss is confirmed with
// a lookup before returning ErrNotFound.
func (r *PrincipalRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update principal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	id := args[len(args)-1]
	var one int
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanPrincipal(row *sql.Row) (model.Principal, error) {
	var (
		p         model.Principal
		lastLogin sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Role, &p.DisplayName, &p.Phone,
		&p.EmailVerified, &p.IsBanned, &lastLogin, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Principal{}, ErrNotFound
	}
	if err != nil {
		return model.Principal{}, fmt.Errorf("scan principal: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		p.LastLogin = &t
	}
	return p, nil
}
