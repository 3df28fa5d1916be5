package user

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v4/stdlib"

	"bboard/pkg/common"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func (r *UserRepo) Add(u *User) (int64, error) {
	var userID int64
	err := r.db.QueryRow(
		"INSERT INTO users(username, display_name, password) VALUES($1, $2, $3) RETURNING id",
		u.Username, u.DisplayName, u.Password).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("user/repo: user wasn't added: %w", err)
	}
	return userID, nil
}

func (r *UserRepo) GetByUsernameAndPass(uname string, pass string) (*User, error) {
	row := r.db.QueryRow(
		"SELECT id, username, display_name, password FROM users where username=$1", uname)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.DisplayName, &u.Password); err != nil {
		return nil, fmt.Errorf("user/repo: row scan failed: %w", err)
	}
	// User found by username, now check if passwords are the same
	salt := string(u.Password[0:8])
	if !bytes.Equal(common.HashPass(pass, salt), u.Password) {
		return nil, errors.New("user/repo: password is invalid")
	}
	return u, nil
}

func (r *UserRepo) UserExists(uname string) bool {
	row := r.db.QueryRow("SELECT id FROM users where username=$1", uname)
	u := new(User)
	if err := row.Scan(&u.Id); err != nil {
		if err != sql.ErrNoRows {
			log.Printf("user/repo: could not scan row: %v", err)
		}
		return false
	}
	return true
}

func (r *UserRepo) GetById(ctx context.Context, uid int64) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, username, display_name FROM users where id=$1", uid)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.DisplayName); err != nil {
		return u, fmt.Errorf("user/repo: could not scan row: %w", err)
	}
	return u, nil
}

func (r *UserRepo) UpdateDisplayName(ctx context.Context, uid int64, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET display_name = $1 WHERE id = $2", displayName, uid)
	if err != nil {
		return fmt.Errorf("user/repo: failed updating display name: %w", err)
	}
	return nil
}

// Returns all users. Used only for seeding the DB.
func (r *UserRepo) GetAll() ([]*User, error) {
	rows, err := r.db.Query("SELECT id, username, display_name, password FROM users")
	if err != nil {
		return nil, fmt.Errorf("user/repo: failed executing query for getting all users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u := new(User)
		err := rows.Scan(&u.Id, &u.Username, &u.DisplayName, &u.Password)
		if err != nil {
			return nil, fmt.Errorf("user/repo: could not scan row: %w", err)
		}
		users = append(users, u)
	}

	return users, nil
}
