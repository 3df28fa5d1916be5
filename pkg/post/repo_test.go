package post

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var (
	testBoard   = "free"
	testUserID  = int64(1)
	testCreated = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
)

func listColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "display_name", "views", "created_at"})
}

func postColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "board_type", "title", "content", "user_id", "display_name", "views", "created_at",
	})
}

func TestList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()

	r := NewPostRepo(db)

	t.Run("first page of many", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT COUNT").
			WithArgs(testBoard, "%%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.
			ExpectQuery("SELECT p.id, p.title").
			WithArgs(testBoard, "%%", 10, 0).
			WillReturnRows(listColumns().
				AddRow(25, "latest", "Rob", 3, testCreated).
				AddRow(24, "older", "Ken", 0, testCreated))

		page, err := r.List(context.TODO(), testBoard, NewListQuery("1", ""))
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, 25, page.TotalCount)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 25, page.StartNumber)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, &ListItem{Id: 25, Title: "latest", Writer: "Rob", Views: 3, Created: testCreated},
			page.Items[0])
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("search narrows the count and the rows", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT COUNT").
			WithArgs(testBoard, "%hello%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.
			ExpectQuery("SELECT p.id, p.title").
			WithArgs(testBoard, "%hello%", 10, 0).
			WillReturnRows(listColumns().AddRow(7, "hello there", "Rob", 0, testCreated))

		page, err := r.List(context.TODO(), testBoard, NewListQuery("1", "hello"))
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, 1, page.TotalCount)
		assert.Equal(t, "hello", page.Search)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("page past the end is empty, not an error", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT COUNT").
			WithArgs(testBoard, "%%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.
			ExpectQuery("SELECT p.id, p.title").
			WithArgs(testBoard, "%%", 10, 20).
			WillReturnRows(listColumns())

		page, err := r.List(context.TODO(), testBoard, NewListQuery("3", ""))
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Empty(t, page.Items)
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, -15, page.StartNumber)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("malformed page falls back to 1", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT COUNT").
			WithArgs(testBoard, "%%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.
			ExpectQuery("SELECT p.id, p.title").
			WithArgs(testBoard, "%%", 10, 0).
			WillReturnRows(listColumns())

		page, err := r.List(context.TODO(), testBoard, NewListQuery("banana", ""))
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, 1, page.Page)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("count error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectQuery("SELECT COUNT").
			WithArgs(testBoard, "%%").
			WillReturnError(expectedErr)

		_, err := r.List(context.TODO(), testBoard, NewListQuery("1", ""))
		assert.ErrorIs(t, err, expectedErr)
	})

	t.Run("select error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectQuery("SELECT COUNT").
			WithArgs(testBoard, "%%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.
			ExpectQuery("SELECT p.id, p.title").
			WithArgs(testBoard, "%%", 10, 0).
			WillReturnError(expectedErr)

		_, err := r.List(context.TODO(), testBoard, NewListQuery("1", ""))
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestAdd(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()

	r := NewPostRepo(db)

	t.Run("should insert and return the new id", func(t *testing.T) {
		mock.
			ExpectQuery("INSERT INTO posts").
			WithArgs(testBoard, "Hello", "World", testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		id, err := r.Add(context.TODO(), testBoard, testUserID, "Hello", "World")
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, int64(42), id)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("should return insert error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectQuery("INSERT INTO posts").
			WithArgs(testBoard, "Hello", "World", testUserID).
			WillReturnError(expectedErr)

		_, err := r.Add(context.TODO(), testBoard, testUserID, "Hello", "World")
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestGetAndCountView(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()

	r := NewPostRepo(db)

	t.Run("bumps views then returns the post", func(t *testing.T) {
		mock.
			ExpectExec("UPDATE posts SET views").
			WithArgs(int64(42), testBoard).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.
			ExpectQuery("SELECT p.id, p.board_type").
			WithArgs(int64(42), testBoard).
			WillReturnRows(postColumns().
				AddRow(42, testBoard, "Hello", "World", testUserID, "Rob", 1, testCreated))

		p, err := r.GetAndCountView(context.TODO(), testBoard, 42)
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, &Post{
			Id: 42, BoardType: testBoard, Title: "Hello", Content: "World",
			UserId: testUserID, Writer: "Rob", Views: 1, Created: testCreated,
		}, p)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("missing post: increment hits zero rows, fetch reports not found", func(t *testing.T) {
		mock.
			ExpectExec("UPDATE posts SET views").
			WithArgs(int64(404), testBoard).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.
			ExpectQuery("SELECT p.id, p.board_type").
			WithArgs(int64(404), testBoard).
			WillReturnError(sql.ErrNoRows)

		_, err := r.GetAndCountView(context.TODO(), testBoard, 404)
		assert.ErrorIs(t, err, ErrPostNotFound)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("increment error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectExec("UPDATE posts SET views").
			WithArgs(int64(42), testBoard).
			WillReturnError(expectedErr)

		_, err := r.GetAndCountView(context.TODO(), testBoard, 42)
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestGetOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()

	r := NewPostRepo(db)

	t.Run("owner gets the post", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT p.id, p.board_type").
			WithArgs(int64(42), testBoard, testUserID).
			WillReturnRows(postColumns().
				AddRow(42, testBoard, "Hello", "World", testUserID, "Rob", 0, testCreated))

		p, err := r.GetOwned(context.TODO(), testBoard, 42, testUserID)
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, int64(42), p.Id)
		assert.Equal(t, testUserID, p.UserId)
	})

	t.Run("stranger and missing post look the same", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT p.id, p.board_type").
			WithArgs(int64(42), testBoard, int64(2)).
			WillReturnError(sql.ErrNoRows)

		_, err := r.GetOwned(context.TODO(), testBoard, 42, 2)
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}

func TestUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()

	r := NewPostRepo(db)

	t.Run("owner updates", func(t *testing.T) {
		mock.
			ExpectExec("UPDATE posts SET title").
			WithArgs("Hi", "World", int64(42), testBoard, testUserID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := r.Update(context.TODO(), testBoard, 42, testUserID, "Hi", "World")
		assert.Nil(t, err)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
		}
	})

	t.Run("non-owner gets ErrNotOwner", func(t *testing.T) {
		mock.
			ExpectExec("UPDATE posts SET title").
			WithArgs("Hi", "World", int64(42), testBoard, int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := r.Update(context.TODO(), testBoard, 42, 2, "Hi", "World")
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("exec error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectExec("UPDATE posts SET title").
			WithArgs("Hi", "World", int64(42), testBoard, testUserID).
			WillReturnError(expectedErr)

		err := r.Update(context.TODO(), testBoard, 42, testUserID, "Hi", "World")
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()

	r := NewPostRepo(db)

	t.Run("owner deletes", func(t *testing.T) {
		mock.
			ExpectExec("DELETE FROM posts").
			WithArgs(int64(42), testBoard, testUserID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := r.Delete(context.TODO(), testBoard, 42, testUserID)
		assert.Nil(t, err)
	})

	t.Run("non-owner gets ErrNotOwner", func(t *testing.T) {
		mock.
			ExpectExec("DELETE FROM posts").
			WithArgs(int64(42), testBoard, int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := r.Delete(context.TODO(), testBoard, 42, 2)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("exec error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectExec("DELETE FROM posts").
			WithArgs(int64(42), testBoard, testUserID).
			WillReturnError(expectedErr)

		err := r.Delete(context.TODO(), testBoard, 42, testUserID)
		assert.ErrorIs(t, err, expectedErr)
	})
}
