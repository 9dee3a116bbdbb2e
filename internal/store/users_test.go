package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

// newTestQueries はインメモリDBを使うQueriesを生成する。
func newTestQueries(t *testing.T) *Queries {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("テスト用DBのオープンに失敗: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return New(db)
}

// createTestUser はテスト用のユーザーを作成する。
func createTestUser(t *testing.T, q *Queries, id, email, role string) {
	t.Helper()

	err := q.CreateUser(context.Background(), CreateUserParams{
		ID:           id,
		Name:         "テストユーザー" + id,
		Email:        email,
		PasswordHash: "$2a$04$dummyhash",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("テストユーザーの作成に失敗: %v", err)
	}
}

// TestQueries_CreateUser はユーザー作成と重複検出を検証する。
func TestQueries_CreateUser(t *testing.T) {
	t.Parallel()

	t.Run("ユーザーを作成して取得できること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		user, err := q.GetUserByID(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("GetUserByID()でエラーが発生: %v", err)
		}
		if user.Email != "tanaka@example.com" {
			t.Errorf("Email = %q, want %q", user.Email, "tanaka@example.com")
		}
		if user.Role != RoleUser {
			t.Errorf("Role = %q, want %q", user.Role, RoleUser)
		}
		if user.CreatedAt.IsZero() {
			t.Error("CreatedAtが設定されていない")
		}
	})

	t.Run("同じメールアドレスの重複がErrDuplicateEmailになること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		err := q.CreateUser(context.Background(), CreateUserParams{
			ID:           "user-2",
			Name:         "別の田中",
			Email:        "tanaka@example.com",
			PasswordHash: "$2a$04$dummyhash",
			Role:         RoleUser,
		})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("err = %v, want ErrDuplicateEmail", err)
		}
	})

	t.Run("大文字小文字が違うメールアドレスも重複になること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		err := q.CreateUser(context.Background(), CreateUserParams{
			ID:           "user-2",
			Name:         "別の田中",
			Email:        "TANAKA@EXAMPLE.COM",
			PasswordHash: "$2a$04$dummyhash",
			Role:         RoleUser,
		})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("err = %v, want ErrDuplicateEmail", err)
		}
	})
}

// TestQueries_GetUserByEmail はメールアドレスでの検索を検証する。
func TestQueries_GetUserByEmail(t *testing.T) {
	t.Parallel()

	t.Run("大文字小文字を区別せずに一致すること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		for _, email := range []string{"tanaka@example.com", "Tanaka@Example.COM"} {
			user, err := q.GetUserByEmail(context.Background(), email)
			if err != nil {
				t.Fatalf("GetUserByEmail(%q)でエラーが発生: %v", email, err)
			}
			if user.ID != "user-1" {
				t.Errorf("ID = %q, want %q", user.ID, "user-1")
			}
		}
	})

	t.Run("存在しないメールアドレスがsql.ErrNoRowsになること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		if _, err := q.GetUserByEmail(context.Background(), "unknown@example.com"); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("err = %v, want sql.ErrNoRows", err)
		}
	})
}

// TestQueries_ListUsers は一覧取得・検索・ページネーションを検証する。
func TestQueries_ListUsers(t *testing.T) {
	t.Parallel()

	t.Run("管理者が一覧から除外されること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)
		createTestUser(t, q, "user-2", "suzuki@example.com", RoleUser)
		createTestUser(t, q, "admin-1", "admin@example.com", RoleAdmin)

		users, err := q.ListUsers(context.Background(), ListUsersParams{Limit: 10})
		if err != nil {
			t.Fatalf("ListUsers()でエラーが発生: %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("len(users) = %d, want 2", len(users))
		}
		for _, u := range users {
			if u.Role == RoleAdmin {
				t.Errorf("一覧に管理者 %q が含まれている", u.ID)
			}
		}

		count, err := q.CountUsers(context.Background(), "")
		if err != nil {
			t.Fatalf("CountUsers()でエラーが発生: %v", err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})

	t.Run("名前とメールアドレスで部分一致検索できること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)
		createTestUser(t, q, "user-2", "suzuki@example.com", RoleUser)

		users, err := q.ListUsers(context.Background(), ListUsersParams{Search: "suzuki", Limit: 10})
		if err != nil {
			t.Fatalf("ListUsers()でエラーが発生: %v", err)
		}
		if len(users) != 1 || users[0].ID != "user-2" {
			t.Errorf("users = %+v, want user-2のみ", users)
		}

		count, err := q.CountUsers(context.Background(), "suzuki")
		if err != nil {
			t.Fatalf("CountUsers()でエラーが発生: %v", err)
		}
		if count != 1 {
			t.Errorf("count = %d, want 1", count)
		}
	})

	t.Run("LIMITとOFFSETでページングできること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		for i := range 5 {
			id := fmt.Sprintf("user-%d", i)
			createTestUser(t, q, id, fmt.Sprintf("user%d@example.com", i), RoleUser)
		}

		first, err := q.ListUsers(context.Background(), ListUsersParams{Limit: 2})
		if err != nil {
			t.Fatalf("ListUsers()でエラーが発生: %v", err)
		}
		second, err := q.ListUsers(context.Background(), ListUsersParams{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("ListUsers()でエラーが発生: %v", err)
		}
		last, err := q.ListUsers(context.Background(), ListUsersParams{Limit: 2, Offset: 4})
		if err != nil {
			t.Fatalf("ListUsers()でエラーが発生: %v", err)
		}

		if len(first) != 2 || len(second) != 2 || len(last) != 1 {
			t.Errorf("ページサイズ = %d, %d, %d, want 2, 2, 1", len(first), len(second), len(last))
		}

		// ページをまたいで同じユーザーが重複しないこと
		seen := map[string]bool{}
		for _, page := range [][]User{first, second, last} {
			for _, u := range page {
				if seen[u.ID] {
					t.Errorf("ユーザー %q が複数ページに出現した", u.ID)
				}
				seen[u.ID] = true
			}
		}
	})
}

// TestQueries_UpdateUserRole はロール更新を検証する。
func TestQueries_UpdateUserRole(t *testing.T) {
	t.Parallel()

	t.Run("ロールを更新できること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		err := q.UpdateUserRole(context.Background(), UpdateUserRoleParams{ID: "user-1", Role: RoleAdmin})
		if err != nil {
			t.Fatalf("UpdateUserRole()でエラーが発生: %v", err)
		}

		user, err := q.GetUserByID(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("GetUserByID()でエラーが発生: %v", err)
		}
		if user.Role != RoleAdmin {
			t.Errorf("Role = %q, want %q", user.Role, RoleAdmin)
		}
	})

	t.Run("存在しないユーザーがsql.ErrNoRowsになること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		err := q.UpdateUserRole(context.Background(), UpdateUserRoleParams{ID: "missing", Role: RoleAdmin})
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("err = %v, want sql.ErrNoRows", err)
		}
	})
}

// TestQueries_UpdateUserProfile はプロフィール更新を検証する。
func TestQueries_UpdateUserProfile(t *testing.T) {
	t.Parallel()

	t.Run("プロフィール情報を更新できること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		err := q.UpdateUserProfile(context.Background(), UpdateUserProfileParams{
			ID:             "user-1",
			Name:           "田中次郎",
			Phone:          "090-1234-5678",
			AddressStreet:  "1-2-3",
			AddressCity:    "渋谷区",
			AddressState:   "東京都",
			AddressZipCode: "150-0001",
			AddressCountry: "日本",
		})
		if err != nil {
			t.Fatalf("UpdateUserProfile()でエラーが発生: %v", err)
		}

		user, err := q.GetUserByID(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("GetUserByID()でエラーが発生: %v", err)
		}
		if user.Name != "田中次郎" {
			t.Errorf("Name = %q, want %q", user.Name, "田中次郎")
		}
		if user.Phone != "090-1234-5678" {
			t.Errorf("Phone = %q, want %q", user.Phone, "090-1234-5678")
		}
		if user.AddressState != "東京都" {
			t.Errorf("AddressState = %q, want %q", user.AddressState, "東京都")
		}
	})

	t.Run("存在しないユーザーがsql.ErrNoRowsになること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		err := q.UpdateUserProfile(context.Background(), UpdateUserProfileParams{ID: "missing", Name: "名前"})
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("err = %v, want sql.ErrNoRows", err)
		}
	})
}

// TestQueries_DeleteUser はユーザー削除とカスケード削除を検証する。
func TestQueries_DeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("ユーザーを削除できること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		if err := q.DeleteUser(context.Background(), "user-1"); err != nil {
			t.Fatalf("DeleteUser()でエラーが発生: %v", err)
		}
		if _, err := q.GetUserByID(context.Background(), "user-1"); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("削除後のGetUserByID() err = %v, want sql.ErrNoRows", err)
		}
	})

	t.Run("所有するファイルが一緒に削除されること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		createTestUser(t, q, "user-1", "tanaka@example.com", RoleUser)

		err := q.CreateFile(context.Background(), CreateFileParams{
			ID:           "file-1",
			UserID:       "user-1",
			Kind:         FileKindOther,
			Filename:     "1-certificate.pdf",
			OriginalName: "certificate.pdf",
			MimeType:     "application/pdf",
			Size:         3,
			Data:         "YWJj",
		})
		if err != nil {
			t.Fatalf("CreateFile()でエラーが発生: %v", err)
		}

		if err := q.DeleteUser(context.Background(), "user-1"); err != nil {
			t.Fatalf("DeleteUser()でエラーが発生: %v", err)
		}

		files, err := q.ListFilesByUser(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("ListFilesByUser()でエラーが発生: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("len(files) = %d, want 0", len(files))
		}
	})

	t.Run("存在しないユーザーがsql.ErrNoRowsになること", func(t *testing.T) {
		t.Parallel()

		q := newTestQueries(t)
		if err := q.DeleteUser(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("err = %v, want sql.ErrNoRows", err)
		}
	})
}
