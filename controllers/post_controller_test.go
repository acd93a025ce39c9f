package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
)

func postRows(id uint, status string, authorID uint, viewCount uint) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "slug", "content", "status", "author_id", "view_count"}).
		AddRow(id, "A Post", "a-post", "body", status, authorID, viewCount)
}

func authorRows(id uint) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "role"}).
		AddRow(id, "jane", "jane@example.com", "user")
}

func TestGetPostDraftHiddenFromAnonymous(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewPostController(db)

	mock.ExpectQuery("SELECT \\* FROM `posts`").
		WillReturnRows(postRows(5, models.StatusDraft, 7, 0))
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(authorRows(7))

	w := httptest.NewRecorder()
	ctx := testContext(w, httptest.NewRequest(http.MethodGet, "/api/posts/5", nil))
	ctx.Params = gin.Params{{Key: "id", Value: "5"}}
	ctrl.GetPost(ctx)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", responseMessage(t, w))
	// No view_count update may run for a draft.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostDraftVisibleToAuthorWithoutView(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewPostController(db)

	mock.ExpectQuery("SELECT \\* FROM `posts`").
		WillReturnRows(postRows(5, models.StatusDraft, 7, 3))
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(authorRows(7))

	w := httptest.NewRecorder()
	ctx := testContext(w, httptest.NewRequest(http.MethodGet, "/api/posts/5", nil))
	ctx.Params = gin.Params{{Key: "id", Value: "5"}}
	asUser(ctx, middleware.CurrentUser{ID: 7, Username: "jane", Role: models.RoleUser})
	ctrl.GetPost(ctx)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Post struct {
			ViewCount uint `json:"view_count"`
		} `json:"post"`
	}
	require.NoError(t, jsonUnmarshal(w, &body))
	assert.Equal(t, uint(3), body.Post.ViewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostPublishedIncrementsViewCount(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewPostController(db)

	mock.ExpectQuery("SELECT \\* FROM `posts`").
		WillReturnRows(postRows(5, models.StatusPublished, 7, 3))
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(authorRows(7))
	mock.ExpectExec("UPDATE `posts` SET `view_count`=view_count \\+ \\?").
		WithArgs(1, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	ctx := testContext(w, httptest.NewRequest(http.MethodGet, "/api/posts/5", nil))
	ctx.Params = gin.Params{{Key: "id", Value: "5"}}
	ctrl.GetPost(ctx)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Post struct {
			ViewCount uint `json:"view_count"`
		} `json:"post"`
	}
	require.NoError(t, jsonUnmarshal(w, &body))
	assert.Equal(t, uint(4), body.Post.ViewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewPostController(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `posts`").
		WithArgs("hello-world").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	ctx := testContext(w, jsonRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "Hello World!!!",
		"content": "body",
	}))
	asUser(ctx, middleware.CurrentUser{ID: 1, Username: "jane"})
	ctrl.CreatePost(ctx)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A post with this title already exists", responseMessage(t, w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRejectsSymbolOnlyTitle(t *testing.T) {
	db, _ := newTestDB(t)
	ctrl := NewPostController(db)

	w := httptest.NewRecorder()
	ctx := testContext(w, jsonRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "!!!",
		"content": "body",
	}))
	asUser(ctx, middleware.CurrentUser{ID: 1})
	ctrl.CreatePost(ctx)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePostNotOwnerAnswers404(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewPostController(db)

	mock.ExpectQuery("SELECT \\* FROM `posts`").
		WithArgs("5", 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	ctx := testContext(w, jsonRequest(t, http.MethodPut, "/api/posts/5", map[string]string{
		"title":   "New Title",
		"content": "body",
	}))
	ctx.Params = gin.Params{{Key: "id", Value: "5"}}
	asUser(ctx, middleware.CurrentUser{ID: 2})
	ctrl.UpdatePost(ctx)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found or access denied", responseMessage(t, w))
}

func TestDeletePostNotOwnerAnswers404(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewPostController(db)

	mock.ExpectQuery("SELECT \\* FROM `posts`").
		WithArgs("5", 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	ctx := testContext(w, httptest.NewRequest(http.MethodDelete, "/api/posts/5", nil))
	ctx.Params = gin.Params{{Key: "id", Value: "5"}}
	asUser(ctx, middleware.CurrentUser{ID: 2})
	ctrl.DeletePost(ctx)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found or access denied", responseMessage(t, w))
}

func TestEffectivePostStatusGating(t *testing.T) {
	newCtx := func(query string) *gin.Context {
		w := httptest.NewRecorder()
		return testContext(w, httptest.NewRequest(http.MethodGet, "/api/posts"+query, nil))
	}

	// Anonymous callers are pinned to published whatever they ask for.
	assert.Equal(t, models.StatusPublished, effectivePostStatus(newCtx("")))
	assert.Equal(t, models.StatusPublished, effectivePostStatus(newCtx("?status=draft")))
	assert.Equal(t, models.StatusPublished, effectivePostStatus(newCtx("?status=all")))

	// Regular users too.
	ctx := newCtx("?status=all")
	asUser(ctx, middleware.CurrentUser{ID: 1, Role: models.RoleUser})
	assert.Equal(t, models.StatusPublished, effectivePostStatus(ctx))

	// Admins get the requested filter.
	ctx = newCtx("?status=draft")
	asUser(ctx, middleware.CurrentUser{ID: 1, Role: models.RoleAdmin})
	assert.Equal(t, models.StatusDraft, effectivePostStatus(ctx))

	ctx = newCtx("?status=all")
	asUser(ctx, middleware.CurrentUser{ID: 1, Role: models.RoleAdmin})
	assert.Equal(t, "all", effectivePostStatus(ctx))
}
