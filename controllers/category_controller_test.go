package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestCreateCategoryDuplicate(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewCategoryController(db)

	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	w := httptest.NewRecorder()
	ctx := testContext(w, jsonRequest(t, http.MethodPost, "/api/categories", map[string]string{
		"name": "Technology",
	}))
	ctrl.CreateCategory(ctx)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Category already exists", responseMessage(t, w))
}

func TestCreateCategorySlugDerivedFromName(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewCategoryController(db)

	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(3, 1))

	w := httptest.NewRecorder()
	ctx := testContext(w, jsonRequest(t, http.MethodPost, "/api/categories", map[string]string{
		"name":        "Home & Garden",
		"description": "Plants and furniture",
	}))
	ctrl.CreateCategory(ctx)

	assert.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Category struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"category"`
	}
	assert.NoError(t, jsonUnmarshal(w, &body))
	assert.Equal(t, "Home & Garden", body.Category.Name)
	assert.Equal(t, "home-garden", body.Category.Slug)
}

func TestUpdateCategoryMissing(t *testing.T) {
	db, mock := newTestDB(t)
	ctrl := NewCategoryController(db)

	mock.ExpectQuery("SELECT \\* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	ctx := testContext(w, jsonRequest(t, http.MethodPut, "/api/categories/99", map[string]string{
		"name": "Renamed",
	}))
	ctx.Params = gin.Params{{Key: "id", Value: "99"}}
	ctrl.UpdateCategory(ctx)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Category not found", responseMessage(t, w))
}
