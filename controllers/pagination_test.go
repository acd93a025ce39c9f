package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func paginationCtx(query string) *gin.Context {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/posts"+query, nil)
	return ctx
}

func TestParsePaginationClamps(t *testing.T) {
	cases := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 10},
		{"?page=3&limit=15", 3, 15},
		{"?page=0&limit=0", 1, 10},
		{"?page=-2&limit=-5", 1, 10},
		{"?page=2&limit=999", 2, 50},
		{"?page=abc&limit=xyz", 1, 10},
		{"?limit=1", 1, 1},
		{"?limit=50", 1, 50},
	}

	for _, tc := range cases {
		page, limit := parsePagination(paginationCtx(tc.query))
		assert.Equal(t, tc.wantPage, page, "page for %q", tc.query)
		assert.Equal(t, tc.wantLimit, limit, "limit for %q", tc.query)
	}
}

func TestBuildPaginationInvariants(t *testing.T) {
	cases := []struct {
		page, limit int
		total       int64
		wantPages   int
		wantNext    bool
		wantPrev    bool
	}{
		{1, 10, 0, 0, false, false},
		{1, 10, 10, 1, false, false},
		{1, 10, 11, 2, true, false},
		{2, 10, 11, 2, false, true},
		{2, 10, 35, 4, true, true},
		{4, 10, 35, 4, false, true},
		{1, 1, 2, 2, true, false},
		{3, 50, 150, 3, false, true},
	}

	for _, tc := range cases {
		env := buildPagination(tc.page, tc.limit, tc.total)
		label := fmt.Sprintf("page=%d limit=%d total=%d", tc.page, tc.limit, tc.total)
		assert.Equal(t, tc.page, env["current"], label)
		assert.Equal(t, tc.wantPages, env["total"], label)
		assert.Equal(t, tc.wantNext, env["hasNext"], label)
		assert.Equal(t, tc.wantPrev, env["hasPrev"], label)
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.True(t, isDuplicateKeyErr(dup))
	assert.True(t, isDuplicateKeyErr(fmt.Errorf("create: %w", dup)))
	assert.False(t, isDuplicateKeyErr(&mysql.MySQLError{Number: 1064}))
	assert.False(t, isDuplicateKeyErr(errors.New("boom")))
	assert.False(t, isDuplicateKeyErr(nil))
}
