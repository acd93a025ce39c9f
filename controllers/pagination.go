package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// parsePagination reads page/limit query params with page >= 1 and limit
// clamped to [1, maxPageLimit]. Garbage values fall back to defaults.
func parsePagination(ctx *gin.Context) (page, limit int) {
	page = 1
	limit = defaultPageLimit

	if v, err := strconv.Atoi(ctx.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// buildPagination produces the envelope `{current,total,hasNext,hasPrev}`
// where total counts pages, not rows. hasNext holds exactly when
// page*limit < total rows.
func buildPagination(page, limit int, totalRows int64) gin.H {
	totalPages := int((totalRows + int64(limit) - 1) / int64(limit))
	return gin.H{
		"current": page,
		"total":   totalPages,
		"hasNext": int64(page)*int64(limit) < totalRows,
		"hasPrev": page > 1,
	}
}

// isDuplicateKeyErr reports whether err is a MySQL duplicate-entry violation
// (error 1062), which surfaces when two requests race on a unique index.
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
