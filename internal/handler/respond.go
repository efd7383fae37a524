package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/auth"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
)

var statusByKind = map[envelope.Kind]int{
	envelope.KindNotFound:        http.StatusNotFound,
	envelope.KindConflict:        http.StatusConflict,
	envelope.KindValidation:      http.StatusBadRequest,
	envelope.KindUnauthenticated: http.StatusUnauthorized,
	envelope.KindUnsupported:     http.StatusNotImplemented,
	envelope.KindInternal:        http.StatusInternalServerError,
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind envelope.Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// respond writes the envelope with okStatus on success or the mapped error status.
func respond[T any](c *gin.Context, okStatus int, resp envelope.Response[T]) {
	if resp.Success {
		c.JSON(okStatus, resp)
		return
	}
	kind := envelope.KindInternal
	if resp.Error != nil {
		kind = resp.Error.Kind
	}
	c.JSON(StatusFor(kind), resp)
}

// attachment streams a binary result as a download.
func attachment(c *gin.Context, resp envelope.Response[envelope.Binary]) {
	if !resp.Success {
		respond(c, http.StatusOK, resp)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.Data.Name))
	c.Data(http.StatusOK, resp.Data.ContentType, resp.Data.Data)
}

// badRequest answers a body that could not be decoded.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope.Fail[struct{}](envelope.Invalid("invalid request body: "+err.Error(), nil), time.Now()))
}

// caller returns the authenticated identity. Routes behind auth.Bearer always have one.
func caller(c *gin.Context) auth.Identity {
	id, _ := auth.CallerFrom(c)
	return id
}

var reservedParams = map[string]bool{"page": true, "limit": true, "search": true, "sortBy": true, "sortOrder": true}

// listParams reads page, limit, search and sort from the query string; every
// other key is a filter.
func listParams(c *gin.Context) query.Params {
	p := query.Params{
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.Limit, _ = strconv.Atoi(c.Query("limit"))
	for k, v := range c.Request.URL.Query() {
		if reservedParams[k] || len(v) == 0 {
			continue
		}
		if p.Filters == nil {
			p.Filters = make(map[string]string)
		}
		p.Filters[k] = v[0]
	}
	return p
}
