package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/store"
)

// respondError maps store errors to status codes. Unexpected errors are logged
// and reported as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidState), errors.Is(err, store.ErrReferenced):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// bindInput decodes a JSON body into an input struct, rejecting unknown
// fields, and validates it. It writes the 400 response itself and reports
// whether the handler may continue.
func bindInput[I any](c *gin.Context) (I, bool) {
	var in I
	if c.Request.Body == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return in, false
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		msg := "invalid request"
		if !errors.Is(err, io.EOF) {
			msg = fmt.Sprintf("invalid request: %v", err)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
		return in, false
	}

	if err := model.Validate.Struct(in); err != nil {
		fields := model.InvalidFields(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "missing or invalid fields: " + strings.Join(fields, ", "),
			"fields": fields,
		})
		return in, false
	}
	return in, true
}
