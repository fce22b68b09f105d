package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partida-dev/partida/internal/model"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError locates one validation failure.
type FieldError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

// Error writes an error response with the given status.
func Error(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func fieldErrors(verrs model.ValidationErrors) []FieldError {
	out := make([]FieldError, len(verrs))
	for i, ve := range verrs {
		out[i] = FieldError{Line: ve.Line, Field: ve.Field, Rule: ve.Rule, Message: ve.Message}
	}
	return out
}

// Fail maps a service error to its status code. Errors that are not one of
// the model error types are logged and reported as 500 without detail.
func Fail(c *gin.Context, err error) {
	var (
		verrs model.ValidationErrors
		verr  *model.ValidationError
		rerr  *model.ReferenceError
		nf    *model.NotFoundError
		cerr  *model.ConflictError
	)
	switch {
	case errors.As(err, &verrs):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Response{
			Code:    http.StatusUnprocessableEntity,
			Message: "validation failed",
			Errors:  fieldErrors(verrs),
		})
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Response{
			Code:    http.StatusUnprocessableEntity,
			Message: "validation failed",
			Errors:  fieldErrors(model.ValidationErrors{verr}),
		})
	case errors.As(err, &rerr):
		Error(c, http.StatusUnprocessableEntity, rerr.Error())
	case errors.As(err, &nf):
		Error(c, http.StatusNotFound, nf.Error())
	case errors.As(err, &cerr):
		Error(c, http.StatusConflict, cerr.Error())
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "internal error")
	}
}
