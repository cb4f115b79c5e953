package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/api"
	"github.com/kylejryan/vehicle-claims-api/internal/claims"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	store  *claims.Store
	logger *log.Logger
}

func (h *handlers) ping(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Printf("ping: %v request_id=%s", err, GetRequestID(c.Request.Context()))
		c.JSON(http.StatusServiceUnavailable, api.MessageResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.PingResponse{
		Pong: true,
		Time: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) createClaim(c *gin.Context) {
	req, ok := bindClaim(c)
	if !ok {
		return
	}

	claim, err := h.store.Insert(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Location", "/api/claims/"+claim.ID)
	c.JSON(http.StatusCreated, claim)
}

func (h *handlers) listClaims(c *gin.Context) {
	all, err := h.store.FindAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *handlers) getClaim(c *gin.Context) {
	claim, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *handlers) updateClaim(c *gin.Context) {
	req, ok := bindClaim(c)
	if !ok {
		return
	}

	claim, err := h.store.UpdateByID(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *handlers) deleteClaim(c *gin.Context) {
	if err := h.store.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: api.MsgClaimDeleted})
}

// bindClaim decodes the JSON body. An empty body is an empty field set.
func bindClaim(c *gin.Context) (api.ClaimRequest, bool) {
	var req api.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.MessageResponse{Message: "invalid JSON body: " + err.Error()})
		return req, false
	}
	return req, true
}

func (h *handlers) fail(c *gin.Context, err error) {
	status, msg := api.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Printf("%s %s: %v request_id=%s", c.Request.Method, c.FullPath(), err, GetRequestID(c.Request.Context()))
	}
	c.JSON(status, api.MessageResponse{Message: msg})
}
