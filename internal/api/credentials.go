package api

import (
	"net/http"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/middlewares"
	"github.com/dmitrymomot/bucketgate/pkg/credentials"
)

// Credentials serves the /api/credentials routes.
type Credentials struct {
	issuer     CredentialIssuer
	middleware []internal.Middleware
}

// NewCredentials creates the credentials handler.
func NewCredentials(issuer CredentialIssuer, mw ...internal.Middleware) *Credentials {
	return &Credentials{issuer: issuer, middleware: mw}
}

func (h *Credentials) Routes(r internal.Router) {
	r.Route("/api/credentials", func(r internal.Router) {
		r.Use(h.middleware...)

		r.POST("/temporary", h.temporary)
		r.POST("/access-key", h.createAccessKey)
		r.GET("/access-keys", h.listAccessKeys)
		r.DELETE("/access-key/{id}", h.deleteAccessKey)
		r.PUT("/access-key/{id}/status", h.setAccessKeyStatus)
		r.POST("/access-key/rotate", h.rotateAccessKey)
	})
}

type temporaryRequest struct {
	// DurationSeconds is clamped by the issuer; zero uses its default.
	DurationSeconds int `json:"duration_seconds"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type rotateRequest struct {
	OldAccessKeyID string `json:"old_access_key_id"`
}

type accessKeysResponse struct {
	AccessKeys []credentials.AccessKey `json:"access_keys"`
}

func (h *Credentials) temporary(c internal.Context) error {
	var req temporaryRequest
	if c.Request().ContentLength != 0 {
		if err := c.BindJSON(&req); err != nil {
			return err
		}
	}
	creds, err := h.issuer.IssueTemporaryCredentials(c, middlewares.GetTenantID(c), req.DurationSeconds)
	if err != nil {
		return err
	}
	c.SetHeader("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, creds)
}

func (h *Credentials) createAccessKey(c internal.Context) error {
	key, err := h.issuer.CreateAccessKey(c, middlewares.GetTenantID(c))
	if err != nil {
		return err
	}
	c.SetHeader("Cache-Control", "no-store")
	return c.JSON(http.StatusCreated, key)
}

func (h *Credentials) listAccessKeys(c internal.Context) error {
	keys, err := h.issuer.ListAccessKeys(c, middlewares.GetTenantID(c))
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []credentials.AccessKey{}
	}
	return c.JSON(http.StatusOK, accessKeysResponse{AccessKeys: keys})
}

func (h *Credentials) deleteAccessKey(c internal.Context) error {
	if err := h.issuer.DeleteAccessKey(c, middlewares.GetTenantID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Access key deleted successfully"})
}

func (h *Credentials) setAccessKeyStatus(c internal.Context) error {
	var req statusRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	if err := h.issuer.SetAccessKeyStatus(c, middlewares.GetTenantID(c), c.Param("id"), req.Status); err != nil {
		return err
	}
	status, _ := credentials.ParseKeyStatus(req.Status)
	return c.JSON(http.StatusOK, messageResponse{Message: "Access key status updated to " + string(status)})
}

func (h *Credentials) rotateAccessKey(c internal.Context) error {
	var req rotateRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	key, err := h.issuer.RotateAccessKey(c, middlewares.GetTenantID(c), req.OldAccessKeyID)
	if err != nil {
		return err
	}
	c.SetHeader("Cache-Control", "no-store")
	return c.JSON(http.StatusCreated, key)
}
