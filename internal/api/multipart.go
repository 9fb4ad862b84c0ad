package api

import (
	"net/http"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/middlewares"
	"github.com/dmitrymomot/bucketgate/pkg/gateway"
)

type initiateRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
}

type initiateResponse struct {
	UploadID string `json:"upload_id"`
}

type partURLRequest struct {
	Key        string `json:"key"`
	UploadID   string `json:"upload_id"`
	PartNumber int32  `json:"part_number"`
	ExpiresIn  int64  `json:"expires_in,omitempty"`
}

type uploadRequest struct {
	Key      string `json:"key"`
	UploadID string `json:"upload_id"`
}

type completeRequest struct {
	Key      string                  `json:"key"`
	UploadID string                  `json:"upload_id"`
	Parts    []gateway.CompletedPart `json:"parts"`
}

type uploadsResponse struct {
	Uploads []gateway.MultipartUpload `json:"uploads"`
}

func (h *Storage) initiateMultipart(c internal.Context) error {
	var req initiateRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	uploadID, err := h.gw.InitiateMultipartUpload(c, middlewares.GetTenantID(c), req.Key, req.ContentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, initiateResponse{UploadID: uploadID})
}

func (h *Storage) partURL(c internal.Context) error {
	var req partURLRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	expiresIn, err := h.expiry(req.ExpiresIn)
	if err != nil {
		return err
	}
	u, err := h.gw.PresignUploadPart(c, middlewares.GetTenantID(c), req.Key, req.UploadID, req.PartNumber, expiresIn)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Storage) completeMultipart(c internal.Context) error {
	var req completeRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	res, err := h.gw.CompleteMultipartUpload(c, middlewares.GetTenantID(c), req.Key, req.UploadID, req.Parts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, uploadResponse{Key: res.Key, ETag: res.ETag, Message: "Multipart upload completed"})
}

func (h *Storage) abortMultipart(c internal.Context) error {
	var req uploadRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	if err := h.gw.AbortMultipartUpload(c, middlewares.GetTenantID(c), req.Key, req.UploadID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Multipart upload aborted"})
}

func (h *Storage) listMultipart(c internal.Context) error {
	uploads, err := h.gw.ListMultipartUploads(c, middlewares.GetTenantID(c))
	if err != nil {
		return err
	}
	if uploads == nil {
		uploads = []gateway.MultipartUpload{}
	}
	return c.JSON(http.StatusOK, uploadsResponse{Uploads: uploads})
}
