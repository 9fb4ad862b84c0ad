package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/middlewares"
	"github.com/dmitrymomot/bucketgate/pkg/gateway"
	"github.com/dmitrymomot/bucketgate/pkg/storage"
)

// maxKeyBytes is the longest object key S3 accepts.
const maxKeyBytes = 1024

// Gateway is everything the storage routes need from *gateway.Service.
type Gateway interface {
	ObjectGateway
	MultipartGateway
}

// Storage serves the /api/s3 routes.
type Storage struct {
	gw         Gateway
	middleware []internal.Middleware
}

// NewStorage creates the storage handler. Middleware runs for every route
// under /api/s3, typically the JWT middleware.
func NewStorage(gw Gateway, mw ...internal.Middleware) *Storage {
	return &Storage{gw: gw, middleware: mw}
}

func (h *Storage) Routes(r internal.Router) {
	r.Route("/api/s3", func(r internal.Router) {
		r.Use(h.middleware...)

		r.GET("/objects", h.listObjects)
		r.POST("/upload", h.uploadObject)
		r.DELETE("/object", h.deleteObject)
		r.DELETE("/objects", h.deleteObjects)
		r.POST("/download", h.downloadURL)
		r.GET("/object/metadata", h.objectMetadata)
		r.GET("/object/versions", h.objectVersions)
		r.POST("/folder", h.createFolder)
		r.GET("/search", h.search)
		r.GET("/user-prefix", h.userPrefix)

		r.GET("/multipart", h.listMultipart)
		r.POST("/multipart/initiate", h.initiateMultipart)
		r.POST("/multipart/part-url", h.partURL)
		r.POST("/multipart/complete", h.completeMultipart)
		r.POST("/multipart/abort", h.abortMultipart)
	})
}

type keyRequest struct {
	Key string `json:"key"`
}

type keysRequest struct {
	Keys []string `json:"keys"`
}

type downloadRequest struct {
	Key string `json:"key"`
	// ExpiresIn is in seconds; zero uses the configured default.
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

type folderRequest struct {
	Prefix string `json:"prefix"`
}

type prefixResponse struct {
	Prefix string `json:"prefix"`
}

type uploadResponse struct {
	Key     string `json:"key"`
	ETag    string `json:"etag"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type objectsResponse struct {
	Objects []gateway.Object `json:"objects"`
}

type versionsResponse struct {
	Versions []gateway.ObjectVersion `json:"versions"`
}

func (h *Storage) listObjects(c internal.Context) error {
	maxKeys, err := internal.QueryCount[int32](c, "max_keys")
	if err != nil {
		return err
	}

	page, err := h.gw.ListObjects(c, middlewares.GetTenantID(c), gateway.ListInput{
		Prefix:            c.Query("prefix"),
		ContinuationToken: c.Query("continuation_token"),
		MaxKeys:           maxKeys,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// uploadObject streams a multipart/form-data body straight to the store.
// The "key" field must precede the "file" part, or be passed as ?key=.
func (h *Storage) uploadObject(c internal.Context) error {
	mr, err := c.Request().MultipartReader()
	if err != nil {
		return internal.ErrBadRequest("expected multipart/form-data body", internal.WithErrorCode(CodeInvalidRequest), internal.WithError(err))
	}

	key := c.Query("key")
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return internal.ErrBadRequest("missing file part", internal.WithErrorCode(CodeInvalidRequest))
		}
		if err != nil {
			return internal.ErrBadRequest("malformed multipart body", internal.WithErrorCode(CodeInvalidRequest), internal.WithError(err))
		}

		switch part.FormName() {
		case "key":
			b, err := io.ReadAll(io.LimitReader(part, maxKeyBytes+1))
			_ = part.Close()
			if err != nil {
				return internal.ErrBadRequest("malformed key field", internal.WithErrorCode(CodeInvalidRequest), internal.WithError(err))
			}
			if len(b) > maxKeyBytes {
				return internal.ErrBadRequest("key is too long", internal.WithErrorCode(CodeInvalidRequest))
			}
			key = string(b)
		case "file":
			defer part.Close()
			if key == "" {
				return internal.ErrBadRequest("key is required before the file part", internal.WithErrorCode(CodeInvalidRequest))
			}

			contentType, body := storage.DetectContentType(part.Header.Get("Content-Type"), key, part)
			res, err := h.gw.UploadObject(c, middlewares.GetTenantID(c), gateway.UploadInput{
				Body:        body,
				Key:         key,
				ContentType: contentType,
				Size:        -1,
			})
			if err != nil {
				return err
			}
			return c.JSON(http.StatusOK, uploadResponse{Key: res.Key, ETag: res.ETag, Message: "File uploaded successfully"})
		default:
			_ = part.Close()
		}
	}
}

func (h *Storage) deleteObject(c internal.Context) error {
	var req keyRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	if err := h.gw.DeleteObject(c, middlewares.GetTenantID(c), req.Key); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Object deleted successfully"})
}

func (h *Storage) deleteObjects(c internal.Context) error {
	var req keysRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	res, err := h.gw.DeleteObjects(c, middlewares.GetTenantID(c), req.Keys)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Storage) downloadURL(c internal.Context) error {
	var req downloadRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	expiresIn, err := h.expiry(req.ExpiresIn)
	if err != nil {
		return err
	}
	url, err := h.gw.GetDownloadURL(c, middlewares.GetTenantID(c), req.Key, expiresIn)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, url)
}

func (h *Storage) objectMetadata(c internal.Context) error {
	meta, err := h.gw.GetObjectMetadata(c, middlewares.GetTenantID(c), c.Query("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Storage) objectVersions(c internal.Context) error {
	versions, err := h.gw.ListObjectVersions(c, middlewares.GetTenantID(c), c.Query("key"))
	if err != nil {
		return err
	}
	if versions == nil {
		versions = []gateway.ObjectVersion{}
	}
	return c.JSON(http.StatusOK, versionsResponse{Versions: versions})
}

func (h *Storage) createFolder(c internal.Context) error {
	var req folderRequest
	if err := c.BindJSON(&req); err != nil {
		return err
	}
	key, err := h.gw.CreateFolder(c, middlewares.GetTenantID(c), req.Prefix)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, prefixResponse{Prefix: key})
}

func (h *Storage) search(c internal.Context) error {
	objects, err := h.gw.SearchObjects(c, middlewares.GetTenantID(c), c.Query("prefix"), c.Query("query"))
	if err != nil {
		return err
	}
	if objects == nil {
		objects = []gateway.Object{}
	}
	return c.JSON(http.StatusOK, objectsResponse{Objects: objects})
}

func (h *Storage) userPrefix(c internal.Context) error {
	ns, err := h.gw.Namespace(middlewares.GetTenantID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefixResponse{Prefix: ns})
}


// expiry converts a requested lifetime in seconds, rejecting values outside
// [0, MaxDownloadURLExpiry] before they can overflow a time.Duration.
func (h *Storage) expiry(seconds int64) (time.Duration, error) {
	limit := int64(h.gw.Config().MaxDownloadURLExpiry / time.Second)
	switch {
	case seconds < 0:
		return 0, internal.ErrBadRequest("expires_in must not be negative", internal.WithErrorCode(CodeInvalidRequest))
	case seconds > limit:
		return 0, internal.ErrBadRequest(fmt.Sprintf("expires_in must not exceed %d seconds", limit), internal.WithErrorCode(CodeInvalidRequest))
	}
	return time.Duration(seconds) * time.Second, nil
}
