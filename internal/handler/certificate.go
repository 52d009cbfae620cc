package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/model"
)

type CertificateHandler struct {
	Certs Certificates
}

func NewCertificateHandler(certs Certificates) *CertificateHandler {
	return &CertificateHandler{Certs: certs}
}

// Get handles GET /api/certificate/:id.  Certificates are public so they
// can be verified from a shared link.
func (h *CertificateHandler) Get(c echo.Context) error {
	code := strings.ToUpper(strings.TrimSpace(c.Param("id")))
	if code == "" {
		return badRequest(c, "certificate id required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	view, err := h.Certs.GetByCode(ctx, code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Mine handles GET /api/my-certificates.
func (h *CertificateHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Certs.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []model.CertificateView{}
	}
	return c.JSON(http.StatusOK, list)
}
