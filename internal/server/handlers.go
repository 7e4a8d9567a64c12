package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicehub/internal/invoice"
)

// ProcessInvoice handles POST /process-invoice with a multipart "file" field.
func (s *Server) ProcessInvoice(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newBadRequest("multipart field \"file\" is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, newBadRequest("cannot read uploaded file"))
		return
	}
	defer file.Close()

	inv, err := s.svc.Process(c.Request.Context(), invoice.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// ListInvoices handles GET /invoices.
func (s *Server) ListInvoices(c *gin.Context) {
	invoices, err := s.svc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// GetInvoice handles GET /invoices/:number.
func (s *Server) GetInvoice(c *gin.Context) {
	inv, err := s.svc.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// DeleteInvoices handles DELETE /invoices.
func (s *Server) DeleteInvoices(c *gin.Context) {
	n, err := s.svc.DeleteAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted": n,
		"message": "all invoices deleted",
	})
}

// Summary handles GET /summary.
func (s *Server) Summary(c *gin.Context) {
	summary, err := s.svc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
