package handler

import (
	"errors"
	"log"
	"net/http"

	"speedrun/backend/internal/upload"

	"github.com/gin-gonic/gin"
)

// saveUpload stores the multipart file in field, if any, and returns its
// reference. It writes the error response itself and returns false on failure.
func saveUpload(c *gin.Context, store *upload.Store, field string) (string, bool) {
	if store == nil || c.ContentType() != gin.MIMEMultipartPOSTForm {
		return "", true
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", true
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return "", false
	}
	ref, err := store.Save(fh)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return ref, true
}

// discardUpload removes a file saved earlier in a request that then failed.
func discardUpload(store *upload.Store, ref string) {
	if store == nil || ref == "" {
		return
	}
	if err := store.Remove(ref); err != nil {
		log.Printf("discard upload %s: %v", ref, err)
	}
}
