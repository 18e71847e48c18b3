package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/llmreader/internal/library"
)

// uploadFormField is the multipart field carrying the book file.
const uploadFormField = "file"

type UploadController struct {
	uploader Uploader
	maxBytes int64
}

func NewUploadController(uploader Uploader, maxBytes int64) *UploadController {
	return &UploadController{uploader: uploader, maxBytes: maxBytes}
}

// Upload converts an uploaded EPUB or PDF into a library book. The file part
// is streamed to the ingestor without buffering the whole body.
// POST /upload
func (uc *UploadController) Upload(c *gin.Context) {
	if uc.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uc.maxBytes)
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		respondBadRequest(c, "No file provided")
		return
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			respondBadRequest(c, "No file provided")
			return
		}
		if err != nil {
			uc.respondReadError(c, err)
			return
		}

		if part.FormName() != uploadFormField {
			part.Close()
			continue
		}

		uc.ingest(c, part.FileName(), part)
		part.Close()
		return
	}
}

func (uc *UploadController) ingest(c *gin.Context, filename string, body io.Reader) {
	if filename == "" {
		respondBadRequest(c, "No file provided")
		return
	}
	if !uc.uploader.Supports(filename) {
		respondBadRequest(c, "Only .epub or .pdf files are supported")
		return
	}

	result, err := uc.uploader.Ingest(c.Request.Context(), filename, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, library.ErrNoFile):
			respondBadRequest(c, "No file provided")
		case errors.Is(err, library.ErrUnsupportedType):
			respondBadRequest(c, "Only .epub or .pdf files are supported")
		case errors.Is(err, library.ErrBookExists):
			respondError(c, http.StatusConflict, "Book already exists in library")
		case errors.As(err, &tooLarge):
			respondError(c, http.StatusRequestEntityTooLarge, "Upload too large")
		default:
			respondInternalError(c, err, "Upload failed")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (uc *UploadController) respondReadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}
	respondBadRequest(c, "Malformed upload")
}
