package api

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scriptbridge/scriptbridge-api/internal/db"
	"github.com/scriptbridge/scriptbridge-api/internal/models"
	"github.com/scriptbridge/scriptbridge-api/internal/ocr"
)

// OCR handles POST /ocr and POST /ocr_image. The image comes in the "file"
// (or "image") multipart field; to_script may be a query or form value.
func (h *Handler) OCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			sendError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		sendError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	file, header, err := formImage(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'image' field)")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	toScript := r.URL.Query().Get("to_script")
	if toScript == "" {
		toScript = r.FormValue("to_script")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(imageData)
	}

	start := time.Now()
	out := h.ocr.Recognize(r.Context(), imageData, contentType, toScript)

	h.record(r.Context(), ocrEntry(out, time.Since(start)))
	if out.Translit != nil {
		h.record(r.Context(), translitEntry(*out.Translit, out.TranslitElapsed))
	}
	if out.Err != nil {
		h.log.Info("ocr request failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("error", out.Err.Error()),
		)
	}

	sendJSON(w, http.StatusOK, ocrResult(out))
}

func formImage(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile("file")
	if err == nil {
		return file, header, nil
	}
	return r.FormFile("image")
}

func ocrResult(out ocr.Outcome) models.OCRResult {
	res := models.OCRResult{
		Text:       out.Text,
		Confidence: out.Confidence,
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
		return res
	}
	if t := out.Translit; t != nil {
		res.FromScript = t.From
		res.ToScript = t.To
		if t.Err != nil {
			res.Error = "transliteration failed: " + t.Err.Error()
		} else {
			res.Transliteration = t.Text
			res.Degraded = t.Degraded
		}
	}
	return res
}

func ocrEntry(out ocr.Outcome, elapsed time.Duration) db.Entry {
	e := db.Entry{
		Kind:        db.KindOCR,
		Engine:      out.Engine,
		Status:      db.StatusOK,
		OutputChars: len([]rune(out.Text)),
		Confidence:  decimal.NewFromFloat(out.Confidence),
		DurationMS:  elapsed.Milliseconds(),
		ImageRef:    out.ArchiveKey,
	}
	if out.Err != nil {
		e.Status = db.StatusError
		e.Error = out.Err.Error()
	}
	return e
}
