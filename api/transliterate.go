package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/scriptbridge/scriptbridge-api/internal/db"
	"github.com/scriptbridge/scriptbridge-api/internal/models"
	"github.com/scriptbridge/scriptbridge-api/internal/translit"
)

// Transliterate handles POST /transliterate. Validation and engine failures
// are reported in the result body with status 200; only an unreadable body
// is a client error.
func (h *Handler) Transliterate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req models.TransliterationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	out := h.translit.Transliterate(r.Context(), translit.Request{
		Text:        req.Text,
		From:        req.FromScript,
		To:          req.ToScript,
		Nativize:    req.NativizeOrDefault(),
		PreOptions:  req.PreOptions,
		PostOptions: req.PostOptions,
	})

	h.record(r.Context(), translitEntry(out, time.Since(start)))
	sendJSON(w, http.StatusOK, transliterationResult(out))
}

func transliterationResult(out translit.Outcome) models.TransliterationResult {
	res := models.TransliterationResult{
		Original:        out.Original,
		Transliteration: out.Text,
		FromScript:      out.From,
		ToScript:        out.To,
		Engine:          out.Engine,
		Fallback:        out.Fallback,
		Degraded:        out.Degraded,
	}
	if out.Err != nil {
		res.Transliteration = ""
		res.Error = out.Err.Error()
	}
	return res
}

func translitEntry(out translit.Outcome, elapsed time.Duration) db.Entry {
	e := db.Entry{
		Kind:        db.KindTransliterate,
		FromScript:  out.From,
		ToScript:    out.To,
		Engine:      out.Engine,
		Fallback:    out.Fallback,
		Status:      db.StatusOK,
		InputChars:  len([]rune(out.Original)),
		OutputChars: len([]rune(out.Text)),
		DurationMS:  elapsed.Milliseconds(),
	}
	switch {
	case out.Err != nil:
		e.Status = db.StatusError
		e.Error = out.Err.Error()
		e.OutputChars = 0
	case out.Degraded:
		e.Status = db.StatusDegraded
	}
	return e
}
