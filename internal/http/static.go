package http

import (
	"bytes"
	stdhttp "net/http"
	"time"

	_ "embed"
)

//go:embed static/site.css
var stylesheet []byte

func stylesheetHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if len(stylesheet) == 0 {
		w.WriteHeader(stdhttp.StatusNotFound)
		return
	}

	reader := bytes.NewReader(stylesheet)
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	stdhttp.ServeContent(w, r, "site.css", time.Time{}, reader)
}
