package httpx

import (
	"bytes"
	"net/http"
)

// Recorder keeps a handler's response in memory so the caller can look at
// the status before relaying it to the real writer.
type Recorder struct {
	Code int
	Body bytes.Buffer

	header http.Header
}

func (rec *Recorder) Header() http.Header {
	if rec.header == nil {
		rec.header = http.Header{}
	}
	return rec.header
}

func (rec *Recorder) Write(p []byte) (int, error) {
	if rec.Code == 0 {
		rec.Code = http.StatusOK
	}
	return rec.Body.Write(p)
}

func (rec *Recorder) WriteHeader(code int) {
	if rec.Code == 0 {
		rec.Code = code
	}
}

// Relay copies the recorded headers, status and body to w.
func (rec *Recorder) Relay(w http.ResponseWriter) error {
	dst := w.Header()
	for key, values := range rec.header {
		dst[key] = values
	}
	if rec.Code != 0 {
		w.WriteHeader(rec.Code)
	}
	_, err := w.Write(rec.Body.Bytes())
	return err
}
