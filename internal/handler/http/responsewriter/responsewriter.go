// Package responsewriter records what a handler wrote so that middleware
// can log, measure and trace the response after the fact.
package responsewriter

import "net/http"

// Recorder is an http.ResponseWriter that remembers the status code and
// the number of body bytes. Only the first WriteHeader is forwarded.
type Recorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

// Wrap returns a Recorder around w. The status reads 200 until the handler
// sets one.
func Wrap(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *Recorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *Recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Status returns the status code sent to the client.
func (r *Recorder) Status() int { return r.status }

// Size returns the number of body bytes written.
func (r *Recorder) Size() int { return r.size }

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *Recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
