package sink

import (
	"net/http"

	"github.com/srodi/procreport/pkg/report"
)

// ReportPath is the endpoint the report is served on.
const ReportPath = "/proc_report"

// storeFunc returns the currently published store, or nil when there is none.
type storeFunc func() *report.Store

// reportHandler renders the published store on every request.
func reportHandler(current storeFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		store := current()
		if store == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = report.WriteTo(w, store)
	})
}
