package control

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/golang/glog"
)

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Infof("%v %v %v %v (%v) req: %v", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start), middleware.GetReqID(r.Context()))
	})
}
