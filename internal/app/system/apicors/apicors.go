// Package apicors provides CORS middleware for the public read API.
//
// The reader, search and page-view endpoints are called from documentation
// sites hosted on other origins. They carry no cookies, so credentials are
// never allowed and "*" is an acceptable origin list.
//
//	r.Group(func(r chi.Router) {
//	    r.Use(apicors.Middleware(appCfg.PublicCORSOrigins))
//	    r.Mount("/api/public", reader.Routes(h))
//	})
package apicors

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Middleware returns CORS middleware for public endpoints. An empty origin
// list allows any origin.
func Middleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400, // 24 hours
	})
}
