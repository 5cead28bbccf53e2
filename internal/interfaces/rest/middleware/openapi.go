package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// OpenAPIValidator checks requests against the API document before they reach
// a handler. Requests for paths the document does not describe pass through.
func OpenAPIValidator(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         false,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				rest.WriteError(w, application.NewValidationError(requestError(err)), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// requestError trims kin-openapi's verbose error down to the failing part.
func requestError(err error) error {
	if reqErr, ok := err.(*openapi3filter.RequestError); ok {
		if reqErr.Parameter != nil {
			return fmt.Errorf("parameter %q: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		if reqErr.Reason != "" {
			return fmt.Errorf("request body: %s", reqErr.Reason)
		}
		if reqErr.Err != nil {
			return fmt.Errorf("request body: %v", reqErr.Err)
		}
	}
	return err
}
