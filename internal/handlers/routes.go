package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the record routes.
// Admission control runs at the router level, so it also covers unmatched paths.
func RegisterRoutes(api huma.API, recordHandler *RecordHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-record",
		Method:      http.MethodGet,
		Path:        "/v1/get",
		Summary:     "Get record",
		Description: "Greets the record with the given name if it exists.",
		Tags:        []string{"Records"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTooManyRequests},
	}, recordHandler.GetRecord)

	huma.Register(api, huma.Operation{
		OperationID: "set-record",
		Method:      http.MethodPost,
		Path:        "/v1/set",
		Summary:     "Set record",
		Description: "Creates the record with the given name, or rewrites it if it already exists.",
		Tags:        []string{"Records"},
		Errors:      []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError},
	}, recordHandler.SetRecord)
}
