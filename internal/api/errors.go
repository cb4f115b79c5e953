package api

import (
	"net/http"

	"github.com/kylejryan/vehicle-claims-api/internal/claims"
)

// ErrorStatus maps a store failure to the HTTP status and message returned to the client.
func ErrorStatus(err error) (int, string) {
	switch claims.KindOf(err) {
	case claims.KindNotFound:
		return http.StatusNotFound, MsgClaimNotFound
	case claims.KindValidation:
		return http.StatusBadRequest, err.Error()
	case claims.KindConflict:
		return http.StatusConflict, err.Error()
	default:
		// Invalid ids and repository failures; the underlying text is passed through.
		return http.StatusInternalServerError, err.Error()
	}
}
