package http

import (
	"net/http"
	"strconv"

	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/pagination"
)

// pageParams reads page and per_page, rejecting malformed or out-of-range
// values instead of silently replacing them.
func pageParams(w http.ResponseWriter, r *http.Request) (pagination.Params, bool) {
	p := pagination.DefaultParams()
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			writeInvalidParameter(w, "page must be a valid positive integer")
			return p, false
		}
		p.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > pagination.MaxPerPage {
			writeInvalidParameter(w, "per_page must be a valid integer between 1 and 100")
			return p, false
		}
		p.PerPage = perPage
	}
	return p, true
}

func writeInvalidParameter(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}
