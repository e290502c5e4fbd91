package api

import (
	"errors"
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 200
)

type page struct {
	number  int
	perPage int
}

// parsePage reads ?page=N&per_page=M. Pages are numbered from 1. ok is false
// when the request does not ask for a page, in which case the full list is
// returned.
func parsePage(r *http.Request) (p page, ok bool, err error) {
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("per_page") == "" {
		return page{}, false, nil
	}

	p = page{number: 1, perPage: defaultPerPage}
	if v := q.Get("page"); v != "" {
		if p.number, err = strconv.Atoi(v); err != nil || p.number < 1 {
			return page{}, false, errors.New("page must be a positive integer")
		}
	}
	if v := q.Get("per_page"); v != "" {
		if p.perPage, err = strconv.Atoi(v); err != nil || p.perPage < 1 || p.perPage > maxPerPage {
			return page{}, false, errors.New("per_page must be between 1 and 200")
		}
	}
	return p, true, nil
}

// bounds returns the slice window of the page over total items.
func (p page) bounds(total int) (start, end int) {
	if p.number-1 > total/p.perPage {
		return total, total
	}
	start = min((p.number-1)*p.perPage, total)
	end = start + p.perPage
	if end > total {
		end = total
	}
	return start, end
}

// paginate applies the page requested by r to items and sets X-Total-Count.
// It writes a 400 and returns false on a malformed page request.
func paginate[T any](w http.ResponseWriter, r *http.Request, items []T) ([]T, bool) {
	p, ok, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	if !ok {
		return items, true
	}
	start, end := p.bounds(len(items))
	return items[start:end], true
}
