package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/internal/navdata"
)

// maxBodyBytes caps JSON request bodies (ad-hoc point series included)
const maxBodyBytes = 4 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// statusFor maps domain sentinels to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrFundNotFound),
		errors.Is(err, navdata.ErrNotFound),
		errors.Is(err, eastmoney.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, analysis.ErrInvalidArgument),
		errors.Is(err, eastmoney.ErrInvalidCode),
		errors.Is(err, eastmoney.ErrTooManyCodes):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes err with its mapped status; 5xx details stay in the log
func respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

// parseDays reads ?days= (default analysis.DefaultDays, "all" or 0 = full history)
func parseDays(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("days"))
	switch raw {
	case "":
		return analysis.DefaultDays, nil
	case "all":
		return 0, nil
	}
	d, err := strconv.Atoi(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: days must be a non-negative integer", analysis.ErrInvalidArgument)
	}
	return d, nil
}

// parseCodes splits "a,b,c" and drops blanks
func parseCodes(raw string) []string {
	var codes []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", analysis.ErrInvalidArgument, err)
	}
	return nil
}
