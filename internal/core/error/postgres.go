package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// WrapPostgres maps database errors to AppError with appropriate status codes.
// pgx.ErrNoRows is not an error for the analytic path; callers see an empty
// row set and emit a no_data warning instead.
func WrapPostgres(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}

	return New(err, http.StatusBadGateway, PostgresErrorMessage)
}

// WrapLLM marks a learned-model failure. These never abort a turn: callers
// fall back to the heuristic extractor or a templated explanation.
func WrapLLM(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, LLMErrorMessage)
}
