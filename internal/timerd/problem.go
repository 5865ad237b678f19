package timerd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/timer"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

const typeUnknown = "urn:planr:error:unknown"

// problemKinds maps domain errors to status codes and type URIs. The client
// reverses the mapping so callers can use errors.Is across the socket.
var problemKinds = []struct {
	err     error
	status  int
	typeURI string
}{
	{timer.ErrNotRunning, http.StatusConflict, "urn:planr:timer:not-running"},
	{timer.ErrBusy, http.StatusConflict, "urn:planr:timer:busy"},
	{timer.ErrNoTask, http.StatusUnprocessableEntity, "urn:planr:timer:no-task"},
	{planner.ErrPersistence, http.StatusServiceUnavailable, "urn:planr:storage:unavailable"},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, typeURI, detail string) {
	p := Problem{
		Type:     typeURI,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range problemKinds {
		if errors.Is(err, k.err) {
			WriteProblem(w, r, k.status, k.typeURI, k.err.Error())
			return
		}
	}
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	WriteProblem(w, r, http.StatusInternalServerError, typeUnknown, "Internal Server Error")
}

// problemError turns a decoded problem back into an error wrapping the
// matching domain sentinel.
func problemError(p *Problem) error {
	for _, k := range problemKinds {
		if p.Type == k.typeURI {
			return fmt.Errorf("timerd: %w", k.err)
		}
	}
	return fmt.Errorf("timerd: %w", p)
}
