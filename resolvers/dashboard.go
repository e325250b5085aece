package resolvers

import (
	"net/http"
	"strconv"

	"github.com/writewithwrabit/calorietrack/calendar"
)

const maxTrailingDays = 366

// Dashboard serves the daily intake/burned series. ?month=YYYY-MM picks a
// month (falling back to the current one); ?days=N picks the N days ending
// today instead.
func (r *Resolver) Dashboard(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.user(w, req)
	if !ok {
		return
	}

	rng, ok := r.dashboardRange(req)
	if !ok {
		jsonError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}

	series, err := r.dashboard.Aggregate(req.Context(), rng, userID)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	jsonOK(w, http.StatusOK, series)
}

func (r *Resolver) dashboardRange(req *http.Request) (calendar.Range, bool) {
	q := req.URL.Query()
	now := r.now().In(r.loc)

	if days := q.Get("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 1 || n > maxTrailingDays {
			return calendar.Range{}, false
		}
		return calendar.TrailingDays(n, now), true
	}
	return calendar.Resolve(q.Get("month"), now), true
}

// Health pings the database.
func (r *Resolver) Health(w http.ResponseWriter, req *http.Request) {
	if err := r.entries.Ping(req.Context()); err != nil {
		r.log.Error("health check failed", "error", err)
		jsonOK(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	jsonOK(w, http.StatusOK, map[string]string{"status": "ok"})
}
