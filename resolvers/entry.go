package resolvers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/writewithwrabit/calorietrack/models"
	"github.com/writewithwrabit/calorietrack/validation"
)

const maxFormMemory = 1 << 20

// Older form posts named the label field after the entry kind.
var labelAliases = map[models.Kind]string{
	models.Intake:   "meal",
	models.Exertion: "name",
}

var errBadBody = errors.New("unreadable request body")

// flexString accepts both "500" and 500 so JSON clients may send calories
// as a number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

type entryBody struct {
	Label    string     `json:"label"`
	Meal     string     `json:"meal"`
	Name     string     `json:"name"`
	Calories flexString `json:"calories"`
	DateTime string     `json:"datetime"`
}

// readEntry pulls label, calories and datetime out of a JSON, urlencoded or
// multipart body.
func readEntry(req *http.Request, kind models.Kind) (validation.Raw, error) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var body entryBody
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return validation.Raw{}, errBadBody
		}
		label := body.Label
		if label == "" && kind == models.Intake {
			label = body.Meal
		}
		if label == "" && kind == models.Exertion {
			label = body.Name
		}
		return validation.Raw{Label: label, Calories: string(body.Calories), DateTime: body.DateTime}, nil
	}

	if err := req.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return validation.Raw{}, errBadBody
	}
	label := req.PostFormValue(validation.FieldLabel)
	if label == "" {
		label = req.PostFormValue(labelAliases[kind])
	}
	return validation.Raw{
		Label:    label,
		Calories: req.PostFormValue(validation.FieldCalories),
		DateTime: req.PostFormValue(validation.FieldDateTime),
	}, nil
}

// validEntry reads and validates the body, writing the 400 response itself
// when the input is unusable.
func (r *Resolver) validEntry(w http.ResponseWriter, req *http.Request, kind models.Kind) (models.EntryInput, bool) {
	raw, err := readEntry(req, kind)
	if err != nil {
		jsonError(w, msgInvalidInput, http.StatusBadRequest)
		return models.EntryInput{}, false
	}

	in, errs := validation.Entry(raw, r.loc)
	if len(errs) > 0 {
		r.log.Warn("validation failed", "kind", kind, "errors", errs)
		jsonOK(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return models.EntryInput{}, false
	}
	return in, true
}

func (r *Resolver) ListEntries(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		userID, ok := r.user(w, req)
		if !ok {
			return
		}

		entries, err := r.entries.List(req.Context(), kind, userID)
		if err != nil {
			r.fail(w, req, err)
			return
		}
		jsonOK(w, http.StatusOK, entries)
	}
}

func (r *Resolver) CreateEntry(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		userID, ok := r.user(w, req)
		if !ok {
			return
		}
		in, ok := r.validEntry(w, req, kind)
		if !ok {
			return
		}

		entry, err := r.entries.Create(req.Context(), kind, userID, in)
		if err != nil {
			r.fail(w, req, err)
			return
		}
		r.log.Info("entry created", "kind", kind, "id", entry.ID, "calories", entry.Calories)
		jsonOK(w, http.StatusCreated, entry)
	}
}

func (r *Resolver) GetEntry(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		userID, ok := r.user(w, req)
		if !ok {
			return
		}

		entry, err := r.entries.Get(req.Context(), kind, userID, chi.URLParam(req, "id"))
		if err != nil {
			r.fail(w, req, err)
			return
		}
		jsonOK(w, http.StatusOK, entry)
	}
}

func (r *Resolver) UpdateEntry(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		userID, ok := r.user(w, req)
		if !ok {
			return
		}
		in, ok := r.validEntry(w, req, kind)
		if !ok {
			return
		}

		id := chi.URLParam(req, "id")
		entry, err := r.entries.Update(req.Context(), kind, userID, id, in)
		if err != nil {
			r.fail(w, req, err)
			return
		}
		r.log.Info("entry updated", "kind", kind, "id", id, "calories", entry.Calories)
		jsonOK(w, http.StatusOK, entry)
	}
}

func (r *Resolver) DeleteEntry(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		userID, ok := r.user(w, req)
		if !ok {
			return
		}

		id := chi.URLParam(req, "id")
		if err := r.entries.Delete(req.Context(), kind, userID, id); err != nil {
			r.fail(w, req, err)
			return
		}
		r.log.Info("entry deleted", "kind", kind, "id", id)
		jsonOK(w, http.StatusOK, map[string]string{"message": "deleted"})
	}
}
