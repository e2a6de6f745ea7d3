package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/toasty/internal/config"
	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/layout"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/notify"
)

type handler struct {
	notifier *notify.Notifier
	regions  *display.Regions
	logger   *slog.Logger
}

// notificationRequest is the POST body. Durations are strings such as
// "3s", "300ms" or "1500" (milliseconds).
type notificationRequest struct {
	Group            string           `json:"group"`
	Title            string           `json:"title"`
	Text             string           `json:"text"`
	Type             string           `json:"type"`
	Duration         *config.Duration `json:"duration,omitempty"`
	Speed            *config.Duration `json:"speed,omitempty"`
	IgnoreDuplicates *bool            `json:"ignore_duplicates,omitempty"`
	Data             any              `json:"data,omitempty"`
}

func (req notificationRequest) toModel(id uint64) model.Request {
	out := model.Request{
		ID:               id,
		Group:            req.Group,
		Title:            req.Title,
		Text:             req.Text,
		Type:             req.Type,
		Data:             req.Data,
		IgnoreDuplicates: req.IgnoreDuplicates,
	}
	if req.Duration != nil {
		out = out.WithDuration(req.Duration.Duration())
	}
	if req.Speed != nil {
		out = out.WithSpeed(req.Speed.Duration())
	}
	return out
}

// RegionView is one region in the GET /api/v1/regions response.
type RegionView struct {
	Group    string            `json:"group"`
	Position string            `json:"position"`
	Width    string            `json:"width"`
	Styles   map[string]string `json:"styles"`
	Items    []ItemView        `json:"items"`
}

// ItemView is an active item with its live countdown state.
// RemainingMS is absent for sticky items.
type ItemView struct {
	model.Item
	RemainingMS *int64 `json:"remaining_ms,omitempty"`
	Paused      bool   `json:"paused,omitempty"`
}

// health handles GET /health
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// create handles POST /api/v1/notifications
func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var body notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Title == "" && body.Text == "" {
		respondError(w, http.StatusUnprocessableEntity, "title or text is required")
		return
	}
	if _, ok := h.regions.Get(body.Group); !ok {
		respondError(w, http.StatusNotFound, "unknown group "+strconv.Quote(body.Group))
		return
	}

	id := model.NextID()
	h.notifier.Notify(body.toModel(id))
	respondJSON(w, http.StatusAccepted, map[string]uint64{"id": id})
}

// dismiss handles DELETE /api/v1/notifications/{id}
func (h *handler) dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	h.notifier.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// clear handles DELETE /api/v1/notifications?group=name
func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	if _, ok := h.regions.Get(group); !ok {
		respondError(w, http.StatusNotFound, "unknown group "+strconv.Quote(group))
		return
	}
	h.notifier.Clear(group)
	w.WriteHeader(http.StatusNoContent)
}

// listRegions handles GET /api/v1/regions
func (h *handler) listRegions(w http.ResponseWriter, r *http.Request) {
	managers := h.regions.Managers()
	out := make([]RegionView, 0, len(managers))
	for _, m := range managers {
		opts := m.Options()
		view := RegionView{
			Group:    opts.Group,
			Position: opts.Position.String(),
			Width:    opts.Width.String(),
			Styles:   layout.Styles(opts.Position, opts.Width),
			Items:    []ItemView{},
		}
		for _, item := range m.Active() {
			iv := ItemView{Item: item, Paused: m.Paused(item.ID)}
			if rem, ok := m.Remaining(item.ID); ok {
				ms := rem.Round(time.Millisecond).Milliseconds()
				iv.RemainingMS = &ms
			}
			view.Items = append(view.Items, iv)
		}
		out = append(out, view)
	}
	respondJSON(w, http.StatusOK, out)
}
