// Package httpapi exposes the application services over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "github.com/NeoReef/game-backend/internal/app"
	"github.com/NeoReef/game-backend/internal/app/domain/decoration"
	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/domain/player"
	"github.com/NeoReef/game-backend/internal/app/domain/tank"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/genealogy"
	"github.com/NeoReef/game-backend/internal/app/metrics"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

// NewHandler returns a router exposing the REST API, instrumented and rate
// limited.
func NewHandler(application *app.Application, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/players/register", h.registerPlayer).Methods(http.MethodPost)
	r.HandleFunc("/players/{address}", h.getPlayer).Methods(http.MethodGet)
	r.HandleFunc("/players/{address}/starter-pack", h.mintStarterPack).Methods(http.MethodPost)
	r.HandleFunc("/players/{address}/fish", h.listPlayerFish).Methods(http.MethodGet)
	r.HandleFunc("/players/{address}/tanks", h.listPlayerTanks).Methods(http.MethodGet)
	r.HandleFunc("/players/{address}/decorations", h.listPlayerDecorations).Methods(http.MethodGet)

	r.HandleFunc("/fish/feed", h.feedFish).Methods(http.MethodPost)
	r.HandleFunc("/fish/breed", h.breedFish).Methods(http.MethodPost)
	r.HandleFunc("/fish/{id}", h.getFish).Methods(http.MethodGet)
	r.HandleFunc("/fish/{id}/family-tree", h.familyTree).Methods(http.MethodGet)

	r.HandleFunc("/tanks/{id}", h.getTank).Methods(http.MethodGet)

	r.HandleFunc("/decorations/{id}/activate", h.activateDecoration).Methods(http.MethodPost)
	r.HandleFunc("/decorations/{id}/deactivate", h.deactivateDecoration).Methods(http.MethodPost)

	r.Use(mux.MiddlewareFunc(requestLogger(log)))
	r.Use(mux.MiddlewareFunc(rateLimiter()))
	return metrics.InstrumentHandler(r)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Address string `json:"address"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.app.Players.Register(r.Context(), payload.Address)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, playerView(p))
}

func (h *handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Players.Get(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, playerView(p))
}

func (h *handler) mintStarterPack(w http.ResponseWriter, r *http.Request) {
	pack, err := h.app.Players.MintStarterPack(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	fishViews := make([]fishRowView, 0, len(pack.Fish))
	for _, f := range pack.Fish {
		fishViews = append(fishViews, fishRow(f))
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"tank":   tankRow(pack.Tank),
		"fish":   fishViews,
		"tx_ids": pack.TxIDs,
	})
}

func (h *handler) listPlayerFish(w http.ResponseWriter, r *http.Request) {
	rows, err := h.app.Fish.ListByOwner(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	out := make([]fishRowView, 0, len(rows))
	for _, row := range rows {
		out = append(out, fishRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) listPlayerTanks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.app.Tanks.ListByOwner(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	out := make([]tankRowView, 0, len(rows))
	for _, row := range rows {
		out = append(out, tankRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) listPlayerDecorations(w http.ResponseWriter, r *http.Request) {
	decors, err := h.app.Decorations.ListByOwner(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	out := make([]decorationView, 0, len(decors))
	for _, d := range decors {
		out = append(out, decorView(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) feedFish(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Owner   string  `json:"owner"`
		FishIDs []int64 `json:"fish_ids"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := h.app.Fish.FeedBatch(r.Context(), payload.Owner, payload.FishIDs)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fish_ids":    result.FishIDs,
		"xp_per_fish": result.XPPerFish,
		"total_xp":    result.TotalXP,
		"tx_ids":      result.TxIDs,
	})
}

func (h *handler) breedFish(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Owner   string `json:"owner"`
		Fish1ID int64  `json:"fish1_id"`
		Fish2ID int64  `json:"fish2_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	offspring, err := h.app.Fish.Breed(r.Context(), payload.Owner, payload.Fish1ID, payload.Fish2ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, fishView(offspring))
}

func (h *handler) getFish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	f, err := h.app.Fish.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, fishView(f))
}

func (h *handler) familyTree(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tree, err := h.app.Fish.FamilyTree(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, treeView(tree))
}

func (h *handler) getTank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, err := h.app.Tanks.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, tankView(t))
}

func (h *handler) activateDecoration(w http.ResponseWriter, r *http.Request) {
	h.toggleDecoration(w, r, true)
}

func (h *handler) deactivateDecoration(w http.ResponseWriter, r *http.Request) {
	h.toggleDecoration(w, r, false)
}

func (h *handler) toggleDecoration(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		Owner string `json:"owner"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var d decoration.Decoration
	if active {
		d, err = h.app.Decorations.Activate(r.Context(), payload.Owner, id)
	} else {
		d, err = h.app.Decorations.Deactivate(r.Context(), payload.Owner, id)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, decorView(d))
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errs.Validationf("invalid id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsConflict(err):
		return http.StatusConflict
	case errs.IsOnChain(err):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return errs.Validationf("request body is required")
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Response shapes. The domain structs are kept tag-free; the wire format is
// pinned here.

type playerViewT struct {
	Address          string    `json:"address"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	TotalXP          float64   `json:"total_xp"`
	FishCount        int64     `json:"fish_count"`
	TournamentsWon   int64     `json:"tournaments_won"`
	Reputation       int64     `json:"reputation"`
	OffspringCreated int64     `json:"offspring_created"`
	CreatedAt        time.Time `json:"created_at"`
}

func playerView(p player.Player) playerViewT {
	return playerViewT{
		Address:          p.Address,
		AvatarURL:        p.AvatarURL,
		TotalXP:          p.TotalXP,
		FishCount:        p.FishCount,
		TournamentsWon:   p.TournamentsWon,
		Reputation:       p.Reputation,
		OffspringCreated: p.OffspringCreated,
		CreatedAt:        p.CreatedAt,
	}
}

type fishRowView struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Species   string    `json:"species"`
	ImageURL  string    `json:"image_url,omitempty"`
	TankID    *int64    `json:"tank_id,omitempty"`
	Parent1ID *int64    `json:"parent1_id,omitempty"`
	Parent2ID *int64    `json:"parent2_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func fishRow(row fish.Row) fishRowView {
	return fishRowView{
		ID:        row.ID,
		Owner:     row.Owner,
		Species:   row.Species,
		ImageURL:  row.ImageURL,
		TankID:    row.TankID,
		Parent1ID: row.Parent1ID,
		Parent2ID: row.Parent2ID,
		CreatedAt: row.CreatedAt,
	}
}

type fishViewT struct {
	fishRowView
	XP           float64    `json:"xp"`
	State        fish.State `json:"state"`
	Hunger       int64      `json:"hunger"`
	ReadyToBreed bool       `json:"ready_to_breed"`
	DNA          string     `json:"dna,omitempty"`
}

func fishView(f fish.Fish) fishViewT {
	return fishViewT{
		fishRowView:  fishRow(f.Row),
		XP:           f.XP,
		State:        f.State,
		Hunger:       f.Hunger,
		ReadyToBreed: f.ReadyToBreed,
		DNA:          f.DNA,
	}
}

type tankRowView struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	SpriteURL string    `json:"sprite_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func tankRow(row tank.Row) tankRowView {
	return tankRowView{
		ID:        row.ID,
		Owner:     row.Owner,
		Name:      row.Name,
		SpriteURL: row.SpriteURL,
		CreatedAt: row.CreatedAt,
	}
}

type tankViewT struct {
	tankRowView
	Capacity int64 `json:"capacity"`
}

func tankView(t tank.Tank) tankViewT {
	return tankViewT{tankRowView: tankRow(t.Row), Capacity: t.Capacity}
}

type decorationView struct {
	ID           int64           `json:"id"`
	Owner        string          `json:"owner"`
	Kind         decoration.Kind `json:"kind"`
	IsActive     bool            `json:"is_active"`
	ImageURL     string          `json:"image_url,omitempty"`
	XPMultiplier int64           `json:"xp_multiplier"`
	CreatedAt    time.Time       `json:"created_at"`
}

func decorView(d decoration.Decoration) decorationView {
	return decorationView{
		ID:           d.ID,
		Owner:        d.Owner,
		Kind:         d.Kind,
		IsActive:     d.IsActive,
		ImageURL:     d.ImageURL,
		XPMultiplier: d.XPMultiplier,
		CreatedAt:    d.CreatedAt,
	}
}

type treeNodeView struct {
	Fish       fishRowView `json:"fish"`
	Generation int         `json:"generation"`
}

type treeViewT struct {
	Ancestors   []treeNodeView `json:"ancestors"`
	Descendants []treeNodeView `json:"descendants"`
}

func treeView(tree genealogy.FamilyTree) treeViewT {
	out := treeViewT{
		Ancestors:   make([]treeNodeView, 0, len(tree.Ancestors)),
		Descendants: make([]treeNodeView, 0, len(tree.Descendants)),
	}
	for _, n := range tree.Ancestors {
		out.Ancestors = append(out.Ancestors, treeNodeView{Fish: fishRow(n.Fish), Generation: n.Generation})
	}
	for _, n := range tree.Descendants {
		out.Descendants = append(out.Descendants, treeNodeView{Fish: fishRow(n.Fish), Generation: n.Generation})
	}
	return out
}
