package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"finwatch/internal/models"
)

const defaultBrowseLimit = 100

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	libraries, err := s.gw.Libraries(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, libraries)
}

func (s *Server) handleLibraryItems(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")

	var kinds []models.ItemKind
	if raw := r.URL.Query().Get("kinds"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			kinds = append(kinds, models.ItemKind(k))
		}
	}
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "SortName"
	}
	limit := defaultBrowseLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items, err := s.gw.ItemsByParent(r.Context(), parentID, kinds, sortBy, limit)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type itemDetail struct {
	models.MediaItem
	LibraryName string `json:"library_name,omitempty"`
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.gw.Item(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemDetail{
		MediaItem:   item,
		LibraryName: s.libraryName(r.Context(), item.ID),
	})
}

// libraryName resolves the display name of the library an item lives
// in. Items reached through resume or next-up never pass through the
// views list, so the ancestor chain is the only source. Best effort: a
// lookup failure leaves the name empty.
func (s *Server) libraryName(ctx context.Context, itemID string) string {
	ancestors, err := s.gw.Ancestors(ctx, itemID)
	if err != nil {
		log.Printf("server: resolving library for %s: %v", itemID, err)
		return ""
	}
	for _, a := range ancestors {
		if a.Kind == models.KindCollectionFolder {
			return a.Name
		}
	}
	return ""
}

// handleItemImage redirects to the item's artwork on the media server,
// following the primary, backdrop, parent-backdrop fallback order.
func (s *Server) handleItemImage(w http.ResponseWriter, r *http.Request) {
	item, err := s.gw.Item(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	url := s.gw.ImageURL(item)
	if url == "" {
		writeError(w, http.StatusNotFound, "no artwork")
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (s *Server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	s.userDataToggle(w, r, s.gw.MarkFavorite)
}

func (s *Server) handleUnsetFavorite(w http.ResponseWriter, r *http.Request) {
	s.userDataToggle(w, r, s.gw.MarkUnfavorite)
}

func (s *Server) handleSetWatched(w http.ResponseWriter, r *http.Request) {
	s.userDataToggle(w, r, s.gw.MarkWatched)
}

func (s *Server) handleUnsetWatched(w http.ResponseWriter, r *http.Request) {
	s.userDataToggle(w, r, s.gw.MarkUnwatched)
}

// userDataToggle round-trips a state change through the server and
// returns the re-fetched item, since items are never mutated locally.
func (s *Server) userDataToggle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	if err := op(r.Context(), id); err != nil {
		writeGatewayError(w, err)
		return
	}
	item, err := s.gw.Item(r.Context(), id)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
