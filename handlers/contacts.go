package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/cache"
	"go.uber.org/zap"

	"contacts-service/models"
	"contacts-service/store"
	"contacts-service/validation"
)

// ContactHandler implements owner-scoped contact CRUD. Single-contact
// responses are cached per owner and invalidated on every mutation.
type ContactHandler struct {
	contacts *store.ContactStore
	cache    cache.Cache
}

func NewContactHandler(contacts *store.ContactStore, cache cache.Cache) *ContactHandler {
	return &ContactHandler{contacts: contacts, cache: cache}
}

func contactCacheKey(owner, id string) string {
	return "contact:" + owner + ":" + id
}

// List handles GET /contacts?page=&limit=&favorite=
func (h *ContactHandler) List(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	favoriteOnly := query.Get("favorite") == "true"

	contacts, err := h.contacts.List(ctx, user.ID, page, limit, favoriteOnly)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Contacts listed",
		zap.String("user_id", user.ID), zap.Int("count", len(contacts)))

	respondJSON(w, http.StatusOK, contacts)
}

// Get handles GET /contacts/{id}
func (h *ContactHandler) Get(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	id := mux.Vars(r)["id"]

	cacheKey := contactCacheKey(user.ID, id)
	if cached, err := h.cache.Get(cacheKey); err == nil {
		logRequest(ctx, "debug", "Serving contact from cache", zap.String("contact_id", id))
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached.([]byte))
		return
	}

	contact, err := h.contacts.GetByID(ctx, user.ID, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	response, _ := json.Marshal(contact)
	h.cache.Set(cacheKey, response, 10*time.Minute)

	w.Header().Set("Content-Type", "application/json")
	w.Write(response)
}

// Create handles POST /contacts
func (h *ContactHandler) Create(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	body, _ := io.ReadAll(r.Body)
	fields, verr := validation.ContactAdd.Validate(body)
	if verr != nil {
		respondError(ctx, w, verr)
		return
	}

	contact := &models.Contact{
		Name:     fields["name"].(string),
		Email:    fields["email"].(string),
		Phone:    fields["phone"].(string),
		Favorite: fields["favorite"].(bool),
	}

	if err := h.contacts.Create(ctx, user.ID, contact); err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Contact created",
		zap.String("user_id", user.ID), zap.String("contact_id", contact.ID))

	respondJSON(w, http.StatusCreated, contact)
}

// Update handles PUT /contacts/{id}
func (h *ContactHandler) Update(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	id := mux.Vars(r)["id"]

	body, _ := io.ReadAll(r.Body)
	fields, verr := validation.ContactUpdate.Validate(body)
	if verr != nil {
		respondError(ctx, w, verr)
		return
	}

	contact, err := h.contacts.Update(ctx, user.ID, id, fields)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.cache.Delete(contactCacheKey(user.ID, id))

	logRequest(ctx, "info", "Contact updated",
		zap.String("user_id", user.ID), zap.String("contact_id", id))

	respondJSON(w, http.StatusOK, contact)
}

// UpdateFavorite handles PATCH /contacts/{id}/favorite
func (h *ContactHandler) UpdateFavorite(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	id := mux.Vars(r)["id"]

	body, _ := io.ReadAll(r.Body)
	fields, verr := validation.StatusUpdate.Validate(body)
	if verr != nil {
		respondError(ctx, w, verr)
		return
	}

	contact, err := h.contacts.SetFavorite(ctx, user.ID, id, fields["favorite"].(bool))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.cache.Delete(contactCacheKey(user.ID, id))

	logRequest(ctx, "info", "Contact favorite updated",
		zap.String("user_id", user.ID), zap.String("contact_id", id))

	respondJSON(w, http.StatusOK, contact)
}

// Delete handles DELETE /contacts/{id}
func (h *ContactHandler) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	id := mux.Vars(r)["id"]

	if err := h.contacts.Delete(ctx, user.ID, id); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.cache.Delete(contactCacheKey(user.ID, id))

	logRequest(ctx, "info", "Contact removed",
		zap.String("user_id", user.ID), zap.String("contact_id", id))

	respondJSON(w, http.StatusOK, map[string]string{"message": "Contact successfully removed"})
}
