package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tokoassist/internal/auth"
	"tokoassist/internal/catalog"
	"tokoassist/internal/core"
	"tokoassist/internal/session"
	"tokoassist/internal/shopping"
)

const chatErrorMessage = "I'm sorry, but I encountered an error while processing your request. Please try again."

type APIHandler struct {
	chatService  *core.ChatService
	catalog      *catalog.Store
	sessions     *session.Service
	shoppingList *shopping.Service
}

func NewAPIHandler(cs *core.ChatService, cat *catalog.Store, sess *session.Service, list *shopping.Service) *APIHandler {
	return &APIHandler{
		chatService:  cs,
		catalog:      cat,
		sessions:     sess,
		shoppingList: list,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// --- Chat ---

type ChatRequest struct {
	Messages []core.Message `json:"messages"`
	Mode     string         `json:"mode"`
}

type ChatError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// ChatHandler relays the provider's token stream to the client, one
// write and flush per chunk, with no re-framing. Failures before the
// first token become a single JSON error response; failures after it can
// only be logged, the status line is already on the wire.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, ChatError{Error: chatErrorMessage, Details: err.Error()})
		return
	}

	tokens, errs, err := h.chatService.StreamResponse(r.Context(), req.Messages, core.ParseMode(req.Mode))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ChatError{Error: chatErrorMessage, Details: err.Error()})
		return
	}

	flusher, canFlush := w.(http.Flusher)

	streaming := false
	for tok := range tokens {
		if !streaming {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			streaming = true
		}
		if _, err := io.WriteString(w, tok); err != nil {
			// Client went away; the request context cancellation tears
			// down the provider stream.
			log.Printf("Chat stream write failed: %v", err)
			break
		}
		if canFlush {
			flusher.Flush()
		}
	}

	if err := <-errs; err != nil {
		if streaming {
			log.Printf("Chat stream aborted mid-response: %v", err)
			return
		}
		writeJSON(w, http.StatusInternalServerError, ChatError{Error: chatErrorMessage, Details: err.Error()})
	}
}

// --- Products ---

func (h *APIHandler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List()
	if err != nil {
		log.Printf("Failed to read products: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *APIHandler) AddProductHandler(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.catalog.Add(req)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingFields) {
			writeMessage(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		log.Printf("Failed to add product: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

type DeleteProductRequest struct {
	ID string `json:"id"`
}

func (h *APIHandler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	var req DeleteProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		writeMessage(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.catalog.Delete(req.ID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Printf("Failed to delete product %s: %v", req.ID, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

// --- Login (cosmetic placeholder) ---

type LoginRequest struct {
	Role string `json:"role"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Role != "customer" && req.Role != "admin" {
		writeMessage(w, http.StatusBadRequest, "Role must be customer or admin")
		return
	}

	token, err := auth.GenerateToken(req.Role)
	if err != nil {
		log.Printf("Failed to generate token for role %s: %v", req.Role, err)
		writeMessage(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// --- Sessions ---

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create()
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *APIHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.List())
}

func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Printf("Failed to get session: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Printf("Failed to delete session %s: %v", sessionID, err)
		writeMessage(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *APIHandler) AppendMessageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Message content cannot be empty")
		return
	}

	msg, err := h.sessions.AppendMessage(sessionID, req.Role, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, session.ErrInvalidRole):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Failed to append message to session %s: %v", sessionID, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to store message")
		}
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *APIHandler) ClearSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessions.ClearMessages(sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Printf("Failed to clear session %s: %v", sessionID, err)
		writeMessage(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type RenameSessionRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) RenameSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.sessions.Rename(sessionID, req.Name); err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, session.ErrEmptyName):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Failed to rename session %s: %v", sessionID, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to rename session")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Shopping list ---

func (h *APIHandler) GetShoppingListHandler(w http.ResponseWriter, r *http.Request) {
	items := h.shoppingList.Items()
	if items == nil {
		items = []shopping.ListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// AddShoppingItemsRequest carries either explicit items or a raw
// assistant reply from list mode, which is decoded server-side.
type AddShoppingItemsRequest struct {
	Items []shopping.NewListItem `json:"items,omitempty"`
	Reply string                 `json:"reply,omitempty"`
}

func (h *APIHandler) AddShoppingItemsHandler(w http.ResponseWriter, r *http.Request) {
	var req AddShoppingItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	items := req.Items
	if req.Reply != "" {
		if len(items) > 0 {
			writeMessage(w, http.StatusBadRequest, "Provide either items or a reply, not both")
			return
		}
		decoded := core.DecodeAssistantReply(req.Reply)
		if decoded.Kind != core.ReplyShoppingList {
			writeMessage(w, http.StatusUnprocessableEntity, "Reply does not contain a shopping list")
			return
		}
		for _, entry := range decoded.List.ShoppingListItems {
			items = append(items, shopping.NewListItem{
				ProductName:  entry.ProductName,
				Quantity:     entry.Quantity,
				RackLocation: entry.RackLocation,
			})
		}
	}

	added, err := h.shoppingList.AddBatch(items)
	if err != nil {
		switch {
		case errors.Is(err, shopping.ErrEmptyBatch), errors.Is(err, shopping.ErrMissingName):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Failed to add shopping list items: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to add items")
		}
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *APIHandler) ToggleShoppingItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	item, err := h.shoppingList.Toggle(itemID)
	if err != nil {
		if errors.Is(err, shopping.ErrItemNotFound) {
			writeMessage(w, http.StatusNotFound, "Shopping list item not found")
			return
		}
		log.Printf("Failed to toggle shopping list item %s: %v", itemID, err)
		writeMessage(w, http.StatusInternalServerError, "Failed to toggle item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *APIHandler) ClearShoppingListHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.shoppingList.Clear(); err != nil {
		log.Printf("Failed to clear shopping list: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to clear shopping list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
