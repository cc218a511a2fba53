package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripmate/travel-platform/internal/auth"
	"github.com/tripmate/travel-platform/internal/middleware"
	"github.com/tripmate/travel-platform/internal/model"
	"github.com/tripmate/travel-platform/internal/service"
	"github.com/tripmate/travel-platform/pkg/logger"
)

// ConversationsPath is the collection URL for assistant conversations.
const ConversationsPath = "/api/v1/assistant/conversations"

// AssistantHandler handles assistant conversations.
type AssistantHandler struct {
	assistant *service.AssistantService
	logger    *logger.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(svc *service.AssistantService, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: svc, logger: log}
}

type promptsResponse struct {
	QuickPrompts []model.PromptCategory   `json:"quick_prompts"`
	Templates    []service.PromptTemplate `json:"templates"`
}

// createConversationRequest optionally opens the conversation with a first
// message, either given directly or rendered from a prompt template.
type createConversationRequest struct {
	Message  string               `json:"message,omitempty"`
	Template string               `json:"template,omitempty"`
	Params   service.PromptParams `json:"params"`
}

// Prompts handles GET /api/v1/assistant/prompts
func (h *AssistantHandler) Prompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, promptsResponse{
		QuickPrompts: service.QuickPrompts(),
		Templates:    service.PromptTemplates(),
	})
}

// Create handles POST /api/v1/assistant/conversations
func (h *AssistantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	text := req.Message
	if req.Template != "" {
		rendered, err := service.RenderPrompt(req.Template, req.Params)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		text = rendered
	}
	if text != "" {
		if err := middleware.ValidateMessageContent(text); err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
	}

	ctx := r.Context()
	sess := auth.SessionFrom(ctx)
	conv, err := h.assistant.Start(ctx, sess)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", ConversationsPath+"/"+conv.ID)

	if text == "" {
		writeJSON(w, http.StatusCreated, conv)
		return
	}

	resp, err := h.assistant.Send(ctx, sess, conv.ID, text)
	if err != nil {
		h.writeSendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Conversation)
}

// Get handles GET /api/v1/assistant/conversations/{id}
func (h *AssistantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	conv, err := h.assistant.Get(auth.SessionFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /api/v1/assistant/conversations/{id}
func (h *AssistantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.assistant.End(auth.SessionFrom(r.Context()), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Send handles POST /api/v1/assistant/conversations/{id}/messages
func (h *AssistantHandler) Send(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp, err := h.assistant.Send(r.Context(), auth.SessionFrom(r.Context()), id, req.Content)
	if err != nil {
		h.writeSendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeSendError attaches the fallback reply when the model call failed.
func (h *AssistantHandler) writeSendError(w http.ResponseWriter, err error) {
	status, body := errorFor(err)
	if errors.Is(err, model.ErrUpstream) {
		body.Reply = service.FallbackReply
	}
	logError(h.logger, status, err)
	writeJSON(w, status, body)
}
