package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	middleware "github.com/ilkecodes/sdr-agent-system/internal/api/middlewares"
	"github.com/ilkecodes/sdr-agent-system/internal/core"
	db "github.com/ilkecodes/sdr-agent-system/internal/core/database"
)

type QueryHandler struct {
	dbclient db.DbClient
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
}

func NewQueryHandler(dbc db.DbClient, emb core.EmbeddingProvider, llm core.LLMProvider) *QueryHandler {
	return &QueryHandler{dbclient: dbc, embedder: emb, llm: llm}
}

type QueryRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
}

// QueryDocument embeds the question, retrieves the closest chunks for the
// caller's document, and asks the LLM to answer from that context only.
func (h *QueryHandler) QueryDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	// Confirm document belongs to user
	doc, err := h.dbclient.GetDocumentByID(ctx, req.DocumentID)
	if err != nil || doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if doc.UserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// Embed the query
	vecs, err := h.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil || len(vecs) == 0 {
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), http.StatusInternalServerError)
		return
	}
	queryVec := vecs[0]

	// Chunks are keyed by the content checksum recorded after conversion. A
	// document still converting has no checksum yet, so the search falls back to
	// the whole corpus.
	chunks, err := h.dbclient.SearchChunks(ctx, doc.Checksum, queryVec, 5)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	for _, ch := range chunks {
		sb.WriteString(ch.Content)
		sb.WriteString("\n---\n")
	}

	systemPrompt := "You are an intelligent assistant answering based only on the given document content. If unsure, say 'I cannot find this in the document.'"
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", sb.String(), req.Query)

	answer, err := h.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		http.Error(w, fmt.Sprintf("LLM failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"answer": answer,
	})
}
