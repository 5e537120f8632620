package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/metrics"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
)

const (
	pdfContentType = "application/pdf"
	// multipartMemory is how much of a multipart body is held in memory
	// before parts spill to temporary files.
	multipartMemory = 8 << 20
)

type createAgentPage struct {
	layoutData
	Name         string
	SystemPrompt string
	// Name and size of the file from a submission that failed after the
	// file was accepted. Browsers cannot keep a selected file across a
	// server render, so the form asks for it again.
	FileName   string
	FileSizeMB float64
	MaxMB      int64
}

// CreateAgentPage handles GET /create-agent.
func (h *Handler) CreateAgentPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create_agent.html", &createAgentPage{
		layoutData: layoutData{Title: "Create New Agent"},
		MaxMB:      h.cfg.MaxUploadBytes >> 20,
	})
}

// CreateAgent handles POST /create-agent.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	user := middleware.UserFromContext(ctx)

	p := &createAgentPage{
		layoutData: layoutData{Title: "Create New Agent"},
		MaxMB:      h.cfg.MaxUploadBytes >> 20,
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fileTooLarge(w, r, p)
			return
		}
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	p.Name = strings.TrimSpace(r.FormValue("name"))
	p.SystemPrompt = strings.TrimSpace(r.FormValue("systemPrompt"))

	file, header, err := r.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	if file != nil {
		defer file.Close()
		if header.Size > h.cfg.MaxUploadBytes {
			h.fileTooLarge(w, r, p)
			return
		}
		if !isPDF(file, header) {
			h.notify(ctx, models.NoticeDestructive, "Invalid file type", "Please upload a PDF file.")
			h.render(w, r, http.StatusUnprocessableEntity, "create_agent.html", p)
			return
		}
	}

	if p.Name == "" || p.SystemPrompt == "" || file == nil {
		h.notify(ctx, models.NoticeDestructive, "Missing information", "Please fill in all fields and upload a PDF.")
		h.render(w, r, http.StatusUnprocessableEntity, "create_agent.html", p)
		return
	}

	agent, err := h.backend.CreateAgent(ctx, chatbase.CreateAgentRequest{
		Name:         p.Name,
		SystemPrompt: p.SystemPrompt,
		UserID:       user.ID.String(),
		FileName:     filepath.Base(header.Filename),
		File:         file,
	})
	if err != nil {
		logger.Error().Err(err).Msg("create agent failed")
		metrics.AgentsCreated.WithLabelValues("failure").Inc()
		h.notify(ctx, models.NoticeDestructive, "Error", "Failed to create agent. Please try again.")
		p.FileName = filepath.Base(header.Filename)
		p.FileSizeMB = float64(header.Size) / (1 << 20)
		h.render(w, r, http.StatusBadGateway, "create_agent.html", p)
		return
	}

	metrics.AgentsCreated.WithLabelValues("success").Inc()
	if agent != nil {
		logger.Info().Str("agent_id", agent.ID).Msg("agent created")
	}
	h.notify(ctx, models.NoticeSuccess, "Success!", "Your agent has been created successfully.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) fileTooLarge(w http.ResponseWriter, r *http.Request, p *createAgentPage) {
	h.notify(r.Context(), models.NoticeDestructive, "File too large",
		fmt.Sprintf("Please upload a PDF of at most %d MB.", p.MaxMB))
	h.render(w, r, http.StatusRequestEntityTooLarge, "create_agent.html", p)
}

// isPDF accepts a part only if it is declared as a PDF and its content
// sniffs as one. The file is rewound afterwards.
func isPDF(file multipart.File, header *multipart.FileHeader) bool {
	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if mediaType != pdfContentType {
		return false
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return http.DetectContentType(head[:n]) == pdfContentType
}
