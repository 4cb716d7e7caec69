package service

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"mediamod/internal/biz"
	"mediamod/internal/conf"
	"mediamod/internal/pkg/moderator"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const defaultMaxUploadBytes = 512 << 20

// ModerationService exposes the moderation pipeline over HTTP.
type ModerationService struct {
	uc        *biz.ModerationUsecase
	maxUpload int64
	log       *log.Helper
}

// NewModerationService creates a new ModerationService.
func NewModerationService(c *conf.Bootstrap, uc *biz.ModerationUsecase, logger log.Logger) *ModerationService {
	maxUpload := c.Server.HTTP.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &ModerationService{
		uc:        uc,
		maxUpload: maxUpload,
		log:       log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the moderation endpoints.
func (s *ModerationService) RegisterRoutes(srv *khttp.Server) {
	r := srv.Route("/")
	r.POST("/v1/moderation/media", s.ModerateMedia)
	r.POST("/v1/moderation/visual", s.ModerateVisual)
	r.POST("/v1/moderation/text", s.ModerateText)
}

// ModerateMedia runs the full pipeline over an uploaded media file and/or
// literal text. Violations answer with 400 and the violation detail; clean
// content answers with 200 and a summary of what was checked.
func (s *ModerationService) ModerateMedia(ctx khttp.Context) error {
	req := ctx.Request()
	if err := req.ParseMultipartForm(s.maxUpload); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "invalid multipart form"})
	}

	filePath, cleanup, err := s.saveUpload(req)
	if err != nil {
		s.log.Errorf("failed to store upload: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "Moderation failed"})
	}
	defer cleanup()

	level := moderator.ParseStrictness(req.FormValue("strictness"))
	input := biz.ModerationInput{
		FilePath:   filePath,
		Text:       req.FormValue("text"),
		Strictness: level,
		CheckAudio: strings.EqualFold(req.FormValue("check_audio"), "true"),
	}

	result, err := s.uc.Moderate(req.Context(), input)
	if err != nil {
		if biz.ErrNoContent.Is(err) {
			return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "no media file or text provided"})
		}
		s.log.Errorf("moderation failed: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "Moderation failed"})
	}

	if result.Flagged {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error":   "Content violation detected",
			"flagged": true,
			"details": s.uc.UnsafeReport(result, level),
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"message":    "Content approved",
		"flagged":    false,
		"moderation": s.uc.SafeReport(result),
	})
}

// ModerateVisual runs only the visual stage over an uploaded file.
func (s *ModerationService) ModerateVisual(ctx khttp.Context) error {
	req := ctx.Request()
	if err := req.ParseMultipartForm(s.maxUpload); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "invalid multipart form"})
	}

	filePath, cleanup, err := s.saveUpload(req)
	if err != nil {
		s.log.Errorf("failed to store upload: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "Visual moderation failed"})
	}
	defer cleanup()
	if filePath == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "no media file provided"})
	}

	level := moderator.ParseStrictness(req.FormValue("strictness"))
	result := s.uc.ModerateVisual(req.Context(), filePath, level)
	return ctx.JSON(http.StatusOK, map[string]any{
		"flagged":    result.Flagged,
		"moderation": result,
	})
}

type moderateTextRequest struct {
	Text       string `json:"text"`
	Strictness string `json:"strictness"`
}

// ModerateText runs only the lexicon over literal text.
func (s *ModerationService) ModerateText(ctx khttp.Context) error {
	var req moderateTextRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "invalid request body"})
	}

	result, err := s.uc.ModerateText(ctx.Request().Context(), req.Text)
	if err != nil {
		if biz.ErrNoContent.Is(err) {
			return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "no text provided"})
		}
		s.log.Errorf("text moderation failed: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "Text moderation failed"})
	}

	if result.Flagged {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error":   "Content violation detected",
			"flagged": true,
			"details": result.Violation,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Content approved",
		"flagged": false,
	})
}

// saveUpload copies the "file" form part to a temp file. The cleanup is a
// no-op when no file was uploaded.
func (s *ModerationService) saveUpload(req *http.Request) (string, func(), error) {
	file, header, err := req.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", func() {}, nil
		}
		return "", nil, err
	}
	defer file.Close()

	path, err := copyToTemp(file, header)
	if err != nil {
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}

func copyToTemp(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(header.Filename)
	tmp, err := os.CreateTemp("", "mediamod-upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
