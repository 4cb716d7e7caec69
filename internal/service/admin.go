package service

import (
	"net/http"
	"strings"

	"mediamod/internal/biz"
	"mediamod/internal/pkg/moderator"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// AdminService manages the profanity lexicon.
type AdminService struct {
	badwords *biz.BadwordUsecase
	log      *log.Helper
}

// NewAdminService creates a new AdminService.
func NewAdminService(badwords *biz.BadwordUsecase, logger log.Logger) *AdminService {
	return &AdminService{
		badwords: badwords,
		log:      log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the lexicon admin endpoints.
func (s *AdminService) RegisterRoutes(srv *khttp.Server) {
	r := srv.Route("/")
	r.GET("/v1/admin/badwords", s.ListWords)
	r.POST("/v1/admin/badwords", s.AddWord)
	r.DELETE("/v1/admin/badwords/{word}", s.RemoveWord)
	r.POST("/v1/admin/badwords/rebuild", s.RebuildFilters)
}

type addWordRequest struct {
	Word      string  `json:"word"`
	Category  string  `json:"category"`
	NsfwScore float64 `json:"nsfw_score"`
}

// AddWord persists a lexicon entry and activates it.
func (s *AdminService) AddWord(ctx khttp.Context) error {
	var req addWordRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "invalid request body"})
	}
	req.Word = strings.TrimSpace(req.Word)
	if req.Word == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "word is required"})
	}
	if req.Category == "" {
		req.Category = "profanity"
	}
	if req.NsfwScore <= 0 {
		req.NsfwScore = 0.5
	}

	err := s.badwords.Add(ctx.Request().Context(), moderator.BadWord{
		Word:      req.Word,
		Category:  req.Category,
		NsfwScore: req.NsfwScore,
	})
	if err != nil {
		if biz.ErrWordExists.Is(err) {
			return ctx.JSON(http.StatusConflict, map[string]any{"error": "word already in lexicon"})
		}
		s.log.Errorf("failed to add word: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to add word"})
	}
	return ctx.JSON(http.StatusCreated, map[string]any{"word": req.Word})
}

// RemoveWord deletes a lexicon entry and rebuilds the filters.
func (s *AdminService) RemoveWord(ctx khttp.Context) error {
	word := ctx.Vars().Get("word")
	if word == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "word is required"})
	}

	if err := s.badwords.Remove(ctx.Request().Context(), word); err != nil {
		s.log.Errorf("failed to remove word: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to remove word"})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"word": word})
}

// ListWords returns all lexicon entries.
func (s *AdminService) ListWords(ctx khttp.Context) error {
	words, err := s.badwords.List(ctx.Request().Context())
	if err != nil {
		s.log.Errorf("failed to list words: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to list words"})
	}

	out := make([]map[string]any, 0, len(words))
	for _, w := range words {
		out = append(out, map[string]any{
			"word":       w.Word,
			"category":   w.Category,
			"nsfw_score": w.NsfwScore,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"words": out, "total": len(out)})
}

// RebuildFilters reloads the filters from the persisted lexicon.
func (s *AdminService) RebuildFilters(ctx khttp.Context) error {
	if err := s.badwords.Rebuild(ctx.Request().Context()); err != nil {
		s.log.Errorf("failed to rebuild filters: %v", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to rebuild filters"})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"message": "filters rebuilt"})
}
