package biz

import (
	"context"

	"mediamod/internal/pkg/moderator"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ErrWordExists is returned when adding a lexicon entry that is already
// present.
var ErrWordExists = errors.Conflict("WORD_EXISTS", "word already in lexicon")

// BadWordRepo persists the profanity lexicon.
type BadWordRepo interface {
	Create(ctx context.Context, word *moderator.BadWord) error
	Delete(ctx context.Context, word string) error
	List(ctx context.Context) ([]moderator.BadWord, error)
}

// BadwordUsecase manages the lexicon and keeps the text moderation
// filters in sync with it.
type BadwordUsecase struct {
	repo BadWordRepo
	text *moderator.TextModerator
	log  *log.Helper
}

// NewBadwordUsecase creates a new BadwordUsecase.
func NewBadwordUsecase(repo BadWordRepo, text *moderator.TextModerator, logger log.Logger) *BadwordUsecase {
	return &BadwordUsecase{
		repo: repo,
		text: text,
		log:  log.NewHelper(logger),
	}
}

// Add persists a lexicon entry and makes it active immediately.
func (uc *BadwordUsecase) Add(ctx context.Context, word moderator.BadWord) error {
	if err := uc.repo.Create(ctx, &word); err != nil {
		return err
	}
	if err := uc.text.AddWord(ctx, word); err != nil {
		// The word is persisted; the next rebuild picks it up.
		uc.log.Warnf("failed to activate new word %q: %v", word.Word, err)
	}
	return nil
}

// Remove deletes a lexicon entry. Removal requires a filter rebuild since
// the automaton cannot drop patterns in place.
func (uc *BadwordUsecase) Remove(ctx context.Context, word string) error {
	if err := uc.repo.Delete(ctx, word); err != nil {
		return err
	}
	return uc.Rebuild(ctx)
}

// List returns all lexicon entries.
func (uc *BadwordUsecase) List(ctx context.Context) ([]moderator.BadWord, error) {
	return uc.repo.List(ctx)
}

// Rebuild reloads the filters from the persisted lexicon.
func (uc *BadwordUsecase) Rebuild(ctx context.Context) error {
	words, err := uc.repo.List(ctx)
	if err != nil {
		return err
	}
	if err := uc.text.RebuildFilters(ctx, words); err != nil {
		return err
	}
	uc.log.Infof("rebuilt text filters with %d words", len(words))
	return nil
}
