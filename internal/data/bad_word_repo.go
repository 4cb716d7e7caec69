package data

import (
	"context"
	"errors"

	"mediamod/internal/biz"
	"mediamod/internal/pkg/moderator"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgconn"
)

type badWordRepo struct {
	data *Data
	log  *log.Helper
}

// NewBadWordRepo creates the Postgres-backed lexicon repository.
func NewBadWordRepo(data *Data, logger log.Logger) biz.BadWordRepo {
	return &badWordRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *badWordRepo) Create(ctx context.Context, word *moderator.BadWord) error {
	_, err := r.data.pg.Exec(ctx,
		`INSERT INTO bad_words (word, category, nsfw_score) VALUES ($1, $2, $3)`,
		word.Word, word.Category, word.NsfwScore)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return biz.ErrWordExists
		}
		return err
	}
	return nil
}

func (r *badWordRepo) Delete(ctx context.Context, word string) error {
	_, err := r.data.pg.Exec(ctx, `DELETE FROM bad_words WHERE word = $1`, word)
	return err
}

func (r *badWordRepo) List(ctx context.Context) ([]moderator.BadWord, error) {
	rows, err := r.data.pg.Query(ctx,
		`SELECT word, category, nsfw_score FROM bad_words ORDER BY word`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := make([]moderator.BadWord, 0)
	for rows.Next() {
		var w moderator.BadWord
		if err := rows.Scan(&w.Word, &w.Category, &w.NsfwScore); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}
