package pgdb

import (
	"context"

	"github.com/google/uuid"

	"quote-management-api/internal/entity"
	"quote-management-api/pkg/postgres"
)

type CommentRepo struct {
	*postgres.Postgres
}

func NewCommentRepo(pgdb *postgres.Postgres) *CommentRepo {
	return &CommentRepo{pgdb}
}

func (r *CommentRepo) GetRevisionComments(ctx context.Context, revisionId string) ([]entity.QuoteComment, error) {
	uuidForm, err := uuid.Parse(revisionId)
	if err != nil {
		return nil, err
	}

	listSql, args, _ := r.SqlBuilder.
		Select("id", "revision_id", "author_id", "body", "internal", "created_at").
		From("quote_comment").
		Where("revision_id = ?", uuidForm).
		OrderBy("created_at ASC").
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]entity.QuoteComment, 0)
	for rows.Next() {
		var comment entity.QuoteComment
		if err := rows.Scan(&comment.Id, &comment.RevisionId, &comment.AuthorId,
			&comment.Body, &comment.Internal, &comment.CreatedAt); err != nil {
			return comments, err
		}
		comments = append(comments, comment)
	}
	if err = rows.Err(); err != nil {
		return comments, err
	}

	return comments, nil
}
