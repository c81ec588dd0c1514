package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"restaurant_reviews/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Name() string { return "mysql" }

func (r *Repo) Load(ctx context.Context) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, loadReviewsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var customer, restaurant, text sql.NullString
		if err := rows.Scan(&rv.ID, &customer, &restaurant, &rv.Rating, &text); err != nil {
			return out, &domain.DecodeError{Line: len(out) + 1, Reason: err.Error()}
		}
		rv.CustomerName = customer.String
		rv.RestaurantName = restaurant.String
		rv.Text = text.String
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// Save replaces the table contents with rs in a single transaction.
func (r *Repo) Save(ctx context.Context, rs []domain.Review) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteAllSQL); err != nil {
		return fmt.Errorf("clear reviews: %w", err)
	}
	for start := 0; start < len(rs); start += insertBatchRows {
		end := min(start+insertBatchRows, len(rs))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*6) // 6 params per row
		for i := start; i < end; i++ {
			rv := rs[i]
			values = append(values, insertRowPlaceholder)
			args = append(args,
				rv.ID,             // id
				i,                 // position
				rv.CustomerName,   // customer_name
				rv.RestaurantName, // restaurant_name
				rv.Rating,         // rating
				rv.Text,           // review_text
			)
		}
		if _, err = tx.ExecContext(ctx, insertReviewsPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert reviews: %w", err)
		}
	}
	return tx.Commit()
}
