package domain

import "context"

// ReviewStore is a whole-collection backing store: Load reads every record in
// order, Save replaces the stored contents with rs.
//
// On a decode failure Load returns the records read before the failing one
// together with the error.
type ReviewStore interface {
	Load(ctx context.Context) ([]Review, error)
	Save(ctx context.Context, rs []Review) error
	Name() string
}
