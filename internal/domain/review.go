package domain

type Review struct {
	ID             int64   `json:"id"`
	CustomerName   string  `json:"customer_name"`
	RestaurantName string  `json:"restaurant_name"`
	Rating         float64 `json:"rating"`
	Text           string  `json:"review"`
}

// ReviewInput carries the mutable fields of a review (everything but ID).
type ReviewInput struct {
	CustomerName   string
	RestaurantName string
	Rating         float64
	Text           string
}

// Apply overwrites the mutable fields of r in place.
func (r *Review) Apply(in ReviewInput) {
	r.CustomerName = in.CustomerName
	r.RestaurantName = in.RestaurantName
	r.Rating = in.Rating
	r.Text = in.Text
}
