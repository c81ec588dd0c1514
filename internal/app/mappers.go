package app

import (
	"strconv"
	"strings"

	"restaurant_reviews/internal/domain"
)

/********** alias registry (single source of truth) **********/

var reviewAliases = map[string][]string{
	"customer":   {"customer_name", "customerName", "customer", "author", "name", "user.name", "reviewer", "reviewer.name"},
	"restaurant": {"restaurant_name", "restaurantName", "restaurant", "venue", "place", "restaurant.name", "business.name"},
	"rating":     {"rating", "rate", "score", "stars", "rating.value", "scores.overall"},
	"text":       {"review", "review_text", "reviewText", "text", "comment", "content", "body"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstAlias: first non-empty string for a named alias set.
func firstAlias(m map[string]any, key string) string {
	for _, p := range reviewAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// floatFlexible: number from several paths (JSON number or string like "8,0").
func floatFlexible(m map[string]any, paths ...string) (float64, bool) {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			return v, true
		case string:
			if f, err := domain.ParseRating(v); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

/********** review mapper **********/

// mapReview turns one loosely-shaped export object into a review input.
// A missing or unparsable rating is a validation error; names and text may
// be empty.
func mapReview(r map[string]any) (domain.ReviewInput, error) {
	rating, ok := floatFlexible(r, reviewAliases["rating"]...)
	if !ok {
		return domain.ReviewInput{}, &domain.ValidationError{Field: "rating", Reason: "missing or not a number"}
	}
	return domain.ReviewInput{
		CustomerName:   strings.TrimSpace(firstAlias(r, "customer")),
		RestaurantName: strings.TrimSpace(firstAlias(r, "restaurant")),
		Rating:         rating,
		Text:           firstAlias(r, "text"),
	}, nil
}

func mapReviews(in []map[string]any) ([]domain.ReviewInput, error) {
	out := make([]domain.ReviewInput, 0, len(in))
	for i, r := range in {
		ri, err := mapReview(r)
		if err != nil {
			return nil, &domain.DecodeError{Reason: "record " + strconv.Itoa(i+1) + ": " + err.Error()}
		}
		out = append(out, ri)
	}
	return out, nil
}
