package mysql

// The whole table is the collection; position keeps insertion order since ids
// are never re-sorted after edits.
const deleteAllSQL = `DELETE FROM reviews`

const insertReviewsPrefix = "INSERT INTO reviews\n  (id, position, customer_name, restaurant_name, rating, review_text)\nVALUES "

const insertRowPlaceholder = "(?, ?, ?, ?, ?, ?)"

// MySQL caps placeholders at 65535 per statement; 6 params per row.
const insertBatchRows = 1000

const loadReviewsSQL = `
SELECT
  id,
  customer_name,
  restaurant_name,
  rating,
  review_text
FROM reviews
ORDER BY position
`
