package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"restaurant_reviews/internal/app"
	"restaurant_reviews/internal/domain"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestImportFiles_TextAndJSON(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "old.txt", "40;Ann;Sushi Go;3.0;fresh\n41;Ben;Sushi Go;4.5;ok\n")
	js := writeFile(t, dir, "export.json", `[
		{"author": "Cleo", "venue": "Taco Truck", "score": "4,5", "comment": "spicy"},
		{"customer": {"x": 1}, "name": "Dee", "restaurant": {"name": "Noodle Bar"}, "rating": {"value": 2}, "text": "slow"}
	]`)

	store := &fakeStore{rows: []domain.Review{{ID: 7, CustomerName: "existing"}}}
	m, _ := app.NewReviewManager(context.Background(), store)
	res, err := app.NewImportService(m, 2).ImportFiles(context.Background(), []string{txt, js})
	if err != nil {
		t.Fatalf("ImportFiles: %v", err)
	}
	if res.Imported != 4 || len(res.Failed()) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	got := m.GetReviews()
	want := []domain.Review{
		{ID: 7, CustomerName: "existing"},
		{ID: 8, CustomerName: "Ann", RestaurantName: "Sushi Go", Rating: 3, Text: "fresh"},
		{ID: 9, CustomerName: "Ben", RestaurantName: "Sushi Go", Rating: 4.5, Text: "ok"},
		{ID: 10, CustomerName: "Cleo", RestaurantName: "Taco Truck", Rating: 4.5, Text: "spicy"},
		{ID: 11, CustomerName: "Dee", RestaurantName: "Noodle Bar", Rating: 2, Text: "slow"},
	}
	if len(got) != len(want) {
		t.Fatalf("GetReviews = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("review %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(store.rows) != 5 {
		t.Fatalf("store not rewritten: %d rows", len(store.rows))
	}
}

func TestImportFiles_BadFileSkipped(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "1;A;B;4.0;x\n")
	bad := writeFile(t, dir, "bad.txt", "1;A;B;4.0;x\nnope\n")
	badJSON := writeFile(t, dir, "bad.json", `[{"author":"X","rating":"high"}]`)
	missing := filepath.Join(dir, "missing.txt")

	m, _ := app.NewReviewManager(context.Background(), &fakeStore{})
	res, err := app.NewImportService(m, 1).ImportFiles(context.Background(), []string{bad, good, badJSON, missing})
	if err != nil {
		t.Fatalf("ImportFiles: %v", err)
	}
	if res.Imported != 1 || len(m.GetReviews()) != 1 {
		t.Fatalf("only the good file should import: %+v", res)
	}
	failed := res.Failed()
	if len(failed) != 3 {
		t.Fatalf("failed = %+v", failed)
	}
	if !errors.Is(failed[0].Err, domain.ErrMalformedLine) || !errors.Is(failed[1].Err, domain.ErrMalformedLine) {
		t.Fatalf("decode failures should wrap ErrMalformedLine: %v / %v", failed[0].Err, failed[1].Err)
	}
	if !errors.Is(failed[2].Err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", failed[2].Err)
	}
}

func TestImportFiles_FailFastStopsOnSaveError(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.txt", "1;A;B;4.0;x\n2;C;D;1.0;y\n")
	boom := errors.New("read-only")
	m, _ := app.NewReviewManager(context.Background(), &fakeStore{saveErr: boom}, app.WithPolicy(app.PolicyFailFast))

	res, err := app.NewImportService(m, 4).ImportFiles(context.Background(), []string{f})
	if !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
	if res.Imported != 0 {
		t.Fatalf("Imported = %d", res.Imported)
	}
}
