package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	httpserver "restaurant_reviews/internal/adapters/http_server"
	"restaurant_reviews/internal/app"
	"restaurant_reviews/internal/domain"
	"restaurant_reviews/internal/storage/textfile"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func reviewFile(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "reviews.txt")
	if len(lines) > 0 {
		if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func TestAddThenList(t *testing.T) {
	p := reviewFile(t)
	code, out, stderr := run(t, "--file", p, "add", "--customer", "Alice", "--restaurant", "Luigi's", "--rating", "4,5", "--text", "Great; really")
	if code != ExitSuccess {
		t.Fatalf("add exit %d, stderr %q", code, stderr)
	}
	if out != "added review 1\n" {
		t.Fatalf("add output %q", out)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "1;Alice;Luigi's;4.5;Great\\; really\n" {
		t.Fatalf("file content %q", got)
	}

	code, out, _ = run(t, "--file", p, "list")
	if code != ExitSuccess {
		t.Fatalf("list exit %d", code)
	}
	if !strings.Contains(out, "Customer Name") || !strings.Contains(out, "Great; really") {
		t.Fatalf("list output %q", out)
	}
}

func TestAdd_InvalidRating(t *testing.T) {
	p := reviewFile(t)
	code, _, stderr := run(t, "--file", p, "add", "--customer", "A", "--rating", "abc")
	if code != ExitUsageError {
		t.Fatalf("exit %d, want %d", code, ExitUsageError)
	}
	if !strings.Contains(stderr, "rating") {
		t.Fatalf("stderr %q", stderr)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("store should not have been written")
	}
}

func TestAdd_RatingRequired(t *testing.T) {
	code, _, _ := run(t, "--file", reviewFile(t), "add", "--customer", "A")
	if code != ExitUsageError {
		t.Fatalf("exit %d, want %d", code, ExitUsageError)
	}
}

func TestUpdate_KeepsUnsetFields(t *testing.T) {
	p := reviewFile(t, "1;Alice;Luigi's;4.5;Great", "2;Bob;Sushi Go;3.0;ok")
	code, _, stderr := run(t, "--file", p, "update", "2", "--rating", "5")
	if code != ExitSuccess {
		t.Fatalf("update exit %d, stderr %q", code, stderr)
	}
	rs, err := textfile.New(p).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Review{ID: 2, CustomerName: "Bob", RestaurantName: "Sushi Go", Rating: 5, Text: "ok"}
	if rs[1] != want {
		t.Fatalf("got %+v, want %+v", rs[1], want)
	}
}

func TestUpdate_MissingPrintsNotice(t *testing.T) {
	p := reviewFile(t, "1;Alice;Luigi's;4.5;Great")
	code, _, stderr := run(t, "--file", p, "update", "7", "--rating", "1")
	if code != ExitNotice {
		t.Fatalf("exit %d, want %d", code, ExitNotice)
	}
	if !strings.Contains(stderr, noticeUpdate) {
		t.Fatalf("stderr %q", stderr)
	}
}

func TestDelete(t *testing.T) {
	p := reviewFile(t, "1;Alice;Luigi's;4.5;Great", "2;Bob;Sushi Go;3.0;ok")
	if code, _, stderr := run(t, "--file", p, "delete", "1"); code != ExitSuccess {
		t.Fatalf("delete exit %d, stderr %q", code, stderr)
	}
	data, _ := os.ReadFile(p)
	if string(data) != "2;Bob;Sushi Go;3.0;ok\n" {
		t.Fatalf("file content %q", data)
	}

	code, _, stderr := run(t, "--file", p, "delete", "1")
	if code != ExitNotice || !strings.Contains(stderr, noticeDelete) {
		t.Fatalf("second delete: exit %d, stderr %q", code, stderr)
	}
}

func TestDelete_BadID(t *testing.T) {
	if code, _, _ := run(t, "--file", reviewFile(t), "delete", "x"); code != ExitUsageError {
		t.Fatalf("exit %d, want %d", code, ExitUsageError)
	}
	if code, _, _ := run(t, "--file", reviewFile(t), "delete"); code != ExitUsageError {
		t.Fatalf("missing arg: exit %d, want %d", code, ExitUsageError)
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	js := filepath.Join(dir, "b.json")
	bad := filepath.Join(dir, "c.txt")
	os.WriteFile(txt, []byte("9;Carol;Pho 24;4.0;nice\n"), 0o644)
	os.WriteFile(js, []byte(`[{"customer":"Dan","restaurant":"Taco","rating":"3,5","text":"fine"}]`), 0o644)
	os.WriteFile(bad, []byte("not a review\n"), 0o644)

	p := reviewFile(t, "1;Alice;Luigi's;4.5;Great")
	code, out, _ := run(t, "--file", p, "import", txt, js, bad)
	if code != ExitRuntimeError {
		t.Fatalf("exit %d, want %d (one file fails)", code, ExitRuntimeError)
	}
	if !strings.Contains(out, "imported 2 reviews") || !strings.Contains(out, "c.txt: skipped") {
		t.Fatalf("output %q", out)
	}

	rs, err := textfile.New(p).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 3 || rs[1].ID != 2 || rs[2].ID != 3 || rs[2].CustomerName != "Dan" {
		t.Fatalf("unexpected reviews %+v", rs)
	}
}

func TestImport_RejectsServer(t *testing.T) {
	code, _, _ := run(t, "--server", "http://127.0.0.1:1", "import", "x.txt")
	if code != ExitUsageError {
		t.Fatalf("exit %d, want %d", code, ExitUsageError)
	}
}

func TestRemote_ListAndNotice(t *testing.T) {
	st := textfile.New(reviewFile(t, "1;Alice;Luigi's;4.5;Great"))
	m, err := app.NewReviewManager(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	srv := httpserver.New(0)
	srv.MountHandlers(httpserver.NewHandlers(m))
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	code, out, stderr := run(t, "--server", ts.URL, "--json", "list")
	if code != ExitSuccess {
		t.Fatalf("list exit %d, stderr %q", code, stderr)
	}
	var got []domain.Review
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(got) != 1 || got[0].CustomerName != "Alice" {
		t.Fatalf("got %+v", got)
	}

	code, _, stderr = run(t, "--server", ts.URL, "delete", "5")
	if code != ExitNotice || !strings.Contains(stderr, noticeDelete) {
		t.Fatalf("delete exit %d, stderr %q", code, stderr)
	}
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "version")
	if code != ExitSuccess || !strings.Contains(out, version) {
		t.Fatalf("exit %d, out %q", code, out)
	}
}

func TestPolicyFlag_RejectsUnknownValues(t *testing.T) {
	p := reviewFile(t)
	for _, v := range []string{"failfast", "strict"} {
		code, _, stderr := run(t, "--file", p, "--policy", v, "list")
		if code != ExitUsageError {
			t.Fatalf("--policy %s: exit %d, want %d", v, code, ExitUsageError)
		}
		if !strings.Contains(stderr, "invalid --policy") {
			t.Fatalf("--policy %s: stderr %q", v, stderr)
		}
	}
	if code, _, stderr := run(t, "--file", p, "--policy", "FAIL-FAST", "list"); code != ExitSuccess {
		t.Fatalf("--policy FAIL-FAST: exit %d, stderr %q", code, stderr)
	}
}
