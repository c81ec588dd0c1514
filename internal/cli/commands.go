package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"restaurant_reviews/internal/app"
	"restaurant_reviews/internal/domain"
)

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all reviews in insertion order",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer s.Close()

			rs, err := s.b.List(cmd.Context())
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rs)
			}
			return writeTable(cmd.OutOrStdout(), rs)
		},
	}
}

// reviewFlags binds the mutable review fields to a command.
type reviewFlags struct {
	customer   string
	restaurant string
	rating     string
	text       string
}

func (f *reviewFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&f.restaurant, "restaurant", "", "restaurant name")
	cmd.Flags().StringVar(&f.rating, "rating", "", `rating, e.g. "4.5" or "4,5"`)
	cmd.Flags().StringVar(&f.text, "text", "", "review text")
}

// input builds a ReviewInput from base, overriding it with every flag the
// user set explicitly.
func (f *reviewFlags) input(cmd *cobra.Command, base domain.ReviewInput) (domain.ReviewInput, error) {
	in := base
	fl := cmd.Flags()
	if fl.Changed("customer") {
		in.CustomerName = f.customer
	}
	if fl.Changed("restaurant") {
		in.RestaurantName = f.restaurant
	}
	if fl.Changed("text") {
		in.Text = f.text
	}
	if fl.Changed("rating") {
		r, err := domain.ParseRating(f.rating)
		if err != nil {
			return in, &exitError{code: ExitUsageError, err: err}
		}
		in.Rating = r
	}
	return in, nil
}

func newAddCmd(o *options) *cobra.Command {
	f := &reviewFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a review",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("rating") {
				return usageErr("--rating is required")
			}
			in, err := f.input(cmd, domain.ReviewInput{})
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := s.b.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printOne(cmd.OutOrStdout(), o, "added", r)
		},
	}
	f.bind(cmd)
	return cmd
}

func newUpdateCmd(o *options) *cobra.Command {
	f := &reviewFlags{}
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Overwrite the fields of an existing review",
		Long:  "Overwrite the fields of an existing review. Fields whose flag is not given keep their current value.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			// validate before touching the store
			if _, err := f.input(cmd, domain.ReviewInput{}); err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer s.Close()

			cur, err := s.b.Get(cmd.Context(), id)
			if isNotFound(err) {
				return noticeErr(noticeUpdate)
			}
			if err != nil {
				return err
			}
			in, _ := f.input(cmd, domain.ReviewInput{
				CustomerName:   cur.CustomerName,
				RestaurantName: cur.RestaurantName,
				Rating:         cur.Rating,
				Text:           cur.Text,
			})
			r, err := s.b.Update(cmd.Context(), id, in)
			if isNotFound(err) {
				return noticeErr(noticeUpdate)
			}
			if err != nil {
				return err
			}
			return printOne(cmd.OutOrStdout(), o, "updated", r)
		},
	}
	f.bind(cmd)
	return cmd
}

func newDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete every review with the given id",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.b.Delete(cmd.Context(), id)
			if isNotFound(err) {
				return noticeErr(noticeDelete)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted review %d\n", id)
			return nil
		},
	}
}

func newImportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import reviews from .txt or .json files",
		Long:  "Import reviews from review files (.txt, one encoded line per review) or JSON arrays (.json). Imported reviews get fresh ids.",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.server != "" {
				return usageErr("import works on a local store; drop --server")
			}
			s, err := openSession(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer s.Close()

			svc := app.NewImportService(s.m, s.cfg.ImportWorkers)
			res, err := svc.ImportFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, fr := range res.Files {
				if fr.Err != nil {
					fmt.Fprintf(w, "%s: skipped: %v\n", fr.Path, fr.Err)
					continue
				}
				fmt.Fprintf(w, "%s: %d imported\n", fr.Path, fr.Imported)
			}
			fmt.Fprintf(w, "imported %d reviews\n", res.Imported)
			if len(res.Failed()) > 0 {
				return &exitError{code: ExitRuntimeError, err: fmt.Errorf("%d of %d files failed", len(res.Failed()), len(res.Files))}
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print reviewctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reviewctl version %s\n", version)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, usageErr("invalid id %q", s)
	}
	return id, nil
}

func printOne(w io.Writer, o *options, verb string, r domain.Review) error {
	if o.jsonOut {
		return writeJSON(w, r)
	}
	_, err := fmt.Fprintf(w, "%s review %d\n", verb, r.ID)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, rs []domain.Review) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCustomer Name\tRestaurant Name\tRating\tReview")
	for _, r := range rs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.CustomerName, r.RestaurantName, domain.FormatRating(r.Rating), r.Text)
	}
	return tw.Flush()
}
