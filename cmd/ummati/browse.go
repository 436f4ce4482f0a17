package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spanow/ummati"
	"github.com/spanow/ummati/internal/query"
)

func addFilterFlags(cmd *cobra.Command, withStatus bool) {
	cmd.Flags().StringP("search", "s", "", "free-text search")
	cmd.Flags().String("category", "", "category filter")
	cmd.Flags().String("city", "", "city filter")
	if withStatus {
		cmd.Flags().String("status", "", "status filter (upcoming, ongoing, completed, cancelled)")
	}
	cmd.Flags().IntP("page", "p", 1, "page number")
	cmd.Flags().IntP("limit", "n", 0, "items per page (default from config)")
	cmd.Flags().Bool("json", false, "print the page as JSON")
}

func filtersFromFlags(cmd *cobra.Command) (ummati.Filters, error) {
	var f ummati.Filters
	f.Search, _ = cmd.Flags().GetString("search")
	f.Category, _ = cmd.Flags().GetString("category")
	f.City, _ = cmd.Flags().GetString("city")
	if cmd.Flags().Lookup("status") != nil {
		f.Status, _ = cmd.Flags().GetString("status")
	}
	f.Page, _ = cmd.Flags().GetInt("page")
	f.Limit, _ = cmd.Flags().GetInt("limit")

	if f.Page < 1 {
		return f, &ummati.ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if f.Limit < 0 {
		return f, &ummati.ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	return f, nil
}

// fetchPage runs one filter change through the controller and waits for it
// to settle. New criteria reset the page, so a requested page is applied
// as a second step.
func fetchPage[T any](ctx context.Context, c *query.Controller[T], f ummati.Filters) (query.State[T], error) {
	c.OnFilterChange(f)
	if f.Page > 1 {
		if err := c.SetPage(f.Page); err != nil {
			return query.State[T]{}, err
		}
	} else {
		c.Flush()
	}
	if err := c.Settled(ctx); err != nil {
		return query.State[T]{}, err
	}
	st := c.State()
	return st, st.Err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printFooter[T any](w io.Writer, st query.State[T]) {
	if st.Result.Total == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	fmt.Fprintf(w, "\npage %d/%d, %d total\n", st.Filters.Page, st.Result.TotalPages, st.Result.Total)
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List volunteering events",
		Example: `  ummati events --city Rabat
  ummati events -s plage --status upcoming
  ummati events --category education -p 2 -n 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filtersFromFlags(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			return withApp(cmd, func(ctx context.Context, app *ummati.App) error {
				st, err := fetchPage(ctx, app.Events(), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, st.Result)
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tCITY\tSTARTS\tSTATUS\tSPOTS")
				for _, e := range st.Result.Items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ID, e.Title, e.City, e.StartsAt.Format("2006-01-02 15:04"), e.Status, spots(e))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				printFooter(out, st)
				return nil
			})
		},
	}
	addFilterFlags(cmd, true)
	return cmd
}

func spots(e ummati.Event) string {
	switch n := e.SpotsLeft(); n {
	case -1:
		return "open"
	case 0:
		return "full"
	default:
		return strconv.Itoa(n)
	}
}

func newNGOsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ngos",
		Short:   "List NGOs",
		Example: `  ummati ngos --category environnement`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filtersFromFlags(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			return withApp(cmd, func(ctx context.Context, app *ummati.App) error {
				st, err := fetchPage(ctx, app.NGOs(), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, st.Result)
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCITY\tVERIFIED\tEVENTS")
				for _, n := range st.Result.Items {
					verified := ""
					if n.Verified {
						verified = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
						n.ID, n.Name, n.Category, n.City, verified, n.EventCount)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				printFooter(out, st)
				return nil
			})
		},
	}
	addFilterFlags(cmd, false)
	return cmd
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "register <event-id>",
		Short:   "Register for an event",
		Args:    cobra.ExactArgs(1),
		Example: `  ummati register ev-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *ummati.App) error {
				if err := app.RegisterForEvent(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered for %s\n", args[0])
				return nil
			})
		},
	}
}
