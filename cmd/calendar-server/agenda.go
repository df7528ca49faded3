package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vocare/calendar/internal/config"
	"github.com/vocare/calendar/internal/domain/scheduling"
	"github.com/vocare/calendar/internal/platform/calendar"
	"github.com/vocare/calendar/internal/platform/db"
)

func agendaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the month or week calendar from the database",
	}

	month := &cobra.Command{
		Use:   "month",
		Short: "Print appointments grouped by day for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgenda(cmd, func(svc *scheduling.Service, f scheduling.Filter, ref time.Time) error {
				grid, err := svc.MonthView(cmd.Context(), f, ref)
				if err != nil {
					return err
				}
				printMonth(cmd.OutOrStdout(), grid, svc.Location())
				return nil
			})
		},
	}
	week := &cobra.Command{
		Use:   "week",
		Short: "Print appointments by day and hour for one week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgenda(cmd, func(svc *scheduling.Service, f scheduling.Filter, ref time.Time) error {
				grid, err := svc.WeekView(cmd.Context(), f, ref)
				if err != nil {
					return err
				}
				printWeek(cmd.OutOrStdout(), grid, svc.Location())
				return nil
			})
		},
	}
	for _, c := range []*cobra.Command{month, week} {
		c.Flags().String("date", "", "Reference date YYYY-MM-DD (defaults to today)")
		c.Flags().String("category", "", "Only show appointments of this category id")
		c.Flags().String("patient", "", "Only show appointments of this patient id")
		cmd.AddCommand(c)
	}
	return cmd
}

func runAgenda(cmd *cobra.Command, render func(*scheduling.Service, scheduling.Filter, time.Time) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	ref, f, err := agendaArgs(cmd, time.Now().In(loc), loc)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc, _, err := newSchedulingService(pool, cfg, zerolog.New(cmd.ErrOrStderr()).Level(zerolog.WarnLevel))
	if err != nil {
		return err
	}
	return render(svc, f, ref)
}

// agendaArgs reads the reference date and filter flags.
func agendaArgs(cmd *cobra.Command, now time.Time, loc *time.Location) (time.Time, scheduling.Filter, error) {
	var f scheduling.Filter
	ref := now
	if v, _ := cmd.Flags().GetString("date"); v != "" {
		d, err := calendar.Parse(v)
		if err != nil {
			return ref, f, fmt.Errorf("invalid --date: %w", err)
		}
		ref = d.In(loc)
	}
	for name, dst := range map[string]**uuid.UUID{"category": &f.CategoryID, "patient": &f.PatientID} {
		v, _ := cmd.Flags().GetString(name)
		if v == "" || strings.EqualFold(v, "all") {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return ref, f, fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = &id
	}
	return ref, f, nil
}

func describe(a *scheduling.Appointment, loc *time.Location) string {
	var b strings.Builder
	if a.Start != nil {
		b.WriteString(a.Start.In(loc).Format("15:04"))
		if a.End != nil {
			b.WriteString("-" + a.End.In(loc).Format("15:04"))
		}
		b.WriteString("  ")
	}
	if a.Title != nil && *a.Title != "" {
		b.WriteString(*a.Title)
	} else {
		b.WriteString("(untitled)")
	}
	if a.PatientData != nil {
		if name := a.PatientData.FullName(); name != "" {
			fmt.Fprintf(&b, " with %s", name)
		}
	}
	if a.CategoryData != nil && a.CategoryData.Label != nil {
		fmt.Fprintf(&b, " [%s]", *a.CategoryData.Label)
	}
	return b.String()
}

func printMonth(w io.Writer, g *scheduling.MonthGrid, loc *time.Location) {
	fmt.Fprintf(w, "%s %d\n", g.Month, g.Year)
	empty := true
	for _, d := range g.Days {
		items := g.On(d)
		if len(items) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(w, "%s %s\n", d.Weekday().String()[:3], d)
		for _, a := range items {
			fmt.Fprintf(w, "    %s\n", describe(a, loc))
		}
	}
	if empty {
		fmt.Fprintln(w, "No appointments.")
	}
}

func printWeek(w io.Writer, g *scheduling.WeekGrid, loc *time.Location) {
	fmt.Fprintf(w, "Week %s to %s\n", g.Days[0], g.Days[len(g.Days)-1])
	for _, d := range g.Days {
		fmt.Fprintf(w, "%s %s\n", d.Weekday().String()[:3], d)
		for _, h := range g.Hours {
			for _, a := range g.At(d, h) {
				fmt.Fprintf(w, "  %02d:00  %s\n", h, describe(a, loc))
			}
		}
	}
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
