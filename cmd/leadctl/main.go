// Command leadctl drives the Brintelli lead pipeline from a terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/imaggar-technologies/brintelli/internal/client/apiclient"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

type globalFlags struct {
	configPath string
	server     string
}

// app is what every subcommand works with.
type app struct {
	client *apiclient.Client
	tokens *fileTokens
}

func (g *globalFlags) open() (*app, error) {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.server != "" {
		cfg.Server = g.server
	}
	tokens := &fileTokens{path: g.configPath, cfg: cfg}
	c := apiclient.New(cfg.Server, tokens)
	c.OnLogout = func() {
		fmt.Fprintln(os.Stderr, "session expired; run `leadctl login` again")
	}
	return &app{client: c, tokens: tokens}, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, apiclient.ErrSessionExpired) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "leadctl",
		Short:        "Work the Brintelli lead pipeline from the command line",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", defaultConfigPath(), "Path to the leadctl config file")
	root.PersistentFlags().StringVar(&g.server, "server", "", "Server base URL (overrides the config file)")

	root.AddCommand(
		loginCmd(g),
		logoutCmd(g),
		leadsCmd(g),
		preScreeningCmd(g),
		notesCmd(g),
		assignCmd(g),
		submitAssessmentCmd(g),
		bookAssessmentCmd(g),
		advanceCmd(g),
		deactivateCmd(g),
		usersCmd(g),
	)
	return root
}

// run opens the client and hands it to fn.
func run(g *globalFlags, fn func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := g.open()
		if err != nil {
			return err
		}
		return fn(cmd.Context(), a)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAction(r *apiclient.ActionResult) error {
	if r.Moved {
		fmt.Printf("%s: %s -> %s (version %d)\n", r.Action, r.From, r.To, r.Lead.Version)
	} else {
		fmt.Printf("%s: done, stage %s (version %d)\n", r.Action, r.Lead.EffectiveStage, r.Lead.Version)
	}
	return nil
}

/* ---------------------------------- auth ---------------------------------- */

func loginCmd(g *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token pair in the config file",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if password == "" {
			password = os.Getenv("LEADCTL_PASSWORD")
		}
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password (or LEADCTL_PASSWORD) are required")
		}
		return run(g, func(ctx context.Context, a *app) error {
			s, err := a.client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s (%s)\n", s.User.Email, s.User.Role)
			return nil
		})(cmd, args)
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func logoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and forget both tokens",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *app) error {
			return a.client.Logout(ctx)
		}),
	}
}

/* ---------------------------------- leads --------------------------------- */

func leadsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List and show leads",
	}

	var pageContext string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the leads visible to you",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *app) error {
			res, err := a.client.ListLeads(ctx, pageContext, limit)
			if err != nil {
				return err
			}
			return printLeadTable(res)
		}),
	}
	list.Flags().StringVar(&pageContext, "context", "active", "new, active, assessments, overview or deactivated")
	list.Flags().IntVar(&limit, "limit", 0, "Maximum number of leads")

	show := &cobra.Command{
		Use:   "show <lead-id>",
		Short: "Show one lead as JSON",
		Args:  cobra.ExactArgs(1),
	}
	show.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			l, err := a.client.GetLead(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(l)
		})(cmd, args)
	}

	cmd.AddCommand(list, show)
	return cmd
}

func printLeadTable(res *apiclient.LeadList) error {
	showAssignee := false
	for _, c := range res.Columns {
		if c == "assignedTo" {
			showAssignee = true
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := []string{"ID", "NAME", "STAGE", "COMPLETION"}
	if showAssignee {
		header = append(header, "ASSIGNED TO")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, l := range res.Leads {
		row := []string{l.ID.Hex(), l.Name, string(l.EffectiveStage), fmt.Sprintf("%d%%", l.Completion)}
		if showAssignee {
			row = append(row, l.AssignedTo)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d lead(s) in %s\n", res.Count, res.Context)
	return nil
}

/* ------------------------------ pre-screening ----------------------------- */

func preScreeningCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prescreening",
		Short: "Edit pre-screening documents",
	}

	var file string
	var merge bool
	set := &cobra.Command{
		Use:   "set <lead-id>",
		Short: "Save a pre-screening document from a JSON file",
		Args:  cobra.ExactArgs(1),
	}
	set.RunE = func(cmd *cobra.Command, args []string) error {
		doc, err := readPreScreening(file)
		if err != nil {
			return err
		}
		return run(g, func(ctx context.Context, a *app) error {
			res, err := a.client.SavePreScreening(ctx, args[0], doc, merge)
			if err != nil {
				return err
			}
			fmt.Printf("completion %d%%, stage %s", res.Completion, res.Stage)
			if res.Advanced {
				fmt.Print(" (advanced)")
			}
			fmt.Println()
			if len(res.Missing) > 0 {
				fmt.Printf("missing: %s\n", strings.Join(res.Missing, ", "))
			}
			return nil
		})(cmd, args)
	}
	set.Flags().StringVarP(&file, "file", "f", "", "JSON document (- for stdin)")
	set.Flags().BoolVar(&merge, "merge", false, "Merge non-empty fields instead of replacing")
	_ = set.MarkFlagRequired("file")

	cmd.AddCommand(set)
	return cmd
}

func readPreScreening(path string) (models.PreScreening, error) {
	var doc models.PreScreening
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return doc, err
		}
		defer f.Close()
		in = f
	}
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return doc, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

/* ------------------------------- call notes ------------------------------- */

func noteFlags(cmd *cobra.Command, in *apiclient.CallNoteInput) {
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Note text")
	cmd.Flags().StringVar(&in.CallDate, "date", "", "Call date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&in.CallTime, "time", "", "Call time HH:MM (default now, UTC)")
	_ = cmd.MarkFlagRequired("notes")
}

func notesCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read and add call notes",
	}

	var in apiclient.CallNoteInput
	add := &cobra.Command{
		Use:   "add <lead-id>",
		Short: "Add a call note",
		Args:  cobra.ExactArgs(1),
	}
	add.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			n, err := a.client.AddCallNote(ctx, args[0], in)
			if err != nil {
				return err
			}
			fmt.Printf("note saved for %s %s\n", n.CallDate, n.CallTime)
			return nil
		})(cmd, args)
	}
	noteFlags(add, &in)

	list := &cobra.Command{
		Use:   "list <lead-id>",
		Short: "List call notes, newest first",
		Args:  cobra.ExactArgs(1),
	}
	list.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			notes, err := a.client.CallNotes(ctx, args[0])
			if err != nil {
				return err
			}
			for _, n := range notes {
				fmt.Printf("%s %s  %s\n    %s\n", n.CallDate, n.CallTime, n.CreatedBy, n.Notes)
			}
			return nil
		})(cmd, args)
	}

	cmd.AddCommand(add, list)
	return cmd
}

/* --------------------------------- actions -------------------------------- */

func assignCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <lead-id> <email>",
		Short: "Assign a lead to an agent",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			r, err := a.client.Assign(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printAction(r)
		})(cmd, args)
	}
	return cmd
}

func submitAssessmentCmd(g *globalFlags) *cobra.Command {
	var in apiclient.CallNoteInput
	var assessmentType string
	cmd := &cobra.Command{
		Use:   "submit-assessment <lead-id>",
		Short: "Record the call and send the lead to assessments",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			r, err := a.client.SubmitAssessment(ctx, args[0], in, assessmentType)
			if err != nil {
				return err
			}
			return printAction(r)
		})(cmd, args)
	}
	noteFlags(cmd, &in)
	cmd.Flags().StringVar(&assessmentType, "type", "", "Assessment type")
	return cmd
}

func bookAssessmentCmd(g *globalFlags) *cobra.Command {
	var b apiclient.Booking
	cmd := &cobra.Command{
		Use:   "book-assessment <lead-id>",
		Short: "Book or rebook an assessment slot",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			r, err := a.client.BookAssessment(ctx, args[0], b)
			if err != nil {
				return err
			}
			return printAction(r)
		})(cmd, args)
	}
	cmd.Flags().StringVar(&b.Date, "date", "", "Date YYYY-MM-DD")
	cmd.Flags().StringVar(&b.Time, "time", "", "Time HH:MM")
	cmd.Flags().StringVar(&b.Type, "type", "", "Assessment type")
	cmd.Flags().StringVar(&b.Assignee, "assignee", "", "Assessor email")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func advanceCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advance <lead-id> <stage>",
		Short: "Move a lead to a later stage (e.g. offer, deal_negotiation)",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			r, err := a.client.Advance(ctx, args[0], models.Stage(args[1]))
			if err != nil {
				return err
			}
			return printAction(r)
		})(cmd, args)
	}
	return cmd
}

func deactivateCmd(g *globalFlags) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "deactivate <lead-id>",
		Short: "Move a lead to the lead dump",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(g, func(ctx context.Context, a *app) error {
			r, err := a.client.Deactivate(ctx, args[0], reason)
			if err != nil {
				return err
			}
			return printAction(r)
		})(cmd, args)
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the lead is being dropped")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

/* ---------------------------------- users --------------------------------- */

func usersCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Enable or disable staff accounts (admin only)",
	}
	type setter func(*apiclient.Client, context.Context, string) (*apiclient.UserStatus, error)
	status := func(use, short string, set setter) *cobra.Command {
		c := &cobra.Command{Use: use, Short: short, Args: cobra.ExactArgs(1)}
		c.RunE = func(c *cobra.Command, args []string) error {
			return run(g, func(ctx context.Context, a *app) error {
				s, err := set(a.client, ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", s.ID, s.Status)
				return nil
			})(c, args)
		}
		return c
	}
	cmd.AddCommand(
		status("disable <user-id>", "Block an account and sign it out everywhere", (*apiclient.Client).DisableUser),
		status("enable <user-id>", "Let a disabled account log in again", (*apiclient.Client).EnableUser),
	)
	return cmd
}
