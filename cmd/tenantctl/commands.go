package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hermeshr/tenancy/pkg/events"
	"github.com/hermeshr/tenancy/pkg/migrate"
)

var errConfirmRequired = errors.New("refusing to drop without --yes")

func newListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List provisioned tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.stack.Admin.ListTenantSchemas(cmd.Context())
			if err != nil {
				return err
			}

			type row struct {
				Tenant string `json:"tenant"`
				Schema string `json:"schema"`
			}
			rows := make([]row, 0, len(names))
			for _, name := range names {
				id, _ := s.stack.Naming.TenantID(name)
				rows = append(rows, row{Tenant: id, Schema: name})
			}

			return render(cmd.OutOrStdout(), g.output.GetString(), rows, func(w io.Writer) {
				fmt.Fprintln(w, "TENANT\tSCHEMA")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\n", r.Tenant, r.Schema)
				}
			})
		},
	}
}

func newStatusCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [schema...]",
		Short: "Show migration status of tenant schemas (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, g)
			if err != nil {
				return err
			}
			defer s.Close()

			names := args
			if len(names) == 0 {
				if names, err = s.stack.Admin.ListTenantSchemas(ctx); err != nil {
					return err
				}
			}

			statuses := make([]migrate.Status, 0, len(names))
			var errs []error
			for _, name := range names {
				st, err := s.stack.Engine.Status(ctx, name)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					continue
				}
				statuses = append(statuses, st)
			}

			if err := render(cmd.OutOrStdout(), g.output.GetString(), statuses, func(w io.Writer) {
				fmt.Fprintln(w, "SCHEMA\tVERSION\tAPPLIED\tPENDING")
				for _, st := range statuses {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", st.Schema, st.Version, st.Applied, st.Pending)
				}
			}); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
}

func newCreateCommand(g *globalFlags) *cobra.Command {
	var viaEvents bool

	cmd := &cobra.Command{
		Use:   "create <tenant>",
		Short: "Provision a tenant schema and apply all migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, g)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.stack.Naming.Validate(args[0]); err != nil {
				return err
			}

			if viaEvents {
				id, err := s.publish(ctx, events.TenantCreated, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published %s for %s (%s)\n", events.TenantCreated, args[0], id)
				return nil
			}

			if err := s.stack.Runner.InitializeTenantSchema(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s provisioned in schema %s\n", args[0], s.stack.Naming.SchemaName(args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&viaEvents, "publish", false, "Publish TENANT_CREATED for tenantd instead of provisioning directly")
	return cmd
}

func newMigrateCommand(g *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "migrate [--all | schema...]",
		Short: "Apply pending migrations to tenant schemas",
		Args: func(_ *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass either --all or one or more schema names")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, g)
			if err != nil {
				return err
			}
			defer s.Close()

			names := args
			if all {
				if names, err = s.stack.Admin.ListTenantSchemas(ctx); err != nil {
					return err
				}
			}

			result := s.stack.Runner.RunMigrationsForSchemas(ctx, names)

			type row struct {
				Schema   string `json:"schema"`
				Result   string `json:"result"`
				Duration string `json:"duration"`
			}
			rows := make([]row, 0, len(result.Results))
			for _, r := range result.Results {
				outcome := "ok"
				if r.Err != nil {
					outcome = "failed"
				}
				rows = append(rows, row{Schema: r.Schema, Result: outcome, Duration: r.Duration.Round(time.Millisecond).String()})
			}

			if err := render(cmd.OutOrStdout(), g.output.GetString(), rows, func(w io.Writer) {
				fmt.Fprintln(w, "SCHEMA\tRESULT\tDURATION")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.Schema, r.Result, r.Duration)
				}
			}); err != nil {
				return err
			}
			return result.Err()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Migrate every tenant schema")
	return cmd
}

func newDropCommand(g *globalFlags) *cobra.Command {
	var (
		yes       bool
		viaEvents bool
	)

	cmd := &cobra.Command{
		Use:   "drop <tenant>",
		Short: "Drop a tenant schema and all of its data (requires MT_ALLOW_DROP)",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			if !yes {
				return errConfirmRequired
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, g)
			if err != nil {
				return err
			}
			defer s.Close()

			if viaEvents {
				id, err := s.publish(ctx, events.TenantDeleted, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published %s for %s (%s)\n", events.TenantDeleted, args[0], id)
				return nil
			}

			if err := s.stack.Runner.DropTenantSchema(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s dropped\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the irreversible drop")
	cmd.Flags().BoolVar(&viaEvents, "publish", false, "Publish TENANT_DELETED for tenantd instead of dropping directly")
	return cmd
}

// render writes v as JSON or as a table, depending on format.
func render(out io.Writer, format string, v any, table func(w io.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
