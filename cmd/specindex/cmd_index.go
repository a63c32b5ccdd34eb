package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every currently indexed spec",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := svc.List()
		if err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString("## Indexed specs\n\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s\n", e.Summary())
		}
		return render(entries, b.String())
	},
}

var updateCmd = &cobra.Command{
	Use:   "update spec",
	Short: "Re-fetch one spec if its upstream source has changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		ctx, cancel := context.WithTimeout(cmdContext(cmd), 2*time.Minute)
		defer cancel()
		res, err := svc.Update(ctx, args[0], force)
		if err != nil {
			return err
		}
		md := fmt.Sprintf("**%s**: changed=%v sha=%s", res.Spec, res.Changed, res.SHA)
		return render(res, md)
	},
}

var updateAllCmd = &cobra.Command{
	Use:   "update-all",
	Short: "Re-fetch every configured spec, recording a per-spec result",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		ctx, cancel := context.WithTimeout(cmdContext(cmd), 5*time.Minute)
		defer cancel()
		results := svc.UpdateAll(ctx, force)

		var b strings.Builder
		b.WriteString("## update_all_specs\n\n")
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintf(&b, "- %s: **error** — %s\n", r.Spec, r.Err)
				continue
			}
			fmt.Fprintf(&b, "- %s: changed=%v sha=%s\n", r.Spec, r.Changed, r.SHA)
		}
		if err := render(results, b.String()); err != nil {
			return err
		}
		if failed > 0 {
			pendingExitCode = 1
		}
		return nil
	},
}

var clearDBCmd = &cobra.Command{
	Use:   "clear-db",
	Short: "Drop every indexed spec, snapshot, section, and reference",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := svc.ClearDB(); err != nil {
			return err
		}
		return render(struct{ Cleared bool }{true}, "Index cleared.")
	},
}

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "List the configured spec registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		var b strings.Builder
		b.WriteString("## Configured specs\n\n")
		for _, s := range cfg.Specs {
			fmt.Fprintf(&b, "- **%s** (%s) — %s\n", s.Name, s.Provider, s.BaseURL)
		}
		return render(cfg.Specs, b.String())
	},
}
