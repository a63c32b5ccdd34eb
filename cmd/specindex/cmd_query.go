package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"specindex/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query spec#anchor",
	Short: "Resolve a spec#anchor reference to its section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmdContext(cmd), 30*time.Second)
		defer cancel()
		res, err := svc.Query(ctx, args[0])
		if err != nil {
			return err
		}
		md := fmt.Sprintf("## %s\n\n*%s* — `%s#%s`\n\n%s", sectionHeading(res), res.Section.Kind, res.Spec, res.Section.Anchor, res.Section.Content)
		return render(res, md)
	},
}

func sectionHeading(res query.QueryResult) string {
	if res.Section.Title != "" {
		return res.Section.Title
	}
	return res.Section.Anchor
}

var existsCmd = &cobra.Command{
	Use:   "exists spec#anchor",
	Short: "Check whether a spec#anchor reference resolves",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmdContext(cmd), 30*time.Second)
		defer cancel()
		res, err := svc.Exists(ctx, args[0])
		if err != nil {
			return err
		}
		if !res.Exists {
			pendingExitCode = 1
			return render(res, fmt.Sprintf("`%s` does not exist.", res.Ref))
		}
		return render(res, fmt.Sprintf("`%s` exists.", res.Ref))
	},
}

var anchorsCmd = &cobra.Command{
	Use:   "anchors spec",
	Short: "List anchors in a spec matching a glob pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		glob, _ := cmd.Flags().GetString("glob")
		ctx, cancel := context.WithTimeout(cmdContext(cmd), 30*time.Second)
		defer cancel()
		res, err := svc.Anchors(ctx, args[0], glob)
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "## %s anchors matching `%s`\n\n", res.Spec, glob)
		for _, a := range res.Anchors {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		return render(res, b.String())
	},
}

var searchCmd = &cobra.Command{
	Use:   "search query",
	Short: "Full-text search over indexed section content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specName, _ := cmd.Flags().GetString("spec")
		limit, _ := cmd.Flags().GetInt("limit")
		results, err := svc.Search(args[0], specName, limit)
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "## Search: %q\n\n", args[0])
		for _, r := range results {
			fmt.Fprintf(&b, "- **%s#%s** (%s): %s\n", r.Spec, r.Anchor, r.Kind, r.Snippet)
		}
		return render(results, b.String())
	},
}

var refsCmd = &cobra.Command{
	Use:   "refs spec#anchor",
	Short: "List references in or out of a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("direction")
		ctx, cancel := context.WithTimeout(cmdContext(cmd), 30*time.Second)
		defer cancel()
		res, err := svc.Refs(ctx, args[0], query.Direction(dir))
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "## References %s of %s\n\n", res.Direction, res.Ref)
		for _, r := range res.Refs {
			fmt.Fprintf(&b, "- %s → %s#%s\n", r.FromAnchor, r.ToSpec, r.ToAnchor)
		}
		return render(res, b.String())
	},
}
