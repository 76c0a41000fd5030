package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/letieu/reddit-profiler/internal/analyzer"
	"github.com/letieu/reddit-profiler/internal/prompt"
	"github.com/letieu/reddit-profiler/internal/server"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <username|profile-url>",
		Short: "Fetch a user's recent comments into a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.profiler.Fetch(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %d comments for u/%s\n", len(sess.Comments), sess.Username)
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Maximum number of comments (default fetch.default_limit)")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <username>",
		Short: "Run an analysis prompt over a user's saved comments",
		Long:  "Analyze sends the saved comments with a preset prompt (see `profiler prompts`) or custom prompt text to Gemini and caches the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptArg, _ := cmd.Flags().GetString("prompt")
			model, _ := cmd.Flags().GetString("model")

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.profiler.Analyze(cmd.Context(), args[0], promptArg, model)
			if err != nil {
				return err
			}
			if res.Truncated {
				fmt.Fprintln(os.Stderr, "Note: comments were truncated to fit the model's context.")
			}
			if res.Outcome != analyzer.OutcomeGenerated {
				fmt.Fprintf(os.Stderr, "Outcome: %s\n", res.Outcome)
			}
			fmt.Println(res.Text)
			return nil
		},
	}

	cmd.Flags().StringP("prompt", "p", "", "Preset key or custom prompt text")
	cmd.Flags().StringP("model", "m", "", "Gemini model (default gemini.model)")
	return cmd
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLocal()
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := a.profiler.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tCOMMENTS\tFETCHED\tANALYZED")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%d\t%s\t%t\n", u.Username, u.CommentCount, u.FetchedAt.Local().Format(time.DateTime), u.HasAnalysis)
			}
			return w.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <username>",
		Short: "Print a saved session and its cached analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")

			a, err := openLocal()
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.profiler.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if raw {
				pp.Print(sess)
				fmt.Println()
				return nil
			}

			fmt.Printf("u/%s: %d comments, fetched %s\n", sess.Username, len(sess.Comments), sess.FetchedAt.Local().Format(time.DateTime))
			if sess.CachedAnalysis == nil {
				fmt.Println("No analysis yet.")
				return nil
			}
			fmt.Println()
			fmt.Println(*sess.CachedAnalysis)
			return nil
		},
	}

	cmd.Flags().Bool("raw", false, "Dump the whole session structure")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <username>",
		Short: "Show comment statistics for a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLocal()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.profiler.Stats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Total comments:    %d\n", st.TotalComments)
			fmt.Printf("Average score:     %.2f\n", st.AvgScore)
			fmt.Printf("Unique subreddits: %d\n", st.UniqueSubreddits)
			if len(st.TopSubreddits) > 0 {
				fmt.Println("Top subreddits:")
				for _, s := range st.TopSubreddits {
					fmt.Printf("  r/%s %d\n", s.Subreddit, s.Count)
				}
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <username>",
		Short: "Write a saved session's comments to {username}_comments.txt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")

			a, err := openLocal()
			if err != nil {
				return err
			}
			defer a.Close()

			filename, content, err := a.profiler.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "-" {
				fmt.Println(content)
				return nil
			}
			if out == "" {
				out = filename
			}
			if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file, or - for stdout")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <username>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLocal()
			if err != nil {
				return err
			}
			defer a.Close()

			return a.profiler.Remove(cmd.Context(), args[0])
		},
	}
}

func newPromptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List preset analysis prompts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range prompt.Presets() {
				marker := " "
				if p.Key == prompt.DefaultPresetKey {
					marker = "*"
				}
				fmt.Printf("%s %-20s %s\n", marker, p.Key, p.Title)
			}
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported Gemini models",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range prompt.Models() {
				note := ""
				if m == prompt.DefaultModel {
					note = " (default)"
				}
				fmt.Printf("%s  %d chars%s\n", strings.TrimPrefix(m, "models/"), prompt.CeilingFor(m), note)
			}
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return server.New(a.profiler).Run(addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default server.addr)")
	return cmd
}
