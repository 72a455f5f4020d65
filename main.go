package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/aktagon/ai-weekly/internal/content"
	"github.com/aktagon/ai-weekly/internal/search"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const basePathEnv = "AI_WEEKLY_BASE_PATH"

var (
	settingsPath  string
	contentRoot   string
	outputDir     string
	basePath      string
	siteURL       string
	templateDir   string
	strictMode    bool
	debugMode     bool
	searchLimit   int
	searchTitles  bool
	jsonOutput    bool
	newsletterOut string
)

var rootCmd = &cobra.Command{
	Use:   "ai-weekly [content-root]",
	Short: "Static site generator for the AI weekly digest",
	Long: `Builds the AI weekly digest site from a content root holding items/ and weeks/
front matter documents. Pages are written to the output directory, which is cleared first.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set debug mode globally
		if debugMode {
			SetDebugMode(true)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			contentRoot = args[0]
		}

		config := mustConfig(cmd)
		builder, err := NewSiteBuilder(config)
		if err != nil {
			log.Fatalf("Failed to create site builder: %v", err)
		}

		results, err := builder.Build(cmd.Context())
		if err != nil {
			log.Fatalf("Build failed: %v", err)
		}

		failed := 0
		for _, r := range results {
			if r.Status == StatusError {
				failed++
			}
		}
		if failed > 0 {
			log.Fatalf("Build finished with %d failed pages", failed)
		}
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings to .ai-weekly/settings.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := ensureConfigExists()
		if err != nil {
			return err
		}
		if path == "" {
			log.Printf("Settings already exist: %s", GetConfigPath("settings.yaml"))
			return nil
		}
		log.Printf("✓ Created %s", path)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [content-root]",
	Short: "Validate the content root without building",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			contentRoot = args[0]
		}
		config := mustConfig(cmd)

		store := config.OpenStore(content.WithStrict(false))
		findings := CheckContent(store, config.Settings.Sections)
		printFindings(cmd.OutOrStdout(), findings)

		if n := countErrors(findings); n > 0 {
			return fmt.Errorf("content check failed with %d errors", n)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search items by full text",
	Long: `Searches items with a full-text index over titles, tags, evidence and bodies.
With --titles, matches the site's search box instead: a substring of the title or tags.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		config := mustConfig(cmd)

		items, err := config.OpenStore().Items()
		if err != nil {
			return err
		}

		var hits []search.Hit
		if searchTitles {
			for i, it := range search.Filter(items, query) {
				hits = append(hits, search.Hit{Slug: it.Slug, Title: it.Title, Score: it.Score, Rank: i + 1})
			}
		} else {
			index, err := search.NewIndex(items)
			if err != nil {
				return err
			}
			defer index.Close()

			hits, err = index.Search(query, searchLimit)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(hits)
		}
		if len(hits) == 0 {
			fmt.Fprintf(out, "No items match %q\n", query)
			return nil
		}
		paths := config.AbsolutePaths()
		for _, h := range hits {
			fmt.Fprintf(out, "%2d. %s\n    %s (%.2f)\n", h.Rank, h.Title, paths.Item(h.Slug), h.Score)
		}
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags with their item counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := mustConfig(cmd).OpenStore()
		tags, err := store.Tags()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, tag := range tags {
			items, err := store.ItemsByTag(tag)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%d\n", tag, len(items))
		}
		return nil
	},
}

var newsletterCmd = &cobra.Command{
	Use:   "newsletter [week-slug]",
	Short: "Export a week as a Markdown newsletter",
	Long:  `Exports the given week, or the latest one, as Markdown with absolute links under site_url.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := ""
		if len(args) > 0 {
			slug = args[0]
		}

		writer, err := NewNewsletterWriter(mustConfig(cmd))
		if err != nil {
			return err
		}
		markdown, err := writer.Write(slug)
		if err != nil {
			return err
		}

		if newsletterOut == "" {
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		}
		if err := atomic.WriteFile(newsletterOut, strings.NewReader(markdown)); err != nil {
			return fmt.Errorf("writing newsletter: %w", err)
		}
		log.Printf("✓ Wrote %s", newsletterOut)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "ai-weekly", version)
	},
}

// buildOverrides collects the flags that were set explicitly
func buildOverrides(cmd *cobra.Command) *ConfigOverrides {
	overrides := &ConfigOverrides{}
	flags := cmd.Flags()

	if settingsPath != "" {
		overrides.SettingsPath = &settingsPath
	}
	if contentRoot != "" {
		overrides.ContentRoot = &contentRoot
	}
	if outputDir != "" {
		overrides.OutputDirectory = &outputDir
	}
	if flags.Changed("base-path") {
		overrides.BasePath = &basePath
	} else if env, ok := os.LookupEnv(basePathEnv); ok {
		overrides.BasePath = &env
	}
	if siteURL != "" {
		overrides.SiteURL = &siteURL
	}
	if templateDir != "" {
		overrides.TemplateDir = &templateDir
	}
	if flags.Changed("strict") {
		overrides.Strict = &strictMode
	}

	return overrides
}

func mustConfig(cmd *cobra.Command) *Config {
	config, err := NewConfig(buildOverrides(cmd))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugLog("content root %s, output %s, base path %q",
		config.Settings.ContentRoot, config.Settings.OutputDirectory, config.Settings.BasePath)
	return config
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsPath, "settings", "", "Path to settings file (default .ai-weekly/settings.yaml)")
	flags.StringVar(&contentRoot, "content", "", "Content root holding items/ and weeks/")
	flags.StringVar(&basePath, "base-path", "", "URL prefix for every page, e.g. /ai-weekly-site (env "+basePathEnv+")")
	flags.StringVar(&siteURL, "site-url", "", "Absolute site origin used for newsletter and search links")
	flags.StringVar(&templateDir, "templates", "", "Directory overriding the embedded templates and style.css")
	flags.BoolVar(&strictMode, "strict", false, "Fail on malformed documents instead of skipping them")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (cleared before each build)")

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", search.DefaultLimit, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchTitles, "titles", false, "Match titles and tags only, like the site search box")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	newsletterCmd.Flags().StringVarP(&newsletterOut, "out", "o", "", "Write the newsletter to a file instead of stdout")

	rootCmd.AddCommand(initCmd, checkCmd, searchCmd, tagsCmd, newsletterCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
