package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mdx-wiki/pkg/config"
	"mdx-wiki/pkg/logger"
	"mdx-wiki/pkg/services"
)

var (
	contentDir      string
	assetsDir       string
	outputDir       string
	publicAssetsDir string
	contentExt      string
	noHistory       bool
	skipAssets      bool
	printIndex      bool
	debugMode       bool
)

var rootCmd = &cobra.Command{
	Use:   "prebuild",
	Short: "Index the wiki content tree into the entry index and flat content store",
	Long: `prebuild walks the content tree, groups <id>.<lang>.<ext> files into entries,
reads frontmatter and git history, writes entries.json plus one file per
entry and language into the output directory, and mirrors the asset tree.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlags(cmd)
		if err := config.LoadSite(); err != nil {
			return err
		}

		level := config.LogLevel
		if debugMode {
			level = "debug"
		}
		log := logger.New(logger.Config{Level: level, Pretty: true})

		var history services.HistoryLookup = services.NewGitHistory(config.RepoPath)
		if noHistory {
			history = services.NoHistory{}
		}

		idx, err := services.BuildSite(cmd.Context(), services.BuildOptions{
			History:    history,
			Logger:     log,
			SkipAssets: skipAssets,
		})
		if err != nil {
			return err
		}

		if printIndex {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(idx)
		}
		return nil
	},
}

func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("content") {
		config.ContentDir = contentDir
	}
	if flags.Changed("assets") {
		config.AssetsDir = assetsDir
	}
	if flags.Changed("out") {
		config.OutputDir = outputDir
	}
	if flags.Changed("public-assets") {
		config.PublicAssetsDir = publicAssetsDir
	}
	if flags.Changed("ext") {
		config.ContentExt = config.NormalizeExt(contentExt)
	}
}

func init() {
	rootCmd.Flags().StringVar(&contentDir, "content", "", "Content tree to index (default from CONTENT_DIR)")
	rootCmd.Flags().StringVar(&assetsDir, "assets", "", "Asset tree to mirror (default from ASSETS_DIR)")
	rootCmd.Flags().StringVar(&outputDir, "out", "", "Output directory for entries.json and content copies (default from OUTPUT_DIR)")
	rootCmd.Flags().StringVar(&publicAssetsDir, "public-assets", "", "Destination of the asset mirror (default from PUBLIC_ASSETS_DIR)")
	rootCmd.Flags().StringVar(&contentExt, "ext", "", "Content file extension (default from CONTENT_EXT)")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip git history lookups; timestamps are left empty")
	rootCmd.Flags().BoolVar(&skipAssets, "skip-assets", false, "Do not mirror the asset tree")
	rootCmd.Flags().BoolVar(&printIndex, "print", false, "Print the resulting index to stdout")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

func main() {
	config.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "prebuild:", err)
		os.Exit(1)
	}
}
