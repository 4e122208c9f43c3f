package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dnt/internal/cache"
	"dnt/internal/loader"
	"dnt/internal/observ"
	"dnt/internal/specifier"
	"dnt/internal/transform"
)

const defaultOutDir = "npm"

var transformCmd = &cobra.Command{
	Use:   "transform [entry]",
	Short: "Transform a Deno module graph into a Node-resolvable tree",
	Long: `Transform loads the module graph reachable from entry (a file path or URL),
rewrites every module and writes the result under --out. Without an argument
the entry is read from [transform].entry in dnt.toml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransform,
}

func init() {
	addTransformFlags(transformCmd)
}

func addTransformFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", defaultOutDir, "output directory")
	cmd.Flags().Bool("keep-extensions", false, "write .js extensions in rewritten specifiers")
	cmd.Flags().String("shim-package", transform.DefaultShimPackageName, "package imported in place of the Deno global")
	cmd.Flags().Int("jobs", 0, "max parallel loads and rewrites (0=auto)")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().Bool("reload", false, "ignore cached remote modules")
	cmd.Flags().String("cache-dir", "", "remote module cache (default $XDG_CACHE_HOME/dnt)")
	cmd.Flags().Bool("no-cache", false, "do not read or write the remote module cache")
	cmd.Flags().Bool("dry-run", false, "print output paths without writing files")
}

// transformSettings is the merged result of dnt.toml and flags; flags win.
type transformSettings struct {
	entry          *specifier.Specifier
	outDir         string
	keepExtensions bool
	shimPackage    string
	jobs           int
	reload         bool
	cacheDir       string
	noCache        bool
	dryRun         bool
}

func runTransform(cmd *cobra.Command, args []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(colorFlag); err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := parseTriState("ui", uiFlag)
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	manifest, _, err := loadProjectManifest(".")
	if err != nil {
		return err
	}
	settings, err := resolveTransformSettings(cmd, args, manifest)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), quiet)
	useTUI := !quiet && mode.enabled(isTerminal(os.Stdout))

	l, err := buildLoader(settings, logger)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	opts := transform.Options{
		EntryPoint:      settings.entry,
		KeepExtensions:  settings.keepExtensions,
		ShimPackageName: settings.shimPackage,
		Loader:          l,
		Jobs:            settings.jobs,
		Timer:           timer,
	}
	if !useTUI {
		opts.Notice = func(verb string, spec *specifier.Specifier) {
			logger.Infof("%s %s...", verb, spec)
		}
	}

	var files []transform.OutputFile
	if useTUI {
		files, err = runTransformWithUI(cmd.Context(), "dnt transform", opts)
	} else {
		files, err = transform.Transform(cmd.Context(), opts)
	}
	if err != nil {
		logger.Error("transform failed", "err", err)
		return err
	}

	out := cmd.OutOrStdout()
	if settings.dryRun {
		for _, f := range files {
			fmt.Fprintln(out, filepath.Join(settings.outDir, filepath.FromSlash(f.Path)))
		}
	} else {
		idx := timer.Begin("write")
		if err := writeOutputFiles(settings.outDir, files); err != nil {
			return err
		}
		timer.EndCount(idx, "", len(files))
		if !quiet {
			fmt.Fprintf(out, "%s %d files to %s\n", color.GreenString("wrote"), len(files), settings.outDir)
		}
	}

	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

func resolveTransformSettings(cmd *cobra.Command, args []string, manifest *projectManifest) (transformSettings, error) {
	flags := cmd.Flags()
	var s transformSettings
	var err error

	rawEntry := ""
	switch {
	case len(args) > 0:
		rawEntry = args[0]
	case manifest.isSet("transform", "entry"):
		rawEntry = manifest.Config.Transform.Entry
		if !isURL(rawEntry) {
			rawEntry = manifest.resolve(rawEntry)
		}
	default:
		return s, fmt.Errorf("%w: pass one or set [transform].entry in %s", transform.ErrNoEntryPoint, manifestName)
	}
	if s.entry, err = parseEntry(rawEntry); err != nil {
		return s, err
	}

	s.outDir, _ = flags.GetString("out")
	if !flags.Changed("out") && manifest.isSet("transform", "out_dir") {
		s.outDir = manifest.resolve(manifest.Config.Transform.OutDir)
	}
	s.keepExtensions, _ = flags.GetBool("keep-extensions")
	if !flags.Changed("keep-extensions") && manifest.isSet("transform", "keep_extensions") {
		s.keepExtensions = manifest.Config.Transform.KeepExtensions
	}
	s.shimPackage, _ = flags.GetString("shim-package")
	if !flags.Changed("shim-package") && manifest.isSet("transform", "shim_package") {
		s.shimPackage = manifest.Config.Transform.ShimPackage
	}
	s.jobs, _ = flags.GetInt("jobs")
	if !flags.Changed("jobs") && manifest.isSet("transform", "jobs") {
		s.jobs = manifest.Config.Transform.Jobs
	}
	s.reload, _ = flags.GetBool("reload")
	if !flags.Changed("reload") && manifest.isSet("cache", "reload") {
		s.reload = manifest.Config.Cache.Reload
	}
	s.cacheDir, _ = flags.GetString("cache-dir")
	if !flags.Changed("cache-dir") && manifest.isSet("cache", "dir") {
		s.cacheDir = manifest.resolve(manifest.Config.Cache.Dir)
	}
	s.noCache, _ = flags.GetBool("no-cache")
	s.dryRun, _ = flags.GetBool("dry-run")

	if s.jobs < 0 {
		return s, fmt.Errorf("--jobs must not be negative")
	}
	if strings.TrimSpace(s.outDir) == "" {
		return s, fmt.Errorf("output directory is empty")
	}
	return s, nil
}

func isURL(s string) bool {
	return strings.Contains(s, "://")
}

// parseEntry accepts a URL or a file path relative to the working directory.
func parseEntry(raw string) (*specifier.Specifier, error) {
	if isURL(raw) {
		return specifier.Parse(raw)
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", raw, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("entry point: %w", err)
	}
	return specifier.FromFilePath(abs)
}

func buildLoader(s transformSettings, logger *log.Logger) (*loader.DefaultLoader, error) {
	opts := []loader.Option{loader.WithReload(s.reload)}
	if s.noCache {
		return loader.NewDefaultLoader(opts...), nil
	}
	dir := s.cacheDir
	if dir == "" {
		var err error
		if dir, err = cache.DefaultDir("dnt"); err != nil {
			logger.Warn("remote cache disabled", "err", err)
			return loader.NewDefaultLoader(opts...), nil
		}
	}
	c, err := cache.Open(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("using cache", "dir", c.Dir())
	return loader.NewDefaultLoader(append(opts, loader.WithCache(c))...), nil
}

func newLogger(w io.Writer, quiet bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "dnt"})
	if quiet {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// writeOutputFiles writes every file below dir. Paths are produced by the
// mapper and are always local; anything else is refused.
func writeOutputFiles(dir string, files []transform.OutputFile) error {
	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("refusing to write outside %s: %s", dir, f.Path)
		}
		dst := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("failed to create %q: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, []byte(f.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write %q: %w", dst, err)
		}
	}
	return nil
}

var errNoCacheDir = errors.New("no cache directory")
