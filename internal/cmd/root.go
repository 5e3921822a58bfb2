package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/cache"
	"github.com/bundlekit/cli/internal/config"
	"github.com/bundlekit/cli/internal/gitexclude"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
	"github.com/bundlekit/cli/internal/scope"
	"github.com/bundlekit/cli/internal/userstore"
	"github.com/bundlekit/cli/internal/version"
)

var (
	// Global flags
	flagConfig  string
	flagVerbose bool

	// Loaded configuration (set during PersistentPreRunE)
	bkitConfig *config.Config

	// registry caches one lockfile store per repository root.
	registry = lockfile.NewRegistry()
)

// NewRootCmd creates the root command for the bkit CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bkit",
		Short: "Bundle installation and consistency engine",
		Long: `bkit installs content bundles (prompts, agents, instructions, skills)
into repositories and per-user stores, and keeps the repository lockfile,
the installed files, and the git exclude list consistent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file (env: BKIT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "increase output verbosity")

	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewInstallCmd())
	rootCmd.AddCommand(NewUninstallCmd())
	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewVerifyCmd())
	rootCmd.AddCommand(NewStaleCmd())
	rootCmd.AddCommand(NewMoveCmd())
	rootCmd.AddCommand(NewModeCmd())
	rootCmd.AddCommand(NewSyncCmd())
	rootCmd.AddCommand(NewVetCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(_ *cobra.Command) error {
	output.SetupLogging(flagVerbose)

	info := version.GetInfo()
	output.Debug("bkit started", "version", info.Version)

	loader := config.NewLoader()
	cfg, err := loader.LoadWithDefaults(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	bkitConfig = cfg

	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if bkitConfig == nil {
		return config.DefaultConfig()
	}
	return bkitConfig
}

// env holds the stores and resolver a command operates on.
type env struct {
	// Root is the repository root, or "" when the working directory is not
	// inside a git repository.
	Root string

	Store    *lockfile.Store
	Index    *userstore.Index
	Cache    *cache.Cache
	Resolver *scope.Resolver
	StoreDir string
}

// newEnv wires the stores for the current working directory. Commands that
// only touch user or workspace scope work outside a repository; Root is ""
// and Store/Resolver are nil in that case.
func newEnv() (*env, error) {
	cfg := GetConfig()

	storeDir := cfg.StoreDir
	if storeDir == "" {
		var err error
		storeDir, err = config.GetStoreDir()
		if err != nil {
			return nil, fmt.Errorf("resolving store dir: %w", err)
		}
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		var err error
		cacheDir, err = config.GetCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving cache dir: %w", err)
		}
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, err
	}
	index := userstore.NewIndex(filepath.Join(paths.HomeDir, userstore.IndexName))
	bundleCache := cache.New(cacheDir)

	e := &env{
		Index:    index,
		Cache:    bundleCache,
		StoreDir: storeDir,
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	root, err := gitexclude.DiscoverRoot(cwd)
	if err != nil {
		output.Debug("not inside a git repository", "dir", cwd)
		return e, nil
	}

	store, err := registry.ForRoot(root)
	if err != nil {
		return nil, fmt.Errorf("opening lockfile store: %w", err)
	}

	e.Root = root
	e.Store = store
	e.Resolver = scope.NewResolver(scope.Options{
		Store:     store,
		Index:     index,
		StoreDir:  storeDir,
		Retriever: bundleCache,
	})

	return e, nil
}

// requireRepo returns an error when the working directory is not inside a
// git repository.
func (e *env) requireRepo() error {
	if e.Root == "" {
		return NewExitError(fmt.Errorf("not inside a git repository"), ExitGeneralError)
	}
	return nil
}
