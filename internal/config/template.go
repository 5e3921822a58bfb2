package config

// DefaultConfigTemplate is the config file written by `bkit config init`.
const DefaultConfigTemplate = `# bkit configuration
# Environment variables (BKIT_*) override values in this file.

# Scope used when ` + "`bkit install`" + ` is run without --scope.
# One of: user, workspace, repository
defaultScope: repository

# Commit mode for repository-scope installs without --mode.
# One of: commit, local-only
defaultCommitMode: commit

# Override the bundle cache location (default ~/.bkit/cache).
#cacheDir: /path/to/cache

# Override the per-user bundle store (default ~/.bkit/store).
#storeDir: /path/to/store
`
