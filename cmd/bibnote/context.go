package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/matsen/bibnote/internal/config"
	"github.com/matsen/bibnote/internal/notes"
	"github.com/matsen/bibnote/internal/render"
	"github.com/matsen/bibnote/internal/storage"
)

// appContext bundles the plugin-lifetime state: vault root, settings,
// the library manager and the note resolver. It is constructed once
// per command invocation and closed when the command finishes; nothing
// lives in package-level mutable state.
type appContext struct {
	VaultRoot string
	Config    *config.Config
	Engine    *render.Engine
	Manager   *notes.Manager
	Resolver  *notes.Resolver
	Logger    *zap.Logger

	cache *storage.Cache
}

// findVaultRoot resolves the vault root: $BIBNOTE_VAULT, then an
// ancestor of the working directory containing .bibnote, then the
// global config's vault_path.
func findVaultRoot() (string, error) {
	if root := os.Getenv("BIBNOTE_VAULT"); root != "" {
		if !config.IsVault(root) {
			return "", fmt.Errorf("BIBNOTE_VAULT is not a bibnote vault: %s", root)
		}
		return root, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if root, err := config.FindVault(cwd); err == nil {
		return root, nil
	}

	root, err := config.ValidateVaultPath()
	if err != nil {
		if errors.Is(err, config.ErrVaultPathNotConfigured) {
			return "", errors.New(config.HelpfulConfigMessage())
		}
		return "", err
	}
	if !config.IsVault(root) {
		return "", fmt.Errorf("configured vault_path is not a bibnote vault: %s", root)
	}
	return root, nil
}

// newAppContext locates the vault, loads its config and wires the
// manager, engine and resolver together.
func newAppContext(logger *zap.Logger) (*appContext, error) {
	root, err := findVaultRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &appContext{
		VaultRoot: root,
		Config:    cfg,
		Engine:    render.NewEngine(),
		Logger:    logger,
	}

	// The cache is best-effort: a broken cache database degrades to
	// re-parsing the export.
	if err := os.MkdirAll(config.CachePath(root), 0755); err == nil {
		if cache, err := storage.Open(config.DBPath(root)); err == nil {
			app.cache = cache
		} else {
			logger.Warn("opening library cache failed", zap.Error(err))
		}
	}

	opts := []notes.ManagerOption{notes.WithLogger(logger)}
	if app.cache != nil {
		opts = append(opts, notes.WithCache(app.cache))
	}
	app.Manager = notes.NewManager(root, cfg, opts...)
	app.Resolver = notes.NewResolver(root, cfg, app.Engine, logger)

	return app, nil
}

// Close releases resources held by the context.
func (a *appContext) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// EnsureLibrary makes the current library available: warm-start from
// the cache when the export is unchanged, full load cycle otherwise.
func (a *appContext) EnsureLibrary(ctx context.Context) error {
	ok, err := a.Manager.LoadFromCache()
	if err != nil {
		a.Logger.Warn("library cache read failed", zap.Error(err))
	}
	if ok {
		return nil
	}
	_, err = a.Manager.Load(ctx, true)
	return err
}
