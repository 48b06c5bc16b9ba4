package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cubsoftware/cubvault/internal/config"
	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/keyring"
	"github.com/cubsoftware/cubvault/internal/logging"
	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/storage"
	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ErrAlreadyExists = errors.New("vault already exists")
	ErrNotLoggedIn   = errors.New("not logged in")
)

// newEngine builds the crypto engine for a command. Tests swap it for a
// cheaper key derivation.
var newEngine = func() *crypto.Engine {
	return crypto.New()
}

// PasswordSource records where a master password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// App is everything a command needs: config, logger, storage, sync client
// and the vault itself. Close locks the vault.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Store  storage.Store
	Client *remote.Client
	Vault  *vault.Database

	out     io.Writer
	errOut  io.Writer
	in      io.Reader
	vaultID string
}

func openApp(cmd *cobra.Command, opts ...vault.Option) (*App, error) {
	ctx := cmd.Context()

	dataDir := globals.dataDir
	if dataDir == "" {
		var err error
		if dataDir, err = config.DefaultDataDir(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	if globals.storage != "" {
		cfg.Storage = globals.storage
	}
	if globals.api != "" {
		cfg.APIBaseURL = globals.api
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	switch {
	case globals.debug:
		level = "debug"
	case globals.verbose:
		level = "info"
	}
	log, err := logging.New(level, cfg.LogJSON)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, storage.Kind(cfg.Storage), cfg.DataDir)
	if err != nil {
		return nil, err
	}
	log.Debug("opened storage", zap.String("kind", cfg.Storage), zap.String("dir", cfg.DataDir))

	client := remote.New(cfg.APIBaseURL, remote.WithLogger(log.Named("remote")))
	vopts := append([]vault.Option{
		vault.WithRemote(client),
		vault.WithLogger(log.Named("vault")),
	}, opts...)

	return &App{
		Config: cfg,
		Log:    log,
		Store:  store,
		Client: client,
		Vault:  vault.New(newEngine(), store, vopts...),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		in:     cmd.InOrStdin(),
	}, nil
}

// Close locks the vault and releases storage
func (a *App) Close() {
	a.Vault.LockVault()
	if err := a.Store.Close(); err != nil {
		a.Log.Warn("failed to close storage", zap.Error(err))
	}
	_ = a.Log.Sync()
}

// VaultID returns the identifier keying this vault's keyring entries
func (a *App) VaultID(ctx context.Context) (string, error) {
	if a.vaultID != "" {
		return a.vaultID, nil
	}
	id, err := storage.VaultID(ctx, a.Store)
	if err != nil {
		return "", err
	}
	a.vaultID = id
	return id, nil
}

// Token returns the stored sync token, or "" if there is none or it has
// expired.
func (a *App) Token(ctx context.Context) string {
	vaultID, err := a.VaultID(ctx)
	if err != nil {
		return ""
	}
	token, err := keyring.GetToken(vaultID)
	if err != nil {
		a.Log.Debug("keyring unavailable", zap.Error(err))
		return ""
	}
	if token == "" {
		return ""
	}
	if remote.TokenExpired(token, time.Now()) {
		printWarn(a.errOut, "Sync session expired, run 'cubvault login' to sync again")
		return ""
	}
	return token
}

// Unlock unlocks the vault with the password from the environment, the
// keyring or a prompt.
func (a *App) Unlock(ctx context.Context) error {
	password, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	crypto.ClearBytes(password)
	return nil
}

// unlock is Unlock returning the master password. The caller clears it.
func (a *App) unlock(ctx context.Context) ([]byte, error) {
	token := a.Token(ctx)
	a.Vault.SetAccessToken(token)

	has, err := a.Vault.HasVault(ctx)
	if err != nil {
		return nil, err
	}
	if !has && token == "" {
		return nil, vault.ErrNoVault
	}

	vaultID, _ := a.VaultID(ctx)
	password, source, err := GetPasswordWithRetry("Enter master password: ", vaultID, func(pw []byte) error {
		stop := startSpinner("Unlocking vault...")
		defer stop()
		return a.Vault.Unlock(ctx, string(pw))
	})
	if err != nil {
		return nil, err
	}

	if source == SourcePrompt && vaultID != "" {
		OfferToSavePassword(a.in, a.errOut, vaultID, password)
	}
	return password, nil
}

// withVault opens the app, unlocks the vault and runs fn
func withVault(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Unlock(ctx); err != nil {
		return err
	}
	return fn(ctx, app)
}

// GetPassword retrieves password from environment or prompts user.
// The caller is responsible for calling crypto.ClearBytes on the returned password.
func GetPassword(prompt string) ([]byte, error) {
	if password := terminal.PasswordFromEnv(); password != nil {
		return password, nil
	}
	return terminal.ReadPassword(prompt)
}

// GetPasswordForInit reads a new master password from the environment or
// prompts twice
func GetPasswordForInit(prompt string) ([]byte, error) {
	if password := terminal.PasswordFromEnv(); password != nil {
		return password, nil
	}
	return terminal.ReadPasswordConfirm(prompt)
}

// GetPasswordWithRetry tries the environment, then the keyring, then a
// prompt, checking each candidate with verify. A keyring password that
// verify rejects as wrong is removed and the user is prompted instead.
func GetPasswordWithRetry(prompt, vaultID string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := terminal.PasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			crypto.ClearBytes(password)
			return nil, SourceEnv, err
		}
		return password, SourceEnv, nil
	}

	if vaultID != "" {
		if stored, err := keyring.GetPassword(vaultID); err == nil {
			password := []byte(stored)
			err := verify(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(err, vault.ErrWrongPassword) {
				return nil, SourceKeyring, err
			}
			fmt.Fprintln(os.Stderr, "Password in keyring is outdated, removing it")
			_ = keyring.DeletePassword(vaultID)
		}
	}

	password, err := terminal.ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	if err := verify(password); err != nil {
		crypto.ClearBytes(password)
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// OfferToSavePassword asks whether to cache the master password in the OS
// keyring. It does nothing when stdin is not a terminal.
func OfferToSavePassword(in io.Reader, out io.Writer, vaultID string, password []byte) {
	if !terminal.IsInteractive() || keyring.HasPassword(vaultID) {
		return
	}
	ok, err := terminal.Confirm(in, out, "Save master password to the OS keyring?")
	if err != nil || !ok {
		return
	}
	if err := keyring.SavePassword(vaultID, string(password)); err != nil {
		printWarn(out, "failed to save to keyring: %s", err)
		return
	}
	printSuccess(out, "Password saved to keyring")
}

// HandleError prints err in a friendly form and exits with status 1
func HandleError(err error) {
	reportError(os.Stderr, err)
	os.Exit(1)
}

func reportError(w io.Writer, err error) {
	switch {
	case errors.Is(err, vault.ErrNoVault):
		printError(w, "no vault found")
		fmt.Fprintln(w, "Run 'cubvault init' to create one, or 'cubvault login' to fetch it from the server")
	case errors.Is(err, ErrAlreadyExists):
		printError(w, "a vault already exists in this data directory")
		fmt.Fprintln(w, "Use 'cubvault status' to see it")
	case errors.Is(err, vault.ErrWrongPassword):
		printError(w, "wrong password")
	case errors.Is(err, vault.ErrLocked):
		printError(w, "Vault is locked - unlock it first")
	case errors.Is(err, vault.ErrLimitReached):
		printError(w, "Password limit reached. Maximum %d passwords allowed.", vault.MaxEntries)
		fmt.Fprintln(w, "Delete entries you no longer need with 'cubvault rm'")
	case errors.Is(err, terminal.ErrPasswordMismatch):
		printError(w, "passwords do not match")
	case errors.Is(err, vault.ErrSyncUnavailable), errors.Is(err, ErrNotLoggedIn):
		printError(w, "not logged in to a sync server")
		fmt.Fprintln(w, "Run 'cubvault login' first")
	case errors.Is(err, remote.ErrUnauthorized):
		printError(w, "the sync server rejected your session")
		fmt.Fprintln(w, "Run 'cubvault login' again")
	case errors.Is(err, remote.ErrUnavailable):
		printError(w, "%s", err)
		fmt.Fprintln(w, "Check the server address with --api or API_BASE_URL")
	default:
		printError(w, "%s", err)
	}
}
