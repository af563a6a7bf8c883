package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/englishhub/englishhub/internal/auth"
	"github.com/englishhub/englishhub/internal/bootstrap"
	"github.com/englishhub/englishhub/internal/config"
	"github.com/englishhub/englishhub/internal/store"
	"github.com/englishhub/englishhub/internal/store/localstore"
	"github.com/englishhub/englishhub/internal/store/sqlstore"
)

// newRegistry creates a backend registry with every built-in backend.
func newRegistry() *store.Registry {
	r := store.NewRegistry()
	sqlstore.Register(r)
	localstore.Register(r)
	return r
}

// openBackend connects to the configured backend. The caller closes it.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Backend, error) {
	logger.DebugContext(ctx, "opening storage",
		"backend", cfg.Storage.Backend,
		"dsn", config.RedactDSN(cfg.Storage.DSN),
		"data_dir", cfg.Storage.DataDir,
	)
	backend, err := newRegistry().Open(ctx, cfg.Storage.Backend, cfg.Storage.Options())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return backend, nil
}

// newHasher returns the bcrypt hasher at the configured cost.
func newHasher(cfg *config.Config) (*auth.BcryptHasher, error) {
	return auth.NewBcryptHasher(cfg.Auth.BcryptCost)
}

// initialize provisions the schema and seeds the admin.
func initialize(ctx context.Context, cfg *config.Config, backend store.Backend, hasher bootstrap.Hasher, logger *slog.Logger) (*bootstrap.Result, error) {
	return bootstrap.New(backend, hasher, bootstrap.Options{
		Username:     cfg.Auth.AdminUsername,
		SeedPassword: cfg.Auth.SeedPassword,
		RequireSeed:  cfg.Auth.RequireSeedPassword,
	}, logger).Initialize(ctx)
}

// openInitialized opens the backend and runs the initializer on it.
func openInitialized(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Backend, *auth.BcryptHasher, error) {
	hasher, err := newHasher(cfg)
	if err != nil {
		return nil, nil, err
	}
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	res, err := initialize(ctx, cfg, backend, hasher, logger)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	if res.UsedDevSecret {
		logger.WarnContext(ctx, "admin seeded with the development password; run 'englishhub admin passwd' to change it")
	}
	return backend, hasher, nil
}

func versionString(version, commit string) string {
	if commit == "" || commit == "none" {
		return version
	}
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	return version + "+" + short
}

// passwordReader reads secrets from the terminal without echo, or line by
// line when input is piped.
type passwordReader struct {
	out  io.Writer
	fd   int
	tty  bool
	line *bufio.Reader
}

func newPasswordReader(cmd *cobra.Command) *passwordReader {
	pr := &passwordReader{out: cmd.ErrOrStderr()}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pr.fd = int(f.Fd())
		pr.tty = true
		return pr
	}
	pr.line = bufio.NewReader(in)
	return pr
}

// Read prompts with label and returns the entered secret.
func (p *passwordReader) Read(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.tty {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}

	s, err := p.line.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}
