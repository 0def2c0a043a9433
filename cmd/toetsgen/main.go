package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/toetsgen/internal/access"
	"github.com/pavelanni/toetsgen/internal/handler"
	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/llm"
	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/present"
	"github.com/pavelanni/toetsgen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "toetsgen",
		Short: "Exam generator for secondary-school teachers",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), requestsCmd())

	// Bare `toetsgen` starts the server.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "toetsgen.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("llm-url", "https://generativelanguage.googleapis.com/v1beta/openai/", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the LLM provider (or set TOETSGEN_LLM_KEY)")
	f.String("llm-model", "gemini-2.5-flash", "LLM model name")
	f.StringP("lang", "l", appI18n.DefaultLang, "UI language (nl, en)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /toetsen)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-email", "admin@localhost", "E-mail of the admin seeded into an empty database")
	f.String("admin-password", "", "Initial admin password (or set TOETSGEN_ADMIN_PASSWORD)")
	f.Duration("approval-timeout", access.DefaultTimeout, "Ceiling for the access-approval lookup")
	f.Duration("generation-timeout", handler.DefaultGenerationTimeout, "Ceiling for one test generation")
	addCommonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a stored test as text or JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("test-id", "", "Identifier of the stored test (required)")
	f.String("format", "text", "Output format (text, json)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addCommonFlags(cmd)

	_ = cmd.MarkFlagRequired("test-id")
	return cmd
}

func requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Review access requests",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List access requests",
		Args:  cobra.NoArgs,
		RunE:  runRequestsList,
	}
	list.Flags().String("status", "", "Only show requests with this status (pending, approved)")
	addCommonFlags(list)

	approve := &cobra.Command{
		Use:   "approve <email>",
		Short: "Grant access to an e-mail address",
		Args:  cobra.ExactArgs(1),
		RunE:  setStatusFunc(model.RequestApproved),
	}
	addCommonFlags(approve)

	revoke := &cobra.Command{
		Use:   "revoke <email>",
		Short: "Put an e-mail address back to pending",
		Args:  cobra.ExactArgs(1),
		RunE:  setStatusFunc(model.RequestPending),
	}
	addCommonFlags(revoke)

	cmd.AddCommand(list, approve, revoke)
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var h slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// viperForCmd binds a command's flags, the environment and an optional
// config file to a fresh viper instance. A .env file in the working
// directory is loaded into the environment first.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("error reading .env file", "error", err)
	}

	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TOETSGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("toetsgen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/toetsgen")
	v.AddConfigPath("/etc/toetsgen")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// setup configures logging and opens the database for a command.
func setup(cmd *cobra.Command) (*viper.Viper, *store.Store, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return v, db, nil
}

func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := seedAdmin(ctx, db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := db.CleanupExpiredSessions(ctx); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient, err := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if llmClient.HasCredential() {
		if err := llmClient.Ping(ctx); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	} else {
		slog.Warn("no LLM API key configured; generation will fail until one is set")
	}

	basePath := normalizeBasePath(v.GetString("base-path"))
	cfg := model.ServerConfig{
		BasePath:          basePath,
		SecureCookies:     v.GetBool("secure-cookies"),
		ApprovalTimeout:   v.GetDuration("approval-timeout"),
		GenerationTimeout: v.GetDuration("generation-timeout"),
	}

	gates := access.NewRegistry(db, cfg.ApprovalTimeout)
	h, err := handler.New(db, llmClient, gates, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	go sweepSessions(ctx, h, sessionSweepInterval)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"base_path", basePath,
		"approval_timeout", cfg.ApprovalTimeout,
		"generation_timeout", cfg.GenerationTimeout,
	)
	return http.ListenAndServe(addr, r)
}

const sessionSweepInterval = time.Hour

// sweepSessions periodically removes expired sessions and their approval
// gates until ctx is done.
func sweepSessions(ctx context.Context, h *handler.Handler, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.SweepSessions(ctx); err != nil {
				slog.Warn("failed to sweep sessions", "error", err)
			}
		}
	}
}

// seedAdmin creates the first admin account, with an approved access
// request, when the database has no users.
func seedAdmin(ctx context.Context, db *store.Store, email, password string) error {
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return errors.New("admin password is required: set --admin-password flag or TOETSGEN_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := db.CreateUser(ctx, model.User{
		Email:        email,
		SchoolName:   "Beheer",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
	}); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	if err := db.UpsertAccessRequest(ctx, model.AccessRequest{
		Email:       email,
		Description: "Beheerder",
		Status:      model.RequestApproved,
	}); err != nil {
		return fmt.Errorf("approve admin: %w", err)
	}

	slog.Info("seeded default admin user", "email", email)
	return nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	v, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := db.GetTest(context.Background(), v.GetString("test-id"))
	if err != nil {
		return fmt.Errorf("load test: %w", err)
	}

	var data []byte
	switch format := strings.ToLower(v.GetString("format")); format {
	case "text":
		doc := present.NewDocument(&rec.Test)
		st := present.DefaultState()
		st.Layout = present.LayoutFull
		data = []byte(present.ExportText(doc, st))
	case "json":
		data, err = json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	w, closeOut, err := openOutput(v.GetString("output"))
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = closeOut()
		return fmt.Errorf("write output: %w", err)
	}
	return closeOut()
}

func runRequestsList(cmd *cobra.Command, _ []string) error {
	v, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	status := model.RequestStatus(v.GetString("status"))
	if status != "" && status != model.RequestPending && status != model.RequestApproved {
		return fmt.Errorf("unknown status %q", status)
	}
	reqs, err := db.ListAccessRequests(context.Background(), status)
	if err != nil {
		return fmt.Errorf("list access requests: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tSTATUS\tCREATED\tDESCRIPTION")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Email, r.Status, r.CreatedAt.Format("2006-01-02 15:04"), r.Description)
	}
	return tw.Flush()
}

func setStatusFunc(status model.RequestStatus) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		_, db, err := setup(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		email := strings.TrimSpace(args[0])
		if err := db.SetAccessStatus(context.Background(), email, status); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no access request for %s", email)
			}
			return fmt.Errorf("update access request: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", email, status)
		return nil
	}
}
