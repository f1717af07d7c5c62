package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/graph-api/internal/app"
	"github.com/yungbote/graph-api/internal/data/db"
	repos "github.com/yungbote/graph-api/internal/data/repos/auth"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/services"
)

const usage = `tokenctl manages API access tokens.

Usage:
  tokenctl init
  tokenctl create -name NAME [-description D] [-scopes s1,s2] [-expires-days N]
                  [-username U] [-full-name F] [-email E]
  tokenctl list
  tokenctl activate -token-id ID
  tokenctl deactivate -token-id ID
  tokenctl delete -token-id ID
`

func main() {
	_ = godotenv.Load()

	log, err := logger.New("production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)
	pg, err := db.NewPostgresService(cfg.Postgres.DSN(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect postgres: %v\n", err)
		os.Exit(1)
	}
	tokenRepo := repos.NewAccessTokenRepo(pg.DB(), log)
	auth := services.NewAuthService(pg.DB(), log, tokenRepo)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], auth, pg.AutoMigrateAll, os.Stdout, os.Stderr))
}

// run dispatches one subcommand and returns the process exit code.
func run(ctx context.Context, args []string, auth services.AuthService, migrate func() error, out, errOut io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(errOut, usage)
		return 2
	}

	switch args[0] {
	case "init":
		if err := migrate(); err != nil {
			fmt.Fprintf(errOut, "migrate: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, "access token schema is up to date")

	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		fs.SetOutput(errOut)
		name := fs.String("name", "", "token display name (required)")
		description := fs.String("description", "", "what this token is for")
		scopes := fs.String("scopes", "", "comma-separated scopes (default read:medical_data)")
		expiresDays := fs.Int("expires-days", 0, "days until expiry (0 = never)")
		username := fs.String("username", "", "associated username")
		fullName := fs.String("full-name", "", "associated full name")
		email := fs.String("email", "", "associated email")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		created, err := auth.GenerateToken(ctx, services.GenerateTokenInput{
			Name:          *name,
			Description:   *description,
			Scopes:        splitScopes(*scopes),
			ExpiresInDays: *expiresDays,
			Username:      *username,
			FullName:      *fullName,
			Email:         *email,
			CreatedBy:     "tokenctl",
		})
		if err != nil {
			fmt.Fprintf(errOut, "create: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "token_id:  %s\n", created.TokenID)
		fmt.Fprintf(out, "scopes:    %s\n", strings.Join(created.ScopeList(), ","))
		if created.ExpiresAt != nil {
			fmt.Fprintf(out, "expires:   %s\n", created.ExpiresAt.Format(time.RFC3339))
		}
		// The secret itself is printed only here; list shows a preview.
		fmt.Fprintf(out, "token:     %s\n", created.Token)

	case "list":
		tokens, err := auth.ListTokens(ctx)
		if err != nil {
			fmt.Fprintf(errOut, "list: %v\n", err)
			return 1
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN_ID\tNAME\tSCOPES\tACTIVE\tUSES\tPREVIEW")
		for _, t := range tokens {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n",
				t.TokenID, t.Name, strings.Join(t.ScopeList(), ","), t.IsActive, t.UseCount, t.TokenPreview())
		}
		w.Flush()

	case "activate", "deactivate":
		fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
		fs.SetOutput(errOut)
		tokenID := fs.String("token-id", "", "public token id (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		found, err := auth.SetTokenActive(ctx, *tokenID, args[0] == "activate")
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", args[0], err)
			return 1
		}
		if !found {
			fmt.Fprintf(errOut, "no token with id %s\n", *tokenID)
			return 1
		}
		fmt.Fprintf(out, "%sd %s\n", args[0], *tokenID)

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ContinueOnError)
		fs.SetOutput(errOut)
		tokenID := fs.String("token-id", "", "public token id (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		found, err := auth.DeleteToken(ctx, *tokenID)
		if err != nil {
			fmt.Fprintf(errOut, "delete: %v\n", err)
			return 1
		}
		if !found {
			fmt.Fprintf(errOut, "no token with id %s\n", *tokenID)
			return 1
		}
		fmt.Fprintf(out, "deleted %s\n", *tokenID)

	default:
		fmt.Fprint(errOut, usage)
		return 2
	}
	return 0
}

func splitScopes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
