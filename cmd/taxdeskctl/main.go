// Command taxdeskctl is a small operator client for a running taxdesk API.
//
//	taxdeskctl health
//	taxdeskctl -email admin@taxpro.ca -password demo123 clients -status under_review
//	TAXDESK_TOKEN=... taxdeskctl summary
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"

	"taxdesk/internal/apiclient"
	"taxdesk/internal/platform/config"
	"taxdesk/internal/platform/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "taxdeskctl: %s (%s)\n", apiErr.Message, apiErr.Code)
		} else {
			fmt.Fprintf(os.Stderr, "taxdeskctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("taxdeskctl", flag.ContinueOnError)
	baseURL := fs.String("api", cfg.API.BaseURL, "API base URL")
	email := fs.String("email", "", "sign in with this staff email")
	password := fs.String("password", "", "password for -email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: taxdeskctl [flags] health|me|clients|client ID|summary|audit")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := apiclient.New(*baseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(logger.NewWithWriter(os.Stderr, slog.LevelWarn)),
	)
	if err != nil {
		return err
	}
	if tok := os.Getenv("TAXDESK_TOKEN"); tok != "" {
		client.SetToken(tok)
	}
	if *email != "" {
		if err := login(ctx, client, *email, *password); err != nil {
			return err
		}
	}
	return dispatch(ctx, client, fs.Arg(0), fs.Args()[1:], out)
}

func login(ctx context.Context, client *apiclient.Client, email, password string) error {
	resp, err := client.Post(ctx, "auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	result, err := apiclient.Decode[struct {
		AccessToken string `json:"accessToken"`
	}](resp)
	if err != nil {
		return err
	}
	client.SetToken(result.AccessToken)
	return nil
}

func dispatch(ctx context.Context, client *apiclient.Client, cmd string, args []string, out io.Writer) error {
	var (
		resp *apiclient.Response
		err  error
	)
	switch cmd {
	case "health":
		if !client.HealthCheck(ctx) {
			return errors.New("API is unreachable or unhealthy")
		}
		_, err = fmt.Fprintln(out, "ok")
		return err
	case "me":
		resp, err = client.Get(ctx, "auth/me")
	case "clients":
		fs := flag.NewFlagSet("clients", flag.ContinueOnError)
		status := fs.String("status", "", "filter by workflow status")
		search := fs.String("search", "", "match name or email")
		if err := fs.Parse(args); err != nil {
			return err
		}
		q := url.Values{}
		if *status != "" {
			q.Set("status", *status)
		}
		if *search != "" {
			q.Set("search", *search)
		}
		endpoint := "clients"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}
		resp, err = client.Get(ctx, endpoint)
	case "client":
		if len(args) != 1 {
			return errors.New("usage: taxdeskctl client ID")
		}
		resp, err = client.Get(ctx, "clients/"+url.PathEscape(args[0]))
	case "summary":
		resp, err = client.Get(ctx, "clients/summary")
	case "audit":
		resp, err = client.Get(ctx, "audit-logs")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	return printJSON(out, resp.Data)
}

func printJSON(out io.Writer, data json.RawMessage) error {
	var v any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
