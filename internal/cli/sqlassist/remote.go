package sqlassist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type remoteClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

func newRemoteCommand(opts Options) *cobra.Command {
	rc := &remoteClient{client: opts.HTTPClient}
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Call a running sqlassist API server",
		PersistentPreRun: func(*cobra.Command, []string) {
			if rc.client == nil {
				rc.client = &http.Client{Timeout: rc.timeout}
			}
		},
	}
	cmd.PersistentFlags().StringVar(&rc.baseURL, "base-url", firstNonEmpty(opts.APIURL, "http://localhost:8080"), "sqlassist API base URL")
	cmd.PersistentFlags().StringVar(&rc.apiKey, "api-key", opts.APIKey, "API key for authenticated requests")
	cmd.PersistentFlags().DurationVar(&rc.timeout, "timeout", 90*time.Second, "HTTP timeout")

	cmd.AddCommand(
		rc.simple("health", "GET /v1/health", http.MethodGet, "/v1/health"),
		rc.simple("ready", "GET /v1/ready", http.MethodGet, "/v1/ready"),
		rc.simple("schema", "GET /v1/schema", http.MethodGet, "/v1/schema"),
		rc.translateCommand(),
		rc.queryCommand(),
		rc.historyCommand(),
	)
	return cmd
}

func (rc *remoteClient) simple(use, short, method, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rc.call(cmd.Context(), cmd.OutOrStdout(), method, path, nil)
		},
	}
}

func (rc *remoteClient) translateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <question>",
		Short: "POST /v1/translate",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := questionArg(args)
			if err != nil {
				return err
			}
			return rc.call(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/v1/translate", map[string]any{"question": question})
		},
	}
}

func (rc *remoteClient) queryCommand() *cobra.Command {
	var (
		execute  bool
		exportAs string
	)
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "POST /v1/query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := questionArg(args)
			if err != nil {
				return err
			}
			body := map[string]any{"question": question, "execute": execute}
			if exportAs != "" {
				body["export"] = exportAs
			}
			return rc.call(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/v1/query", body)
		},
	}
	cmd.Flags().BoolVar(&execute, "execute", false, "run the generated SQL")
	cmd.Flags().StringVar(&exportAs, "export", "", "export format for executed results (csv|parquet)")
	return cmd
}

func (rc *remoteClient) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "GET /v1/history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/v1/history"
			if limit > 0 {
				path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
			}
			return rc.call(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, path, nil)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of entries to return")
	return cmd
}

func (rc *remoteClient) call(ctx context.Context, out io.Writer, method, path string, payload any) error {
	endpoint := strings.TrimRight(rc.baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, rc.client, method, endpoint, rc.apiKey, payload)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if code >= 400 {
		return fmt.Errorf("http %d: %s", code, strings.TrimSpace(string(responseBody)))
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		pterm.Fprintln(out, pretty)
		return nil
	}
	if len(responseBody) > 0 {
		pterm.Fprintln(out, string(responseBody))
	}
	return nil
}

func doRequest(ctx context.Context, client *http.Client, method, endpoint, apiKey string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}
