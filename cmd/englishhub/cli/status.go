package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether an EnglishHub server is up and ready",
		Long: `Query /readyz on a running server. The address defaults to the configured
server host and port, with 0.0.0.0 mapped to the loopback address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if url == "" {
				host := cfg.Server.Host
				if host == "" || host == "0.0.0.0" || host == "::" {
					host = "127.0.0.1"
				}
				url = "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
			}

			out := cmd.OutOrStdout()
			client := &http.Client{Timeout: 3 * time.Second}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url+"/readyz", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				fmt.Fprintf(out, "Server at %s is not responding.\n", url)
				return fmt.Errorf("server unreachable: %w", err)
			}
			defer resp.Body.Close()

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&body)

			fmt.Fprintf(out, "Server at %s\n", url)
			fmt.Fprintf(out, "  Ready:   %s (%d)\n", body.Status, resp.StatusCode)
			for name, state := range body.Checks {
				fmt.Fprintf(out, "  %-8s %s\n", name+":", state)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server is not ready")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "base URL of the server (default from server.host and server.port)")

	return cmd
}
