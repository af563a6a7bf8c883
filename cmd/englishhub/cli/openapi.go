package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/englishhub/englishhub/internal/openapi"
)

func newOpenAPICmd(a *app) *cobra.Command {
	var (
		serverURL string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI 3.1 document for the HTTP API",
		Example: `  englishhub openapi > openapi.json
  englishhub openapi --server-url https://hub.example.com --output api.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := openapi.Document(serverURL, versionString(a.version, a.commit))
			b, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal document: %w", err)
			}
			b = append(b, '\n')

			if output == "" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(output, b, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server-url", "", "base URL to list under servers")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}
