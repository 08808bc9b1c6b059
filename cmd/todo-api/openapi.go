package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cirocosta/todo-api/internal/api"
	"github.com/cirocosta/todo-api/internal/health"
	"github.com/cirocosta/todo-api/internal/repository"
	"github.com/cirocosta/todo-api/internal/service"
)

func newOpenAPICommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "openapi-gen",
		Short: "Generate OpenAPI documentation",
		Long: `Write the OpenAPI 3 document of the API to a file.

The document is JSON unless the file name ends in .yaml or .yml.
Use "-o -" to print JSON to standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := generateOpenAPI(output)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write openapi spec to file '%s': %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OpenAPI spec generated at %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "openapi.json", "Output file path")

	return cmd
}

// generateOpenAPI renders the document for a router backed by an in-memory
// store, encoded according to the extension of output
func generateOpenAPI(output string) ([]byte, error) {
	repo := repository.NewInMemoryTodoRepository()
	r := api.NewRouter(service.NewTodoService(repo), health.NewChecker(repo, 0), api.Options{
		Name:    "Todo List API",
		Version: version,
	})

	data, err := r.OpenAPIJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}

	switch strings.ToLower(filepath.Ext(output)) {
	case ".yaml", ".yml":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode openapi spec: %w", err)
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal openapi spec as yaml: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}
