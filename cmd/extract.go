package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimguru/extract-cli/internal/model"
)

var (
	extractOrg    string
	extractMethod string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract policy data from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		path := args[0]
		doc, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "read %s", path)
		}

		fileName := filepath.Base(path)
		if _, err := env.Gate.Check(doc, fileName); err != nil {
			return err
		}

		method := model.Method(extractMethod)
		if !method.Valid() {
			return eris.Errorf("unknown method %q (auto, client, textract, vision, hybrid)", extractMethod)
		}

		result, err := env.Orchestrator.Process(cmd.Context(), &model.ExtractionRequest{
			Document:       doc,
			FileName:       fileName,
			OrganizationID: extractOrg,
			Method:         method,
		})
		if err != nil {
			return err
		}

		zap.L().Info("extraction complete",
			zap.String("file", fileName),
			zap.String("method", result.ProcessingMethod),
			zap.Float64("confidence", result.Confidence),
			zap.Int("fields", result.PolicyData.FieldCount()),
			zap.Int("cost_cents", result.CostCents),
			zap.Bool("cache_hit", result.CacheHit),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractOrg, "org", "", "organization id (required)")
	extractCmd.Flags().StringVar(&extractMethod, "method", "auto", "extraction method: auto, client, textract, vision, hybrid")
	_ = extractCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(extractCmd)
}
