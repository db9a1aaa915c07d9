package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cachePurgeOrg string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached results for an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		removed, err := env.Store.PurgeCache(cmd.Context(), cachePurgeOrg)
		if err != nil {
			return err
		}

		zap.L().Info("cache purged",
			zap.String("org", cachePurgeOrg),
			zap.Int("removed", removed),
		)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().StringVar(&cachePurgeOrg, "org", "", "organization id (required)")
	_ = cachePurgeCmd.MarkFlagRequired("org")
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
