package main

import (
	"fmt"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/apply"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
)

func newApplyCmd() *cobra.Command {
	var (
		file        string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile every record set listed in a records file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := ctrl.Log.WithName("apply")

			records, err := config.LoadRecords(file)
			if err != nil {
				return err
			}
			p, _, err := registeredProvider(ctrl.Log)
			if err != nil {
				return err
			}
			for i := range records {
				if records[i].TTL == 0 {
					records[i].TTL = p.DefaultTTL()
				}
			}

			runner := &apply.Runner{Provider: p, Concurrency: concurrency, Log: log}
			outcomes, err := runner.Run(cmd.Context(), records)
			if err != nil {
				return err
			}

			rows := make([]resultRow, 0, len(outcomes))
			for _, o := range outcomes {
				rows = append(rows, resultRow{record: o.Record, result: o.Result})
			}
			printResults(rows)

			if failed := apply.Failed(outcomes); len(failed) > 0 {
				return fmt.Errorf("%d of %d record sets were not applied", len(failed), len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "records.yaml", "records file")
	cmd.Flags().IntVar(&concurrency, "concurrency", apply.DefaultConcurrency, "maximum in-flight requests")
	return cmd
}
