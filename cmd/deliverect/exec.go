package main

import (
	"encoding/json"

	"github.com/goliatone/go-deliverect/adapters/gocommand"
	deliverectcommand "github.com/goliatone/go-deliverect/command"
	"github.com/goliatone/go-deliverect/core"
	"github.com/spf13/cobra"
)

func newExecCommand(root *rootOptions) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "exec <resource> <operation>",
		Short: "Execute a catalog operation and print the records as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(pairs)
			if err != nil {
				return err
			}
			logger, flush, err := newLogger(root.verbose)
			if err != nil {
				return err
			}
			defer flush()

			svc, err := root.newService(logger)
			if err != nil {
				return err
			}
			release, err := bus(svc)
			if err != nil {
				return err
			}
			defer release()

			records, err := gocommand.DispatchWithResult[deliverectcommand.ExecuteOperationMessage, []core.Record](
				cmd.Context(),
				deliverectcommand.ExecuteOperationMessage{Request: core.OperationRequest{
					Resource:  args[0],
					Operation: args[1],
					Params:    params,
				}},
			)
			if err != nil {
				return err
			}
			if records == nil {
				records = []core.Record{}
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		},
	}
	cmd.Flags().StringArrayVarP(&pairs, "param", "p", nil, "operation parameter as key=value (repeatable)")
	return cmd
}
