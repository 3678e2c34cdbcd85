package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-deliverect/adapters/gocommand"
	"github.com/goliatone/go-deliverect/core"
	deliverectquery "github.com/goliatone/go-deliverect/query"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"
)

func newOperationsCommand(root *rootOptions) *cobra.Command {
	var (
		resource        string
		includeInternal bool
		asJSON          bool
	)
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the Deliverect operation catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := root.newService(glog.Nop())
			if err != nil {
				return err
			}
			release, err := bus(svc)
			if err != nil {
				return err
			}
			defer release()

			descriptors, err := gocommand.Query[deliverectquery.ListOperationsMessage, []core.OperationDescriptor](
				cmd.Context(),
				deliverectquery.ListOperationsMessage{Resource: resource, IncludeInternal: includeInternal},
			)
			if err != nil {
				return err
			}
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(descriptors)
			}
			table := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(table, "RESOURCE\tOPERATION\tMETHOD\tPATH\tNAME")
			for _, descriptor := range descriptors {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
					descriptor.Resource,
					descriptor.Name,
					descriptor.Method,
					descriptor.Path,
					descriptor.DisplayName,
				)
			}
			return table.Flush()
		},
	}
	cmd.Flags().StringVar(&resource, "resource", "", "only list operations of this resource")
	cmd.Flags().BoolVar(&includeInternal, "internal", false, "include internal operations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors as JSON")
	return cmd
}
