package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-command"
	deliverect "github.com/goliatone/go-deliverect"
	"github.com/goliatone/go-deliverect/adapters/gocommand"
	"github.com/goliatone/go-deliverect/core"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	baseURL    string
	verbose    bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "deliverect",
		Short:         "Deliverect API operations and webhook receiver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "override the REST base URL")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(opts),
		newExecCommand(opts),
		newOperationsCommand(opts),
	)
	return root
}

// newService reads credentials from the DELIVERECT_* environment.
func (o *rootOptions) newService(logger core.Logger, extra ...deliverect.Option) (*deliverect.Service, error) {
	options := []deliverect.Option{deliverect.WithLogger(logger)}
	if path := strings.TrimSpace(o.configPath); path != "" {
		raw, err := loadConfigFile(path)
		if err != nil {
			return nil, err
		}
		options = append(options, deliverect.WithConfigProvider(core.NewCfgxConfigProvider(core.StaticConfig(raw))))
	}
	options = append(options, extra...)
	return deliverect.NewService(deliverect.Config{BaseURL: strings.TrimSpace(o.baseURL)}, options...)
}

// bus registers the service facade on a fresh command registry. The returned
// func releases the dispatcher subscriptions.
func bus(svc *deliverect.Service) (func(), error) {
	facade, err := deliverect.NewFacade(svc)
	if err != nil {
		return nil, err
	}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	subscriptions, err := gocommand.RegisterFacade(adapter, facade)
	if err != nil {
		return nil, err
	}
	if err := adapter.Initialize(); err != nil {
		subscriptions.Unsubscribe()
		return nil, fmt.Errorf("deliverect: initialize command registry: %w", err)
	}
	return subscriptions.Unsubscribe, nil
}
