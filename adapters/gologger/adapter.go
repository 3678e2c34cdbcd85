package gologger

import (
	"strings"

	"github.com/goliatone/go-deliverect/core"
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// Resolve uses precedence provider > logger > nop. An empty name resolves
// the default "deliverect" logger.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	if strings.TrimSpace(name) == "" {
		name = core.DefaultServiceName
	}
	return glog.Resolve(name, provider, logger)
}

// Named returns the provider's logger for a Deliverect component such as
// "webhooks" or "jobs", prefixed with the service name.
func Named(provider glog.LoggerProvider, component string) glog.Logger {
	if provider == nil {
		return glog.Nop()
	}
	name := core.DefaultServiceName
	if component = strings.TrimSpace(component); component != "" {
		name += "." + component
	}
	return glog.Ensure(provider.GetLogger(name))
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the glog pair and returns the go-job bridges used
// by the operation job runner's worker.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
