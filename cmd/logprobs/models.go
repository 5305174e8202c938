package main

import (
	"log"
	"os"

	"github.com/ncecere/logprobs/config"
	"github.com/ncecere/logprobs/middleware"
	"github.com/ncecere/logprobs/openai"
	"github.com/ncecere/logprobs/registry"
)

// buildRegistry registers one LogprobModel per configured model name,
// all sharing a single client.
func buildRegistry(cfg *config.Config, logCalls bool) (*registry.InMemoryRegistry, error) {
	client, err := openai.NewClient(cfg.ClientOptions())
	if err != nil {
		return nil, err
	}

	var mws []middleware.LogprobModelMiddleware
	if logCalls {
		mws = append(mws, middleware.LoggingLogprobModel(middleware.LoggingOptions{
			Logger:      log.New(os.Stderr, "", log.LstdFlags),
			LogRequest:  true,
			LogResponse: true,
			LogErrors:   true,
			LogDuration: true,
		}))
	}

	reg := registry.NewInMemoryRegistry()
	for name, id := range cfg.Models {
		reg.RegisterLogprobModel(name, middleware.WrapLogprobModel(client.LogprobModel(id), mws...))
	}
	return reg, nil
}
