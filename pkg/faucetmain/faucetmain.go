// Package faucetmain wires the faucet components together and runs them
package faucetmain // import "github.com/joincivil/civil-social-faucet/pkg/faucetmain"

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joincivil/civil-social-faucet/pkg/control"
	"github.com/joincivil/civil-social-faucet/pkg/executor"
	"github.com/joincivil/civil-social-faucet/pkg/faucet"
	"github.com/joincivil/civil-social-faucet/pkg/helpers"
	"github.com/joincivil/civil-social-faucet/pkg/ledger"
	"github.com/joincivil/civil-social-faucet/pkg/listener"
	"github.com/joincivil/civil-social-faucet/pkg/metrics"
	"github.com/joincivil/civil-social-faucet/pkg/model"
	"github.com/joincivil/civil-social-faucet/pkg/ratelimit"
	"github.com/joincivil/civil-social-faucet/pkg/utils"
)

const (
	listenerRetryDelay = 10 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// InitCooldownStore inits the cooldown store from the config
func InitCooldownStore(config *utils.FaucetConfig) (model.CooldownStore, error) {
	store, err := helpers.CooldownStore(config)
	if err != nil {
		log.Errorf("Error getting the cooldown store: %v", err)
		return nil, err
	}
	return store, nil
}

// Components are the initialized faucet components
type Components struct {
	Faucet      faucet.Faucet
	RateLimiter *ratelimit.RateLimiter
	Executor    *executor.FaucetExecutor
	Dispatcher  *listener.Dispatcher
	Collector   *metrics.Collector
	Registry    *prometheus.Registry
	Router      http.Handler
}

// BuildComponents inits every component of the faucet named in config around
// the given ledger and cooldown store
func BuildComponents(config *utils.FaucetConfig, ledgerClient model.LedgerClient,
	store model.CooldownStore) (*Components, error) {
	wallet, err := ledger.NewWalletFromHex(config.PrivateKey)
	if err != nil {
		return nil, err
	}

	f, err := helpers.Faucet(config)
	if err != nil {
		return nil, err
	}
	builders, err := f.CreateTransactionBuilders()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	limiter := ratelimit.NewRateLimiter(store, config.RateLimitWindow(), config.RateLimitExclusions)

	exec := executor.NewFaucetExecutor(&executor.NewFaucetExecutorParams{
		Ledger:         ledgerClient,
		Signer:         wallet,
		RateLimiter:    limiter,
		Builders:       builders,
		Validators:     f.CreateValidators(),
		Metrics:        collector,
		GasPrice:       config.GasPrice,
		Retries:        config.TxRetries,
		BackoffBase:    config.BackoffBase(),
		ReceiptTimeout: config.ReceiptTimeout(),
	})

	dispatcher, err := listener.NewDispatcher(&listener.NewDispatcherParams{
		Processor:      exec,
		Workers:        config.WorkerCount,
		QueueSize:      config.QueueSize,
		DedupCacheSize: config.DedupCacheSize,
		Metrics:        collector,
	})
	if err != nil {
		return nil, err
	}

	router := control.NewRouter(&control.RouterDeps{
		RateLimiter:        limiter,
		Disburser:          exec,
		Gatherer:           registry,
		CORSAllowedOrigins: config.ControlCorsOrigins,
	})

	log.Infof("Faucet %v sending from %v with builders %v", f.Name(), wallet.Address().Hex(),
		builderNames(builders))
	return &Components{
		Faucet:      f,
		RateLimiter: limiter,
		Executor:    exec,
		Dispatcher:  dispatcher,
		Collector:   collector,
		Registry:    registry,
		Router:      router,
	}, nil
}

// ListenerFailureRecorder counts listener errors
type ListenerFailureRecorder interface {
	RecordListenerFailure(listener string)
}

// RunListener runs l until ctx is done, restarting it after retryDelay when it
// returns an error
func RunListener(ctx context.Context, l listener.Listener, name string,
	recorder ListenerFailureRecorder, retryDelay time.Duration) {
	for {
		err := l.Listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Errorf("Error running %v listener: err: %v", name, err)
			if recorder != nil {
				recorder.RecordListenerFailure(name)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
		log.Infof("Restarting %v listener", name)
	}
}

// RunFaucet connects to the ledger, starts the control server, the dispatcher
// and the listener, and blocks until a kill signal is received
func RunFaucet(config *utils.FaucetConfig, store model.CooldownStore) error {
	ethLedger, client, err := ledger.Dial(config.EthAPIURL)
	if err != nil {
		return err
	}
	defer client.Close()

	components, err := BuildComponents(config, ethLedger, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	SetupKillNotify(cancel)

	lst, err := components.Faucet.CreateListener(ctx, components.Dispatcher)
	if err != nil {
		return errors.Wrap(err, "Error creating listener")
	}
	if closer, ok := lst.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Errorf("Error closing listener: err: %v", err)
			}
		}()
	}

	server := control.NewServer(config.ControlPort, components.Router)
	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("Error running control server: err: %v", err)
		}
	}()

	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		components.Dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		RunListener(ctx, lst, components.Faucet.Name(), components.Collector, listenerRetryDelay)
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		log.Errorf("Error shutting down control server: err: %v", err)
	}
	wg.Wait()

	log.Infof("Done running faucet: %v", runtime.NumGoroutine())
	return nil
}

// SetupKillNotify cancels the faucet context on SIGINT or SIGTERM
func SetupKillNotify(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-c
		log.Infof("Received %v, quitting", sig)
		cancel()
	}()
}

func builderNames(builders []model.TransactionBuilder) []string {
	names := make([]string, len(builders))
	for i, b := range builders {
		names[i] = b.Name()
	}
	return names
}
