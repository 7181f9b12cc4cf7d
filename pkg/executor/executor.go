// Package executor contains the faucet executor, taking a message through
// validation, address extraction, rate limiting and disbursement
package executor // import "github.com/joincivil/civil-social-faucet/pkg/executor"

import (
	"context"
	"math/big"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/model"
	"github.com/joincivil/civil-social-faucet/pkg/validation"
)

const (
	// DefaultRetries is the number of retries after the first attempt
	DefaultRetries = 3

	// DefaultBackoffBase is multiplied by 2^attempt between attempts
	DefaultBackoffBase = time.Second

	// DefaultReceiptTimeout is the bounded wait for a confirmation
	DefaultReceiptTimeout = 20 * time.Second
)

// RateLimiter is the cooldown interface used by the executor
type RateLimiter interface {
	IsRateLimited(userID string, address string) (bool, error)
	Add(userID string, address string) error
	Remove(userID string, address string) error
}

// MetricsRecorder receives executor outcomes
type MetricsRecorder interface {
	RecordMessage(source string, status string)
	RecordDisbursement(status string)
	RecordTransactionAttempt(builder string, success bool)
	RecordCooldownRollback()
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// NewFaucetExecutorParams are the params to init a FaucetExecutor
type NewFaucetExecutorParams struct {
	Ledger      model.LedgerClient
	Signer      model.TransactionSigner
	RateLimiter RateLimiter
	Builders    []model.TransactionBuilder
	Validators  []model.Validator
	Metrics     MetricsRecorder

	// GasPrice is injected into every transaction, nil asks the ledger
	GasPrice *big.Int

	// Retries after the first attempt, negative uses DefaultRetries
	Retries int

	BackoffBase    time.Duration
	ReceiptTimeout time.Duration
	Sleep          SleepFunc
}

// NewFaucetExecutor is a convenience function to init a FaucetExecutor
func NewFaucetExecutor(params *NewFaucetExecutorParams) *FaucetExecutor {
	e := &FaucetExecutor{
		ledger:         params.Ledger,
		signer:         params.Signer,
		rateLimiter:    params.RateLimiter,
		builders:       params.Builders,
		validators:     params.Validators,
		metrics:        params.Metrics,
		gasPrice:       params.GasPrice,
		retries:        params.Retries,
		backoffBase:    params.BackoffBase,
		receiptTimeout: params.ReceiptTimeout,
		sleep:          params.Sleep,
	}
	if e.metrics == nil {
		e.metrics = noopMetrics{}
	}
	if e.retries < 0 {
		e.retries = DefaultRetries
	}
	if e.backoffBase <= 0 {
		e.backoffBase = DefaultBackoffBase
	}
	if e.receiptTimeout <= 0 {
		e.receiptTimeout = DefaultReceiptTimeout
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}
	return e
}

// FaucetExecutor processes messages from every listener. It is safe for
// concurrent use, the only shared state is behind the rate limiter.
type FaucetExecutor struct {
	ledger         model.LedgerClient
	signer         model.TransactionSigner
	rateLimiter    RateLimiter
	builders       []model.TransactionBuilder
	validators     []model.Validator
	metrics        MetricsRecorder
	gasPrice       *big.Int
	retries        int
	backoffBase    time.Duration
	receiptTimeout time.Duration
	sleep          SleepFunc
}

// ProcessMessage validates the message, extracts the recipient, checks the
// cooldown and disburses
func (e *FaucetExecutor) ProcessMessage(ctx context.Context, message *model.Message) model.Status {
	status := e.processMessage(ctx, message)
	e.metrics.RecordMessage(string(message.Source()), status.String())
	return status
}

func (e *FaucetExecutor) processMessage(ctx context.Context, message *model.Message) model.Status {
	err := validation.RunValidators(e.validators, message)
	if err != nil {
		e.logIssue(message, "invalid: "+err.Error())
		return model.StatusInvalid
	}

	address, err := ExtractAddress(message.Text())
	if err != nil {
		e.logIssue(message, err.Error())
		return model.StatusInvalid
	}

	limited, err := e.rateLimiter.IsRateLimited(message.UserID(), address.Hex())
	if err != nil {
		log.Errorf("Error checking rate limit for (%v, %v): err: %v", message.UserID(), address.Hex(), err)
		return model.StatusError
	}
	if limited {
		log.Warningf("(%v, %v) was rate limited, skipping", message.UserID(), address.Hex())
		return model.StatusRateLimited
	}

	return e.SendTransactions(ctx, address, message.UserID())
}

// SendTransactions starts the cooldown, then runs every builder in order. The
// first failing builder stops the sequence and the cooldown is removed. Builders
// that already succeeded are not compensated.
func (e *FaucetExecutor) SendTransactions(ctx context.Context, address common.Address,
	userID string) model.Status {
	disbursementID := uuid.New().String()
	// A started disbursement runs to completion. Only the receipt timeout and
	// the retry count bound it, not the caller.
	ctx = context.WithoutCancel(ctx)

	// The cooldown starts before any transaction so a concurrent message for the
	// same identity is rejected while this one is in flight.
	err := e.rateLimiter.Add(userID, address.Hex())
	if err != nil {
		log.Errorf("Error starting cooldown for (%v, %v): err: %v", userID, address.Hex(), err)
		e.metrics.RecordDisbursement(model.StatusError.String())
		return model.StatusError
	}

	for _, builder := range e.builders {
		status := e.executeTransaction(ctx, builder, address)
		if status == model.StatusSuccess {
			continue
		}
		log.Errorf("Disbursement %v to %v failed at %v with %v, removing cooldown",
			disbursementID, address.Hex(), builder.Name(), status)
		err = e.rateLimiter.Remove(userID, address.Hex())
		if err != nil {
			log.Errorf("Error removing cooldown for (%v, %v): err: %v", userID, address.Hex(), err)
		} else {
			e.metrics.RecordCooldownRollback()
		}
		e.metrics.RecordDisbursement(status.String())
		return status
	}

	log.Infof("Disbursement %v to %v succeeded", disbursementID, address.Hex())
	e.metrics.RecordDisbursement(model.StatusSuccess.String())
	return model.StatusSuccess
}

// executeTransaction makes up to retries+1 attempts, sleeping 2^attempt *
// backoffBase in between. Each attempt builds a fresh transaction with a fresh
// nonce.
func (e *FaucetExecutor) executeTransaction(ctx context.Context, builder model.TransactionBuilder,
	address common.Address) model.Status {
	lastStatus := model.StatusError
	for attempt := 0; attempt <= e.retries; attempt++ {
		status, err := e.attemptTransaction(ctx, builder, address)
		e.metrics.RecordTransactionAttempt(builder.Name(), err == nil && status == model.StatusSuccess)
		if err == nil && status == model.StatusSuccess {
			return model.StatusSuccess
		}
		if err != nil {
			log.Errorf("Attempt %v of %v to %v failed: err: %v", attempt+1, builder.Name(),
				address.Hex(), err)
		} else {
			log.Errorf("Attempt %v of %v to %v returned %v", attempt+1, builder.Name(),
				address.Hex(), status)
			lastStatus = status
		}

		if attempt == e.retries {
			break
		}
		backoff := e.backoffBase * time.Duration(1<<uint(attempt))
		err = e.sleep(ctx, backoff)
		if err != nil {
			log.Errorf("Stopped retrying %v to %v: err: %v", builder.Name(), address.Hex(), err)
			break
		}
	}
	return lastStatus
}

func (e *FaucetExecutor) attemptTransaction(ctx context.Context, builder model.TransactionBuilder,
	address common.Address) (model.Status, error) {
	raw, err := builder.BuildTransaction(address)
	if err != nil {
		return model.StatusError, errors.Wrap(err, "Error building transaction")
	}

	tx, err := e.signTransaction(ctx, raw)
	if err != nil {
		return model.StatusError, err
	}

	log.Infof("Sending %v to %v: %v", builder.Name(), address.Hex(), tx.Hash().Hex())
	err = e.ledger.SendTransaction(ctx, tx)
	if err != nil {
		return model.StatusError, err
	}

	receipt, err := e.ledger.WaitForReceipt(ctx, tx, e.receiptTimeout)
	if err != nil {
		return model.StatusError, err
	}
	log.Infof("Transaction %v to %v confirmed in block %v", receipt.TxHash.Hex(),
		address.Hex(), receipt.BlockNumber)
	return model.StatusSuccess, nil
}

// signTransaction injects the nonce, gas price and chain id into raw and signs it
func (e *FaucetExecutor) signTransaction(ctx context.Context, raw *model.RawTransaction) (*types.Transaction, error) {
	nonce, err := e.ledger.PendingNonceAt(ctx, e.signer.Address())
	if err != nil {
		return nil, err
	}
	gasPrice := e.gasPrice
	if gasPrice == nil || gasPrice.Sign() == 0 {
		gasPrice, err = e.ledger.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
	}
	chainID, err := e.ledger.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	to := raw.To
	value := raw.Value
	if value == nil {
		value = big.NewInt(0)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(gasPrice),
		Gas:      raw.Gas,
		To:       &to,
		Value:    value,
		Data:     raw.Data,
	})
	if log.V(2) {
		log.Infof("Raw transaction: %v", spew.Sdump(raw))
	}
	return e.signer.SignTx(tx, chainID)
}

func (e *FaucetExecutor) logIssue(message *model.Message, reason string) {
	log.Warningf("could not process message %v from %v (%v): %v", message.ID(),
		message.Source(), message.Text(), reason)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordMessage(source string, status string)            {}
func (noopMetrics) RecordDisbursement(status string)                      {}
func (noopMetrics) RecordTransactionAttempt(builder string, success bool) {}
func (noopMetrics) RecordCooldownRollback()                               {}
