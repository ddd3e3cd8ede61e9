package contracts

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Processor drives contract expiry off a persisted due-at index instead
// of in-memory timers, so due contracts survive process restarts. Each
// sweep picks up active contracts past closes_at; a contract settled
// early by an admin no longer matches the query, which makes early
// resolution a natural cancellation.
type Processor struct {
	service    *Service
	interval   time.Duration
	autoSettle bool
}

func NewProcessor(service *Service, interval time.Duration, autoSettle bool) *Processor {
	if interval <= 0 {
		interval = time.Second
	}
	return &Processor{
		service:    service,
		interval:   interval,
		autoSettle: autoSettle,
	}
}

// Start begins the expiry sweep loop until the context is cancelled.
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "contract_processor").Logger()
	logger.Info().
		Bool("auto_settle", p.autoSettle).
		Dur("interval", p.interval).
		Msg("starting contract processor")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down contract processor")
			return
		case <-ticker.C:
			if err := p.processDueContracts(); err != nil {
				logger.Error().Err(err).Msg("failed to process due contracts")
			}
		}
	}
}

func (p *Processor) processDueContracts() error {
	logger := log.With().Str("component", "contract_processor").Logger()

	due, err := p.service.GetDB().ListDue(time.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	logger.Debug().Int("due_count", len(due)).Msg("processing due contracts")

	for _, contract := range due {
		if p.autoSettle {
			exitPrice := p.service.prices.Current()
			if err := p.service.SettleByPrice(contract.ContractID, exitPrice); err != nil {
				logger.Error().Err(err).
					Str("contract_id", contract.ContractID).
					Msg("auto settlement failed")
			}
			continue
		}

		if err := p.service.Expire(contract.ContractID); err != nil {
			logger.Error().Err(err).
				Str("contract_id", contract.ContractID).
				Msg("failed to expire contract")
		}
	}

	return nil
}
