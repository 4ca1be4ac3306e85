package broadcast

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/broadcaster/internal/config"
	"github.com/mamadbah2/broadcaster/internal/domain/models"
	"github.com/mamadbah2/broadcaster/pkg/logger"
)

type assembleFunc func(ctx context.Context, tpl *models.Template, kind models.TemplateKind, r models.Recipient) AssemblyResult

// GenerateResult is the output of a successful generation run.
type GenerateResult struct {
	Messages []models.AssembledMessage
	Stats    models.BatchStats
}

// Processor generates provider messages for a recipient list in sequential
// chunks, fanning out within each chunk.
type Processor struct {
	cfg      config.EngineConfig
	assemble assembleFunc
	logger   *zap.Logger
	now      func() time.Time
}

// NewProcessor wires a Processor. A non-positive chunk size or unit timeout
// falls back to the package defaults; ChunkPacing is used as given, so a zero
// value disables pacing.
func NewProcessor(cfg config.EngineConfig, assembler *Assembler, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if assembler == nil {
		assembler = NewAssembler(logger)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = config.DefaultChunkSize
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = config.DefaultUnitTimeout
	}
	if cfg.ChunkPacing < 0 {
		cfg.ChunkPacing = 0
	}

	return &Processor{
		cfg:      cfg,
		assemble: assembler.Assemble,
		logger:   logger,
		now:      time.Now,
	}
}

// Generate assembles one message per recipient. Per-recipient failures are
// counted in the stats and never returned. It returns *NoValidMessagesError when
// nothing was assembled and *BatchCancelledError when ctx ends between chunks.
func (p *Processor) Generate(ctx context.Context, tpl *models.Template, recipients []models.Recipient) (*GenerateResult, error) {
	start := p.now()
	kind := tpl.Kind()
	stats := models.BatchStats{TotalContacts: len(recipients)}
	messages := make([]models.AssembledMessage, 0, len(recipients))

	size := p.cfg.ChunkSize
	chunks := (len(recipients) + size - 1) / size

	p.logger.Info("generating broadcast messages",
		zap.String("template", tpl.ElementName),
		zap.String("kind", string(kind)),
		zap.Int("recipients", len(recipients)),
		zap.Int("chunks", chunks))

	for c := 0; c < chunks; c++ {
		if err := ctx.Err(); err != nil {
			stats.ProcessingTimeSeconds = p.now().Sub(start).Seconds()
			p.logger.Warn("broadcast generation cancelled", zap.Int("chunk", c), zap.Error(err))
			return nil, &BatchCancelledError{Stats: stats, Err: err}
		}

		lo := c * size
		hi := min(lo+size, len(recipients))

		results := p.runChunk(ctx, tpl, kind, recipients[lo:hi])

		var ok, failed int
		for i, res := range results {
			if res.Err != nil {
				failed++
				p.logger.Debug("recipient skipped",
					logger.Phone("phone", recipients[lo+i].Phone),
					zap.Error(res.Err))
				continue
			}
			ok++
			messages = append(messages, *res.Message)
		}
		stats.SuccessCount += ok
		stats.FailedCount += failed

		p.logger.Info("chunk processed",
			zap.Int("chunk", c+1),
			zap.Int("of", chunks),
			zap.Int("success", ok),
			zap.Int("failed", failed))

		if c < chunks-1 && p.cfg.ChunkPacing > 0 {
			sleep(ctx, p.cfg.ChunkPacing)
		}
	}

	stats.ProcessingTimeSeconds = p.now().Sub(start).Seconds()

	if len(messages) == 0 {
		return nil, &NoValidMessagesError{Stats: stats}
	}

	p.logger.Info("broadcast messages generated",
		zap.String("template", tpl.ElementName),
		zap.Int("success", stats.SuccessCount),
		zap.Int("failed", stats.FailedCount),
		zap.Float64("seconds", stats.ProcessingTimeSeconds))

	return &GenerateResult{Messages: messages, Stats: stats}, nil
}

// runChunk assembles every recipient of the chunk concurrently and waits for all
// of them. Results keep the recipient order.
func (p *Processor) runChunk(ctx context.Context, tpl *models.Template, kind models.TemplateKind, chunk []models.Recipient) []AssemblyResult {
	results := make([]AssemblyResult, len(chunk))

	var g errgroup.Group
	if p.cfg.ChunkConcurrency > 0 {
		g.SetLimit(p.cfg.ChunkConcurrency)
	}
	for i := range chunk {
		g.Go(func() error {
			results[i] = p.runUnit(ctx, tpl, kind, chunk[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// runUnit races one assembly against the unit timeout. A late assembly finishes
// into a buffered channel nobody reads, so its goroutine still exits.
func (p *Processor) runUnit(ctx context.Context, tpl *models.Template, kind models.TemplateKind, r models.Recipient) AssemblyResult {
	unitCtx, cancel := context.WithTimeout(ctx, p.cfg.UnitTimeout)
	defer cancel()

	done := make(chan AssemblyResult, 1)
	go func() {
		done <- p.assemble(unitCtx, tpl, kind, r)
	}()

	select {
	case res := <-done:
		return res
	case <-unitCtx.Done():
		select {
		case res := <-done:
			return res
		default:
		}
		err := ErrAssemblyTimeout
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return AssemblyResult{Err: &AssemblyError{Phone: logger.RedactPhone(r.Phone), Err: err}}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
