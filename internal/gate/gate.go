package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/quorumgate/internal/ledger"
	"github.com/roach88/quorumgate/internal/message"
	"github.com/roach88/quorumgate/internal/registry"
	"github.com/roach88/quorumgate/internal/timelock"
)

// Gate is the quorum gate for one destination chain.
//
// All mutation goes through Gate methods; one mutex serializes operations
// end to end and each operation is one ledger transaction. The registry and
// settings are cached in memory and reloaded only from committed state.
type Gate struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	registry  *registry.Registry
	scheduler timelock.Scheduler
	logger    *slog.Logger
	now       func() time.Time
	eventIDs  EventIDGenerator
	sink      Sink

	initialized bool
	governance  message.Address
	localChain  message.ChainID
	sourceChain message.ChainID
	quorum      int
}

// Options configures optional gate collaborators.
// Zero values select production defaults.
type Options struct {
	Logger   *slog.Logger     // default slog.Default()
	Now      func() time.Time // default time.Now
	EventIDs EventIDGenerator // default UUIDv7Generator
	Sink     Sink             // default none
}

// Open loads a gate over an opened ledger, restoring cached settings and
// the adapter registry from durable state. The gate is usable immediately
// if the ledger was previously initialized; otherwise only Initialize is
// permitted.
func Open(ctx context.Context, l *ledger.Ledger, scheduler timelock.Scheduler, opts Options) (*Gate, error) {
	g := &Gate{
		ledger:    l,
		registry:  registry.New(),
		scheduler: scheduler,
		logger:    opts.Logger,
		now:       opts.Now,
		eventIDs:  opts.EventIDs,
		sink:      opts.Sink,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.eventIDs == nil {
		g.eventIDs = UUIDv7Generator{}
	}

	settings, err := l.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gate: %w", err)
	}
	g.initialized = settings.Initialized
	g.governance = settings.Governance
	g.localChain = settings.LocalChain
	g.sourceChain = settings.SourceChain
	g.quorum = settings.Quorum

	adapters, err := l.Adapters(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gate: %w", err)
	}
	for _, a := range adapters {
		g.registry.Add(a.Identity, a.Name)
	}

	return g, nil
}

// InitConfig is the one-time bootstrap configuration.
type InitConfig struct {
	Governance  message.Address
	LocalChain  message.ChainID
	SourceChain message.ChainID
	Quorum      int
	Adapters    []registry.Adapter
}

// Initialize runs the one-time setup: fixes the governance address, local
// and source chains, populates the adapter registry, and sets the initial
// quorum. A second invocation fails with ALREADY_INITIALIZED.
func (g *Gate) Initialize(ctx context.Context, cfg InitConfig) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return newError(CodeAlreadyInitialized, "receiver is already initialized")
	}
	if cfg.Governance.IsZero() {
		return newError(CodeNullGovernance, "governance timelock address must not be null")
	}
	if cfg.LocalChain == 0 || cfg.SourceChain == 0 {
		return fmt.Errorf("initialize: local and source chain ids must be non-zero")
	}
	if len(cfg.Adapters) == 0 {
		return newError(CodeNoAdaptersProvided, "initial adapter list must not be empty")
	}

	reg := registry.New()
	for _, a := range cfg.Adapters {
		if a.Identity.IsZero() {
			return newError(CodeNullAdapterAddress, "adapter identity must not be null")
		}
		reg.Add(a.Identity, a.Name)
	}
	if cfg.Quorum <= 0 || cfg.Quorum > reg.Count() {
		return newError(CodeInvalidQuorumThreshold,
			"quorum %d infeasible for %d adapters", cfg.Quorum, reg.Count())
	}

	tx, err := g.ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer tx.Rollback()

	if err := tx.SetInitialized(ctx, cfg.Governance, cfg.LocalChain, cfg.SourceChain, cfg.Quorum); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := tx.ReplaceAdapters(ctx, reg.Snapshot()); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	ev, err := g.appendEvent(ctx, tx, EventReceiverInitialized, "", map[string]string{
		"governance":   string(cfg.Governance),
		"local_chain":  strconv.FormatUint(uint64(cfg.LocalChain), 10),
		"source_chain": strconv.FormatUint(uint64(cfg.SourceChain), 10),
		"quorum":       strconv.Itoa(cfg.Quorum),
		"adapters":     strconv.Itoa(reg.Count()),
	})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	g.initialized = true
	g.governance = cfg.Governance
	g.localChain = cfg.LocalChain
	g.sourceChain = cfg.SourceChain
	g.quorum = cfg.Quorum
	g.registry = reg

	g.logger.Info("receiver initialized",
		"governance", cfg.Governance,
		"local_chain", cfg.LocalChain,
		"source_chain", cfg.SourceChain,
		"quorum", cfg.Quorum,
		"adapters", reg.Count(),
	)
	g.emit(ev)
	return nil
}

// Quorum returns the current quorum threshold.
func (g *Gate) Quorum() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.quorum
}

// Adapters returns the current trusted adapter set in insertion order.
func (g *Gate) Adapters() []registry.Adapter {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.Snapshot()
}

// requireInit guards every post-bootstrap operation.
// Callers hold g.mu.
func (g *Gate) requireInit() error {
	if !g.initialized {
		return newError(CodeNotInitialized, "receiver is not initialized")
	}
	return nil
}

// appendEvent stamps, appends, and returns an event inside the operation's
// transaction. The returned event is handed to emit only after commit.
func (g *Gate) appendEvent(ctx context.Context, tx *ledger.Tx, kind string, id message.MessageID, payload map[string]string) (ledger.Event, error) {
	seq, err := tx.NextSeq(ctx)
	if err != nil {
		return ledger.Event{}, err
	}
	ev := ledger.Event{
		Seq:       seq,
		EventID:   g.eventIDs.Generate(),
		Kind:      kind,
		MessageID: id,
		Payload:   payload,
	}
	if err := tx.AppendEvent(ctx, ev); err != nil {
		return ledger.Event{}, err
	}
	return ev, nil
}

// emit forwards a committed event to the optional sink.
func (g *Gate) emit(ev ledger.Event) {
	if g.sink != nil {
		g.sink.HandleEvent(ev)
	}
}
