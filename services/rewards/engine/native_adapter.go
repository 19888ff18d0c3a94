package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lendrewards/config"
	nativecommon "lendrewards/native/common"
	"lendrewards/native/rewards"
	"lendrewards/services/rewards/claimlog"
)

// ReceiptLog records paid claims for audit.
type ReceiptLog interface {
	Record(ctx context.Context, version uint32, kind uint8, account, amount string) (claimlog.Receipt, error)
}

// Native adapts the in-process reward engine to the Engine interface. It owns
// the active engine version and swaps it on migration. Frozen versions stay
// reachable by number so their accrual remains claimable.
type Native struct {
	mu       sync.RWMutex
	current  *rewards.Engine
	frozen   map[uint32]*rewards.Engine
	programs *config.Config
	receipts ReceiptLog
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewNative wraps engine. Kind names are resolved through programs.
func NewNative(engine *rewards.Engine, programs *config.Config, receipts ReceiptLog, logger *slog.Logger) (*Native, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine required", ErrInternal)
	}
	if programs == nil {
		programs = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Native{
		current:  engine,
		frozen:   make(map[uint32]*rewards.Engine),
		programs: programs,
		receipts: receipts,
		logger:   logger,
		tracer:   otel.Tracer("rewards/engine"),
	}, nil
}

// Current returns the active engine version.
func (n *Native) Current() *rewards.Engine {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// AddFrozen registers a decommissioned engine so claims can still address it.
func (n *Native) AddFrozen(engine *rewards.Engine) error {
	if engine == nil {
		return fmt.Errorf("%w: engine required", ErrInternal)
	}
	if _, frozen := engine.FrozenAt(); !frozen {
		return fmt.Errorf("%w: engine v%d is not frozen", ErrConflict, engine.Version())
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if engine.Version() == n.current.Version() {
		return fmt.Errorf("%w: v%d is the active engine", ErrConflict, engine.Version())
	}
	n.frozen[engine.Version()] = engine
	return nil
}

// Versions lists every addressable engine version, oldest first.
func (n *Native) Versions() []uint32 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]uint32, 0, len(n.frozen)+1)
	for version := range n.frozen {
		out = append(out, version)
	}
	out = append(out, n.current.Version())
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (n *Native) engineFor(version uint32) (*rewards.Engine, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if version == 0 || version == n.current.Version() {
		return n.current, nil
	}
	if engine, ok := n.frozen[version]; ok {
		return engine, nil
	}
	return nil, fmt.Errorf("%w: engine version %d", ErrNotFound, version)
}

// hookTargets returns the active engine followed by every frozen one.
func (n *Native) hookTargets() []*rewards.Engine {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*rewards.Engine, 0, len(n.frozen)+1)
	out = append(out, n.current)
	for _, engine := range n.frozen {
		out = append(out, engine)
	}
	return out
}

// BeforeSupplyChange forwards ledger hooks to the active engine and to every
// frozen one. A frozen engine settles the account at its pre-change balance
// against the final index, so later balance moves never reach its payout.
func (n *Native) BeforeSupplyChange(market common.Address, accounts ...common.Address) error {
	for _, engine := range n.hookTargets() {
		if err := engine.BeforeSupplyChange(market, accounts...); err != nil {
			return err
		}
	}
	return nil
}

func (n *Native) BeforeBorrowChange(market, account common.Address) error {
	for _, engine := range n.hookTargets() {
		if err := engine.BeforeBorrowChange(market, account); err != nil {
			return err
		}
	}
	return nil
}

func (n *Native) BeforeTransfer(market, from, to common.Address) error {
	for _, engine := range n.hookTargets() {
		if err := engine.BeforeTransfer(market, from, to); err != nil {
			return err
		}
	}
	return nil
}

func (n *Native) SetRewardSpeed(ctx context.Context, caller, market, kind, side, speed string) (err error) {
	ctx, span := n.tracer.Start(ctx, "rewards.set_speed",
		trace.WithAttributes(attribute.String("market", market), attribute.String("kind", kind), attribute.String("side", side)))
	defer func() { endSpan(span, err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	callerAddr, err := parseAddress("caller", caller)
	if err != nil {
		return err
	}
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return err
	}
	k, err := n.parseKind(kind)
	if err != nil {
		return err
	}
	s, err := rewards.ParseSide(side)
	if err != nil {
		return translate(err)
	}
	amount, err := parseAmount("speed", speed)
	if err != nil {
		return err
	}
	if err := n.Current().SetRewardSpeed(callerAddr, marketAddr, k, s, amount); err != nil {
		return translate(err)
	}
	return nil
}

func (n *Native) Claim(ctx context.Context, version uint32, kind, account string) (_ Claim, err error) {
	ctx, span := n.tracer.Start(ctx, "rewards.claim",
		trace.WithAttributes(attribute.String("kind", kind), attribute.Int64("version", int64(version))))
	defer func() { endSpan(span, err) }()
	if err := ctx.Err(); err != nil {
		return Claim{}, err
	}
	k, err := n.parseKind(kind)
	if err != nil {
		return Claim{}, err
	}
	addr, err := parseAddress("account", account)
	if err != nil {
		return Claim{}, err
	}
	engine, err := n.engineFor(version)
	if err != nil {
		return Claim{}, err
	}
	amount, err := engine.Claim(k, addr)
	if err != nil {
		return Claim{}, translate(err)
	}
	return n.receipt(ctx, engine, k, addr, amount), nil
}

func (n *Native) ClaimBatch(ctx context.Context, version uint32, kind string, accounts []string) (_ []Claim, err error) {
	ctx, span := n.tracer.Start(ctx, "rewards.claim_batch",
		trace.WithAttributes(attribute.String("kind", kind), attribute.Int("accounts", len(accounts)), attribute.Int64("version", int64(version))))
	defer func() { endSpan(span, err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := n.parseKind(kind)
	if err != nil {
		return nil, err
	}
	engine, err := n.engineFor(version)
	if err != nil {
		return nil, err
	}
	// Malformed entries fail individually, like unknown accounts.
	out := make([]Claim, len(accounts))
	parsed := make([]common.Address, 0, len(accounts))
	slots := make([]int, 0, len(accounts))
	for i, account := range accounts {
		addr, err := parseAddress("account", account)
		if err != nil {
			out[i] = Claim{Account: strings.TrimSpace(account), Kind: n.kindName(k), Amount: "0", EngineVersion: engine.Version(), Err: err}
			continue
		}
		parsed = append(parsed, addr)
		slots = append(slots, i)
	}
	results, err := engine.ClaimMany(k, parsed)
	if err != nil {
		return nil, translate(err)
	}
	for j, res := range results {
		if res.Err != nil {
			out[slots[j]] = Claim{Account: res.Account.Hex(), Kind: n.kindName(k), Amount: "0", EngineVersion: engine.Version(), Err: translate(res.Err)}
			continue
		}
		out[slots[j]] = n.receipt(ctx, engine, k, res.Account, res.Amount)
	}
	return out, nil
}

func (n *Native) receipt(ctx context.Context, engine *rewards.Engine, kind rewards.Kind, account common.Address, amount *uint256.Int) Claim {
	claim := Claim{Account: account.Hex(), Kind: n.kindName(kind), Amount: amount.Dec(), EngineVersion: engine.Version()}
	if n.receipts == nil || amount.IsZero() {
		return claim
	}
	receipt, err := n.receipts.Record(ctx, engine.Version(), uint8(kind), claim.Account, claim.Amount)
	if err != nil {
		// The payout already happened; losing the receipt must not fail the claim.
		n.logger.Error("record claim receipt", "account", claim.Account, "kind", claim.Kind, "amount", claim.Amount, "error", err)
		return claim
	}
	claim.ReceiptID = receipt.ID.String()
	return claim
}

func (n *Native) Claimable(ctx context.Context, version uint32, kind, market, account string) (Claimable, error) {
	if err := ctx.Err(); err != nil {
		return Claimable{}, err
	}
	k, err := n.parseKind(kind)
	if err != nil {
		return Claimable{}, err
	}
	addr, err := parseAddress("account", account)
	if err != nil {
		return Claimable{}, err
	}
	var scope *common.Address
	if strings.TrimSpace(market) != "" {
		m, err := parseAddress("market", market)
		if err != nil {
			return Claimable{}, err
		}
		scope = &m
	}
	engine, err := n.engineFor(version)
	if err != nil {
		return Claimable{}, err
	}
	amount, err := engine.ClaimableRewards(k, scope, addr)
	if err != nil {
		return Claimable{}, translate(err)
	}
	return Claimable{Account: addr.Hex(), Kind: n.kindName(k), Amount: amount.Dec(), EngineVersion: engine.Version()}, nil
}

func (n *Native) MarketState(ctx context.Context, market string) (MarketState, error) {
	if err := ctx.Err(); err != nil {
		return MarketState{}, err
	}
	addr, err := parseAddress("market", market)
	if err != nil {
		return MarketState{}, err
	}
	engine := n.Current()
	snapshots, err := engine.Streams(addr)
	if err != nil {
		return MarketState{}, translate(err)
	}
	state := MarketState{
		Market:        addr.Hex(),
		EngineVersion: engine.Version(),
		ClaimsPaused:  engine.ClaimsPaused(),
		Streams:       make([]Stream, 0, len(snapshots)),
	}
	if tick, frozen := engine.FrozenAt(); frozen {
		state.FrozenAt = tick
	}
	initialised := false
	for _, snap := range snapshots {
		stream := Stream{
			Kind:        n.kindName(snap.Key.Kind),
			Side:        snap.Key.Side.String(),
			Speed:       snap.Speed.Dec(),
			Index:       "0",
			Initialized: snap.Initialized,
		}
		if snap.State != nil {
			stream.Index = snap.State.Index.Dec()
			stream.Tick = snap.State.Tick
			initialised = true
		}
		state.Streams = append(state.Streams, stream)
	}
	if !initialised {
		return state, fmt.Errorf("%w: market %s has no reward streams", ErrNotFound, addr.Hex())
	}
	return state, nil
}

func (n *Native) SetClaimsPaused(ctx context.Context, caller string, paused bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	addr, err := parseAddress("caller", caller)
	if err != nil {
		return false, err
	}
	// The switch covers frozen versions too, since they still pay out.
	engines := n.hookTargets()
	for _, engine := range engines {
		if err := engine.SetClaimsPaused(addr, paused); err != nil {
			return engines[0].ClaimsPaused(), translate(err)
		}
	}
	return engines[0].ClaimsPaused(), nil
}

func (n *Native) Migrate(ctx context.Context, caller string) (_ Migration, err error) {
	ctx, span := n.tracer.Start(ctx, "rewards.migrate")
	defer func() { endSpan(span, err) }()
	if err := ctx.Err(); err != nil {
		return Migration{}, err
	}
	addr, err := parseAddress("caller", caller)
	if err != nil {
		return Migration{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	old := n.current
	next, err := rewards.Migrate(addr, old, old.Config())
	if err != nil {
		return Migration{}, translate(err)
	}
	n.current = next
	n.frozen[old.Version()] = old
	frozenAt, _ := old.FrozenAt()
	span.SetAttributes(attribute.Int64("version", int64(next.Version())), attribute.Int64("frozen_at", int64(frozenAt)))
	n.logger.Info("rewards engine migrated", "previous_version", old.Version(), "version", next.Version(), "frozen_at", frozenAt)
	return Migration{PreviousVersion: old.Version(), EngineVersion: next.Version(), FrozenAt: frozenAt}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}

func (n *Native) parseKind(kind string) (rewards.Kind, error) {
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: kind required", ErrInvalidArgument)
	}
	k, ok := n.programs.KindByName(trimmed)
	if !ok {
		return 0, fmt.Errorf("%w: unknown reward kind %q", ErrInvalidArgument, trimmed)
	}
	return k, nil
}

func (n *Native) kindName(kind rewards.Kind) string {
	for _, k := range n.programs.Kinds {
		if rewards.Kind(k.ID) == kind {
			return k.Name
		}
	}
	return fmt.Sprintf("kind-%d", kind)
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%w: %s must be a hex address", ErrInvalidArgument, field)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(field, value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s required", ErrInvalidArgument, field)
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidArgument, field)
	}
	return amount, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rewards.ErrUnauthorized):
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case errors.Is(err, rewards.ErrUnknownKind),
		errors.Is(err, rewards.ErrInvalidSide),
		errors.Is(err, rewards.ErrSpeedTooHigh):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	case errors.Is(err, rewards.ErrInsufficientRewardTokenBalance):
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	case errors.Is(err, nativecommon.ErrModulePaused):
		return fmt.Errorf("%w: %v", ErrPaused, err)
	case errors.Is(err, rewards.ErrVersionInUse),
		errors.Is(err, rewards.ErrAccruedUnderflow):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}
