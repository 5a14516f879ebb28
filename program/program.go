package program

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"arcchain/config"
	"arcchain/events"
	"arcchain/internal/metrics"
	"arcchain/internal/obslog"
	"arcchain/native/accesscontrol"
	"arcchain/native/agentregistry"
	"arcchain/native/common"
	"arcchain/native/mcpregistry"
	"arcchain/state"
	"arcchain/storage"
	"arcchain/storage/trie"
)

// opMetrics is the slice of internal/metrics the dispatcher needs; declared
// here so tests can swap in a recording fake.
type opMetrics interface {
	ObserveOperation(module, op string, success bool, duration time.Duration)
	RecordRejection(module, op, code string)
	RecordSecurityVerdict(verdict string)
}

// Program wires the three engines, the trie-backed state manager, and the
// ambient observability stack into one dispatchable unit: the in-process
// equivalent of the on-chain program the instruction set describes.
type Program struct {
	log     *slog.Logger
	metrics opMetrics
	emitter events.Emitter

	manager *state.Manager
	store   interface{ Close() error }
	side    storage.Database

	quota      common.Quota
	quotaStore *memQuotaStore

	agents  *agentregistry.Engine
	servers *mcpregistry.Engine
	access  *accesscontrol.Engine
}

// logEmitter forwards every emitted event into the structured log, the
// minimal on-host observability sink; an off-chain indexer subscribes to
// the same Emitter seam with its own implementation.
type logEmitter struct {
	log *slog.Logger
}

func (l logEmitter) Emit(ev events.Event) {
	rec, ok := ev.(events.Record)
	if !ok {
		l.log.Info("event", "type", ev.EventType())
		return
	}
	args := make([]any, 0, 2+2*len(rec.Attributes))
	args = append(args, "type", rec.Type)
	for k, v := range rec.Attributes {
		args = append(args, k, v)
	}
	l.log.Info("event", args...)
}

// Options configures New. A nil Emitter falls back to logging events through
// the program's own logger; a nil Logger falls back to obslog.Setup with the
// config's log file.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Emitter events.Emitter
}

// New builds a Program from operator configuration: LevelDB-backed account
// trie under cfg.DataDir (in-memory when DataDir is empty), engines wired
// to it, pause flags and the escrow/DDR allowlist read from the config.
func New(opts Options) (*Program, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("program: config required")
	}

	log := opts.Logger
	if log == nil {
		log = obslog.Setup(obslog.Options{Service: "arcchain-registry", LogFile: cfg.LogFile})
	}

	var (
		diskdb = storage.NewMemoryTrieStore()
		side   = storage.Database(storage.NewMemDB())
		err    error
	)
	if cfg.DataDir != "" {
		diskdb, err = storage.NewLevelDBTrieStore(filepath.Join(cfg.DataDir, "accounts"))
		if err != nil {
			return nil, fmt.Errorf("program: open account store: %w", err)
		}
		side, err = storage.NewLevelDB(filepath.Join(cfg.DataDir, "secondary"))
		if err != nil {
			diskdb.Close()
			return nil, fmt.Errorf("program: open secondary store: %w", err)
		}
	}
	tr, err := trie.NewTrie(diskdb, nil)
	if err != nil {
		diskdb.Close()
		side.Close()
		return nil, fmt.Errorf("program: open account trie: %w", err)
	}
	manager := state.NewManager(tr, side)

	escrowKey, err := cfg.EscrowProgram()
	if err != nil {
		diskdb.Close()
		side.Close()
		return nil, err
	}
	ddrKey, err := cfg.DDRProgram()
	if err != nil {
		diskdb.Close()
		side.Close()
		return nil, err
	}
	allow := common.Allowlist{Escrow: escrowKey, DDR: ddrKey}

	emitter := opts.Emitter
	if emitter == nil {
		emitter = logEmitter{log: log}
	}

	p := &Program{
		log:     log,
		metrics: metrics.Registry(),
		emitter: emitter,
		manager: manager,
		store:   diskdb,
		side:    side,
	}

	p.agents = agentregistry.NewEngine()
	p.agents.SetState(manager)
	p.agents.SetEmitter(emitter)
	p.agents.SetPauses(cfg)
	p.agents.SetAuthorizedCallers(allow)

	p.servers = mcpregistry.NewEngine()
	p.servers.SetState(manager)
	p.servers.SetEmitter(emitter)
	p.servers.SetPauses(cfg)

	p.access = accesscontrol.NewEngine()
	p.access.SetState(manager)
	p.access.SetEmitter(emitter)
	p.access.SetPauses(cfg)

	return p, nil
}

// Agents exposes the agent registry engine for callers that hold decoded
// parameters already (tests, embedding hosts); Dispatch* is the wire path.
func (p *Program) Agents() *agentregistry.Engine { return p.agents }

// Servers exposes the MCP server registry engine.
func (p *Program) Servers() *mcpregistry.Engine { return p.servers }

// AccessControl exposes the access-control engine.
func (p *Program) AccessControl() *accesscontrol.Engine { return p.access }

// State exposes the account state manager.
func (p *Program) State() *state.Manager { return p.manager }

// Close releases the backing account and secondary-record stores.
func (p *Program) Close() error {
	if p.side != nil {
		p.side.Close()
	}
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}
