package common

import "testing"

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuardRejectsPausedModule(t *testing.T) {
	p := pauseMap{"agent_registry": true}
	if err := Guard(p, "agent_registry"); err != ErrModulePaused {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(p, "mcp_registry"); err != nil {
		t.Fatalf("unexpected error for unpaused module: %v", err)
	}
}

func TestGuardNilPauseViewNeverBlocks(t *testing.T) {
	if err := Guard(nil, "agent_registry"); err != nil {
		t.Fatalf("nil pause view should never block: %v", err)
	}
	if err := Guard(pauseMap{}, ""); err != nil {
		t.Fatalf("empty module name should never block: %v", err)
	}
}
