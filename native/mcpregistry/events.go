package mcpregistry

import (
	"strconv"
	"strings"

	"arcchain/events"

	"github.com/google/uuid"
)

func attrs(id string, owner [32]byte, ts int64) map[string]string {
	return map[string]string{
		"id":        id,
		"owner":     hexAddr(owner),
		"timestamp": strconv.FormatInt(ts, 10),
		"trace_id":  uuid.NewString(),
	}
}

func hexAddr(b [32]byte) string {
	const hexDigits = "0123456789abcdef"
	var out [64]byte
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out[:])
}

func emitRegistered(e events.Emitter, a *McpServerEntry) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.RegistrationTimestamp)
	a2["name"] = a.Name
	a2["status"] = a.Status.String()
	e.Emit(events.Record{Type: "McpServerRegistered", Attributes: a2})
}

func emitUpdated(e events.Emitter, a *McpServerEntry, changed []string) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)
	a2["changed_fields"] = strings.Join(changed, ",")
	e.Emit(events.Record{Type: "McpServerUpdated", Attributes: a2})
}

func emitStatusChanged(e events.Emitter, a *McpServerEntry, old, next uint8) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)
	a2["old_status"] = strconv.Itoa(int(old))
	a2["new_status"] = strconv.Itoa(int(next))
	e.Emit(events.Record{Type: "McpServerStatusChanged", Attributes: a2})
}

func emitDeregistered(e events.Emitter, a *McpServerEntry) {
	e.Emit(events.Record{Type: "McpServerDeregistered", Attributes: attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)})
}
