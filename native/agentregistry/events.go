package agentregistry

import (
	"strconv"
	"strings"

	"arcchain/events"

	"github.com/google/uuid"
)

// attrs builds the flat string-keyed attribute map every emitted Record
// shares (spec §4.J), grounded on native/escrow/events.go's
// `attrs := make(map[string]string)` pattern. A fresh uuid correlation id
// is attached to every event as "trace_id"; the security monitor's audit
// entries carry no such id.
func attrs(id string, owner [32]byte, ts int64) map[string]string {
	return map[string]string{
		"id":          id,
		"owner":       hexAddr(owner),
		"timestamp":   strconv.FormatInt(ts, 10),
		"trace_id":    uuid.NewString(),
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

func emitRegistered(e events.Emitter, a *AgentEntry) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.RegistrationTimestamp)
	a2["name"] = a.Name
	a2["status"] = a.Status.String()
	e.Emit(events.Record{Type: "AgentRegistered", Attributes: a2})
}

func emitUpdated(e events.Emitter, a *AgentEntry, changed []string) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)
	a2["changed_fields"] = strings.Join(changed, ",")
	e.Emit(events.Record{Type: "AgentUpdated", Attributes: a2})
}

func emitStatusChanged(e events.Emitter, a *AgentEntry, old, next uint8) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)
	a2["old_status"] = strconv.Itoa(int(old))
	a2["new_status"] = strconv.Itoa(int(next))
	e.Emit(events.Record{Type: "AgentStatusChanged", Attributes: a2})
}

func emitDeregistered(e events.Emitter, a *AgentEntry) {
	e.Emit(events.Record{Type: "AgentDeregistered", Attributes: attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)})
}

func emitServiceCompleted(e events.Emitter, a *AgentEntry, earnings uint64, rating uint32, responseTimeSecs uint64) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)
	a2["earnings"] = strconv.FormatUint(earnings, 10)
	a2["rating_centi"] = strconv.FormatUint(uint64(rating), 10)
	a2["response_time_secs"] = strconv.FormatUint(responseTimeSecs, 10)
	a2["quality_score"] = strconv.FormatUint(uint64(a.QualityScore), 10)
	e.Emit(events.Record{Type: "ServiceCompleted", Attributes: a2})
}

func emitDisputeRecorded(e events.Emitter, a *AgentEntry, won bool) {
	a2 := attrs(a.ID, a.OwnerAuthority, a.LastUpdateTimestamp)
	a2["won"] = strconv.FormatBool(won)
	a2["quality_score"] = strconv.FormatUint(uint64(a.QualityScore), 10)
	e.Emit(events.Record{Type: "DisputeRecorded", Attributes: a2})
}
