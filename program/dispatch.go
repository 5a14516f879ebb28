package program

import (
	"strconv"
	"time"

	"arcchain/arcerr"
	"arcchain/codec"
	"arcchain/native/accesscontrol"
	"arcchain/native/common"
)

// decodeErr converts a payload reader's terminal state into the stable
// error every malformed instruction maps to.
func decodeErr(r *codec.Reader) error {
	if r.Err() != nil {
		return arcerr.Wrap(arcerr.CodeInvalidProgramAccount, r.Err().Error())
	}
	return nil
}

func (p *Program) observe(module, op string, start time.Time, err error) {
	p.metrics.ObserveOperation(module, op, err == nil, time.Since(start))
	if err == nil {
		p.log.Info("operation applied", "module", module, "op", op)
		return
	}
	code := "unclassified"
	if ae, ok := err.(*arcerr.Error); ok {
		code = strconv.FormatUint(uint64(ae.Code), 10)
		switch ae.Code {
		case arcerr.CodeRateLimitExceeded:
			p.metrics.RecordSecurityVerdict("rate_limited")
		case arcerr.CodeSuspiciousActivity:
			p.metrics.RecordSecurityVerdict("suspicious_activity")
		}
	}
	p.metrics.RecordRejection(module, op, code)
	p.log.Warn("operation rejected", "module", module, "op", op, "err", err)
}

// DispatchAgent routes one framed agent-registry instruction. signer is the
// transaction's verified signing wallet; caller describes the invoking
// program account and is only consulted by the two record ops.
func (p *Program) DispatchAgent(caller common.Caller, signer [32]byte, data []byte) error {
	if err := p.applyQuota("agent_registry", signer); err != nil {
		return err
	}
	op, payload, err := unframe(data)
	if err != nil {
		return err
	}
	r := codec.NewReader(payload)
	start := time.Now()

	switch op {
	case AgentOpRegister:
		params := decodeAgentRegister(r)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.agents.Register(signer, params)
		p.observe("agent_registry", "register", start, err)
		return err
	case AgentOpUpdateDetails:
		id, patch := decodeAgentUpdateDetails(r)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.agents.UpdateDetails(id, signer, signer, patch)
		p.observe("agent_registry", "update_details", start, err)
		return err
	case AgentOpUpdateStatus:
		id := r.String(maxResourceIDLength)
		status := r.U8()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.agents.UpdateStatus(id, signer, signer, common.Status(status))
		p.observe("agent_registry", "update_status", start, err)
		return err
	case AgentOpDeregister:
		id := r.String(maxResourceIDLength)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.agents.Deregister(id, signer, signer)
		p.observe("agent_registry", "deregister", start, err)
		return err
	case AgentOpRecordServiceCompletion:
		id := r.String(maxResourceIDLength)
		owner := readHash(r)
		earnings := r.U64()
		rating := r.U32()
		responseTime := r.U64()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.agents.RecordServiceCompletion(caller, id, owner, earnings, rating, responseTime)
		p.observe("agent_registry", "record_service_completion", start, err)
		return err
	case AgentOpRecordDisputeOutcome:
		id := r.String(maxResourceIDLength)
		owner := readHash(r)
		won := r.Bool()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.agents.RecordDisputeOutcome(caller, id, owner, won)
		p.observe("agent_registry", "record_dispute_outcome", start, err)
		return err
	default:
		return arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "unknown agent registry instruction")
	}
}

// DispatchMcp routes one framed MCP-server-registry instruction.
func (p *Program) DispatchMcp(signer [32]byte, data []byte) error {
	if err := p.applyQuota("mcp_registry", signer); err != nil {
		return err
	}
	op, payload, err := unframe(data)
	if err != nil {
		return err
	}
	r := codec.NewReader(payload)
	start := time.Now()

	switch op {
	case McpOpRegister:
		params := decodeMcpRegister(r)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.servers.Register(signer, params)
		p.observe("mcp_registry", "register", start, err)
		return err
	case McpOpUpdateDetails:
		id, patch := decodeMcpUpdateDetails(r)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.servers.UpdateDetails(id, signer, signer, patch)
		p.observe("mcp_registry", "update_details", start, err)
		return err
	case McpOpUpdateStatus:
		id := r.String(maxResourceIDLength)
		status := r.U8()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.servers.UpdateStatus(id, signer, signer, common.Status(status))
		p.observe("mcp_registry", "update_status", start, err)
		return err
	case McpOpDeregister:
		id := r.String(maxResourceIDLength)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.servers.Deregister(id, signer, signer)
		p.observe("mcp_registry", "deregister", start, err)
		return err
	default:
		return arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "unknown mcp registry instruction")
	}
}

// DispatchAccessControl routes one framed access-control instruction.
func (p *Program) DispatchAccessControl(signer [32]byte, data []byte) error {
	if err := p.applyQuota("access_control", signer); err != nil {
		return err
	}
	op, payload, err := unframe(data)
	if err != nil {
		return err
	}
	r := codec.NewReader(payload)
	start := time.Now()

	switch op {
	case AccessOpInitialize:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		initialOwner := readHash(r)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.access.Initialize(resourceID, resourceProgram, initialOwner)
		p.observe("access_control", "initialize", start, err)
		return err
	case AccessOpVerifySignature:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		operation := r.String(maxOperationLength)
		var sig [64]byte
		copy(sig[:], r.Bytes(64))
		nonce := r.U64()
		timestamp := r.I64()
		n := r.U32()
		msgPayload := r.Bytes(int(n))
		if err := decodeErr(r); err != nil {
			return err
		}
		err := p.access.VerifySignature(resourceID, resourceProgram, signer, operation, sig, nonce, timestamp, msgPayload)
		p.observe("access_control", "verify_signature", start, err)
		return err
	case AccessOpExecute:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		operation := r.String(maxOperationLength)
		targetProgram := readHash(r)
		if err := decodeErr(r); err != nil {
			return err
		}
		err := p.access.Execute(resourceID, resourceProgram, signer, operation, targetProgram)
		p.observe("access_control", "execute", start, err)
		return err
	case AccessOpGrant:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		targetWallet := readHash(r)
		permissions := readStrings(r, accesscontrol.MaxPermissionsPerGrant, maxOperationLength)
		expiresAt := r.OptionalI64()
		canDelegate := r.Bool()
		maxDepth := r.U8()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.access.Grant(resourceID, resourceProgram, signer, targetWallet, permissions, expiresAt, canDelegate, maxDepth)
		p.observe("access_control", "grant", start, err)
		return err
	case AccessOpRevoke:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		targetWallet := readHash(r)
		revokeDelegated := r.Bool()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.access.Revoke(resourceID, resourceProgram, signer, targetWallet, revokeDelegated)
		p.observe("access_control", "revoke", start, err)
		return err
	case AccessOpTransferOwnership:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		newOwner := readHash(r)
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.access.TransferOwnership(resourceID, resourceProgram, signer, newOwner)
		p.observe("access_control", "transfer_ownership", start, err)
		return err
	case AccessOpPruneExpired:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		maxToPrune := r.U32()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, _, err := p.access.PruneExpiredGrants(resourceID, resourceProgram, signer, int(maxToPrune))
		p.observe("access_control", "prune_expired", start, err)
		return err
	case AccessOpUpdateNonce:
		resourceID := r.String(maxResourceIDLength)
		resourceProgram := readHash(r)
		newNonce := r.U64()
		if err := decodeErr(r); err != nil {
			return err
		}
		_, err := p.access.UpdateNonce(resourceID, resourceProgram, signer, newNonce)
		p.observe("access_control", "update_nonce", start, err)
		return err
	default:
		return arcerr.Wrap(arcerr.CodeInvalidProgramAccount, "unknown access control instruction")
	}
}
