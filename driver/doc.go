// Package driver runs one conversation turn end to end: intent extraction,
// plan decision, bounded model/tool round-trips, plan step execution, reply
// recovery and validation. The turn is an explicit state machine with hard
// bounds on tool rounds and model call time; every state-changing action goes
// through the orchestrator, never directly from model output.
package driver
