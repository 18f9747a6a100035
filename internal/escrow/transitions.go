package escrow

import (
	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// edge is one permitted move in the transition graph, with the roles
// allowed to drive it. The table below is the single authority on what
// the state machine accepts; nothing else in the codebase hardcodes a
// status pair.
type edge struct {
	from  enums.TransactionStatus
	to    enums.TransactionStatus
	roles []enums.ActorRole
}

var transitionTable = []edge{
	{
		from:  enums.TransactionStatusInitiated,
		to:    enums.TransactionStatusPaymentReceived,
		roles: []enums.ActorRole{enums.ActorRoleBuyer},
	},
	{
		from:  enums.TransactionStatusPaymentReceived,
		to:    enums.TransactionStatusShipped,
		roles: []enums.ActorRole{enums.ActorRoleSeller},
	},
	{
		from:  enums.TransactionStatusShipped,
		to:    enums.TransactionStatusDelivered,
		roles: []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleSystem},
	},
	{
		from:  enums.TransactionStatusDelivered,
		to:    enums.TransactionStatusInspection,
		roles: []enums.ActorRole{enums.ActorRoleSeller, enums.ActorRoleSystem},
	},
	{
		from:  enums.TransactionStatusInspection,
		to:    enums.TransactionStatusCompleted,
		roles: []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleSystem},
	},
	{
		from:  enums.TransactionStatusInspection,
		to:    enums.TransactionStatusDisputed,
		roles: []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleSeller},
	},
	{
		from:  enums.TransactionStatusCompleted,
		to:    enums.TransactionStatusDisputed,
		roles: []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleSeller},
	},
	{
		from:  enums.TransactionStatusFundsReleased,
		to:    enums.TransactionStatusDisputed,
		roles: []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleSeller},
	},
	{
		from:  enums.TransactionStatusCompleted,
		to:    enums.TransactionStatusFundsReleased,
		roles: []enums.ActorRole{enums.ActorRoleSeller, enums.ActorRoleSystem},
	},
	{
		from:  enums.TransactionStatusInitiated,
		to:    enums.TransactionStatusCancelled,
		roles: []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleSeller},
	},
	{
		from:  enums.TransactionStatusPaymentReceived,
		to:    enums.TransactionStatusCancelled,
		roles: []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleSeller},
	},
	{
		from:  enums.TransactionStatusDisputed,
		to:    enums.TransactionStatusRefunded,
		roles: []enums.ActorRole{enums.ActorRoleArbiter},
	},
	{
		from:  enums.TransactionStatusDisputed,
		to:    enums.TransactionStatusCompleted,
		roles: []enums.ActorRole{enums.ActorRoleArbiter},
	},
	{
		from:  enums.TransactionStatusDisputed,
		to:    enums.TransactionStatusFundsReleased,
		roles: []enums.ActorRole{enums.ActorRoleArbiter},
	},
}

// findEdge returns the edge for the requested move, or nil when the graph
// has no such transition.
func findEdge(from, to enums.TransactionStatus) *edge {
	for i := range transitionTable {
		if transitionTable[i].from == from && transitionTable[i].to == to {
			return &transitionTable[i]
		}
	}
	return nil
}

func (e *edge) allowsRole(role enums.ActorRole) bool {
	for _, candidate := range e.roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// validTargets lists every status reachable from the given one, optionally
// filtered to the edges a role may drive.
func validTargets(from enums.TransactionStatus, role enums.ActorRole) []enums.TransactionStatus {
	var targets []enums.TransactionStatus
	for i := range transitionTable {
		if transitionTable[i].from != from {
			continue
		}
		if role != "" && !transitionTable[i].allowsRole(role) {
			continue
		}
		targets = append(targets, transitionTable[i].to)
	}
	return targets
}

// Action is the caller-facing verb that maps onto a transition target.
type Action string

const (
	ActionPay             Action = "pay"
	ActionShip            Action = "ship"
	ActionConfirmDelivery Action = "confirm_delivery"
	ActionStartInspection Action = "start_inspection"
	ActionAccept          Action = "accept"
	ActionReleaseFunds    Action = "release_funds"
	ActionCancel          Action = "cancel"
)

var actionTargets = map[Action]enums.TransactionStatus{
	ActionPay:             enums.TransactionStatusPaymentReceived,
	ActionShip:            enums.TransactionStatusShipped,
	ActionConfirmDelivery: enums.TransactionStatusDelivered,
	ActionStartInspection: enums.TransactionStatusInspection,
	ActionAccept:          enums.TransactionStatusCompleted,
	ActionReleaseFunds:    enums.TransactionStatusFundsReleased,
	ActionCancel:          enums.TransactionStatusCancelled,
}

// TargetStatus resolves the action to the status it drives toward.
func (a Action) TargetStatus() (enums.TransactionStatus, bool) {
	target, ok := actionTargets[a]
	return target, ok
}

// ParseAction converts raw input into an Action.
func ParseAction(value string) (Action, bool) {
	action := Action(value)
	if _, ok := actionTargets[action]; !ok {
		return "", false
	}
	return action, true
}

// AvailableActions lists the actions the given role may take from a status.
// Dispute filing is excluded; it goes through the dispute gate, not the
// advance surface.
func AvailableActions(from enums.TransactionStatus, role enums.ActorRole) []Action {
	ordered := []Action{
		ActionPay,
		ActionShip,
		ActionConfirmDelivery,
		ActionStartInspection,
		ActionAccept,
		ActionReleaseFunds,
		ActionCancel,
	}
	var actions []Action
	for _, action := range ordered {
		target := actionTargets[action]
		e := findEdge(from, target)
		if e == nil {
			continue
		}
		if role != "" && !e.allowsRole(role) {
			continue
		}
		actions = append(actions, action)
	}
	return actions
}
