package game

// ActionName identifies one of the declarable turn actions. The values are
// the literal identifiers used on the wire.
type ActionName string

const (
	ActionIncome      ActionName = "Income"
	ActionForeignAid  ActionName = "ForeignAid"
	ActionCoup        ActionName = "Coup"
	ActionTax         ActionName = "Tax"
	ActionSteal       ActionName = "Steal"
	ActionAssassinate ActionName = "Assassinate"
	ActionExchange    ActionName = "Exchange"

	// ActionConfirmExchange confirms an ambassador exchange selection. It is
	// not declarable as a turn action and has no entry in the action table.
	ActionConfirmExchange ActionName = "ConfirmExchange"
)

// actionSpec holds the fixed attributes of a declarable action. An action is
// challengeable iff it claims a character.
type actionSpec struct {
	cost        int
	character   Role
	hasTarget   bool
	blockableBy []Role
}

func (s actionSpec) challengeable() bool {
	return s.character != ""
}

func (s actionSpec) blockable() bool {
	return len(s.blockableBy) > 0
}

// actionTable is the immutable action catalog. Per-room mutable state lives
// on the Room; this table is shared by every room in the process.
var actionTable = map[ActionName]actionSpec{
	ActionIncome:      {},
	ActionForeignAid:  {blockableBy: []Role{RoleDuke}},
	ActionCoup:        {cost: 7, hasTarget: true},
	ActionTax:         {character: RoleDuke},
	ActionSteal:       {character: RoleCaptain, hasTarget: true, blockableBy: []Role{RoleCaptain, RoleAmbassador}},
	ActionAssassinate: {cost: 3, character: RoleAssassin, hasTarget: true, blockableBy: []Role{RoleContessa}},
	ActionExchange:    {character: RoleAmbassador},
}
