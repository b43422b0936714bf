package quad

// Slot identifies an operand field of a quadruple.
type Slot int

const (
	SlotArg1 Slot = iota
	SlotArg2
	SlotResult
)

// Get returns the operand text in slot s.
func (q Quad) Get(s Slot) string {
	switch s {
	case SlotArg1:
		return q.Arg1
	case SlotArg2:
		return q.Arg2
	default:
		return q.Result
	}
}

// With returns a copy of q with slot s replaced by v.
func (q Quad) With(s Slot, v string) Quad {
	switch s {
	case SlotArg1:
		q.Arg1 = v
	case SlotArg2:
		q.Arg2 = v
	default:
		q.Result = v
	}
	return q
}

// roles lists the slots an opcode reads and writes. Slots that carry labels,
// function names or argument counts appear in neither list.
type roles struct {
	defs []Slot
	uses []Slot
}

var (
	genericRoles = roles{defs: []Slot{SlotResult}, uses: []Slot{SlotArg1, SlotArg2}}
	noRoles      = roles{}
	arg1Use      = roles{uses: []Slot{SlotArg1}}
)

var opRoles = map[string]roles{
	OpLabel:       noRoles,
	OpFuncBegin:   noRoles,
	OpFuncEnd:     noRoles,
	OpJump:        noRoles,
	OpJumpF:       arg1Use,
	OpJumpNZ:      arg1Use,
	OpParam:       arg1Use,
	OpPrint:       arg1Use,
	OpReturn:      arg1Use,
	OpCall:        {defs: []Slot{SlotResult}},
	OpGetParam:    {defs: []Slot{SlotArg1}},
	OpDecArray:    {defs: []Slot{SlotArg1}, uses: []Slot{SlotArg2}},
	OpDecDynArray: {defs: []Slot{SlotArg1}, uses: []Slot{SlotArg2}},
	OpLoadAt:      {defs: []Slot{SlotArg1}, uses: []Slot{SlotArg2, SlotResult}},
	OpLoadMember:  {defs: []Slot{SlotArg1}, uses: []Slot{SlotArg2, SlotResult}},
	OpStoreAt:     {uses: []Slot{SlotArg1, SlotArg2, SlotResult}},
	OpStoreMember: {uses: []Slot{SlotArg1, SlotArg2, SlotResult}},
}

func rolesOf(op string) roles {
	if r, ok := opRoles[op]; ok {
		return r
	}
	return genericRoles
}

// DefSlots returns the slots of q that hold a variable written by q.
func (q Quad) DefSlots() []Slot {
	return q.filter(rolesOf(q.Op).defs)
}

// UseSlots returns the slots of q that hold a variable or literal read by q.
func (q Quad) UseSlots() []Slot {
	var out []Slot
	for _, s := range rolesOf(q.Op).uses {
		v := q.Get(s)
		if IsVariable(v) || IsLiteral(v) {
			out = append(out, s)
		}
	}
	return out
}

// Defs returns the variables written by q.
func (q Quad) Defs() []string {
	return q.names(rolesOf(q.Op).defs)
}

// Uses returns the variables read by q.
func (q Quad) Uses() []string {
	return q.names(rolesOf(q.Op).uses)
}

func (q Quad) filter(slots []Slot) []Slot {
	var out []Slot
	for _, s := range slots {
		if IsVariable(q.Get(s)) {
			out = append(out, s)
		}
	}
	return out
}

func (q Quad) names(slots []Slot) []string {
	var out []string
	for _, s := range q.filter(slots) {
		out = append(out, q.Get(s))
	}
	return out
}
