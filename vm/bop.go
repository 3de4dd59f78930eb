package vm

// BOP is a basic operator: a builtin method the runtime assumes has its
// builtin behaviour until someone redefines it.
type BOP int

const (
	BOPPlus BOP = iota
	BOPMinus
	BOPMult
	BOPDiv
	BOPMod
	BOPEq
	BOPEqq
	BOPLt
	BOPLe
	BOPLtLt
	BOPAref
	BOPAset
	BOPLength
	BOPSize
	BOPEmptyP
	BOPSucc
	BOPGt
	BOPGe
	BOPMatch
	BOPFreeze
	BOPUMinus
	BOPMax
	BOPMin
	BOPCall
	BOPAnd
	BOPOr

	bopEnd
)

// Redefinition flags, one bit per builtin class that owns basic operators.
const (
	IntegerRedefinedOpFlag = 1 << iota
	FloatRedefinedOpFlag
	StringRedefinedOpFlag
	ArrayRedefinedOpFlag
	HashRedefinedOpFlag
	SymbolRedefinedOpFlag
	TimeRedefinedOpFlag
	RegexpRedefinedOpFlag
	NilRedefinedOpFlag
	TrueRedefinedOpFlag
	FalseRedefinedOpFlag
	ProcRedefinedOpFlag
)

type bopInfo struct {
	bop   BOP
	flags int
}

const numeric = IntegerRedefinedOpFlag | FloatRedefinedOpFlag

// basicOps maps method names to the basic operator they implement and the
// builtin classes on which they are basic.
var basicOps = map[string]bopInfo{
	"+":      {BOPPlus, numeric | StringRedefinedOpFlag | ArrayRedefinedOpFlag},
	"-":      {BOPMinus, numeric},
	"*":      {BOPMult, numeric},
	"/":      {BOPDiv, numeric},
	"%":      {BOPMod, numeric},
	"==":     {BOPEq, numeric | StringRedefinedOpFlag | SymbolRedefinedOpFlag},
	"===":    {BOPEqq, numeric | StringRedefinedOpFlag | SymbolRedefinedOpFlag | NilRedefinedOpFlag | TrueRedefinedOpFlag | FalseRedefinedOpFlag},
	"<":      {BOPLt, numeric},
	"<=":     {BOPLe, numeric},
	"<<":     {BOPLtLt, StringRedefinedOpFlag | ArrayRedefinedOpFlag},
	"[]":     {BOPAref, ArrayRedefinedOpFlag | HashRedefinedOpFlag | IntegerRedefinedOpFlag},
	"[]=":    {BOPAset, ArrayRedefinedOpFlag | HashRedefinedOpFlag},
	"length": {BOPLength, ArrayRedefinedOpFlag | StringRedefinedOpFlag | HashRedefinedOpFlag},
	"size":   {BOPSize, ArrayRedefinedOpFlag | StringRedefinedOpFlag | HashRedefinedOpFlag},
	"empty?": {BOPEmptyP, ArrayRedefinedOpFlag | StringRedefinedOpFlag | HashRedefinedOpFlag},
	"succ":   {BOPSucc, IntegerRedefinedOpFlag | StringRedefinedOpFlag},
	">":      {BOPGt, numeric},
	">=":     {BOPGe, numeric},
	"=~":     {BOPMatch, StringRedefinedOpFlag | RegexpRedefinedOpFlag},
	"freeze": {BOPFreeze, StringRedefinedOpFlag},
	"-@":     {BOPUMinus, StringRedefinedOpFlag},
	"max":    {BOPMax, ArrayRedefinedOpFlag},
	"min":    {BOPMin, ArrayRedefinedOpFlag},
	"call":   {BOPCall, ProcRedefinedOpFlag},
	"&":      {BOPAnd, IntegerRedefinedOpFlag},
	"|":      {BOPOr, IntegerRedefinedOpFlag},
}

// lookupBOP returns the basic operator that method name implements on a class
// with redefinition flag classFlag, if any.
func lookupBOP(name string, classFlag int) (BOP, bool) {
	if classFlag == 0 {
		return 0, false
	}

	info, ok := basicOps[name]
	if !ok || info.flags&classFlag == 0 {
		return 0, false
	}

	return info.bop, true
}

type builtinClass struct {
	name  string
	super string
	flag  int
}

// builtins are created at boot, in order, without notifying listeners.
var builtins = []builtinClass{
	{"BasicObject", "", 0},
	{"Object", "BasicObject", 0},
	{"Integer", "Object", IntegerRedefinedOpFlag},
	{"Float", "Object", FloatRedefinedOpFlag},
	{"String", "Object", StringRedefinedOpFlag},
	{"Array", "Object", ArrayRedefinedOpFlag},
	{"Hash", "Object", HashRedefinedOpFlag},
	{"Symbol", "Object", SymbolRedefinedOpFlag},
	{"Time", "Object", TimeRedefinedOpFlag},
	{"Regexp", "Object", RegexpRedefinedOpFlag},
	{"NilClass", "Object", NilRedefinedOpFlag},
	{"TrueClass", "Object", TrueRedefinedOpFlag},
	{"FalseClass", "Object", FalseRedefinedOpFlag},
	{"Proc", "Object", ProcRedefinedOpFlag},
}
