package armdecode

import "fmt"

// ErrNotEncodable is returned by Encode when an instruction's Category
// has no defined inverse; only the regular and extra load/store forms
// round-trip through Encode.
var ErrNotEncodable = fmt.Errorf("armdecode: category has no inverse encoding")

// Encode reconstructs a 32-bit instruction word from a decoded
// Instruction, for the regular and extra load/store categories.
// Decode(Encode(i)) reproduces i's category, direction and operand
// fields for any i that Decode itself could have produced.
func Encode(inst *Instruction) (uint32, error) {
	switch inst.Category {
	case CategoryRegular:
		return encodeRegular(inst), nil
	case CategoryExtra:
		return encodeExtra(inst), nil
	default:
		return 0, ErrNotEncodable
	}
}

func encodeRegular(inst *Instruction) uint32 {
	word := uint32(inst.Cond) << 28
	word |= 0b010 << 25

	isByte, isLoad, isUnpriv, isLiteral := regularShape(inst.RegularOp)

	subOp1 := uint32(0)
	if isLoad {
		subOp1 |= 0x1
	}
	if isByte {
		subOp1 |= 0x4
	}

	switch {
	case isUnpriv:
		// P=0, W=1. Addressing mode (A bit) collapses back to the same
		// identifier either way, so encode the immediate-offset form.
		subOp1 |= 0x2

	default:
		// Literal forms share this path: A=0 (immediate) and the P/W
		// bits come back from Index/Wback like any other form.
		if inst.Index {
			subOp1 |= 0x10
		}
		if inst.Wback && inst.Index {
			subOp1 |= 0x2
		}
	}

	if inst.Add {
		word |= 0x1 << 23
	}

	word |= subOp1 << 20
	word |= uint32(inst.Rn) << 16
	word |= uint32(inst.Rt) << 12

	if isUnpriv || isLiteral || isRegularImmediate(inst.RegularOp) {
		word |= uint32(inst.Imm12) & 0xFFF
	} else {
		word |= 0x1 << 25
		word |= uint32(inst.Imm5&0x1F) << 7
		word |= uint32(inst.Shift&0x3) << 5
		word |= uint32(inst.Rm) & 0xF
	}

	return word
}

func regularShape(op RegularOp) (isByte, isLoad, isUnpriv, isLiteral bool) {
	switch op {
	case LdrbLit, LdrLit:
		return op == LdrbLit, true, false, true
	case Ldrbt, Ldrt, Strbt, Strt:
		return op == Ldrbt || op == Strbt, op == Ldrbt || op == Ldrt, true, false
	default:
		isByte = op == LdrbImm || op == LdrbReg || op == StrbImm || op == StrbReg
		isLoad = op == LdrbImm || op == LdrbReg || op == LdrImm || op == LdrReg
		return isByte, isLoad, false, false
	}
}

func isRegularImmediate(op RegularOp) bool {
	switch op {
	case StrImm, StrbImm, LdrImm, LdrbImm:
		return true
	default:
		return false
	}
}

func encodeExtra(inst *Instruction) uint32 {
	word := uint32(inst.Cond) << 28
	word |= 0x1 << 7

	if inst.Index {
		word |= 0x1 << 24
	}
	if inst.Add {
		word |= 0x1 << 23
	}

	isImmediate, op2, isLoad, isUnpriv := extraShape(inst.ExtraOp)
	if isImmediate {
		word |= 0x1 << 22
	}

	subOp1 := uint32(0)
	if isLoad {
		subOp1 |= 0x1
	}
	if isUnpriv {
		subOp1 |= 0x2
	} else if inst.Wback && inst.Index {
		subOp1 |= 0x2
	}
	if !isUnpriv && inst.Index {
		subOp1 |= 0x10
	}

	word |= subOp1 << 20
	word |= uint32(inst.Rn) << 16
	word |= uint32(inst.Rt) << 12

	// Unprivileged forms do not record the I bit, so their [11:8] and
	// [3:0] bits are restored from Imm8 whichever form they came from.
	if isImmediate || isUnpriv {
		word |= uint32((inst.Imm8>>4)&0xF) << 8
		word |= uint32(inst.Imm8 & 0xF)
	} else {
		word |= uint32(inst.Rm) & 0xF
	}

	word |= op2 << 5

	return word
}

func extraShape(op ExtraOp) (isImmediate bool, op2 uint32, isLoad, isUnpriv bool) {
	switch op {
	case StrhImm:
		return true, 0b01, false, false
	case StrhReg:
		return false, 0b01, false, false
	case Strht:
		return false, 0b01, false, true
	case LdrhImm:
		return true, 0b01, true, false
	case LdrhReg:
		return false, 0b01, true, false
	case Ldrht:
		return false, 0b01, true, true
	case LdrdImm:
		return true, 0b10, false, false
	case LdrdReg:
		return false, 0b10, false, false
	case LdrsbImm:
		return true, 0b10, true, false
	case LdrsbReg:
		return false, 0b10, true, false
	case Ldrsbt:
		return false, 0b10, true, true
	case StrdImm:
		return true, 0b11, false, false
	case StrdReg:
		return false, 0b11, false, false
	case LdrshImm:
		return true, 0b11, true, false
	case LdrshReg:
		return false, 0b11, true, false
	case Ldrsht:
		return false, 0b11, true, true
	default:
		return false, 0, false, false
	}
}
