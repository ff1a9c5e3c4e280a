package armdecode

import (
	"errors"
	"fmt"
)

// ErrWordSize is returned when Decode is handed a byte slice that is
// not exactly 4 bytes long. This model only reasons about ARM v7-A's
// fixed 32-bit encoding; Thumb and AArch64 are out of scope, and a
// short/long slice cannot be either.
var ErrWordSize = errors.New("armdecode: instruction word must be 4 bytes")

// Decoder decodes ARM v7-A instruction words. It is stateless; a zero
// Decoder is ready to use.
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode extracts a little-endian 32-bit word from raw and decodes it.
// It returns ErrWordSize if raw is not exactly 4 bytes.
func (d *Decoder) Decode(raw []byte) (*Instruction, error) {
	if len(raw) != 4 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrWordSize, len(raw))
	}

	word := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24

	return d.DecodeWord(word), nil
}

// DecodeWord decodes a single 32-bit ARM v7-A instruction word. It
// never fails: unrecognized or non-memory-access encodings decode to
// CategoryInstOnly and are modeled only as an instruction fetch.
func (d *Decoder) DecodeWord(word uint32) *Instruction {
	inst := &Instruction{Cond: uint8(word >> 28)}

	topOp1 := (word >> 25) & 0x7 // [27:25]
	bit4 := (word >> 4) & 0x1

	switch {
	case topOp1 == 0b010, topOp1 == 0b011 && bit4 == 0:
		d.decodeRegular(word, inst)

	case topOp1 == 0b011 && bit4 == 1:
		// Media instructions (A5-17): not a memory access in this model.

	case topOp1 == 0b000 || topOp1 == 0b001:
		d.decodeDataProcessingGroup(word, inst)

	case topOp1 == 0b100:
		d.decodeBlock(word, inst)

	case topOp1 == 0b101:
		// Branch / branch-with-link: not a memory access in this model.

	case topOp1 == 0b110:
		d.decodeCoprocLdSt(word, inst)

	case topOp1 == 0b111:
		d.decodeCoprocRegTransfer(word, inst)
	}

	return inst
}

// decodeDataProcessingGroup handles the [27:25]==00x class, which
// contains data processing, extra load/store (A5-10/A5-11), and
// synchronization primitives all sharing the same top-level bits,
// distinguished by bit [4] and bit [7].
func (d *Decoder) decodeDataProcessingGroup(word uint32, inst *Instruction) {
	bit4 := (word >> 4) & 0x1
	bit7 := (word >> 7) & 0x1
	nibble74 := uint8((word >> 4) & 0xF)
	subOp1 := uint8((word >> 20) & 0x1F)

	switch {
	case bit4 == 0 && bit7 == 1:
		d.decodeExtra(word, inst)

	case bit4 == 1 && subOp1&0x10 == 0x10 && nibble74 == 0x9:
		d.decodeSync(word, inst)

	default:
		// Data processing (immediate or register-shifted-register):
		// not a memory access in this model.
	}
}

// decodeRegular decodes a regular load/store word or byte (A5-15),
// choosing one of the 14 RegularOp identifiers.
func (d *Decoder) decodeRegular(word uint32, inst *Instruction) {
	inst.Category = CategoryRegular

	subOp1 := uint8((word >> 20) & 0x1F)
	isLoad := subOp1&0x1 != 0
	isByte := subOp1&0x4 != 0
	isUnpriv := subOp1&0x10 == 0 && subOp1&0x2 != 0
	isImmediate := (word>>25)&0x1 == 0 // A bit

	inst.Rn = uint8((word >> 16) & 0xF)
	inst.Rt = uint8((word >> 12) & 0xF)
	inst.Imm12 = uint16(word & 0xFFF)
	inst.Rm = uint8(word & 0xF)
	inst.Imm5 = uint8((word >> 7) & 0x1F)
	inst.Shift = ShiftType((word >> 5) & 0x3)
	inst.Add = (word>>23)&0x1 != 0
	inst.Index = (word>>24)&0x1 != 0
	inst.Wback = !inst.Index || subOp1&0x2 != 0

	if isLoad {
		inst.Direction = DirLoad
	} else {
		inst.Direction = DirStore
	}

	switch {
	case isUnpriv:
		inst.RegularOp = pick4(isLoad, isByte, Ldrbt, Ldrt, Strbt, Strt)

	case isImmediate:
		if isLoad && inst.Rn == 0xF {
			inst.RegularOp = pick2(isByte, LdrbLit, LdrLit)
		} else {
			inst.RegularOp = pick4(isLoad, isByte, LdrbImm, LdrImm, StrbImm, StrImm)
		}

	default:
		inst.RegularOp = pick4(isLoad, isByte, LdrbReg, LdrReg, StrbReg, StrReg)
	}
}

// pick4 selects among (loadByte, loadWord, storeByte, storeWord).
func pick4(isLoad, isByte bool, loadByte, loadWord, storeByte, storeWord RegularOp) RegularOp {
	if isLoad {
		return pick2(isByte, loadByte, loadWord)
	}

	return pick2(isByte, storeByte, storeWord)
}

func pick2(isByte bool, ifByte, ifWord RegularOp) RegularOp {
	if isByte {
		return ifByte
	}

	return ifWord
}

// decodeExtra decodes a halfword/dual/signed-byte-or-halfword extra
// load/store (A5-10/A5-11), sub-discriminated by op2 = [6:5].
func (d *Decoder) decodeExtra(word uint32, inst *Instruction) {
	inst.Category = CategoryExtra

	subOp1 := uint8((word >> 20) & 0x1F)
	op2 := (word >> 5) & 0x3
	isLoad := subOp1&0x1 != 0
	isImmediate := (word>>22)&0x1 != 0
	isUnpriv := subOp1&0x13 == 0x02 || subOp1&0x13 == 0x03

	inst.Rn = uint8((word >> 16) & 0xF)
	inst.Rt = uint8((word >> 12) & 0xF)
	inst.Rm = uint8(word & 0xF)
	inst.Imm8 = uint8(((word >> 8) & 0xF << 4) | (word & 0xF))
	inst.Add = (word>>23)&0x1 != 0
	inst.Index = (word>>24)&0x1 != 0
	inst.Wback = !inst.Index || subOp1&0x2 != 0

	switch op2 {
	case 0b01: // halfword
		if isUnpriv {
			inst.Direction = dirOf(isLoad)
			inst.ExtraOp = pick2e(isLoad, Ldrht, Strht)
			return
		}

		inst.Direction = dirOf(isLoad)
		if isImmediate {
			inst.ExtraOp = pick2e(isLoad, LdrhImm, StrhImm)
		} else {
			inst.ExtraOp = pick2e(isLoad, LdrhReg, StrhReg)
		}

	case 0b10: // dual load or signed byte load
		inst.Direction = DirLoad
		inst.Rt2 = inst.Rt + 1

		if !isLoad {
			if isImmediate {
				inst.ExtraOp = LdrdImm
			} else {
				inst.ExtraOp = LdrdReg
			}
			return
		}

		if isUnpriv {
			inst.ExtraOp = Ldrsbt
		} else if isImmediate {
			inst.ExtraOp = LdrsbImm
		} else {
			inst.ExtraOp = LdrsbReg
		}

	case 0b11: // signed halfword load or store-dual
		if !isLoad {
			inst.Direction = DirStore
			inst.Rt2 = inst.Rt + 1
			if isImmediate {
				inst.ExtraOp = StrdImm
			} else {
				inst.ExtraOp = StrdReg
			}
			return
		}

		inst.Direction = DirLoad
		if isUnpriv {
			inst.ExtraOp = Ldrsht
		} else if isImmediate {
			inst.ExtraOp = LdrshImm
		} else {
			inst.ExtraOp = LdrshReg
		}
	}
}

func dirOf(isLoad bool) Direction {
	if isLoad {
		return DirLoad
	}

	return DirStore
}

func pick2e(isLoad bool, ifLoad, ifStore ExtraOp) ExtraOp {
	if isLoad {
		return ifLoad
	}

	return ifStore
}

// decodeSync decodes a synchronization primitive (swap or an exclusive
// load/store variant), sub-discriminated by [23:20].
func (d *Decoder) decodeSync(word uint32, inst *Instruction) {
	inst.Category = CategorySync
	inst.Rn = uint8((word >> 16) & 0xF)
	inst.Rt = uint8((word >> 12) & 0xF)
	inst.Rm = uint8(word & 0xF)

	switch (word >> 20) & 0xF {
	case 0x0:
		inst.SyncOp, inst.Direction = Swp, DirLoadStore
	case 0x4:
		inst.SyncOp, inst.Direction = Swpb, DirLoadStore
	case 0x8:
		inst.SyncOp, inst.Direction = Strex, DirStore
	case 0x9:
		inst.SyncOp, inst.Direction = Ldrex, DirLoad
	case 0xA:
		inst.SyncOp, inst.Direction = Strexd, DirStore
		inst.Rt2 = inst.Rt + 1
	case 0xB:
		inst.SyncOp, inst.Direction = Ldrexd, DirLoad
		inst.Rt2 = inst.Rt + 1
	case 0xC:
		inst.SyncOp, inst.Direction = Strexb, DirStore
	case 0xD:
		inst.SyncOp, inst.Direction = Ldrexb, DirLoad
	case 0xE:
		inst.SyncOp, inst.Direction = Strexh, DirStore
	case 0xF:
		inst.SyncOp, inst.Direction = Ldrexh, DirLoad
	}
}

// decodeBlock decodes a multiple-register load/store (A5-21),
// including the POP/PUSH/LDM-user/LDM-exception-return special cases.
func (d *Decoder) decodeBlock(word uint32, inst *Instruction) {
	inst.Category = CategoryBlock

	p := (word >> 24) & 0x1
	u := (word >> 23) & 0x1
	s := (word >> 22) & 0x1
	w := (word >> 21) & 0x1
	l := (word >> 20) & 0x1
	isLoad := l != 0

	inst.Rn = uint8((word >> 16) & 0xF)
	inst.RegList = uint16(word & 0xFFFF)
	inst.Index = p != 0
	inst.Add = u != 0
	inst.Wback = w != 0
	inst.Direction = dirOf(isLoad)

	mode := generalBlockOp(isLoad, p, u)

	switch {
	case inst.Rn == 0xD && isLoad && p == 0 && u == 1 && w == 1:
		inst.BlockOp = PopMult
	case inst.Rn == 0xD && !isLoad && p == 1 && u == 0 && w == 1:
		inst.BlockOp = PushMult
	case isLoad && s != 0 && inst.RegList&0x8000 != 0:
		inst.BlockOp = LdmExceptionReturn
	case isLoad && s != 0:
		inst.BlockOp = LdmUser
	default:
		inst.BlockOp = mode
	}
}

func generalBlockOp(isLoad bool, p, u uint32) BlockOp {
	switch {
	case isLoad && p == 0 && u == 0:
		return LdmDA
	case isLoad && p == 0 && u == 1:
		return LdmIA
	case isLoad && p == 1 && u == 0:
		return LdmDB
	case isLoad && p == 1 && u == 1:
		return LdmIB
	case !isLoad && p == 0 && u == 0:
		return StmDA
	case !isLoad && p == 0 && u == 1:
		return StmIA
	case !isLoad && p == 1 && u == 0:
		return StmDB
	default:
		return StmIB
	}
}

// decodeCoprocLdSt decodes a coprocessor load/store (LDC/STC, A5-22,
// [27:25]==110). Coproc 0xA is the floating-point coprocessor (VLDR/
// VSTR and friends); those are not a memory access in this model and
// are left as CategoryInstOnly.
func (d *Decoder) decodeCoprocLdSt(word uint32, inst *Instruction) {
	coproc := uint8((word >> 8) & 0xF)
	if coproc == 0xA {
		return
	}

	inst.Category = CategoryCoproc

	l := (word >> 20) & 0x1
	inst.Rn = uint8((word >> 16) & 0xF)
	inst.Rd = uint8((word >> 12) & 0xF)
	inst.Coproc = coproc
	inst.Imm8 = uint8(word & 0xFF)
	inst.Add = (word>>23)&0x1 != 0
	inst.Index = (word>>24)&0x1 != 0
	inst.Wback = (word>>21)&0x1 != 0

	if l == 0 {
		inst.Direction = DirStore
		inst.CoprocOp = CpStr
		return
	}

	inst.Direction = DirLoad
	if inst.Rn == 0xF {
		inst.CoprocOp = CpLdLit
	} else {
		inst.CoprocOp = CpLdImm
	}
}

// decodeCoprocRegTransfer decodes the [27:25]==111, bit[24]==0 class:
// MCR/MRC (register transfer, bit[4]==1) or CDP (bit[4]==0, not a
// memory access in this model). This is also where DCISW and ICIALLU
// live. Coproc 0xA is the floating-point coprocessor (VMRS/VMSR and
// friends); those are left as CategoryInstOnly rather than routed into
// the cache-control/MCR-MRC path.
func (d *Decoder) decodeCoprocRegTransfer(word uint32, inst *Instruction) {
	if (word>>24)&0x1 != 0 {
		// Supervisor call ([27:24]==1111): not a memory access.
		return
	}

	if (word>>4)&0x1 == 0 {
		// CDP: coprocessor data processing, not a memory access.
		return
	}

	coproc := uint8((word >> 8) & 0xF)
	if coproc == 0xA {
		return
	}

	inst.Category = CategoryCoproc
	inst.Opc1 = uint8((word >> 21) & 0x7)
	inst.Rn = uint8((word >> 16) & 0xF)
	inst.Rt = uint8((word >> 12) & 0xF)
	inst.Coproc = coproc
	inst.Rt2 = uint8((word >> 5) & 0x7) // opc2
	inst.Rm = uint8(word & 0xF)

	if (word>>20)&0x1 == 0 {
		inst.CoprocOp = CpMcr
		inst.Direction = DirStore
	} else {
		inst.CoprocOp = CpMrc
		inst.Direction = DirLoad
	}
}
