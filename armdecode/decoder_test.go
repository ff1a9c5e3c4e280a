package armdecode_test

import (
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armcachesim/armdecode"
)

var _ = Describe("Decoder", func() {
	var d *armdecode.Decoder

	BeforeEach(func() {
		d = armdecode.NewDecoder()
	})

	Describe("Decode", func() {
		It("rejects a word that isn't exactly 4 bytes", func() {
			_, err := d.Decode([]byte{0x01, 0x02, 0x03})
			Expect(err).To(MatchError(armdecode.ErrWordSize))
		})

		It("accepts a little-endian 4-byte word", func() {
			// 0xE5910004 as little-endian bytes.
			inst, err := d.Decode([]byte{0x04, 0x00, 0x91, 0xE5})
			Expect(err).ToNot(HaveOccurred())
			Expect(inst.Category).To(Equal(armdecode.CategoryRegular))
		})
	})

	Describe("regular load/store (S6-adjacent forms)", func() {
		It("decodes LDR R0, [R1, #4] (offset form)", func() {
			inst := d.DecodeWord(0xE5910004)

			Expect(inst.Category).To(Equal(armdecode.CategoryRegular))
			Expect(inst.RegularOp).To(Equal(armdecode.LdrImm))
			Expect(inst.Direction).To(Equal(armdecode.DirLoad))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rt).To(Equal(uint8(0)))
			Expect(inst.Imm12).To(Equal(uint16(4)))
			Expect(inst.Add).To(BeTrue())
			Expect(inst.Index).To(BeTrue())
			Expect(inst.Wback).To(BeFalse())
		})

		It("round-trips LDR R0, [R1, #4] through Encode", func() {
			const word = 0xE5910004
			inst := d.DecodeWord(word)

			encoded, err := armdecode.Encode(inst)
			Expect(err).ToNot(HaveOccurred())
			Expect(encoded).To(Equal(uint32(word)))

			reDecoded := d.DecodeWord(encoded)
			if diff := cmp.Diff(inst, reDecoded); diff != "" {
				Fail("re-decoded instruction differs: " + diff)
			}
		})

		It("recognizes the literal PC-relative form", func() {
			// LDR R0, [PC, #0] immediate, Rn=0xF.
			inst := d.DecodeWord(0xE59F0000)
			Expect(inst.RegularOp).To(Equal(armdecode.LdrLit))
		})

		It("recognizes the unprivileged store form", func() {
			// STRT: P=0, W=1, L=0, B=0.
			inst := d.DecodeWord(0xE4A10004)
			Expect(inst.RegularOp).To(Equal(armdecode.Strt))
			Expect(inst.Direction).To(Equal(armdecode.DirStore))
		})
	})

	Describe("extra load/store", func() {
		It("decodes LDRH R2, [R3, #8] and round-trips", func() {
			const word = 0xE1D320A8
			inst := d.DecodeWord(word)

			Expect(inst.Category).To(Equal(armdecode.CategoryExtra))
			Expect(inst.ExtraOp).To(Equal(armdecode.LdrhImm))
			Expect(inst.Direction).To(Equal(armdecode.DirLoad))
			Expect(inst.Rn).To(Equal(uint8(3)))
			Expect(inst.Rt).To(Equal(uint8(2)))
			Expect(inst.Imm8).To(Equal(uint8(8)))

			encoded, err := armdecode.Encode(inst)
			Expect(err).ToNot(HaveOccurred())
			Expect(encoded).To(Equal(uint32(word)))
		})
	})

	Describe("synchronization primitives", func() {
		It("decodes SWP as load-and-store", func() {
			// SWP R0, R1, [R2]: cond=E, 0001 0000 0010 0000 0000 1001 0001
			inst := d.DecodeWord(0xE1020091)
			Expect(inst.Category).To(Equal(armdecode.CategorySync))
			Expect(inst.SyncOp).To(Equal(armdecode.Swp))
			Expect(inst.Direction).To(Equal(armdecode.DirLoadStore))
		})

		It("decodes LDREX as a load", func() {
			inst := d.DecodeWord(0xE1920F9F)
			Expect(inst.Category).To(Equal(armdecode.CategorySync))
			Expect(inst.SyncOp).To(Equal(armdecode.Ldrex))
			Expect(inst.Direction).To(Equal(armdecode.DirLoad))
		})
	})

	Describe("block load/store", func() {
		It("decodes 0xE8BD000F as POP {r0-r3}", func() {
			inst := d.DecodeWord(0xE8BD000F)

			Expect(inst.Category).To(Equal(armdecode.CategoryBlock))
			Expect(inst.Rn).To(Equal(uint8(0xD)))
			Expect(inst.RegList).To(Equal(uint16(0x000F)))
			Expect(inst.BlockOp).To(Equal(armdecode.PopMult))
			Expect(inst.Direction).To(Equal(armdecode.DirLoad))
		})

		It("decodes a generic STMIA", func() {
			// STMIA R4!, {R0,R1}: P=0,U=1,S=0,W=1,L=0, Rn=4.
			inst := d.DecodeWord(0xE8A40003)
			Expect(inst.BlockOp).To(Equal(armdecode.StmIA))
			Expect(inst.Wback).To(BeTrue())
		})
	})

	Describe("cache-control coprocessor recognition", func() {
		It("recognizes DCISW", func() {
			inst := d.DecodeWord(0xEE071E56)
			Expect(inst.Category).To(Equal(armdecode.CategoryCoproc))
			Expect(inst.CoprocOp).To(Equal(armdecode.CpMcr))
			Expect(inst.Rt).To(Equal(uint8(1)))
			Expect(inst.IsDCISW()).To(BeTrue())
			Expect(inst.IsICIALLU()).To(BeFalse())
		})

		It("recognizes ICIALLU", func() {
			inst := d.DecodeWord(0xEE071E15)
			Expect(inst.IsICIALLU()).To(BeTrue())
			Expect(inst.IsDCISW()).To(BeFalse())
		})

		It("does not mistake an ordinary MCR for a cache-control op", func() {
			// Same shape but CRn=2, not a recognized control sequence.
			inst := d.DecodeWord(0xEE021E56)
			Expect(inst.IsDCISW()).To(BeFalse())
			Expect(inst.IsICIALLU()).To(BeFalse())
		})
	})

	Describe("non-memory classes", func() {
		It("classifies a data-processing instruction as InstOnly", func() {
			// ADD R0, R1, R2 (cond=E, data-processing, register form).
			inst := d.DecodeWord(0xE0810002)
			Expect(inst.Category).To(Equal(armdecode.CategoryInstOnly))
		})

		It("classifies a branch as InstOnly", func() {
			inst := d.DecodeWord(0xEA000000)
			Expect(inst.Category).To(Equal(armdecode.CategoryInstOnly))
		})
	})
})
