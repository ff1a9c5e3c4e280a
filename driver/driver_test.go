package driver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armcachesim/armdecode"
	"github.com/sarchlab/armcachesim/cache"
	"github.com/sarchlab/armcachesim/driver"
)

func le(word uint32) []byte {
	return []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
}

// nopInjector satisfies driver.Injector without arming anything.
type nopInjector struct{ calls int }

func (n *nopInjector) NotifyInstruction(insnCount uint64) { n.calls++ }

var _ = Describe("Driver", func() {
	var h *cache.Hierarchy
	var inj *nopInjector

	BeforeEach(func() {
		h, _ = cache.NewHierarchy(cache.DefaultIConfig(), cache.DefaultDConfig(), cache.DefaultL2Config())
		inj = &nopInjector{}
	})

	Describe("ExecuteInstruction", func() {
		It("rejects a non-4-byte word", func() {
			d := driver.New(h, driver.TextRange{Start: 0, End: 0x1000}, nil, inj)
			_, err := d.ExecuteInstruction(0x100, []byte{0x01, 0x02})
			Expect(err).To(HaveOccurred())
		})

		It("only counts instructions inside .text", func() {
			d := driver.New(h, driver.TextRange{Start: 0x1000, End: 0x2000}, nil, inj)

			_, err := d.ExecuteInstruction(0x500, le(0xE0810002)) // outside .text
			Expect(err).ToNot(HaveOccurred())
			Expect(d.InsnCount()).To(Equal(uint64(0)))

			_, err = d.ExecuteInstruction(0x1500, le(0xE0810002)) // inside .text
			Expect(err).ToNot(HaveOccurred())
			Expect(d.InsnCount()).To(Equal(uint64(1)))
		})

		It("notifies the injector once per in-.text instruction", func() {
			d := driver.New(h, driver.TextRange{Start: 0, End: 0x1000}, nil, inj)
			d.ExecuteInstruction(0x100, le(0xE0810002))
			d.ExecuteInstruction(0x104, le(0xE0810002))
			Expect(inj.calls).To(Equal(2))
		})

		It("invalidates the I-cache on ICIALLU", func() {
			d := driver.New(h, driver.TextRange{Start: 0, End: 0x10000}, nil, inj)

			for i := 0; i < 10; i++ {
				addr := uint64(i) * 32 // distinct I-cache rows, same tag
				d.ExecuteInstruction(addr, le(0xE0810002))
			}
			Expect(h.I.Stats().CompulsoryMisses).To(Equal(uint64(10)))

			d.ExecuteInstruction(0x20000, le(0xEE071E15)) // ICIALLU

			// Every previously-loaded address is a compulsory miss again.
			for i := 0; i < 10; i++ {
				addr := uint64(i) * 32
				Expect(h.I.Load(addr)).To(Equal(cache.Miss))
			}
		})

		It("invalidates a D-cache block on DCISW", func() {
			readReg := func(reg uint8) uint32 {
				// Set=5, Way=0 packed into the CP15 register layout —
				// way 0 is where the invalid-slot-first fill lands on an
				// otherwise-empty row.
				return uint32(5) << 4
			}
			d := driver.New(h, driver.TextRange{Start: 0, End: 0x10000}, readReg, inj)

			// Fill D-cache row 5, way 0 (invalid-slot preference always
			// fills way 0 first on an empty row).
			h.D.Load(uint64(5) << 5)
			Expect(h.D.IsBlockValid(5, 0)).To(BeTrue())

			d.ExecuteInstruction(0x100, le(0xEE071E56)) // DCISW

			Expect(h.D.IsBlockValid(5, 0)).To(BeFalse())
		})
	})

	Describe("Access", func() {
		It("routes a load to the D-cache and counts it", func() {
			d := driver.New(h, driver.TextRange{Start: 0x8000, End: 0x9000}, nil, inj)
			inst := &armdecode.Instruction{Category: armdecode.CategoryRegular, Direction: armdecode.DirLoad}

			d.Access(inst, 0x2000)
			Expect(d.LoadCount()).To(Equal(uint64(1)))
			Expect(d.StoreCount()).To(Equal(uint64(0)))
		})

		It("skips an access that falls inside .text", func() {
			d := driver.New(h, driver.TextRange{Start: 0x1000, End: 0x2000}, nil, inj)
			inst := &armdecode.Instruction{Category: armdecode.CategoryRegular, Direction: armdecode.DirLoad}

			d.Access(inst, 0x1500)
			Expect(d.LoadCount()).To(Equal(uint64(0)))
		})

		It("counts both sides of a swap instruction", func() {
			d := driver.New(h, driver.TextRange{Start: 0, End: 0}, nil, inj)
			inst := &armdecode.Instruction{Category: armdecode.CategorySync, Direction: armdecode.DirLoadStore}

			d.Access(inst, 0x4000)
			Expect(d.LoadCount()).To(Equal(uint64(1)))
			Expect(d.StoreCount()).To(Equal(uint64(1)))
		})

		It("does nothing for an instruction-only category", func() {
			d := driver.New(h, driver.TextRange{Start: 0, End: 0}, nil, inj)
			inst := &armdecode.Instruction{Category: armdecode.CategoryInstOnly}

			d.Access(inst, 0x4000)
			Expect(d.LoadCount()).To(Equal(uint64(0)))
			Expect(d.StoreCount()).To(Equal(uint64(0)))
		})
	})
})
