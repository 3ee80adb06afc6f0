package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		Expect(GHz.Period()).To(Equal(VTime(1000)))
		Expect((2 * GHz).Period()).To(Equal(VTime(500)))
		Expect((3 * GHz).Period()).To(Equal(VTime(333)))
	})

	It("should panic on zero frequency", func() {
		var f Freq
		Expect(func() { f.Period() }).To(Panic())
	})

	It("should count cycles", func() {
		Expect(GHz.Cycle(5500)).To(Equal(uint64(5)))
	})

	It("should get this tick", func() {
		Expect(GHz.ThisTick(2000)).To(Equal(VTime(2000)))
		Expect(GHz.ThisTick(2001)).To(Equal(VTime(3000)))
		Expect(GHz.ThisTick(0)).To(Equal(VTime(0)))
	})

	It("should get the next tick", func() {
		Expect(GHz.NextTick(2000)).To(Equal(VTime(3000)))
		Expect(GHz.NextTick(2999)).To(Equal(VTime(3000)))
		Expect(GHz.NextTick(0)).To(Equal(VTime(1000)))
	})

	It("should get the n cycles later", func() {
		Expect(GHz.NCyclesLater(12, 2000)).To(Equal(VTime(14000)))
	})

	It("should get the n cycles later, if current time is not on a tick", func() {
		Expect(GHz.NCyclesLater(12, 2001)).To(Equal(VTime(15000)))
	})

	It("should convert to seconds", func() {
		Expect(VTime(2 * TicksPerSecond).InSec()).To(BeNumerically("~", 2.0))
	})
})
