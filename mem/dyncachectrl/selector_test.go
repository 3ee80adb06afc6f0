package dyncachectrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Selector", func() {
	It("should always select the direct path by default", func() {
		s := DirectOnly()

		Expect(s.Select(0)).To(Equal(PathDirect))
		Expect(s.Select(1 << 40)).To(Equal(PathDirect))
		Expect(s.Validate()).To(Succeed())
	})

	It("should follow the phases", func() {
		s := NewSelector(
			Phase{StartInst: 100, Path: PathCachedSmall},
			Phase{StartInst: 200, Path: PathCachedLarge},
			Phase{StartInst: 300, Path: PathDirect},
		)

		Expect(s.Select(0)).To(Equal(PathDirect))
		Expect(s.Select(99)).To(Equal(PathDirect))
		Expect(s.Select(100)).To(Equal(PathCachedSmall))
		Expect(s.Select(199)).To(Equal(PathCachedSmall))
		Expect(s.Select(200)).To(Equal(PathCachedLarge))
		Expect(s.Select(300)).To(Equal(PathDirect))
		Expect(s.Select(5000)).To(Equal(PathDirect))
	})

	It("should give the same answer for the same signal", func() {
		s := NewSelector(Phase{StartInst: 10, Path: PathCachedMedium})

		for i := uint64(0); i < 20; i++ {
			Expect(s.Select(i)).To(Equal(s.Select(i)))
		}
	})

	It("should not be changed by the caller's phase slice", func() {
		phases := []Phase{{StartInst: 10, Path: PathCachedMedium}}
		s := NewSelector(phases...)

		phases[0].Path = PathCachedLarge

		Expect(s.Select(10)).To(Equal(PathCachedMedium))
		Expect(s.Phases()).To(HaveLen(1))
	})

	It("should reject phases out of order", func() {
		s := NewSelector(
			Phase{StartInst: 100, Path: PathCachedSmall},
			Phase{StartInst: 100, Path: PathDirect},
		)

		Expect(s.Validate()).To(MatchError(ContainSubstring("phase 1")))
	})

	It("should reject unknown paths", func() {
		s := NewSelector(Phase{StartInst: 1, Path: PathID(9)})

		Expect(s.Validate()).To(MatchError(ContainSubstring("unknown path")))
	})
})

var _ = Describe("Path", func() {
	It("should classify paths", func() {
		Expect(ClassOf(PathDirect)).To(Equal(ClassDirect))
		Expect(ClassOf(PathCachedSmall)).To(Equal(ClassCached))
		Expect(ClassOf(PathCachedMedium)).To(Equal(ClassCached))
		Expect(ClassOf(PathCachedLarge)).To(Equal(ClassCached))
	})

	DescribeTable("transitions",
		func(from, to PathID, expected Transition) {
			Expect(TransitionOf(from, to)).To(Equal(expected))
		},
		Entry("no change", PathDirect, PathDirect, TransitionNone),
		Entry("same cache", PathCachedSmall, PathCachedSmall, TransitionNone),
		Entry("direct to cached",
			PathDirect, PathCachedMedium, TransitionDirectToCached),
		Entry("cached to direct",
			PathCachedLarge, PathDirect, TransitionCachedToDirect),
		Entry("resize", PathCachedSmall, PathCachedLarge, TransitionCachedResize),
	)

	It("should parse path names", func() {
		for _, p := range AllPaths() {
			parsed, err := ParsePathID(p.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(p))
		}

		p, err := ParsePathID(" Cached-Large ")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(PathCachedLarge))

		_, err = ParsePathID("l3")
		Expect(err).To(HaveOccurred())
	})
})
