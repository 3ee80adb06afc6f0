package dyncachectrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

func mockPort(mockCtrl *gomock.Controller, name string) *MockPort {
	p := NewMockPort(mockCtrl)
	p.EXPECT().Name().Return(name).AnyTimes()

	return p
}

var _ = Describe("Comp", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		signal     *MockSignalSource
		stats      *MockStatsSink
		topPort    *MockPort
		directPort *MockPort
		smallPort  *MockPort
		largePort  *MockPort
		builder    Builder
		ctrl       *Comp
	)

	build := func() {
		ctrl = builder.Build("Ctrl")
		ctrl.topPort = topPort
		ctrl.pathPorts[PathDirect] = directPort
		ctrl.pathPorts[PathCachedSmall] = smallPort
		ctrl.pathPorts[PathCachedLarge] = largePort
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		signal = NewMockSignalSource(mockCtrl)
		stats = NewMockStatsSink(mockCtrl)
		topPort = mockPort(mockCtrl, "Top")
		directPort = mockPort(mockCtrl, "Direct")
		smallPort = mockPort(mockCtrl, "Small")
		largePort = mockPort(mockCtrl, "Large")

		builder = MakeBuilder().
			WithEngine(timeTeller).
			WithSignalSource(signal).
			WithStatsSink(stats)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic if built without a signal source", func() {
		Expect(func() {
			MakeBuilder().WithEngine(timeTeller).Build("Ctrl")
		}).To(Panic())
	})

	It("should panic if built with an invalid selector", func() {
		Expect(func() {
			builder.WithSelector(NewSelector(
				Phase{StartInst: 10, Path: PathCachedSmall},
				Phase{StartInst: 5, Path: PathDirect},
			)).Build("Ctrl")
		}).To(Panic())
	})

	It("should register its ports", func() {
		c := builder.Build("Ctrl")

		Expect(c.GetPortByName("Top")).To(BeIdenticalTo(c.TopPort()))
		Expect(c.GetPortByName("Direct")).
			To(BeIdenticalTo(c.PathPort(PathDirect)))
		Expect(c.GetPortByName("CacheMedium")).
			To(BeIdenticalTo(c.PathPort(PathCachedMedium)))
		Expect(c.TopPort().Role()).To(Equal(sim.UpstreamFacing))
		Expect(c.PathPort(PathCachedLarge).Role()).
			To(Equal(sim.DownstreamFacing))
		Expect(c.State().Kind).To(Equal(StateIdle))
	})

	Context("with the direct-only policy", func() {
		BeforeEach(func() {
			build()
			signal.EXPECT().NumSimulatedInsts().Return(uint64(0)).AnyTimes()
		})

		It("should forward a request to the direct path", func() {
			req := mem.ReadReqBuilder{}.WithAddress(0x40).Build()
			directPort.EXPECT().Send(req).Return(true)

			Expect(ctrl.RecvMsg(topPort, req)).To(BeTrue())
			Expect(ctrl.State()).To(Equal(
				ControllerState{Kind: StateActive, Path: PathDirect}))
		})

		It("should hold a request the path refuses", func() {
			reqA := mem.ReadReqBuilder{}.WithAddress(0x40).Build()
			directPort.EXPECT().Send(reqA).Return(false)

			Expect(ctrl.RecvMsg(topPort, reqA)).To(BeTrue())
			Expect(ctrl.IsHoldingRequest()).To(BeTrue())

			directPort.EXPECT().Send(reqA).Return(true)
			ctrl.RecvRetry(directPort)

			Expect(ctrl.IsHoldingRequest()).To(BeFalse())
		})

		It("should reject while holding, and retry after the resend", func() {
			reqB := mem.ReadReqBuilder{}.WithAddress(0x40).Build()
			reqA := mem.WriteReqBuilder{}.
				WithAddress(0x80).
				WithData([]byte{1}).
				Build()

			directPort.EXPECT().Send(reqB).Return(false)
			Expect(ctrl.RecvMsg(topPort, reqB)).To(BeTrue())

			Expect(ctrl.RecvMsg(topPort, reqA)).To(BeFalse())

			directPort.EXPECT().Send(reqB).Return(true)
			topPort.EXPECT().SendRetry()
			ctrl.RecvRetry(directPort)

			Expect(ctrl.IsHoldingRequest()).To(BeFalse())
		})

		It("should keep holding if the resend is refused again", func() {
			req := mem.ReadReqBuilder{}.Build()
			directPort.EXPECT().Send(req).Return(false).Times(2)

			ctrl.RecvMsg(topPort, req)
			Expect(ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())).
				To(BeFalse())

			// No upstream retry while the slot is still taken.
			ctrl.RecvRetry(directPort)

			Expect(ctrl.IsHoldingRequest()).To(BeTrue())

			directPort.EXPECT().Send(req).Return(true)
			topPort.EXPECT().SendRetry()
			ctrl.RecvRetry(directPort)

			Expect(ctrl.IsHoldingRequest()).To(BeFalse())
		})

		It("should ignore a retry from another path", func() {
			req := mem.ReadReqBuilder{}.Build()
			directPort.EXPECT().Send(req).Return(false)
			ctrl.RecvMsg(topPort, req)

			ctrl.RecvRetry(smallPort)

			Expect(ctrl.IsHoldingRequest()).To(BeTrue())
		})

		It("should panic on a retry when nothing is held", func() {
			Expect(func() { ctrl.RecvRetry(directPort) }).To(Panic())
		})

		It("should panic on a response from the requester", func() {
			rsp := mem.WriteDoneRspBuilder{}.Build()
			Expect(func() { ctrl.RecvMsg(topPort, rsp) }).To(Panic())
		})

		It("should panic on a request from a path", func() {
			req := mem.ReadReqBuilder{}.Build()
			Expect(func() { ctrl.RecvMsg(directPort, req) }).To(Panic())
		})

		It("should forward responses", func() {
			rsp := mem.DataReadyRspBuilder{}.WithRspTo("1").Build()
			topPort.EXPECT().Send(rsp).Return(true)

			Expect(ctrl.RecvMsg(directPort, rsp)).To(BeTrue())
		})

		It("should retry paths whose responses were refused, in order", func() {
			rsp1 := mem.DataReadyRspBuilder{}.WithRspTo("1").Build()
			rsp2 := mem.WriteDoneRspBuilder{}.WithRspTo("2").Build()

			topPort.EXPECT().Send(rsp1).Return(false)
			Expect(ctrl.RecvMsg(directPort, rsp1)).To(BeFalse())
			Expect(ctrl.RecvMsg(smallPort, rsp2)).To(BeFalse())

			gomock.InOrder(
				directPort.EXPECT().SendRetry(),
				smallPort.EXPECT().SendRetry(),
			)
			ctrl.RecvRetry(topPort)
		})

		It("should ignore a stray flush completion", func() {
			ctrl.NotifyFlushComplete()

			Expect(ctrl.NumFlushes()).To(BeZero())
		})
	})

	Context("when leaving a cached path", func() {
		var (
			inst     uint64
			switches []PathSwitch
			flushes  []FlushRecord
		)

		BeforeEach(func() {
			inst = 0
			switches = nil
			flushes = nil

			builder = builder.WithSelector(NewSelector(
				Phase{StartInst: 0, Path: PathCachedSmall},
				Phase{StartInst: 100, Path: PathDirect},
			))
			signal.EXPECT().NumSimulatedInsts().
				DoAndReturn(func() uint64 { return inst }).
				AnyTimes()
		})

		JustBeforeEach(func() {
			build()
			ctrl.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
				switch ctx.Pos {
				case HookPosPathSwitch:
					switches = append(switches, ctx.Item.(PathSwitch))
				case HookPosFlushDone:
					flushes = append(flushes, ctx.Item.(FlushRecord))
				}
			}))
		})

		It("should flush, hold every request and retry once done", func() {
			req1 := mem.WriteReqBuilder{}.WithData([]byte{1}).Build()
			stats.EXPECT().RecordPathSwitch(PathDirect, PathCachedSmall, uint64(0))
			smallPort.EXPECT().Send(req1).Return(true)

			Expect(ctrl.RecvMsg(topPort, req1)).To(BeTrue())
			Expect(ctrl.State().Path).To(Equal(PathCachedSmall))

			inst = 150
			req2 := mem.ReadReqBuilder{}.Build()
			stats.EXPECT().RecordPathSwitch(PathCachedSmall, PathDirect, uint64(150))
			timeTeller.EXPECT().CurrentTime().Return(sim.VTime(1000))
			smallPort.EXPECT().
				Send(gomock.AssignableToTypeOf(&mem.FlushReq{})).
				Return(true)

			Expect(ctrl.RecvMsg(topPort, req2)).To(BeFalse())
			Expect(ctrl.State()).To(Equal(
				ControllerState{Kind: StateFlushPending, Path: PathDirect}))

			req3 := mem.ReadReqBuilder{}.Build()
			Expect(ctrl.RecvMsg(topPort, req3)).To(BeFalse())

			timeTeller.EXPECT().CurrentTime().Return(sim.VTime(6000))
			stats.EXPECT().RecordFlush(
				PathCachedSmall, sim.VTime(1000), sim.VTime(6000))
			topPort.EXPECT().SendRetry()

			ctrl.NotifyFlushComplete()

			Expect(ctrl.State()).To(Equal(
				ControllerState{Kind: StateActive, Path: PathDirect}))
			Expect(ctrl.NumFlushes()).To(Equal(uint64(1)))

			directPort.EXPECT().Send(req2).Return(true)
			Expect(ctrl.RecvMsg(topPort, req2)).To(BeTrue())

			Expect(switches).To(Equal([]PathSwitch{
				{From: PathDirect, To: PathCachedSmall, Inst: 0},
				{From: PathCachedSmall, To: PathDirect, Inst: 150},
			}))
			Expect(flushes).To(HaveLen(1))
			Expect(flushes[0].Duration()).To(Equal(sim.VTime(5000)))
		})

		It("should retry the originator when the flush completes within Send", func() {
			stats.EXPECT().RecordPathSwitch(gomock.Any(), gomock.Any(), gomock.Any()).
				AnyTimes()
			smallPort.EXPECT().Send(gomock.Any()).Return(true)
			ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())

			inst = 150
			timeTeller.EXPECT().CurrentTime().Return(sim.VTime(1000))
			timeTeller.EXPECT().CurrentTime().Return(sim.VTime(1000))
			stats.EXPECT().RecordFlush(
				PathCachedSmall, sim.VTime(1000), sim.VTime(1000))
			topPort.EXPECT().SendRetry()
			smallPort.EXPECT().
				Send(gomock.AssignableToTypeOf(&mem.FlushReq{})).
				DoAndReturn(func(sim.Msg) bool {
					ctrl.NotifyFlushComplete()
					return true
				})

			req := mem.ReadReqBuilder{}.Build()
			Expect(ctrl.RecvMsg(topPort, req)).To(BeFalse())
			Expect(ctrl.State()).To(Equal(
				ControllerState{Kind: StateActive, Path: PathDirect}))

			directPort.EXPECT().Send(req).Return(true)
			Expect(ctrl.RecvMsg(topPort, req)).To(BeTrue())
		})

		It("should panic if the cache refuses the flush", func() {
			stats.EXPECT().RecordPathSwitch(gomock.Any(), gomock.Any(), gomock.Any()).
				AnyTimes()
			smallPort.EXPECT().Send(gomock.Any()).Return(true)
			ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())

			inst = 150
			timeTeller.EXPECT().CurrentTime().Return(sim.VTime(1000))
			smallPort.EXPECT().Send(gomock.Any()).Return(false)

			Expect(func() {
				ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())
			}).To(Panic())
		})

		Context("without flush accounting", func() {
			BeforeEach(func() {
				builder = builder.WithAccountFlush(false)
			})

			It("should switch to the direct path right away", func() {
				stats.EXPECT().
					RecordPathSwitch(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(2)
				smallPort.EXPECT().Send(gomock.Any()).Return(true)
				ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())

				inst = 150
				req := mem.ReadReqBuilder{}.Build()
				directPort.EXPECT().Send(req).Return(true)

				Expect(ctrl.RecvMsg(topPort, req)).To(BeTrue())
				Expect(ctrl.NumFlushes()).To(BeZero())
			})
		})
	})

	Context("when resizing the cache", func() {
		BeforeEach(func() {
			builder = builder.WithSelector(NewSelector(
				Phase{StartInst: 0, Path: PathCachedSmall},
				Phase{StartInst: 100, Path: PathCachedLarge},
			))
		})

		It("should not flush", func() {
			build()

			signal.EXPECT().NumSimulatedInsts().Return(uint64(0))
			stats.EXPECT().RecordPathSwitch(PathDirect, PathCachedSmall, uint64(0))
			smallPort.EXPECT().Send(gomock.Any()).Return(true)
			ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())

			signal.EXPECT().NumSimulatedInsts().Return(uint64(100))
			stats.EXPECT().
				RecordPathSwitch(PathCachedSmall, PathCachedLarge, uint64(100))
			largePort.EXPECT().Send(gomock.Any()).Return(true)

			Expect(ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())).
				To(BeTrue())
			Expect(ctrl.State().Path).To(Equal(PathCachedLarge))
		})
	})

	Context("stat dumps", func() {
		It("should dump once per interval passed", func() {
			builder = builder.WithStatDumpInterval(1000)
			build()

			var dumps []uint64
			ctrl.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
				if ctx.Pos == HookPosStatDump {
					dumps = append(dumps, ctx.Item.(uint64))
				}
			}))

			directPort.EXPECT().Send(gomock.Any()).Return(true).AnyTimes()

			for _, inst := range []uint64{500, 1000, 1001, 1500, 3500, 3600} {
				signal.EXPECT().NumSimulatedInsts().Return(inst)
				ctrl.RecvMsg(topPort, mem.ReadReqBuilder{}.Build())
			}

			Expect(dumps).To(Equal([]uint64{1001, 3500, 3600}))
		})
	})
})
