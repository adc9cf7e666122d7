package analysis_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/okvist/raylab/internal/analysis"
	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/trace"
)

func build(source float64, b optics.Bundle, elems []optics.Element, scr *optics.Screen) optics.System {
	GinkgoHelper()
	sys, err := optics.Build(source, b, elems, scr)
	Expect(err).NotTo(HaveOccurred())
	return sys
}

var _ = Describe("Analyze", func() {
	var opt analysis.Options

	BeforeEach(func() {
		opt = analysis.Options{}
	})

	Describe("focal planes", func() {
		It("reports a single lens focal plane at position + f", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 1}},
				[]optics.Element{optics.Lens("L", 10, 5)}, nil)

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.FocalPlanes).To(HaveLen(1))
			Expect(fs.FocalPlanes[0].Z).To(BeNumerically("~", 15, 1e-9))
			Expect(fs.FocalPlanes[0].Lens).To(Equal(0))
			Expect(fs.FocalPlanes[0].Label).To(Equal("L"))
		})

		It("is independent of the entrance heights", func() {
			for _, heights := range [][]float64{
				{-1, 1},
				{-3, 0.5, 2},
				{0.1, 0.2, 0.3, 0.4},
			} {
				sys := build(0, optics.Bundle{Heights: heights},
					[]optics.Element{optics.Lens("L", 10, 5)}, nil)
				fs := analysis.Analyze(trace.Run(sys), opt)
				Expect(fs.FocalPlanes).To(HaveLen(1))
				Expect(fs.FocalPlanes[0].Z).To(BeNumerically("~", 15, 1e-9))
			}
		})

		It("skips diverging lenses", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 1}},
				[]optics.Element{optics.Lens("L", 10, -5)}, &optics.Screen{Position: 30})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.FocalPlanes).To(BeEmpty())
		})

		It("sees through an aperture between lens and focus", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 1}},
				[]optics.Element{
					optics.Lens("L", 10, 5),
					optics.Aperture("CA", 12, 3),
				}, &optics.Screen{Position: 30})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.FocalPlanes).To(HaveLen(1))
			Expect(fs.FocalPlanes[0].Z).To(BeNumerically("~", 15, 1e-9))
		})

		It("excludes blocked rays from the convergence test", func() {
			// The outer pair is stopped; the inner pair still converges.
			sys := build(0, optics.Bundle{Heights: []float64{-3, -1, 1, 3}},
				[]optics.Element{
					optics.Aperture("CA", 2, 2),
					optics.Lens("L", 10, 5),
				}, &optics.Screen{Position: 30})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.FocalPlanes).To(HaveLen(1))
			Expect(fs.FocalPlanes[0].Z).To(BeNumerically("~", 15, 1e-9))
		})

		It("reports nothing when every ray is blocked", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-3, 3}},
				[]optics.Element{
					optics.Aperture("CA", 2, 2),
					optics.Lens("L", 10, 5),
				}, &optics.Screen{Position: 30})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.FocalPlanes).To(BeEmpty())
			Expect(fs.Crossovers).To(BeEmpty())
		})

		It("needs at least two surviving rays", func() {
			sys := build(0, optics.Bundle{Heights: []float64{1}},
				[]optics.Element{optics.Lens("L", 10, 5)}, nil)

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.FocalPlanes).To(BeEmpty())
		})

		It("attributes one plane per converging lens", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 1}},
				[]optics.Element{
					optics.Lens("L1", 10, 5),
					optics.Lens("L2", 25, 5),
				}, &optics.Screen{Position: 40})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.FocalPlanes).To(HaveLen(2))
			Expect(fs.FocalPlanes[0].Lens).To(Equal(0))
			Expect(fs.FocalPlanes[0].Z).To(BeNumerically("~", 15, 1e-9))
			Expect(fs.FocalPlanes[1].Lens).To(Equal(1))
			Expect(fs.FocalPlanes[1].Z).To(BeNumerically("~", 35, 1e-9))
		})
	})

	Describe("crossovers", func() {
		It("finds the waist of a focused parallel bundle", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 1}},
				[]optics.Element{optics.Lens("L", 10, 5)}, &optics.Screen{Position: 30})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.Crossovers).To(HaveLen(1))
			Expect(fs.Crossovers[0].Z).To(BeNumerically("~", 15, 1e-9))
			Expect(fs.Crossovers[0].Segment).To(Equal(1))
		})

		It("interpolates the axis crossing inside a drift", func() {
			sys := build(0, optics.Bundle{Heights: []float64{1}, Angles: []float64{-0.1}},
				[]optics.Element{optics.Drift("D", 0, 20)}, nil)

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.Crossovers).To(HaveLen(1))
			Expect(fs.Crossovers[0].Z).To(BeNumerically("~", 10, 1e-9))
		})

		It("reports no crossover for a parallel bundle in a drift", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 0, 1}},
				[]optics.Element{optics.Drift("D", 0, 10)}, nil)

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.Crossovers).To(BeEmpty())
			Expect(fs.FocalPlanes).To(BeEmpty())
		})

		It("orders repeated waists by position", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 1}},
				[]optics.Element{
					optics.Lens("L1", 10, 5),
					optics.Lens("L2", 25, 5),
				}, &optics.Screen{Position: 40})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.Crossovers).To(HaveLen(2))
			Expect(fs.Crossovers[0].Z).To(BeNumerically("~", 15, 1e-9))
			Expect(fs.Crossovers[1].Z).To(BeNumerically("~", 35, 1e-9))
		})

		It("excludes blocked rays from the envelope", func() {
			// Only the outer ray would cross; once it is stopped there is no
			// crossover left to report.
			sys := build(0, optics.Bundle{Heights: []float64{0, 3}, Angles: []float64{-0.1}},
				[]optics.Element{optics.Aperture("CA", 5, 2)}, &optics.Screen{Position: 40})

			fs := analysis.Analyze(trace.Run(sys), opt)

			Expect(fs.Crossovers).To(BeEmpty())
		})
	})

	Describe("magnification", func() {
		It("reports -1 between 2f conjugate planes", func() {
			sys := build(0, optics.Bundle{Heights: []float64{1}},
				[]optics.Element{optics.Lens("L", 10, 5)}, &optics.Screen{Position: 20})

			res := trace.Run(sys)
			m := analysis.Mag(res, 0, 0, 20)

			Expect(m.Defined).To(BeTrue())
			Expect(m.Value).To(BeNumerically("~", -1, 1e-9))
		})

		It("is unity across a bare drift", func() {
			sys := build(0, optics.Bundle{Heights: []float64{2}},
				[]optics.Element{optics.Drift("D", 0, 10)}, nil)

			m := analysis.Mag(trace.Run(sys), 0, 0, 10)

			Expect(m.Defined).To(BeTrue())
			Expect(m.Value).To(BeNumerically("~", 1, 1e-12))
		})

		It("is undefined for a blocked reference ray", func() {
			sys := build(0, optics.Bundle{Heights: []float64{3}},
				[]optics.Element{optics.Aperture("CA", 5, 2)}, &optics.Screen{Position: 10})

			m := analysis.Mag(trace.Run(sys), 0, 0, 10)

			Expect(m.Defined).To(BeFalse())
		})

		It("is undefined for an on-axis object ray", func() {
			sys := build(0, optics.Bundle{Heights: []float64{0}},
				[]optics.Element{optics.Drift("D", 0, 10)}, nil)

			m := analysis.Mag(trace.Run(sys), 0, 0, 10)

			Expect(m.Defined).To(BeFalse())
		})

		It("is undefined outside the traced span", func() {
			sys := build(0, optics.Bundle{Heights: []float64{1}},
				[]optics.Element{optics.Drift("D", 0, 10)}, nil)

			m := analysis.Mag(trace.Run(sys), 0, 0, 50)

			Expect(m.Defined).To(BeFalse())
		})
	})

	Describe("idempotence", func() {
		It("returns identical feature sets for an unmodified trace", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-1, 1}, Angles: []float64{-0.01, 0, 0.01}},
				[]optics.Element{
					optics.Lens("CL1", 18, 6.3),
					optics.Lens("CL3", 40, 8),
					optics.Lens("CM", 73, 10),
				}, &optics.Screen{Position: 100})

			res := trace.Run(sys)

			Expect(analysis.Analyze(res, opt)).To(Equal(analysis.Analyze(res, opt)))
		})
	})

	Describe("summary", func() {
		It("counts rays, blocked rays and features", func() {
			sys := build(0, optics.Bundle{Heights: []float64{-3, -1, 1, 3}},
				[]optics.Element{
					optics.Aperture("CA", 2, 2),
					optics.Lens("L", 10, 5),
				}, &optics.Screen{Position: 30})

			res := trace.Run(sys)
			fs := analysis.Analyze(res, opt)
			sum := analysis.Summary(res, fs)

			Expect(sum["rays"]).To(Equal(4.0))
			Expect(sum["rays_blocked"]).To(Equal(2.0))
			Expect(sum["crossovers"]).To(Equal(1.0))
			Expect(sum["focal_planes"]).To(Equal(1.0))
			Expect(sum).To(HaveKey("spot_final"))
			Expect(sum["envelope_min"]).To(BeNumerically("<=", sum["spot_final"]))
		})
	})
})
