package locus_test

import (
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tfsim/internal/locus"
	"github.com/san-kum/tfsim/internal/lti"
)

func plant(zeros, poles []float64, k float64) lti.System {
	sys, err := lti.FromZPK(zeros, poles, k)
	Expect(err).NotTo(HaveOccurred())
	return sys
}

var _ = Describe("Trace", func() {
	var rf lti.RootFinder

	BeforeEach(func() {
		rf = lti.Companion{}
	})

	Context("with a first-order plant", func() {
		It("moves the single pole left as the gain grows", func() {
			l, err := locus.Trace(plant(nil, []float64{-1}, 1), locus.GainGrid(5, 11, false), rf)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Branches).To(HaveLen(1))

			b := l.Branches[0]
			Expect(b).To(HaveLen(11))
			for i, p := range b {
				Expect(real(p.Root)).To(BeNumerically("~", -1-p.Gain, 1e-9))
				if i > 0 {
					Expect(real(p.Root)).To(BeNumerically("<", real(b[i-1].Root)))
				}
			}
		})
	})

	Context("with two real poles", func() {
		var l *locus.Locus

		BeforeEach(func() {
			var err error
			l, err = locus.Trace(plant(nil, []float64{-1, -2}, 1), locus.GainGrid(10, 101, false), rf)
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts each branch at an open-loop pole", func() {
			Expect(l.Branches).To(HaveLen(2))
			Expect(real(l.Branches[0].Start().Root)).To(BeNumerically("~", -1, 1e-9))
			Expect(real(l.Branches[1].Start().Root)).To(BeNumerically("~", -2, 1e-9))
		})

		It("keeps every point on the characteristic equation", func() {
			for _, b := range l.Branches {
				Expect(b).To(HaveLen(101))
				for _, p := range b {
					char := lti.Poly{1, 3, 2 + p.Gain}
					Expect(cmplx.Abs(char.EvalComplex(p.Root))).To(BeNumerically("<", 1e-6))
				}
			}
		})

		It("splits into a conjugate pair past the breakaway point", func() {
			a, b := l.Branches[0].End().Root, l.Branches[1].End().Root
			Expect(real(a)).To(BeNumerically("~", -1.5, 1e-9))
			Expect(real(b)).To(BeNumerically("~", -1.5, 1e-9))
			Expect(imag(a) * imag(b)).To(BeNumerically("<", 0))
			Expect(math.Abs(imag(a))).To(BeNumerically("~", math.Sqrt(9.75), 1e-6))
		})

		It("moves each branch continuously", func() {
			for _, b := range l.Branches {
				for i := 1; i < len(b); i++ {
					Expect(cmplx.Abs(b[i].Root - b[i-1].Root)).To(BeNumerically("<", 0.5))
				}
			}
		})
	})

	Context("with degenerate input", func() {
		It("returns no trajectories for a static gain", func() {
			l, err := locus.Trace(lti.Unity(), []float64{0, 1, 2}, rf)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Empty()).To(BeTrue())
		})

		It("rejects an empty gain grid", func() {
			_, err := locus.Trace(plant(nil, []float64{-1}, 1), nil, rf)
			Expect(err).To(MatchError(locus.ErrGainGrid))
		})

		It("rejects non-finite gains", func() {
			_, err := locus.Trace(plant(nil, []float64{-1}, 1), []float64{0, math.Inf(1)}, rf)
			Expect(err).To(MatchError(locus.ErrGainGrid))
		})
	})
})

var _ = Describe("GainGrid", func() {
	It("spans zero to kmax linearly", func() {
		g := locus.GainGrid(4, 5, false)
		Expect(g).To(Equal([]float64{0, 1, 2, 3, 4}))
	})

	It("ends at kmax when log spaced", func() {
		g := locus.GainGrid(100, 6, true)
		Expect(g).To(HaveLen(6))
		Expect(g[0]).To(BeZero())
		Expect(g[1]).To(BeNumerically("~", 0.1, 1e-12))
		Expect(g[5]).To(BeNumerically("~", 100, 1e-9))
	})

	It("returns nil for an empty request", func() {
		Expect(locus.GainGrid(1, 0, false)).To(BeNil())
		Expect(locus.GainGrid(-1, 5, false)).To(BeNil())
	})
})
