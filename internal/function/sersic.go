package function

import "math"

const (
	sersicName     = "Sersic-1D"
	coreSersicName = "Core-Sersic-1D"
)

// MacArthur, Courteau & Holtzman (2003) polynomial for small n
var bnSmallN = [5]float64{0.01945, -0.8902, 10.95, -19.67, 13.43}

// minCoreRadius keeps the core-Sersic inner power law finite at r = 0
const minCoreRadius = 1e-10

// CalculateBn returns the Sersic b_n for index n, so that r_e encloses half
// the total light. Uses Ciotti & Bertin (1999) for n > 0.36.
func CalculateBn(n float64) float64 {
	n2 := n * n
	if n > 0.36 {
		return 2*n - 0.333333333333333 + 0.009876543209876543/n +
			0.0018028610621203215/n2 + 0.00011409410586365319/(n2*n) -
			7.1510122958919723e-05/(n2*n2)
	}
	c := bnSmallN
	return c[0] + c[1]*n + c[2]*n2 + c[3]*n2*n + c[4]*n2*n2
}

// Sersic is I(r) = I_e exp(-b_n [(r/r_e)^(1/n) - 1])
type Sersic struct {
	base
	n, ie, re, bn float64
}

// NewSersic returns a Sersic-1D component
func NewSersic() Function {
	return &Sersic{base: newBase(sersicName, "n", "mu_e", "r_e")}
}

func (f *Sersic) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.n = f.params[0]
	f.ie = f.intensity(f.params[1])
	f.re = f.params[2]
	f.bn = CalculateBn(f.n)
}

func (f *Sersic) Value(x float64) float64 {
	r := math.Abs(x - f.x0)
	return f.ie * math.Exp(-f.bn*(math.Pow(r/f.re, 1/f.n)-1))
}

// CoreSersic is the Graham et al. (2003) core-Sersic profile: a Sersic outer
// part joined at r_b to an inner power law of slope gamma. mu_b is the
// surface brightness at the break.
type CoreSersic struct {
	base
	n, re, rb, alpha, gamma float64
	bn, iPrime              float64
}

// NewCoreSersic returns a Core-Sersic-1D component
func NewCoreSersic() Function {
	return &CoreSersic{base: newBase(coreSersicName, "n", "mu_b", "r_e", "r_b", "alpha", "gamma")}
}

func (f *CoreSersic) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.n = f.params[0]
	ib := f.intensity(f.params[1])
	f.re = f.params[2]
	f.rb = f.params[3]
	f.alpha = f.params[4]
	f.gamma = f.params[5]

	f.bn = CalculateBn(f.n)
	f.iPrime = ib * math.Pow(2, -f.gamma/f.alpha) *
		math.Exp(f.bn*math.Pow(math.Pow(2, 1/f.alpha)*f.rb/f.re, 1/f.n))
}

func (f *CoreSersic) Value(x float64) float64 {
	r := math.Max(math.Abs(x-f.x0), minCoreRadius)
	inner := math.Pow(1+math.Pow(f.rb/r, f.alpha), f.gamma/f.alpha)
	outer := math.Exp(-f.bn * math.Pow((math.Pow(r, f.alpha)+math.Pow(f.rb, f.alpha))/math.Pow(f.re, f.alpha), 1/(f.alpha*f.n)))
	return f.iPrime * inner * outer
}
