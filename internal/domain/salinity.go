package domain

import "math"

// Practical Salinity Scale 1978 (UNESCO Tech. Paper 44, 1983) with the
// Hill et al. (1986) extension below SP=2.
const (
	// standardConductivity is C(35, 15, 0) in S/m.
	standardConductivity = 4.2914

	// t68Factor converts ITS-90 to IPTS-68, which the PSS-78 fits use.
	t68Factor = 1.00024

	pssK = 0.0162
)

var (
	pssA = [6]float64{0.0080, -0.1692, 25.3851, 14.0941, -7.0261, 2.7081}
	pssB = [6]float64{0.0005, -0.0056, -0.0066, -0.0375, 0.0636, -0.0144}
	pssC = [5]float64{0.6766097, 2.00564e-2, 1.104259e-4, -6.9698e-7, 1.0031e-9}
	pssD = [4]float64{3.426e-2, 4.464e-4, 4.215e-1, -3.107e-3}
	pssE = [3]float64{2.070e-5, -6.370e-10, 3.989e-15}
)

// SalinityFromConductivity returns practical salinity (PSU) for conductivity
// cond in S/m, in-situ temperature temp in ITS-90 degrees Celsius and sea
// pressure in dbar. All inputs must be non-negative. The result is not rounded.
func SalinityFromConductivity(cond, temp, pressure float64) (float64, error) {
	// The negated comparisons also reject NaN.
	switch {
	case !(cond >= 0):
		return 0, domainErrorf("conductivity must be non-negative, got %g", cond)
	case !(temp >= 0):
		return 0, domainErrorf("temperature must be non-negative, got %g", temp)
	case !(pressure >= 0):
		return 0, domainErrorf("pressure must be non-negative, got %g", pressure)
	}

	t68 := temp * t68Factor
	ft68 := (t68 - 15) / (1 + pssK*(t68-15))

	r := cond / standardConductivity
	rt := pssC[0] + t68*(pssC[1]+t68*(pssC[2]+t68*(pssC[3]+t68*pssC[4])))
	rp := 1 + pressure*(pssE[0]+pressure*(pssE[1]+pressure*pssE[2]))/
		(1+pssD[0]*t68+pssD[1]*t68*t68+(pssD[2]+pssD[3]*t68)*r)
	rT := r / (rp * rt)
	x := math.Sqrt(rT)

	sp := pssA[0] + x*(pssA[1]+x*(pssA[2]+x*(pssA[3]+x*(pssA[4]+x*pssA[5])))) +
		ft68*(pssB[0]+x*(pssB[1]+x*(pssB[2]+x*(pssB[3]+x*(pssB[4]+x*pssB[5])))))

	if sp < 2 {
		hx := 400 * rT
		hy := 100 * rT
		sp = sp - pssA[0]/(1+1.5*hx+hx*hx) - pssB[0]*ft68/(1+math.Sqrt(hy)+hy+hy*math.Sqrt(hy))
	}

	return math.Max(sp, 0), nil
}
