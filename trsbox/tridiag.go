// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trsbox

// reflector is one Householder similarity transform Pk = I - 2vvᵀ applied to
// coordinates k+1..n-1 during tridiagonalization. v is stored at its natural
// length (n-1-k); the design notes permit splitting this storage out of the
// matrix rather than aliasing it in the lower triangle, which is what this
// implementation does for clarity.
type reflector struct {
	k int
	v []float64
}

// tridiagonalize reduces the n×n row-major symmetric matrix h to tridiagonal
// form T = Qᵀ h Q by Householder similarity transforms, returning the
// diagonal, the n-1 off-diagonal entries, and the reflectors used so that
// callers can transform vectors into and out of the tridiagonal basis via
// applyForward/applyBackward. h is not modified.
func tridiagonalize(n int, h []float64) (diag, off []float64, refs []reflector) {
	diag = make([]float64, n)
	if n <= 1 {
		if n == 1 {
			diag[0] = h[0]
		}
		return diag, nil, nil
	}
	off = make([]float64, n-1)

	a := make([]float64, n*n)
	copy(a, h[:n*n])

	refs = make([]reflector, 0, n-2)
	for k := 0; k < n-2; k++ {
		m := n - k - 1
		x := make([]float64, m)
		for i := 0; i < m; i++ {
			x[i] = a[(k+1+i)*n+k]
		}
		alpha := dnrm2(x)
		if alpha == 0 {
			off[k] = 0
			continue
		}
		if x[0] > 0 {
			alpha = -alpha
		}
		off[k] = alpha

		v := make([]float64, m)
		copy(v, x)
		v[0] -= alpha
		vnorm := dnrm2(v)
		if vnorm == 0 {
			continue
		}
		for i := range v {
			v[i] /= vnorm
		}

		// p = 2*Asub*v, w = p - (vᵀp)v, Asub -= v*wᵀ + w*vᵀ
		p := make([]float64, m)
		for i := 0; i < m; i++ {
			row := a[(k+1+i)*n+(k+1) : (k+1+i)*n+(k+1)+m]
			p[i] = two * ddot(m, row, v)
		}
		pv := ddot(m, p, v)
		w := make([]float64, m)
		for i := range w {
			w[i] = p[i] - pv*v[i]
		}
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				a[(k+1+i)*n+(k+1+j)] -= v[i]*w[j] + w[i]*v[j]
			}
		}
		for i := 0; i < m; i++ {
			a[(k+1+i)*n+k] = 0
			a[k*n+(k+1+i)] = 0
		}
		a[(k+1)*n+k] = alpha
		a[k*n+(k+1)] = alpha

		refs = append(refs, reflector{k: k, v: v})
	}

	for i := 0; i < n; i++ {
		diag[i] = a[i*n+i]
	}
	off[n-2] = a[(n-1)*n+(n-2)]
	return diag, off, refs
}

// applyForward transforms y into the tridiagonal basis, y ← Qᵀy, by applying
// the reflectors in construction order.
func applyForward(refs []reflector, y []float64) {
	for _, r := range refs {
		sub := y[r.k+1 : r.k+1+len(r.v)]
		c := two * ddot(len(r.v), r.v, sub)
		if c != 0 {
			daxpy(len(r.v), -c, r.v, sub)
		}
	}
}

// applyBackward transforms y out of the tridiagonal basis, y ← Qy, by
// applying the reflectors in reverse construction order.
func applyBackward(refs []reflector, y []float64) {
	for i := len(refs) - 1; i >= 0; i-- {
		r := refs[i]
		sub := y[r.k+1 : r.k+1+len(r.v)]
		c := two * ddot(len(r.v), r.v, sub)
		if c != 0 {
			daxpy(len(r.v), -c, r.v, sub)
		}
	}
}
