package core

// Sampler provides uniform random values for rendering algorithms.
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float32
	Get2D() Vec2
	Get3D() Vec3
}

// PCG is a small hash-based generator with a single 32-bit word of state.
// Each path owns exactly one PCG; two paths never share one.
type PCG struct {
	state uint32
}

// NewPCG creates a generator seeded from a pixel index and a per-pixel
// sample index, so every pixel and every frame draws from an independent
// stream.
func NewPCG(pixelIndex, sampleIndex uint32) *PCG {
	return &PCG{state: seedHash(pixelIndex ^ seedHash(sampleIndex))}
}

// seedHash decorrelates consecutive integer seeds (Wang hash)
func seedHash(v uint32) uint32 {
	v = (v ^ 61) ^ (v >> 16)
	v *= 9
	v ^= v >> 4
	v *= 0x27d4eb2d
	v ^= v >> 15
	return v
}

// nextUint32 advances the state and returns a well-mixed 32-bit word
func (p *PCG) nextUint32() uint32 {
	p.state = p.state*747796405 + 2891336453
	word := ((p.state >> ((p.state >> 28) + 4)) ^ p.state) * 277803737
	return (word >> 22) ^ word
}

// Get1D returns a uniform float32 in [0, 1)
func (p *PCG) Get1D() float32 {
	// 24 mantissa bits keep the result strictly below 1
	return float32(p.nextUint32()>>8) * (1.0 / (1 << 24))
}

// Get2D returns two uniform values in [0, 1)
func (p *PCG) Get2D() Vec2 {
	return NewVec2(p.Get1D(), p.Get1D())
}

// Get3D returns three uniform values in [0, 1)
func (p *PCG) Get3D() Vec3 {
	return NewVec3(p.Get1D(), p.Get1D(), p.Get1D())
}
