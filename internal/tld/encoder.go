package tld

// Encoder one-hot encodes TLDs against a Registry using the drop-first scheme:
// registry entry 0 is the implicit baseline and maps to the all-zero vector,
// entry i (i >= 1) sets column i-1. A TLD missing from the registry also maps
// to the all-zero vector, which is how the classifier saw unseen categories
// at training time.
type Encoder struct {
	reg *Registry
}

// NewEncoder returns an Encoder over reg.
func NewEncoder(reg *Registry) *Encoder {
	return &Encoder{reg: reg}
}

// Width is the length of every encoded vector: registry size minus the baseline.
func (e *Encoder) Width() int {
	return e.reg.Len() - 1
}

// Index returns the column set for t, or -1 when t encodes to all zeros.
func (e *Encoder) Index(t string) int {
	pos := e.reg.Position(t)
	if pos <= 0 {
		return -1
	}
	return pos - 1
}

// Encode returns a fresh one-hot vector for t.
func (e *Encoder) Encode(t string) []float64 {
	vec := make([]float64, e.Width())
	if i := e.Index(t); i >= 0 {
		vec[i] = 1
	}
	return vec
}

// FeatureNames returns the column names in vector order, e.g. "TLD_com".
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for i := 1; i < e.reg.Len(); i++ {
		names = append(names, "TLD_"+e.reg.At(i))
	}
	return names
}

// Registry returns the registry backing the encoder.
func (e *Encoder) Registry() *Registry {
	return e.reg
}
