// Package vector assembles extracted features into the fixed-order numeric
// vector the classifier was trained on.
package vector

import (
	"errors"
	"fmt"
	"math"

	"github.com/Bahjat/phishguard/backend/internal/content"
	"github.com/Bahjat/phishguard/backend/internal/lexical"
	"github.com/Bahjat/phishguard/backend/internal/platform/errs"
	"github.com/Bahjat/phishguard/backend/internal/tld"
)

// ErrAssembly marks a broken contract between extractors and the assembler.
var ErrAssembly = errors.New("feature vector assembly")

// baseNames is the training order of the non-TLD columns. Do not reorder.
var baseNames = []string{
	"URLSimilarityIndex",
	"CharContinuationRate",
	"URLCharProb",
	"LetterRatioInURL",
	"DegitRatioInURL",
	"NoOfOtherSpecialCharsInURL",
	"SpacialCharRatioInURL",
	"IsHTTPS",
	"HasTitle",
	"DomainTitleMatchScore",
	"URLTitleMatchScore",
	"HasFavicon",
	"Robots",
	"IsResponsive",
	"HasDescription",
	"HasSocialNet",
	"HasSubmitButton",
	"HasHiddenFields",
	"Pay",
	"HasCopyrightInfo",
	"NoOfJS",
	"NoOfSelfRef",
}

// BaseWidth is the number of non-TLD columns.
const BaseWidth = 22

// Assembler builds vectors whose TLD segment matches one encoder.
type Assembler struct {
	enc *tld.Encoder
}

// NewAssembler returns an Assembler for enc.
func NewAssembler(enc *tld.Encoder) *Assembler {
	return &Assembler{enc: enc}
}

// Width is the full vector width: 22 base columns plus the TLD segment.
func (a *Assembler) Width() int {
	return BaseWidth + a.enc.Width()
}

// FeatureNames returns the column names in vector order.
func (a *Assembler) FeatureNames() []string {
	names := make([]string, 0, a.Width())
	names = append(names, baseNames...)
	return append(names, a.enc.FeatureNames()...)
}

// EncodeTLD one-hot encodes t with the assembler's encoder.
func (a *Assembler) EncodeTLD(t string) []float64 {
	return a.enc.Encode(t)
}

// Assemble concatenates the base features and tldVec. It fails with an
// errs.Internal AppError wrapping ErrAssembly if tldVec is not a valid
// one-hot segment for the encoder or a base value is not finite.
func (a *Assembler) Assemble(s lexical.StructuralFeatures, c content.Features, tldVec []float64) ([]float64, error) {
	if len(tldVec) != a.enc.Width() {
		return nil, assemblyError(fmt.Errorf("%w: TLD segment width %d, want %d", ErrAssembly, len(tldVec), a.enc.Width()))
	}
	ones := 0
	for i, v := range tldVec {
		switch v {
		case 0:
		case 1:
			ones++
		default:
			return nil, assemblyError(fmt.Errorf("%w: TLD column %d holds %v", ErrAssembly, i, v))
		}
	}
	if ones > 1 {
		return nil, assemblyError(fmt.Errorf("%w: TLD segment has %d hot columns", ErrAssembly, ones))
	}

	base := []float64{
		s.URLSimilarityIndex,
		s.CharContinuationRate,
		s.URLCharProb,
		s.LetterRatio,
		s.DigitRatio,
		float64(s.NoOfOtherSpecialChars),
		s.SpecialCharRatio,
		float64(s.IsHTTPS),
		float64(c.HasTitle),
		c.DomainTitleMatch,
		c.URLTitleMatch,
		float64(c.HasFavicon),
		float64(c.Robots),
		float64(c.IsResponsive),
		float64(c.HasDescription),
		float64(c.HasSocialNet),
		float64(c.HasSubmitButton),
		float64(c.HasHiddenFields),
		float64(c.Pay),
		float64(c.HasCopyrightInfo),
		float64(c.NoOfJS),
		float64(c.NoOfSelfRef),
	}
	if len(base) != BaseWidth {
		return nil, assemblyError(fmt.Errorf("%w: %d base columns, want %d", ErrAssembly, len(base), BaseWidth))
	}
	for i, v := range base {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, assemblyError(fmt.Errorf("%w: %s is %v", ErrAssembly, baseNames[i], v))
		}
	}

	vec := make([]float64, 0, BaseWidth+len(tldVec))
	vec = append(vec, base...)
	return append(vec, tldVec...), nil
}

func assemblyError(cause error) error {
	return &errs.AppError{
		Kind:    errs.Internal,
		Message: "Internal error while building the feature vector.",
		Cause:   cause,
	}
}
