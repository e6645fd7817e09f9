// Package preproc implements the preprocessor pipeline of component 4:
// per-chunk invertible transforms applied before compression to improve
// compressibility. Each filter has the signature (in, in_len) -> (out,
// out_len, ok) per spec.md §4.5; ok=false means "no benefit, fall back".
// Filters run in the fixed order Dispack, E8E9, DICT, LZP, Delta2, and
// each commits its one flag bit in the preprocessor header (spec.md §3)
// only when it actually helped.
package preproc

import "fmt"

// Kind identifies a preprocessor; bit positions match the preprocessor
// header flags byte in spec.md §3 exactly (bit 0, FlagCompressed, is
// "compressed"; neither a filter nor the pipeline worker sets it).
type Kind uint8

const (
	FlagCompressed Kind = 1 << 0
	FlagDelta2     Kind = 1 << 1
	FlagLZP        Kind = 1 << 2
	FlagDICT       Kind = 1 << 3
	FlagDispack    Kind = 1 << 4
	FlagE8E9       Kind = 1 << 5
	// bits 6-7 (packjpg/wavpack lossless) are named by the spec but out of
	// scope (lossy-media filters excluded by Non-goals).
)

// Filter is the uniform interface every preprocessor implements.
type Filter interface {
	// Name identifies the filter for logging/CLI flag mapping.
	Name() string
	// Flag is this filter's bit in the preprocessor header.
	Flag() Kind
	// Forward attempts the transform; ok=false means the filter declined
	// (no net benefit) and the caller must not set Flag() or retain out.
	Forward(in []byte) (out []byte, ok bool)
	// Inverse undoes Forward exactly; it is only ever called on bytes
	// this same filter produced.
	Inverse(in []byte) ([]byte, error)
}

// Pipeline runs a fixed, ordered set of filters, matching the fixed
// Dispack/E8E9/DICT/LZP/Delta2 order in spec.md §4.2 step 3.
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds the pipeline for the requested flags; only filters
// named by enabled is constructed, in the spec's fixed order.
func NewPipeline(enableDispack, enableE8E9, enableDICT, enableLZP, enableDelta2 bool, level int) *Pipeline {
	p := &Pipeline{}
	if enableDispack {
		p.filters = append(p.filters, NewDispack())
	}
	if enableE8E9 {
		p.filters = append(p.filters, NewE8E9())
	}
	if enableDICT {
		p.filters = append(p.filters, NewDICT())
	}
	if enableLZP {
		p.filters = append(p.filters, NewLZP(level))
	}
	if enableDelta2 {
		p.filters = append(p.filters, NewDelta2())
	}
	return p
}

// Applied describes one filter that committed during Run, in application
// order, so Invert can undo them in reverse order.
type Applied struct {
	Filter Filter
}

// Run applies every configured filter in order, keeping only the ones
// that reported a net benefit. It returns the final bytes and the
// ordered list of filters that actually committed.
func (p *Pipeline) Run(data []byte) (out []byte, applied []Applied) {
	out = data
	for _, f := range p.filters {
		next, ok := f.Forward(out)
		if !ok {
			continue
		}
		out = next
		applied = append(applied, Applied{Filter: f})
	}
	return out, applied
}

// Invert undoes a list of Applied filters in reverse order, as recorded by
// the preprocessor header's flag bits (the header does not need to store
// ordering since the pipeline order is fixed and filters are commutative
// with themselves only in that fixed order).
func Invert(flags Kind, data []byte, level int) ([]byte, error) {
	// Reverse of the fixed Dispack, E8E9, DICT, LZP, Delta2 order.
	order := []Filter{}
	if flags&FlagDelta2 != 0 {
		order = append(order, NewDelta2())
	}
	if flags&FlagLZP != 0 {
		order = append(order, NewLZP(level))
	}
	if flags&FlagDICT != 0 {
		order = append(order, NewDICT())
	}
	if flags&FlagE8E9 != 0 {
		order = append(order, NewE8E9())
	}
	if flags&FlagDispack != 0 {
		order = append(order, NewDispack())
	}

	var err error
	for _, f := range order {
		data, err = f.Inverse(data)
		if err != nil {
			return nil, fmt.Errorf("preproc: inverse %s: %w", f.Name(), err)
		}
	}
	return data, nil
}
