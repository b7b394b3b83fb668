package body

// Cache memoizes rendered bodies by their raw dissector text.
type Cache interface {
	Get(raw string) (string, bool)
	Put(raw, rendered string)
}

// Normalizer runs the full body pipeline: decode, mask (JSON only), truncate, render.
type Normalizer struct {
	masker   *Masker
	truncate *TruncateOptions
	cache    Cache
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithTruncate caps array and string sizes in rendered bodies.
func WithTruncate(opts *TruncateOptions) Option {
	return func(n *Normalizer) {
		n.truncate = opts
	}
}

// WithCache memoizes renders. Captures often repeat identical bodies.
func WithCache(c Cache) Option {
	return func(n *Normalizer) {
		n.cache = c
	}
}

// NewNormalizer creates a normalizer. A nil masker disables masking.
func NewNormalizer(m *Masker, opts ...Option) *Normalizer {
	n := &Normalizer{masker: m}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes raw and returns its single-line JSON rendering.
// Text bodies are never masked.
func (n *Normalizer) Normalize(raw string) string {
	if n.cache != nil {
		if rendered, ok := n.cache.Get(raw); ok {
			return rendered
		}
	}

	b := Decode(raw)
	if b.IsJSON() {
		b.Value = Truncate(n.masker.Mask(b.Value), n.truncate)
	} else {
		b.Text = TruncateString(b.Text, n.truncate)
	}
	rendered := Render(b)

	if n.cache != nil {
		n.cache.Put(raw, rendered)
	}
	return rendered
}
