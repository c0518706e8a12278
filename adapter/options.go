package adapter

// Option is a functional option for configuring a Conn, following the
// teacher's client.Option pattern.
type Option func(*Options)

// Options holds Conn configuration (spec.md §6 "Configuration").
type Options struct {
	// FrameSizeLimit bounds a single ordinary (non-literal) frame; zero
	// selects the framing package's default. Literal payloads are exempt.
	FrameSizeLimit int

	// TagPrefix is prepended to every generated command tag.
	TagPrefix string
}

func defaultOptions() Options {
	return Options{
		TagPrefix: "A",
	}
}

// WithFrameSizeLimit sets the ordinary-frame size limit.
func WithFrameSizeLimit(n int) Option {
	return func(o *Options) { o.FrameSizeLimit = n }
}

// WithTagPrefix sets the prefix used when minting command tags.
func WithTagPrefix(prefix string) Option {
	return func(o *Options) { o.TagPrefix = prefix }
}
