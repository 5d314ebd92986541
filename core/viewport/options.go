package viewport

import "github.com/google/virtugrid/core/heights"

// Options configures a Body.
type Options struct {
	// RowHeight is the scalar row height used when the height cache is off.
	RowHeight float64
	// Virtualization and ScrollbarV together enable the height cache.
	Virtualization bool
	ScrollbarV     bool
	// ExternalPaging means the rows handed to the body are already the
	// current page.
	ExternalPaging bool
	PageSize       int
	// Buffer is the number of extra rows rendered above and below the
	// viewport.
	Buffer int
}

func defaultOptions() Options {
	return Options{
		RowHeight:      heights.DefaultRowHeight,
		Virtualization: true,
		ScrollbarV:     true,
		PageSize:       25,
	}
}

// Option is used to set options in NewBody.
type Option func(*Options)

// WithRowHeight sets the scalar row height.
func WithRowHeight(h float64) Option {
	return func(o *Options) {
		o.RowHeight = h
	}
}

// WithVirtualization turns the height cache on or off.
func WithVirtualization(on bool) Option {
	return func(o *Options) {
		o.Virtualization = on
	}
}

// WithScrollbarV turns vertical scrolling on or off. Without it the body
// shows one page at a time.
func WithScrollbarV(on bool) Option {
	return func(o *Options) {
		o.ScrollbarV = on
	}
}

// WithExternalPaging marks the row window as server paged.
func WithExternalPaging(on bool) Option {
	return func(o *Options) {
		o.ExternalPaging = on
	}
}

// WithPageSize sets the number of rows per page.
func WithPageSize(n int) Option {
	return func(o *Options) {
		o.PageSize = max(n, 0)
	}
}

// WithBuffer sets how many rows beyond the viewport are rendered.
func WithBuffer(n int) Option {
	return func(o *Options) {
		o.Buffer = max(n, 0)
	}
}
