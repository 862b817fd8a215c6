package comicsource

import (
	"log/slog"

	"github.com/hollowleaf/comicsource/credential"
)

// defaultMaxNestedSize bounds how large a nested archive may be before
// extraction to a temporary file is refused.
const defaultMaxNestedSize = 1 << 30

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	password      string
	passwordSet   bool
	phase         PhaseFunc
	creds         credential.Store
	logger        *slog.Logger
	measurer      Measurer
	tempDir       string
	maxNestedSize int64
}

func newOpenOptions(opts []Option) *openOptions {
	o := &openOptions{
		logger:        slog.Default(),
		measurer:      StdMeasurer{},
		maxNestedSize: defaultMaxNestedSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// report invokes the phase sink, if any.
func (o *openOptions) report(p Phase) {
	if o.phase != nil {
		o.phase(p)
	}
}

// WithPassword supplies the password used to decrypt the container.
// It takes precedence over a credential store.
func WithPassword(password string) Option {
	return func(o *openOptions) {
		o.password = password
		o.passwordSet = true
	}
}

// WithPhaseFunc installs a callback invoked with phase transitions
// during the open. See PhaseFunc for ordering guarantees.
func WithPhaseFunc(fn PhaseFunc) Option {
	return func(o *openOptions) {
		o.phase = fn
	}
}

// WithCredentials installs a credential store consulted for a saved
// password when none is supplied explicitly. A password that opens the
// container is saved back; a stored password that fails is deleted.
func WithCredentials(s credential.Store) Option {
	return func(o *openOptions) {
		o.creds = s
	}
}

// WithLogger sets the logger used for non-fatal skip decisions.
// The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeasurer replaces the decoder used to measure image dimensions.
func WithMeasurer(m Measurer) Option {
	return func(o *openOptions) {
		if m != nil {
			o.measurer = m
		}
	}
}

// WithTempDir sets the directory for nested-archive temporary files.
// The default is the system temporary directory.
func WithTempDir(dir string) Option {
	return func(o *openOptions) {
		o.tempDir = dir
	}
}

// WithMaxNestedSize limits the uncompressed size of a nested archive that
// will be extracted to disk. Oversized nested archives are skipped, not
// fatal. Set limit to 0 to disable the limit.
func WithMaxNestedSize(limit int64) Option {
	return func(o *openOptions) {
		o.maxNestedSize = limit
	}
}
