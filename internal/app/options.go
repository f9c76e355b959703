package service

import (
	"github.com/okian/root2hdf5/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReader replaces the groot-backed input reader.
func WithReader(r Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithWriter replaces the HDF5 writer.
func WithWriter(w Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithConverter replaces the padding converter.
func WithConverter(c Converter) Option {
	return func(s *Service) {
		if c != nil {
			s.converter = c
		}
	}
}

// WithVerifier sets the check run on every written file; nil disables it.
func WithVerifier(v Verifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}
