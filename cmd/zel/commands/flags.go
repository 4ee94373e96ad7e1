package commands

import (
	"errors"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zerr"
)

// tokenValue is a pflag.Value that never prints the token in help output.
type tokenValue struct {
	dst *domain.Token
}

func newTokenValue(dst *domain.Token) *tokenValue {
	return &tokenValue{dst: dst}
}

func (v *tokenValue) String() string {
	if v.dst == nil || *v.dst == "" {
		return ""
	}
	return "****"
}

func (v *tokenValue) Set(s string) error {
	*v.dst = domain.Token(s)
	return nil
}

func (v *tokenValue) Type() string {
	return "string"
}

// sourceValue is a pflag.Value restricted to the declared source kinds.
type sourceValue struct {
	dst *domain.SourceKind
}

func newSourceValue(dst *domain.SourceKind) *sourceValue {
	return &sourceValue{dst: dst}
}

func (v *sourceValue) String() string {
	if v.dst == nil {
		return ""
	}
	return string(*v.dst)
}

func (v *sourceValue) Set(s string) error {
	kind := domain.SourceKind(s)
	if !kind.Known() {
		return errors.Join(domain.ErrInvalidOption, zerr.With(zerr.New("unknown source kind"), "value", s))
	}
	*v.dst = kind
	return nil
}

func (v *sourceValue) Type() string {
	return "kind"
}
